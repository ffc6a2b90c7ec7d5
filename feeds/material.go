package feeds

import "fmt"

// MetricPowerFactor converts a Machinery's Handbook power factor
// (in³ * fac = HP) into kW per mm³/s of removed material:
// mm³ * 0.0610237 * fac * 0.745699872 = kW.
const MetricPowerFactor = 0.04550260618944

// Range is a closed [Min, Max] interval.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

func (r Range) Scale(f float64) Range {
	return Range{Min: r.Min * f, Max: r.Max * f}
}

func (r Range) String() string {
	return fmt.Sprintf("%.0f-%.0f", r.Min, r.Max)
}

type EntryKind int

const (
	// KindExplicit entries carry a measured surface speed range.
	KindExplicit EntryKind = iota
	// KindDeriveFromMilling entries are estimated from the MILLING range.
	KindDeriveFromMilling
)

// SpeedEntry is one operation's row in a speed table: either an explicit
// surface speed range in m/min, or a marker to derive it from milling.
type SpeedEntry struct {
	Kind  EntryKind
	Range Range
}

func Explicit(min, max float64) SpeedEntry {
	return SpeedEntry{Kind: KindExplicit, Range: Range{Min: min, Max: max}}
}

func DeriveFromMilling() SpeedEntry {
	return SpeedEntry{Kind: KindDeriveFromMilling}
}

func (e SpeedEntry) IsExplicit() bool {
	return e.Kind == KindExplicit
}

// Cutting holds the data for one tool-material class.
// Chipload is DIAMETER / ChiploadDivisor.
type Cutting struct {
	ChiploadDivisor float64
	Speeds          map[Operation]SpeedEntry
}

func (c Cutting) clone() Cutting {
	speeds := make(map[Operation]SpeedEntry, len(c.Speeds))
	for op, e := range c.Speeds {
		speeds[op] = e
	}
	return Cutting{ChiploadDivisor: c.ChiploadDivisor, Speeds: speeds}
}

// Material is a machinable material.
type Material struct {
	Key  string
	Name string
	// PowerFactor in kW per mm³/s of removed material.
	PowerFactor float64
	Cutting     map[ToolMaterial]Cutting
}

func (m Material) clone() Material {
	c := m
	c.Cutting = make(map[ToolMaterial]Cutting, len(m.Cutting))
	for tm, cut := range m.Cutting {
		c.Cutting[tm] = cut.clone()
	}
	return c
}

func (m Material) validate() error {
	if m.Key == "" {
		return fmt.Errorf("%w: material without key", ErrMalformedData)
	}
	if m.PowerFactor < 0 {
		return fmt.Errorf("%w: %s: negative power factor", ErrMalformedData, m.Key)
	}
	for _, tm := range toolMaterials {
		cut, ok := m.Cutting[tm]
		if !ok {
			return fmt.Errorf("%w: %s: no %s data", ErrMalformedData, m.Key, tm)
		}
		if cut.ChiploadDivisor <= 0 {
			return fmt.Errorf("%w: %s: %s chipload divisor must be positive",
				ErrMalformedData, m.Key, tm)
		}
		milling, ok := cut.Speeds[Milling]
		if !ok || !milling.IsExplicit() {
			return fmt.Errorf("%w: %s: %s needs an explicit milling speed",
				ErrMalformedData, m.Key, tm)
		}
		for op, e := range cut.Speeds {
			if !e.IsExplicit() {
				continue
			}
			if e.Range.Min <= 0 || e.Range.Min > e.Range.Max {
				return fmt.Errorf("%w: %s: %s %s speed range %v",
					ErrMalformedData, m.Key, tm, op, e.Range)
			}
		}
	}
	return nil
}
