package feeds

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// DefaultSlottingRatio scales a material's milling speed range into a
// slotting estimate when the table has no slotting data. Full-width
// engagement runs slower than side milling; the sourced carbide tables
// put slotting at roughly two thirds of milling (e.g. 6061: 425/640,
// 7075: 270/400, copper: 185/280).
const DefaultSlottingRatio = 0.66

// Query describes one cutting situation.
type Query struct {
	Material     string
	ToolMaterial ToolMaterial
	Operation    Operation
	DiameterMM   float64
	// Flutes is the number of cutting edges of the tool.
	Flutes int
	// RemovalRate in mm³/s. Optional; zero leaves the power estimate at 0.
	RemovalRate float64
}

// Recommendation is the derived set of cutting parameters. All ranges are
// carried as [Min, Max] so the caller can pick a point in the envelope.
type Recommendation struct {
	Material     string       `json:"material"`
	ToolMaterial ToolMaterial `json:"tool_material"`
	Operation    Operation    `json:"operation"`
	DiameterMM   float64      `json:"diameter_mm"`
	Flutes       int          `json:"flutes"`

	ChiploadMM   float64 `json:"chipload_mm"`
	SurfaceSpeed Range   `json:"surface_speed_m_per_min"`
	SpindleSpeed Range   `json:"spindle_speed_rpm"`
	FeedRate     Range   `json:"feed_rate_mm_per_min"`

	PowerFactor      float64 `json:"power_factor"`
	EstimatedPowerKW float64 `json:"estimated_power_kw"`

	// Derived is set if the surface speed was estimated from milling
	// instead of coming from the material table.
	Derived bool `json:"derived"`
}

// Power returns the cutting power in kW for a material removal rate
// given in mm³/s.
func (r *Recommendation) Power(removalRate float64) float64 {
	return r.PowerFactor * removalRate
}

type Option func(*Engine)

// WithSlottingRatio overrides DefaultSlottingRatio.
func WithSlottingRatio(ratio float64) Option {
	return func(e *Engine) {
		e.slottingRatio = ratio
	}
}

// Engine derives cutting parameters from a material catalog. It holds no
// mutable state.
type Engine struct {
	catalog       *Catalog
	slottingRatio float64
}

func NewEngine(catalog *Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:       catalog,
		slottingRatio: DefaultSlottingRatio,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

func (e *Engine) SlottingRatio() float64 {
	return e.slottingRatio
}

// SurfaceSpeed returns the surface speed range in m/min for the given
// combination, and whether it had to be estimated.
func (e *Engine) SurfaceSpeed(m Material, tm ToolMaterial, op Operation) (Range, bool, error) {
	cut, ok := m.Cutting[tm]
	if !ok {
		return Range{}, false, errors.Wrapf(ErrNotFound, "%s: tool material %q", m.Key, tm)
	}
	entry, ok := cut.Speeds[op]
	if ok && entry.IsExplicit() {
		return entry.Range, false, nil
	}
	if op != Slotting {
		// Only slotting may be estimated. A DeriveFromMilling marker on
		// any other operation is treated as absent data.
		return Range{}, false, &MissingDataError{Material: m.Key, Operation: op, ToolMaterial: tm}
	}
	milling, ok := cut.Speeds[Milling]
	if !ok || !milling.IsExplicit() {
		return Range{}, false, &MissingDataError{Material: m.Key, Operation: Milling, ToolMaterial: tm}
	}
	return milling.Range.Scale(e.slottingRatio), true, nil
}

// Recommend derives chipload, surface speed, spindle speed, feed rate and
// power for a query.
func (e *Engine) Recommend(q Query) (*Recommendation, error) {
	if q.DiameterMM <= 0 || math.IsNaN(q.DiameterMM) || math.IsInf(q.DiameterMM, 0) {
		return nil, fmt.Errorf("%w: tool diameter %v mm", ErrInvalidQuery, q.DiameterMM)
	}
	if q.Flutes < 1 {
		return nil, fmt.Errorf("%w: %d flutes", ErrInvalidQuery, q.Flutes)
	}
	if q.RemovalRate < 0 {
		return nil, fmt.Errorf("%w: negative removal rate", ErrInvalidQuery)
	}
	m, err := e.catalog.Lookup(q.Material)
	if err != nil {
		return nil, err
	}
	cut, ok := m.Cutting[q.ToolMaterial]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "tool material %q", q.ToolMaterial)
	}
	speed, derived, err := e.SurfaceSpeed(m, q.ToolMaterial, q.Operation)
	if err != nil {
		return nil, err
	}

	chipload := q.DiameterMM / cut.ChiploadDivisor
	rpm := Range{
		Min: SpindleSpeed(speed.Min, q.DiameterMM),
		Max: SpindleSpeed(speed.Max, q.DiameterMM),
	}
	feed := Range{
		Min: rpm.Min * chipload * float64(q.Flutes),
		Max: rpm.Max * chipload * float64(q.Flutes),
	}
	return &Recommendation{
		Material:         m.Key,
		ToolMaterial:     q.ToolMaterial,
		Operation:        q.Operation,
		DiameterMM:       q.DiameterMM,
		Flutes:           q.Flutes,
		ChiploadMM:       chipload,
		SurfaceSpeed:     speed,
		SpindleSpeed:     rpm,
		FeedRate:         feed,
		PowerFactor:      m.PowerFactor,
		EstimatedPowerKW: m.PowerFactor * q.RemovalRate,
		Derived:          derived,
	}, nil
}

// SpindleSpeed converts a surface speed in m/min into rpm for the given
// tool diameter in mm.
func SpindleSpeed(surfaceSpeed, diameterMM float64) float64 {
	return surfaceSpeed * 1000 / (math.Pi * diameterMM)
}
