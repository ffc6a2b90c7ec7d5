package feeds

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Material resource file layout:
//
//	materials:
//	  - key: Aluminium6061
//	    name: Aluminium Alloy (e.g. 6061)
//	    handbook_power_factor: 0.33
//	    hss:
//	      chipload_divisor: 160
//	      speeds:
//	        milling: [152, 182]
//	        slotting: derive         # or [null, null]
//	        drilling: [106, 122]
//	    carbide:
//	      ...
//
// The handbook power factor is the imperial "in³ * fac = HP" figure; it
// gets converted with MetricPowerFactor.
type materialFile struct {
	Materials []materialDoc `yaml:"materials"`
}

type materialDoc struct {
	Key         string     `yaml:"key"`
	Name        string     `yaml:"name"`
	PowerFactor float64    `yaml:"handbook_power_factor"`
	HSS         cuttingDoc `yaml:"hss"`
	Carbide     cuttingDoc `yaml:"carbide"`
}

type cuttingDoc struct {
	ChiploadDivisor float64             `yaml:"chipload_divisor"`
	Speeds          map[string]speedDoc `yaml:"speeds"`
}

// speedDoc is either the word "derive" or a [min, max] pair, where
// [null, null] also means derive.
type speedDoc struct {
	derive bool
	bounds []*float64
}

func (s *speedDoc) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		if value.Value != "derive" {
			return fmt.Errorf("line %d: want [min, max] or derive, got %q", value.Line, value.Value)
		}
		s.derive = true
		return nil
	}
	return value.Decode(&s.bounds)
}

func (d cuttingDoc) cutting(key string, tm ToolMaterial) (Cutting, error) {
	cut := Cutting{
		ChiploadDivisor: d.ChiploadDivisor,
		Speeds:          make(map[Operation]SpeedEntry, len(d.Speeds)),
	}
	for name, speed := range d.Speeds {
		op, err := ParseOperation(name)
		if err != nil {
			return cut, fmt.Errorf("%w: %s: %s: unknown operation %q",
				ErrMalformedData, key, tm, name)
		}
		if speed.derive {
			cut.Speeds[op] = DeriveFromMilling()
			continue
		}
		bounds := speed.bounds
		if len(bounds) != 2 {
			return cut, fmt.Errorf("%w: %s: %s %s: want [min, max]",
				ErrMalformedData, key, tm, op)
		}
		switch {
		case bounds[0] == nil && bounds[1] == nil:
			cut.Speeds[op] = DeriveFromMilling()
		case bounds[0] == nil || bounds[1] == nil:
			return cut, fmt.Errorf("%w: %s: %s %s: half-specified range",
				ErrMalformedData, key, tm, op)
		default:
			cut.Speeds[op] = Explicit(*bounds[0], *bounds[1])
		}
	}
	return cut, nil
}

// LoadCatalog reads a material resource file. Like NewCatalog it fails
// with ErrMalformedData on any material lacking mandatory data.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var doc materialFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	materials := make([]Material, 0, len(doc.Materials))
	for _, md := range doc.Materials {
		hss, err := md.HSS.cutting(md.Key, HSS)
		if err != nil {
			return nil, err
		}
		carbide, err := md.Carbide.cutting(md.Key, Carbide)
		if err != nil {
			return nil, err
		}
		materials = append(materials, Material{
			Key:         md.Key,
			Name:        md.Name,
			PowerFactor: md.PowerFactor * MetricPowerFactor,
			Cutting: map[ToolMaterial]Cutting{
				HSS:     hss,
				Carbide: carbide,
			},
		})
	}
	return NewCatalog(materials...)
}
