package tooldb

import (
	"fmt"
	"math"

	"github.com/apex/log"
	"github.com/pkg/errors"

	"github.com/hzeller/tooldb/feeds"
)

// Property groups and names the tool factory knows about.
const (
	CuttingGroup = "Cutting"

	PropDiameter     = "Diameter"
	PropFlutes       = "Flutes"
	PropMaterial     = "Material"
	PropChipload     = "Chipload"
	PropSpindleSpeed = "SpindleSpeed"
	PropFeedRate     = "FeedRate"
)

// ShapeIntrospector resolves a shape name to its definition file and reads
// the parameter schema out of it.
type ShapeIntrospector interface {
	ShapeFile(shape string) (string, error)
	Properties(file string) ([]Property, error)
}

// ParamSupplier provides the label and parameter values of a tool being
// created. A nil value leaves the parameter unset.
type ParamSupplier interface {
	Label(shape string) (string, error)
	Value(p Property) (any, error)
}

// DefaultSupplier accepts every default without asking.
type DefaultSupplier struct{}

func (DefaultSupplier) Label(shape string) (string, error) {
	return "New " + shape, nil
}

func (DefaultSupplier) Value(p Property) (any, error) {
	return p.Default, nil
}

// ToolFactory creates tools from a shape's schema. If Feeds and Material
// are set, the cutting parameters default to the engine's recommendation
// for that workpiece material.
type ToolFactory struct {
	Shapes   ShapeIntrospector
	Supplier ParamSupplier
	Feeds    *feeds.Engine
	Material string // workpiece material key
}

func (f *ToolFactory) schema(shapeName string) ([]Property, error) {
	file, err := f.Shapes.ShapeFile(shapeName)
	if err != nil {
		return nil, introspectionError(err, shapeName)
	}
	props, err := f.Shapes.Properties(file)
	if err != nil {
		return nil, introspectionError(err, shapeName)
	}
	return props, nil
}

func introspectionError(err error, shapeName string) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDependencyUnavailable) {
		return err
	}
	return fmt.Errorf("%w: shape %q: %v", ErrDependencyUnavailable, shapeName, err)
}

// Create asks the supplier for the label and every property of the shape,
// then validates the result with NewTool. The returned tool is not owned
// by any library yet.
func (f *ToolFactory) Create(shapeName string) (*Tool, error) {
	props, err := f.schema(shapeName)
	if err != nil {
		return nil, err
	}
	label, err := f.Supplier.Label(shapeName)
	if err != nil {
		return nil, err
	}

	params := make(Params)
	var cutting []Property
	for _, p := range props {
		if p.Group == CuttingGroup {
			cutting = append(cutting, p)
			continue
		}
		if err := f.supply(params, p); err != nil {
			return nil, err
		}
	}

	if len(cutting) > 0 && f.Feeds != nil && f.Material != "" {
		rec, err := f.recommend(shapeName, params)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{
			"material": rec.Material,
			"rpm":      rec.SpindleSpeed,
			"feed":     rec.FeedRate,
		}).Debug("Cutting defaults")
		for i := range cutting {
			switch cutting[i].Name {
			case PropChipload:
				cutting[i].Default = rec.ChiploadMM
			case PropSpindleSpeed:
				cutting[i].Default = int64(math.Round(rec.SpindleSpeed.Min))
			case PropFeedRate:
				cutting[i].Default = rec.FeedRate.Min
			}
		}
	}
	for _, p := range cutting {
		if err := f.supply(params, p); err != nil {
			return nil, err
		}
	}
	return NewTool(label, &Shape{Name: shapeName, Properties: props}, params)
}

func (f *ToolFactory) supply(params Params, p Property) error {
	v, err := f.Supplier.Value(p)
	if err != nil {
		return err
	}
	if v != nil {
		params[p.Name] = v
	}
	return nil
}

// recommend runs the engine on the geometry collected so far.
func (f *ToolFactory) recommend(shapeName string, params Params) (*feeds.Recommendation, error) {
	diameter, err := params.Length(PropDiameter)
	if err != nil {
		return nil, err
	}
	flutes := int64(1)
	if _, ok := params[PropFlutes]; ok {
		if flutes, err = params.Int(PropFlutes); err != nil {
			return nil, err
		}
	}
	toolMaterial := feeds.Carbide
	if v, ok := params[PropMaterial]; ok {
		if toolMaterial, err = feeds.ParseToolMaterial(fmt.Sprint(v)); err != nil {
			return nil, &ValidationError{Field: PropMaterial, Reason: err.Error()}
		}
	}
	op := feeds.Milling
	if shapeName == "drill" {
		op = feeds.Drilling
	}
	return f.Feeds.Recommend(feeds.Query{
		Material:     f.Material,
		ToolMaterial: toolMaterial,
		Operation:    op,
		DiameterMM:   diameter,
		Flutes:       int(flutes),
	})
}
