package tooldb

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hzeller/tooldb/feeds"
)

// fakeShapes serves schemas from memory; the shape file is "<name>.yaml".
type fakeShapes struct {
	schemas map[string][]Property
	err     error
}

func (s *fakeShapes) ShapeFile(shape string) (string, error) {
	if _, ok := s.schemas[shape]; !ok {
		return "", fmt.Errorf("%w: shape %q", ErrNotFound, shape)
	}
	return shape + ".yaml", nil
}

func (s *fakeShapes) Properties(file string) ([]Property, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.schemas[strings.TrimSuffix(file, ".yaml")], nil
}

// scriptedSupplier answers from a map and falls back to the default.
type scriptedSupplier struct {
	label  string
	values map[string]any
	asked  []string
}

func (s *scriptedSupplier) Label(string) (string, error) {
	return s.label, nil
}

func (s *scriptedSupplier) Value(p Property) (any, error) {
	s.asked = append(s.asked, p.Name)
	if v, ok := s.values[p.Name]; ok {
		return v, nil
	}
	return p.Default, nil
}

func testShapes() *fakeShapes {
	return &fakeShapes{schemas: map[string][]Property{
		"endmill": endmillSchema,
		"drill":   endmillSchema,
	}}
}

func TestCreateWithDefaults(t *testing.T) {
	f := &ToolFactory{Shapes: testShapes(), Supplier: DefaultSupplier{}}
	tool, err := f.Create("endmill")
	require.NoError(t, err)
	assert.Equal(t, "New endmill", tool.Label)
	assert.Equal(t, "endmill", tool.Shape)
	assert.Equal(t, Params{
		"Diameter":     6.0,
		"Flutes":       int64(2),
		"Material":     "HSS",
		"Coated":       false,
		"Chipload":     0.0,
		"SpindleSpeed": int64(0),
		"FeedRate":     0.0,
	}, tool.Params)
}

func TestCreateComputesCuttingDefaults(t *testing.T) {
	supplier := &scriptedSupplier{label: "6mm endmill", values: map[string]any{"Material": "Carbide"}}
	f := &ToolFactory{
		Shapes:   testShapes(),
		Supplier: supplier,
		Feeds:    feeds.NewEngine(feeds.DefaultCatalog()),
		Material: "Aluminium6061",
	}
	tool, err := f.Create("endmill")
	require.NoError(t, err)

	// 640 m/min on a 6mm carbide cutter, chipload 6/80.
	assert.InDelta(t, 0.075, tool.Params["Chipload"], 1e-12)
	assert.Equal(t, int64(33953), tool.Params["SpindleSpeed"])
	assert.InDelta(t, 5093.0, tool.Params["FeedRate"], 0.1)
	// Geometry is asked for before the cutting parameters.
	assert.Equal(t, []string{"Diameter", "Flutes", "Material", "Coated",
		"Chipload", "SpindleSpeed", "FeedRate"}, supplier.asked)
}

func TestCreateSupplierOverridesComputedDefaults(t *testing.T) {
	supplier := &scriptedSupplier{label: "slow", values: map[string]any{"SpindleSpeed": int64(12000)}}
	f := &ToolFactory{
		Shapes:   testShapes(),
		Supplier: supplier,
		Feeds:    feeds.NewEngine(feeds.DefaultCatalog()),
		Material: "Aluminium6061",
	}
	tool, err := f.Create("endmill")
	require.NoError(t, err)
	assert.Equal(t, int64(12000), tool.Params["SpindleSpeed"])
	assert.InDelta(t, 6.0/160, tool.Params["Chipload"], 1e-12) // HSS divisor
}

func TestCreateDrillUsesDrillingData(t *testing.T) {
	f := &ToolFactory{
		Shapes:   testShapes(),
		Supplier: DefaultSupplier{},
		Feeds:    feeds.NewEngine(feeds.DefaultCatalog()),
		Material: "Aluminium6061",
	}
	tool, err := f.Create("drill")
	require.NoError(t, err)
	// HSS drilling at 106 m/min.
	assert.Equal(t, int64(5623), tool.Params["SpindleSpeed"])
}

func TestCreateErrors(t *testing.T) {
	engine := feeds.NewEngine(feeds.DefaultCatalog())

	_, err := (&ToolFactory{Shapes: testShapes(), Supplier: DefaultSupplier{}}).Create("ballend")
	assert.ErrorIs(t, err, ErrNotFound)

	broken := testShapes()
	broken.err = fmt.Errorf("no CAD kernel")
	_, err = (&ToolFactory{Shapes: broken, Supplier: DefaultSupplier{}}).Create("endmill")
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
	assert.Contains(t, err.Error(), "no CAD kernel")

	_, err = (&ToolFactory{Shapes: testShapes(), Supplier: DefaultSupplier{},
		Feeds: engine, Material: "Unobtainium"}).Create("endmill")
	assert.ErrorIs(t, err, feeds.ErrNotFound)

	supplier := &scriptedSupplier{label: "x", values: map[string]any{"Material": "Cobalt"}}
	_, err = (&ToolFactory{Shapes: testShapes(), Supplier: supplier,
		Feeds: engine, Material: "Aluminium6061"}).Create("endmill")
	assert.ErrorIs(t, err, ErrValidation)

	supplier = &scriptedSupplier{label: "", values: nil}
	_, err = (&ToolFactory{Shapes: testShapes(), Supplier: supplier}).Create("endmill")
	assert.ErrorIs(t, err, ErrValidation)
}
