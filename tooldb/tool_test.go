package tooldb

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var endmillSchema = []Property{
	{Group: "Shape", Name: "Diameter", Default: 6.0, Unit: "mm"},
	{Group: "Shape", Name: "Flutes", Default: int64(2)},
	{Group: "Attributes", Name: "Material", Default: "HSS", Enum: []string{"HSS", "Carbide"}},
	{Group: "Attributes", Name: "Coated", Default: false},
	{Group: CuttingGroup, Name: "Chipload", Default: 0.0, Unit: "mm"},
	{Group: CuttingGroup, Name: "SpindleSpeed", Default: int64(0), Unit: "rpm"},
	{Group: CuttingGroup, Name: "FeedRate", Default: 0.0, Unit: "mm/min"},
}

func TestNewTool(t *testing.T) {
	shape := &Shape{Name: "endmill", Properties: endmillSchema}
	tool, err := NewTool("6mm endmill", shape, Params{
		"Diameter": 6.0,
		"Flutes":   3,
		"Material": "Carbide",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tool.ID)
	assert.Equal(t, "endmill", tool.Shape)
	assert.Equal(t, int64(3), tool.Params["Flutes"])

	other, err := NewTool("6mm endmill", shape, nil)
	require.NoError(t, err)
	assert.NotEqual(t, tool.ID, other.ID)
}

func TestNewToolValidation(t *testing.T) {
	shape := &Shape{Name: "endmill", Properties: endmillSchema}
	tests := []struct {
		name   string
		label  string
		shape  *Shape
		params Params
		field  string
	}{
		{"empty label", "", shape, nil, "label"},
		{"no shape", "x", nil, nil, "shape"},
		{"undeclared parameter", "x", shape, Params{"Length": 50.0}, "Length"},
		{"enum violation", "x", shape, Params{"Material": "Cobalt"}, "Material"},
		{"unsupported kind", "x", shape, Params{"Diameter": []float64{6}}, "Diameter"},
		{"not finite", "x", shape, Params{"Diameter": math.Inf(1)}, "Diameter"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTool(tc.label, tc.shape, tc.params)
			require.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestNewToolWithoutSchema(t *testing.T) {
	// Shape files that couldn't be introspected impose no schema.
	tool, err := NewTool("odd one", &Shape{Name: "custom.fcstd"}, Params{"Anything": "goes"})
	require.NoError(t, err)
	assert.Equal(t, "goes", tool.Params["Anything"])
}

func TestParseLength(t *testing.T) {
	for input, want := range map[string]float64{
		"6":        6,
		"6mm":      6,
		"6.00 mm":  6,
		"0.25in":   6.35,
		"0.25 in":  6.35,
		`1"`:       25.4,
		" 3.175 ":  3.175,
		"-1.5 mm":  -1.5,
		"1e1":      10,
		"0.125 in": 3.175,
	} {
		got, err := ParseLength(input)
		require.NoError(t, err, input)
		assert.InDelta(t, want, got, 1e-9, input)
	}
	_, err := ParseLength("six")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParams(t *testing.T) {
	p := Params{"Diameter": "0.25 in", "Flutes": "4", "Length": int64(50), "Angle": 90.5}
	d, err := p.Length("Diameter")
	require.NoError(t, err)
	assert.InDelta(t, 6.35, d, 1e-9)
	l, err := p.Length("Length")
	require.NoError(t, err)
	assert.Equal(t, 50.0, l)

	n, err := p.Int("Flutes")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	_, err = p.Int("Angle")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = p.Int("Missing")
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, []string{"Angle", "Diameter", "Flutes", "Length"}, p.Names())
	c := p.Clone()
	c["Angle"] = 60.0
	assert.Equal(t, 90.5, p["Angle"])
}

func TestPropertyCoerce(t *testing.T) {
	byName := make(map[string]Property)
	for _, p := range endmillSchema {
		byName[p.Name] = p
	}
	v, err := byName["Diameter"].Coerce("0.25in")
	require.NoError(t, err)
	assert.InDelta(t, 6.35, v, 1e-9)

	v, err = byName["Flutes"].Coerce(" 4 ")
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)

	v, err = byName["Coated"].Coerce("true")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = byName["Material"].Coerce("Carbide")
	require.NoError(t, err)
	assert.Equal(t, "Carbide", v)

	_, err = byName["Material"].Coerce("Cobalt")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = byName["Flutes"].Coerce("2.5")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNormalizeValue(t *testing.T) {
	for _, tc := range []struct {
		in, want any
	}{
		{int(3), int64(3)},
		{int32(3), int64(3)},
		{uint32(3), int64(3)},
		{uint64(3), int64(3)},
		{float32(0.5), 0.5},
		{"x", "x"},
		{true, true},
	} {
		got, err := NormalizeValue(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
	for _, bad := range []any{uint64(math.MaxUint64), math.NaN(), nil, struct{}{}} {
		_, err := NormalizeValue(bad)
		assert.Error(t, err, "%v", bad)
	}
}
