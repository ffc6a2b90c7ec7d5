package tooldb

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Params maps a shape property name to its value. Values are one of
// string, float64, int64 or bool.
type Params map[string]any

func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Length returns a length parameter in mm. Accepts plain numbers (mm) and
// strings like "6.00 mm", "0.25 in" or `0.25"`.
func (p Params) Length(name string) (float64, error) {
	v, ok := p[name]
	if !ok {
		return 0, &ValidationError{Field: name, Reason: "missing"}
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case string:
		return ParseLength(x)
	}
	return 0, &ValidationError{Field: name, Reason: fmt.Sprintf("not a length: %v", v)}
}

// Int returns an integer parameter; numeric strings are accepted.
func (p Params) Int(name string) (int64, error) {
	v, ok := p[name]
	if !ok {
		return 0, &ValidationError{Field: name, Reason: "missing"}
	}
	switch x := v.(type) {
	case int64:
		return x, nil
	case float64:
		if x == math.Trunc(x) {
			return int64(x), nil
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, &ValidationError{Field: name, Reason: fmt.Sprintf("not an integer: %v", v)}
}

// ParseLength parses a length with an optional unit into mm.
func ParseLength(s string) (float64, error) {
	s = strings.TrimSpace(s)
	factor := 1.0
	switch {
	case strings.HasSuffix(s, "mm"):
		s = strings.TrimSuffix(s, "mm")
	case strings.HasSuffix(s, "in"):
		s, factor = strings.TrimSuffix(s, "in"), 25.4
	case strings.HasSuffix(s, `"`):
		s, factor = strings.TrimSuffix(s, `"`), 25.4
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &ValidationError{Reason: fmt.Sprintf("not a length: %q", s)}
	}
	return f * factor, nil
}

// NormalizeValue maps a decoded parameter value onto one of the supported
// kinds. Serializers use it on whatever their decoder produced.
func NormalizeValue(v any) (any, error) {
	switch x := v.(type) {
	case string, bool, int64:
		return x, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("non-finite number %v", x)
		}
		return x, nil
	case float32:
		return NormalizeValue(float64(x))
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d out of range", x)
		}
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint:
		return NormalizeValue(uint64(x))
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

// Property is one entry of a shape's parameter schema.
type Property struct {
	Group   string
	Name    string
	Default any
	Unit    string
	// Enum lists the allowed values; nil if any value is accepted.
	Enum []string
}

func (p Property) Allows(v any) bool {
	if len(p.Enum) == 0 {
		return true
	}
	s := fmt.Sprint(v)
	for _, allowed := range p.Enum {
		if s == allowed {
			return true
		}
	}
	return false
}

// Coerce converts user input into the kind of the property's default
// value.
func (p Property) Coerce(input string) (any, error) {
	input = strings.TrimSpace(input)
	var (
		v   any
		err error
	)
	switch p.Default.(type) {
	case float64:
		v, err = ParseLength(input)
	case int64:
		v, err = strconv.ParseInt(input, 10, 64)
	case bool:
		v, err = strconv.ParseBool(input)
	default:
		v = input
	}
	if err != nil {
		return nil, &ValidationError{Field: p.Name, Reason: fmt.Sprintf("can't use %q", input)}
	}
	if !p.Allows(v) {
		return nil, &ValidationError{Field: p.Name,
			Reason: fmt.Sprintf("%q is not one of %s", input, strings.Join(p.Enum, ", "))}
	}
	return v, nil
}

// Shape names a tool geometry. Properties is the parameter schema; it is
// nil when the schema is not known, e.g. for tools read from storage.
type Shape struct {
	Name       string
	Properties []Property
}

func (s *Shape) property(name string) (Property, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Tool is one physical cutting tool. It is owned by exactly one library of
// a ToolDB.
type Tool struct {
	ID     string
	Label  string
	Shape  string
	Params Params
}

// NewTool creates a tool with a fresh ID after validating label and
// parameters against the shape's schema.
func NewTool(label string, shape *Shape, params Params) (*Tool, error) {
	if shape == nil || shape.Name == "" {
		return nil, &ValidationError{Field: "shape", Reason: "missing"}
	}
	normalized := make(Params, len(params))
	for name, v := range params {
		nv, err := NormalizeValue(v)
		if err != nil {
			return nil, &ValidationError{Field: name, Reason: err.Error()}
		}
		normalized[name] = nv
	}
	t := &Tool{
		ID:     uuid.NewString(),
		Label:  label,
		Shape:  shape.Name,
		Params: normalized,
	}
	if err := t.Validate(shape.Properties); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the tool's fields. If schema is non-nil, every parameter
// must be declared by it and enum parameters must use an allowed value.
func (t *Tool) Validate(schema []Property) error {
	if t.ID == "" {
		return &ValidationError{Field: "id", Reason: "missing"}
	}
	if strings.TrimSpace(t.Label) == "" {
		return &ValidationError{Field: "label", Reason: "must not be empty"}
	}
	if t.Shape == "" {
		return &ValidationError{Field: "shape", Reason: "missing"}
	}
	shape := &Shape{Name: t.Shape, Properties: schema}
	for _, name := range t.Params.Names() {
		v := t.Params[name]
		if _, err := NormalizeValue(v); err != nil {
			return &ValidationError{Field: name, Reason: err.Error()}
		}
		if schema == nil {
			continue
		}
		prop, ok := shape.property(name)
		if !ok {
			return &ValidationError{Field: name, Reason: "not a property of shape " + t.Shape}
		}
		if !prop.Allows(v) {
			return &ValidationError{Field: name,
				Reason: fmt.Sprintf("%v is not one of %s", v, strings.Join(prop.Enum, ", "))}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (t *Tool) Clone() *Tool {
	c := *t
	c.Params = t.Params.Clone()
	return &c
}

func (t *Tool) String() string {
	var params []string
	for _, name := range t.Params.Names() {
		params = append(params, fmt.Sprintf("%s=%v", name, t.Params[name]))
	}
	return fmt.Sprintf("<Tool %q %s id=%s %s>", t.Label, t.Shape, t.ID, strings.Join(params, " "))
}
