// Package shape knows the parameter schemas of the built-in tool shapes.
// Shapes defined by FreeCAD shape files (.fcstd) can only be read with
// FreeCAD itself, which this package doesn't use.
package shape

import (
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hzeller/tooldb/tooldb"
)

// builtinPrefix marks the pseudo file of a built-in shape.
const builtinPrefix = "builtin:"

//go:embed shapes.yaml
var shapesYAML []byte

type yamlProperty struct {
	Group   string   `yaml:"group"`
	Name    string   `yaml:"name"`
	Default any      `yaml:"default"`
	Unit    string   `yaml:"unit"`
	Enum    []string `yaml:"enum"`
}

type yamlTable struct {
	Common []yamlProperty            `yaml:"common"`
	Shapes map[string][]yamlProperty `yaml:"shapes"`
}

// Table maps shape names to their property schema. It implements
// tooldb.ShapeIntrospector.
type Table struct {
	shapes map[string][]tooldb.Property
}

// Load reads a shape table from YAML.
func Load(r io.Reader) (*Table, error) {
	var raw yamlTable
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(tooldb.ErrFormat, err.Error())
	}
	common, err := convert(raw.Common)
	if err != nil {
		return nil, err
	}
	t := &Table{shapes: make(map[string][]tooldb.Property)}
	for name, props := range raw.Shapes {
		own, err := convert(props)
		if err != nil {
			return nil, errors.Wrapf(err, "shape %s", name)
		}
		t.shapes[name] = append(own, common...)
	}
	return t, nil
}

func convert(raw []yamlProperty) ([]tooldb.Property, error) {
	result := make([]tooldb.Property, 0, len(raw))
	seen := make(map[string]bool)
	for _, rp := range raw {
		if rp.Name == "" || seen[rp.Name] {
			return nil, errors.Wrapf(tooldb.ErrFormat, "bad or duplicate property %q", rp.Name)
		}
		seen[rp.Name] = true
		def, err := tooldb.NormalizeValue(rp.Default)
		if err != nil {
			return nil, errors.Wrapf(tooldb.ErrFormat, "property %s: %v", rp.Name, err)
		}
		p := tooldb.Property{Group: rp.Group, Name: rp.Name, Default: def, Unit: rp.Unit, Enum: rp.Enum}
		if !p.Allows(def) {
			return nil, errors.Wrapf(tooldb.ErrFormat, "property %s: default %v not allowed", rp.Name, def)
		}
		result = append(result, p)
	}
	return result, nil
}

var (
	builtinOnce  sync.Once
	builtinTable *Table
)

// Builtin returns the table of built-in shapes.
func Builtin() *Table {
	builtinOnce.Do(func() {
		t, err := Load(strings.NewReader(string(shapesYAML)))
		if err != nil {
			panic(fmt.Sprintf("built-in shape table: %v", err))
		}
		builtinTable = t
	})
	return builtinTable
}

// Names returns the shape names, sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.shapes))
	for name := range t.shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isShapeFile(s string) bool {
	return strings.HasSuffix(strings.ToLower(s), ".fcstd")
}

// ShapeFile resolves a shape name. A path to a shape file is returned as
// is.
func (t *Table) ShapeFile(shape string) (string, error) {
	if isShapeFile(shape) {
		return shape, nil
	}
	if _, ok := t.shapes[shape]; !ok {
		return "", fmt.Errorf("%w: shape %q (known: %s)", tooldb.ErrNotFound,
			shape, strings.Join(t.Names(), ", "))
	}
	return builtinPrefix + shape, nil
}

// Properties returns a copy of the schema behind a file returned by
// ShapeFile.
func (t *Table) Properties(file string) ([]tooldb.Property, error) {
	if isShapeFile(file) {
		return nil, fmt.Errorf("%w: reading %s needs FreeCAD", tooldb.ErrDependencyUnavailable, file)
	}
	props, ok := t.shapes[strings.TrimPrefix(file, builtinPrefix)]
	if !ok || !strings.HasPrefix(file, builtinPrefix) {
		return nil, fmt.Errorf("%w: shape file %q", tooldb.ErrNotFound, file)
	}
	result := make([]tooldb.Property, len(props))
	for i, p := range props {
		p.Enum = append([]string(nil), p.Enum...)
		result[i] = p
	}
	return result, nil
}

// Shape returns a shape with its schema.
func (t *Table) Shape(name string) (*tooldb.Shape, error) {
	file, err := t.ShapeFile(name)
	if err != nil {
		return nil, err
	}
	props, err := t.Properties(file)
	if err != nil {
		return nil, err
	}
	return &tooldb.Shape{Name: name, Properties: props}, nil
}
