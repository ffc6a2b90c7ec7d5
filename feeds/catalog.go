package feeds

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Catalog is a read-only registry of materials. It is safe for concurrent
// use: nothing mutates it after NewCatalog returns, and lookups hand out
// copies.
type Catalog struct {
	byKey  map[string]Material
	sorted []string // keys, ordered by display name
}

// NewCatalog validates and freezes the given materials. Every material
// must carry an explicit milling range for both HSS and carbide.
func NewCatalog(materials ...Material) (*Catalog, error) {
	c := &Catalog{byKey: make(map[string]Material, len(materials))}
	for _, m := range materials {
		if err := m.validate(); err != nil {
			return nil, err
		}
		if _, exists := c.byKey[m.Key]; exists {
			return nil, fmt.Errorf("%w: duplicate material %q", ErrMalformedData, m.Key)
		}
		c.byKey[m.Key] = m.clone()
		c.sorted = append(c.sorted, m.Key)
	}
	sort.SliceStable(c.sorted, func(i, j int) bool {
		a, b := c.byKey[c.sorted[i]], c.byKey[c.sorted[j]]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Key < b.Key
	})
	return c, nil
}

// DefaultCatalog returns the built-in material table.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(builtinMaterials()...)
	if err != nil {
		panic("built-in material table: " + err.Error())
	}
	return c
}

func (c *Catalog) Lookup(key string) (Material, error) {
	m, ok := c.byKey[key]
	if !ok {
		return Material{}, errors.Wrapf(ErrNotFound, "material %q", key)
	}
	return m.clone(), nil
}

// All returns every material, sorted by display name.
func (c *Catalog) All() []Material {
	result := make([]Material, len(c.sorted))
	for i, key := range c.sorted {
		result[i] = c.byKey[key].clone()
	}
	return result
}

func (c *Catalog) Len() int {
	return len(c.sorted)
}
