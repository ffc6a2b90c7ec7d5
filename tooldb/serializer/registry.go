// Package serializer holds the storage formats a tool database can be
// read from and written to. Formats register themselves by name, the way
// database/sql drivers do.
package serializer

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/hzeller/tooldb/tooldb"
)

// Constructor opens the database found at path. Constructors must not
// touch the path yet; Load and Save do.
type Constructor func(path string) (tooldb.Serializer, error)

var (
	formatsMu sync.RWMutex
	formats   = make(map[string]Constructor)
)

// Register makes a format available by name. It panics if the name is
// taken or the constructor is nil.
func Register(name string, c Constructor) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	if c == nil {
		panic("serializer: Register constructor is nil")
	}
	if _, dup := formats[name]; dup {
		panic("serializer: Register called twice for format " + name)
	}
	formats[name] = c
}

// New returns a serializer of the given format for path.
func New(format, path string) (tooldb.Serializer, error) {
	formatsMu.RLock()
	c, ok := formats[format]
	formatsMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(tooldb.ErrNotFound, "unknown format %q", format)
	}
	return c(path)
}

// Formats returns the registered format names, sorted.
func Formats() []string {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
