package tooldb

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// DefaultLibraryLabel is the well-known label of the library new tools go
// to unless the user picks another one.
const DefaultLibraryLabel = "Default"

// Library is a named collection of tools. Each tool sits in a pocket
// (tool changer slot). Ownership changes go through ToolDB.
type Library struct {
	ID    string
	Label string

	tools   []*Tool
	pockets map[string]int // tool ID -> pocket
}

func NewLibrary(label string) *Library {
	return newLibrary(uuid.NewString(), label)
}

func newLibrary(id, label string) *Library {
	return &Library{
		ID:      id,
		Label:   label,
		pockets: make(map[string]int),
	}
}

func (l *Library) Len() int {
	return len(l.tools)
}

func (l *Library) Has(t *Tool) bool {
	_, ok := l.pockets[t.ID]
	return ok
}

// Tools returns the owned tools ordered by pocket.
func (l *Library) Tools() []*Tool {
	result := append([]*Tool(nil), l.tools...)
	sort.SliceStable(result, func(i, j int) bool {
		return l.pockets[result[i].ID] < l.pockets[result[j].ID]
	})
	return result
}

// Pocket returns the pocket number of an owned tool.
func (l *Library) Pocket(t *Tool) (int, bool) {
	p, ok := l.pockets[t.ID]
	return p, ok
}

// NextPocket returns the pocket a newly added tool would get.
func (l *Library) NextPocket() int {
	next := 1
	for _, p := range l.pockets {
		if p >= next {
			next = p + 1
		}
	}
	return next
}

func (l *Library) assignPocket(t *Tool, pocket int) error {
	if !l.Has(t) {
		return fmt.Errorf("%w: tool %s in library %q", ErrNotFound, t.ID, l.Label)
	}
	if pocket < 1 {
		return &ValidationError{Field: "pocket", Reason: fmt.Sprintf("%d is not a pocket", pocket)}
	}
	for id, p := range l.pockets {
		if p == pocket && id != t.ID {
			return fmt.Errorf("%w: pocket %d of library %q is taken", ErrDuplicateKey, pocket, l.Label)
		}
	}
	l.pockets[t.ID] = pocket
	return nil
}

func (l *Library) pocketTaken(pocket int) bool {
	for _, p := range l.pockets {
		if p == pocket {
			return true
		}
	}
	return false
}

func (l *Library) add(t *Tool, pocket int) {
	l.tools = append(l.tools, t)
	l.pockets[t.ID] = pocket
}

func (l *Library) remove(t *Tool) {
	for i, owned := range l.tools {
		if owned.ID == t.ID {
			l.tools = append(l.tools[:i], l.tools[i+1:]...)
			break
		}
	}
	delete(l.pockets, t.ID)
}

func (l *Library) String() string {
	return fmt.Sprintf("<Library %q id=%s tools=%d>", l.Label, l.ID, len(l.tools))
}
