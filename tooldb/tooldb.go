// Package tooldb holds a catalog of cutting tools organized in libraries,
// independent of the format it is stored in.
package tooldb

import (
	"fmt"
	"io"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/pkg/errors"
)

type state struct {
	id2Library   map[string]*Library
	libraryOrder []string
	id2Tool      map[string]*Tool
	toolOrder    []string
	owner        map[string]*Library // tool ID -> owning library
}

func newState() state {
	return state{
		id2Library: make(map[string]*Library),
		id2Tool:    make(map[string]*Tool),
		owner:      make(map[string]*Library),
	}
}

func (s *state) checkNewLibrary(lib *Library) error {
	if lib == nil || lib.ID == "" {
		return &ValidationError{Field: "library", Reason: "missing ID"}
	}
	if lib.Label == "" {
		return &ValidationError{Field: "library", Reason: "empty label"}
	}
	if _, exists := s.id2Library[lib.ID]; exists {
		return fmt.Errorf("%w: library %s", ErrDuplicateKey, lib.ID)
	}
	if s.libraryByLabel(lib.Label) != nil {
		return fmt.Errorf("%w: library label %q", ErrDuplicateKey, lib.Label)
	}
	return nil
}

func (s *state) addLibrary(lib *Library) {
	s.id2Library[lib.ID] = lib
	s.libraryOrder = append(s.libraryOrder, lib.ID)
}

func (s *state) libraryByLabel(label string) *Library {
	for _, id := range s.libraryOrder {
		if lib := s.id2Library[id]; lib.Label == label {
			return lib
		}
	}
	return nil
}

func (s *state) addTool(t *Tool, lib *Library, pocket int) {
	s.id2Tool[t.ID] = t
	s.toolOrder = append(s.toolOrder, t.ID)
	s.owner[t.ID] = lib
	lib.add(t, pocket)
}

func (s *state) removeTool(t *Tool) {
	if lib := s.owner[t.ID]; lib != nil {
		lib.remove(t)
	}
	delete(s.owner, t.ID)
	delete(s.id2Tool, t.ID)
	s.toolOrder = removeID(s.toolOrder, t.ID)
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// ToolDB is the aggregate of all libraries and tools. Every tool is owned
// by exactly one library. One lock guards the whole store, so there is at
// most one writer at a time.
type ToolDB struct {
	lock sync.Mutex
	s    state
}

func NewToolDB() *ToolDB {
	return &ToolDB{s: newState()}
}

func (db *ToolDB) AddLibrary(lib *Library) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	if err := db.s.checkNewLibrary(lib); err != nil {
		return err
	}
	if lib.Len() > 0 {
		return &ValidationError{Field: "library", Reason: "new library must be empty"}
	}
	db.s.addLibrary(lib)
	return nil
}

// RenameLibrary changes a library's label, keeping labels unique.
func (db *ToolDB) RenameLibrary(lib *Library, label string) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	if db.s.id2Library[lib.ID] != lib {
		return fmt.Errorf("%w: library %q", ErrNotFound, lib.Label)
	}
	if label == "" {
		return &ValidationError{Field: "library", Reason: "empty label"}
	}
	if other := db.s.libraryByLabel(label); other != nil && other != lib {
		return fmt.Errorf("%w: library label %q", ErrDuplicateKey, label)
	}
	lib.Label = label
	return nil
}

// RemoveLibrary removes a library together with the tools it owns.
func (db *ToolDB) RemoveLibrary(lib *Library) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	if db.s.id2Library[lib.ID] != lib {
		return fmt.Errorf("%w: library %q", ErrNotFound, lib.Label)
	}
	for _, t := range lib.Tools() {
		db.s.removeTool(t)
	}
	delete(db.s.id2Library, lib.ID)
	db.s.libraryOrder = removeID(db.s.libraryOrder, lib.ID)
	return nil
}

// AddTool transfers ownership of tool into lib, at the library's next free
// pocket. Either both the tool map and the library are updated, or
// neither is.
func (db *ToolDB) AddTool(t *Tool, lib *Library) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	if t == nil {
		return &ValidationError{Reason: "nil tool"}
	}
	if lib == nil || db.s.id2Library[lib.ID] != lib {
		return fmt.Errorf("%w: library not in this database", ErrNotFound)
	}
	if _, exists := db.s.id2Tool[t.ID]; exists {
		return fmt.Errorf("%w: tool %s", ErrDuplicateKey, t.ID)
	}
	if err := t.Validate(nil); err != nil {
		return err
	}
	db.s.addTool(t, lib, lib.NextPocket())
	return nil
}

// RemoveTool removes a tool from its library and from the database.
func (db *ToolDB) RemoveTool(t *Tool) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	if db.s.id2Tool[t.ID] != t {
		return fmt.Errorf("%w: tool %s", ErrNotFound, t.ID)
	}
	db.s.removeTool(t)
	return nil
}

// MoveTool transfers ownership of a tool to another library.
func (db *ToolDB) MoveTool(t *Tool, dst *Library) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	if db.s.id2Tool[t.ID] != t {
		return fmt.Errorf("%w: tool %s", ErrNotFound, t.ID)
	}
	if dst == nil || db.s.id2Library[dst.ID] != dst {
		return fmt.Errorf("%w: library not in this database", ErrNotFound)
	}
	src := db.s.owner[t.ID]
	if src == dst {
		return nil
	}
	src.remove(t)
	dst.add(t, dst.NextPocket())
	db.s.owner[t.ID] = dst
	return nil
}

// AssignPocket moves a tool to another pocket of the library owning it.
// The pocket must be positive and free in that library.
func (db *ToolDB) AssignPocket(t *Tool, pocket int) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	if db.s.id2Tool[t.ID] != t {
		return fmt.Errorf("%w: tool %s", ErrNotFound, t.ID)
	}
	return db.s.owner[t.ID].assignPocket(t, pocket)
}

func (db *ToolDB) GetLibrary(id string) (*Library, error) {
	db.lock.Lock()
	defer db.lock.Unlock()
	lib, ok := db.s.id2Library[id]
	if !ok {
		return nil, fmt.Errorf("%w: library %s", ErrNotFound, id)
	}
	return lib, nil
}

func (db *ToolDB) GetLibraryByLabel(label string) (*Library, error) {
	db.lock.Lock()
	defer db.lock.Unlock()
	lib := db.s.libraryByLabel(label)
	if lib == nil {
		return nil, fmt.Errorf("%w: library %q", ErrNotFound, label)
	}
	return lib, nil
}

func (db *ToolDB) GetTool(id string) (*Tool, error) {
	db.lock.Lock()
	defer db.lock.Unlock()
	t, ok := db.s.id2Tool[id]
	if !ok {
		return nil, fmt.Errorf("%w: tool %s", ErrNotFound, id)
	}
	return t, nil
}

// LibraryOf returns the library owning the tool.
func (db *ToolDB) LibraryOf(t *Tool) (*Library, error) {
	db.lock.Lock()
	defer db.lock.Unlock()
	lib, ok := db.s.owner[t.ID]
	if !ok {
		return nil, fmt.Errorf("%w: tool %s", ErrNotFound, t.ID)
	}
	return lib, nil
}

func (db *ToolDB) NumLibraries() int {
	db.lock.Lock()
	defer db.lock.Unlock()
	return len(db.s.libraryOrder)
}

func (db *ToolDB) NumTools() int {
	db.lock.Lock()
	defer db.lock.Unlock()
	return len(db.s.toolOrder)
}

// GetLibraries iterates over the libraries in insertion order. Each call
// of the returned sequence starts over with the current contents.
func (db *ToolDB) GetLibraries() iter.Seq[*Library] {
	return func(yield func(*Library) bool) {
		db.lock.Lock()
		ids := append([]string(nil), db.s.libraryOrder...)
		db.lock.Unlock()
		for _, id := range ids {
			db.lock.Lock()
			lib, ok := db.s.id2Library[id]
			db.lock.Unlock()
			if ok && !yield(lib) {
				return
			}
		}
	}
}

// GetTools iterates over the tools in insertion order.
func (db *ToolDB) GetTools() iter.Seq[*Tool] {
	return func(yield func(*Tool) bool) {
		db.lock.Lock()
		ids := append([]string(nil), db.s.toolOrder...)
		db.lock.Unlock()
		for _, id := range ids {
			db.lock.Lock()
			t, ok := db.s.id2Tool[id]
			db.lock.Unlock()
			if ok && !yield(t) {
				return
			}
		}
	}
}

// SortedLibraries returns the libraries sorted by label.
func (db *ToolDB) SortedLibraries() []*Library {
	var result []*Library
	for lib := range db.GetLibraries() {
		result = append(result, lib)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Label < result[j].Label
	})
	return result
}

// SortedTools returns the tools sorted by label, then ID.
func (db *ToolDB) SortedTools() []*Tool {
	var result []*Tool
	for t := range db.GetTools() {
		result = append(result, t)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Label != result[j].Label {
			return result[i].Label < result[j].Label
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// Snapshot returns a deep copy of the current contents.
func (db *ToolDB) Snapshot() *Snapshot {
	db.lock.Lock()
	defer db.lock.Unlock()
	snap := &Snapshot{}
	for _, id := range db.s.libraryOrder {
		lib := db.s.id2Library[id]
		sl := SnapshotLibrary{ID: lib.ID, Label: lib.Label}
		for _, t := range lib.Tools() {
			pocket, _ := lib.Pocket(t)
			sl.Tools = append(sl.Tools, SnapshotTool{Pocket: pocket, Tool: *t.Clone()})
		}
		snap.Libraries = append(snap.Libraries, sl)
	}
	return snap
}

// Restore replaces the contents with the given snapshot. Nothing changes
// if the snapshot is inconsistent.
func (db *ToolDB) Restore(snap *Snapshot) error {
	s := newState()
	for _, sl := range snap.Libraries {
		lib := newLibrary(sl.ID, sl.Label)
		if err := s.checkNewLibrary(lib); err != nil {
			return errors.Wrap(ErrFormat, err.Error())
		}
		s.addLibrary(lib)
		for _, st := range sl.Tools {
			t := st.Tool.Clone()
			if err := t.Validate(nil); err != nil {
				return errors.Wrap(ErrFormat, err.Error())
			}
			if _, exists := s.id2Tool[t.ID]; exists {
				return errors.Wrapf(ErrFormat, "tool %s owned twice", t.ID)
			}
			pocket := st.Pocket
			if pocket < 1 {
				pocket = lib.NextPocket()
			} else if lib.pocketTaken(pocket) {
				return errors.Wrapf(ErrFormat, "pocket %d of library %q used twice", pocket, lib.Label)
			}
			s.addTool(t, lib, pocket)
		}
	}
	db.lock.Lock()
	db.s = s
	db.lock.Unlock()
	return nil
}

// Deserialize loads the whole database through the serializer. On any
// error the previous contents are kept.
func (db *ToolDB) Deserialize(ser Serializer) error {
	defer ElapsedPrint("Deserialize", time.Now())
	snap, err := ser.Load()
	if err != nil {
		return errors.Wrap(err, "deserialize")
	}
	if err := db.Restore(snap); err != nil {
		return errors.Wrap(err, "deserialize")
	}
	log.WithFields(log.Fields{
		"libraries": len(snap.Libraries),
		"tools":     snap.NumTools(),
	}).Debug("Loaded tool database")
	return nil
}

// Serialize writes the whole database through the serializer, which does
// not have to be the one it was loaded with.
func (db *ToolDB) Serialize(ser Serializer) error {
	defer ElapsedPrint("Serialize", time.Now())
	if err := ser.Save(db.Snapshot()); err != nil {
		return errors.Wrap(err, "serialize")
	}
	return nil
}

// Check verifies the ownership invariant: every tool is owned by exactly
// one library of this database, and every owned tool is in the tool map.
func (db *ToolDB) Check() error {
	db.lock.Lock()
	defer db.lock.Unlock()
	if len(db.s.id2Tool) != len(db.s.toolOrder) || len(db.s.id2Library) != len(db.s.libraryOrder) {
		return errors.New("order and key maps out of sync")
	}
	seen := make(map[string]*Library)
	for _, id := range db.s.libraryOrder {
		lib := db.s.id2Library[id]
		for _, t := range lib.tools {
			if other, dup := seen[t.ID]; dup {
				return errors.Errorf("tool %s owned by %q and %q", t.ID, other.Label, lib.Label)
			}
			seen[t.ID] = lib
			if db.s.id2Tool[t.ID] != t {
				return errors.Errorf("tool %s of %q not in tool map", t.ID, lib.Label)
			}
			if _, ok := lib.pockets[t.ID]; !ok {
				return errors.Errorf("tool %s of %q has no pocket", t.ID, lib.Label)
			}
		}
		if len(lib.pockets) != len(lib.tools) {
			return errors.Errorf("library %q pockets out of sync", lib.Label)
		}
	}
	for id := range db.s.id2Tool {
		lib, ok := seen[id]
		if !ok {
			return errors.Errorf("tool %s is orphaned", id)
		}
		if db.s.owner[id] != lib {
			return errors.Errorf("tool %s owner out of sync", id)
		}
	}
	return nil
}

// Dump writes all libraries with their tools.
func (db *ToolDB) Dump(w io.Writer) {
	for _, lib := range db.SortedLibraries() {
		fmt.Fprintln(w, lib)
		for _, t := range lib.Tools() {
			pocket, _ := lib.Pocket(t)
			fmt.Fprintf(w, "  %3d: %s\n", pocket, t)
		}
	}
}

// ElapsedPrint logs the time passed since start at debug level.
func ElapsedPrint(msg string, start time.Time) {
	log.Debugf("%s took %s", msg, time.Since(start))
}
