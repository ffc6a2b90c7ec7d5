package serializer

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/apex/log"

	"github.com/hzeller/tooldb/tooldb"
)

// FreeCAD keeps one JSON file per library (.fctl) and one per tool bit
// (.fctb):
//
//	<path>/Library/<label>.fctl
//	<path>/Bit/<tool id>.fctb
const (
	fcLibraryDir = "Library"
	fcBitDir     = "Bit"
	fcLibraryExt = ".fctl"
	fcBitExt     = ".fctb"

	fcLibraryVersion = 1
	fcBitVersion     = 2
)

func init() {
	Register("freecad", NewFreeCAD)
}

type fcLibrary struct {
	Version int           `json:"version"`
	ID      string        `json:"id,omitempty"`
	Tools   []fcToolEntry `json:"tools"`
}

type fcToolEntry struct {
	Nr   int    `json:"nr"`
	Path string `json:"path"`
}

type fcBit struct {
	Version   int            `json:"version"`
	Name      string         `json:"name"`
	Shape     string         `json:"shape"`
	Parameter map[string]any `json:"parameter"`
	Attribute map[string]any `json:"attribute"`
}

// FreeCAD reads and writes a FreeCAD tool library directory.
type FreeCAD struct {
	path string
}

func NewFreeCAD(path string) (tooldb.Serializer, error) {
	return &FreeCAD{path: path}, nil
}

func (f *FreeCAD) libraryDir() string { return filepath.Join(f.path, fcLibraryDir) }
func (f *FreeCAD) bitDir() string     { return filepath.Join(f.path, fcBitDir) }

// Load reads all libraries and the bits they reference. Bits no library
// references are not part of the database.
func (f *FreeCAD) Load() (*tooldb.Snapshot, error) {
	files, err := filepath.Glob(filepath.Join(f.libraryDir(), "*"+fcLibraryExt))
	if err != nil {
		return nil, ioError(err, "list %s", f.libraryDir())
	}
	sort.Strings(files)
	snap := &tooldb.Snapshot{}
	for _, file := range files {
		lib, err := f.loadLibrary(file)
		if err != nil {
			return nil, err
		}
		snap.Libraries = append(snap.Libraries, *lib)
	}
	log.WithFields(log.Fields{
		"path":      f.path,
		"libraries": len(snap.Libraries),
		"tools":     snap.NumTools(),
	}).Debug("Read freecad library")
	return snap, nil
}

func (f *FreeCAD) loadLibrary(file string) (*tooldb.SnapshotLibrary, error) {
	var raw fcLibrary
	if err := readJSON(file, &raw); err != nil {
		return nil, err
	}
	label := strings.TrimSuffix(filepath.Base(file), fcLibraryExt)
	lib := &tooldb.SnapshotLibrary{ID: raw.ID, Label: label}
	if lib.ID == "" {
		// Written by FreeCAD itself.
		lib.ID = label
	}
	for _, entry := range raw.Tools {
		name := filepath.Base(entry.Path)
		if !strings.HasSuffix(name, fcBitExt) {
			return nil, formatError("%s: %q is not a tool bit", file, entry.Path)
		}
		t, err := f.loadBit(name)
		if err != nil {
			return nil, err
		}
		lib.Tools = append(lib.Tools, tooldb.SnapshotTool{Pocket: entry.Nr, Tool: *t})
	}
	sort.SliceStable(lib.Tools, func(i, j int) bool {
		return lib.Tools[i].Pocket < lib.Tools[j].Pocket
	})
	return lib, nil
}

func (f *FreeCAD) loadBit(name string) (*tooldb.Tool, error) {
	file := filepath.Join(f.bitDir(), name)
	var raw fcBit
	if err := readJSON(file, &raw); err != nil {
		return nil, err
	}
	id := strings.TrimSuffix(name, fcBitExt)
	t := &tooldb.Tool{ID: id, Label: raw.Name, Shape: raw.Shape}
	decoded := make(map[string]any, len(raw.Parameter))
	for k, v := range raw.Parameter {
		dv, err := fcDecodeValue(v)
		if err != nil {
			return nil, formatError("%s: parameter %s: %v", file, k, err)
		}
		decoded[k] = dv
	}
	params, err := loadParams(id, decoded)
	if err != nil {
		return nil, err
	}
	t.Params = params
	return t, nil
}

// Save writes every library and tool, and removes library and bit files
// of entities no longer in the snapshot.
func (f *FreeCAD) Save(snap *tooldb.Snapshot) error {
	bits := make(map[string][]byte)
	libs := make(map[string][]byte)
	for _, lib := range snap.Libraries {
		if strings.ContainsAny(lib.Label, `/\`) || lib.Label == "." || lib.Label == ".." {
			return unsupported("library label %q can't be a file name", lib.Label)
		}
		raw := fcLibrary{Version: fcLibraryVersion, ID: lib.ID, Tools: []fcToolEntry{}}
		for _, st := range lib.Tools {
			name := st.Tool.ID + fcBitExt
			if strings.ContainsAny(st.Tool.ID, `/\`) {
				return unsupported("tool id %q can't be a file name", st.Tool.ID)
			}
			data, err := fcEncodeBit(&st.Tool)
			if err != nil {
				return err
			}
			bits[name] = data
			raw.Tools = append(raw.Tools, fcToolEntry{Nr: st.Pocket, Path: name})
		}
		data, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			return formatError("library %q: %v", lib.Label, err)
		}
		libs[lib.Label+fcLibraryExt] = data
	}

	if err := writeDir(f.bitDir(), fcBitExt, bits); err != nil {
		return err
	}
	if err := writeDir(f.libraryDir(), fcLibraryExt, libs); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"path":      f.path,
		"libraries": len(libs),
		"tools":     len(bits),
	}).Debug("Wrote freecad library")
	return nil
}

func fcEncodeBit(t *tooldb.Tool) ([]byte, error) {
	raw := fcBit{
		Version:   fcBitVersion,
		Name:      t.Label,
		Shape:     t.Shape,
		Parameter: make(map[string]any, len(t.Params)),
		Attribute: map[string]any{},
	}
	for name, v := range t.Params {
		ev, err := fcEncodeValue(v)
		if err != nil {
			return nil, unsupported("tool %s parameter %s: %v", t.ID, name, err)
		}
		raw.Parameter[name] = ev
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, unsupported("tool %s: %v", t.ID, err)
	}
	return data, nil
}

// fcEncodeValue keeps floats recognizable as such: 6.0 is written "6.0",
// not "6", so it doesn't come back as an integer.
func fcEncodeValue(v any) (any, error) {
	switch x := v.(type) {
	case string, bool, int64:
		return x, nil
	case float64:
		s := strconv.FormatFloat(x, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return json.Number(s), nil
	}
	nv, err := tooldb.NormalizeValue(v)
	if err != nil {
		return nil, err
	}
	return fcEncodeValue(nv)
}

func fcDecodeValue(v any) (any, error) {
	switch x := v.(type) {
	case string, bool:
		return x, nil
	case json.Number:
		if !strings.ContainsAny(string(x), ".eE") {
			if n, err := x.Int64(); err == nil {
				return n, nil
			}
		}
		return x.Float64()
	}
	return nil, unsupported("value %v", v)
}

func readJSON(file string, v any) error {
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return formatError("missing %s", file)
		}
		return ioError(err, "read %s", file)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return formatError("%s: %v", file, err)
	}
	return nil
}

// writeDir writes the files into dir and removes other files with the
// same extension.
func writeDir(dir, ext string, files map[string][]byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ioError(err, "create %s", dir)
	}
	existing, err := filepath.Glob(filepath.Join(dir, "*"+ext))
	if err != nil {
		return ioError(err, "list %s", dir)
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), append(data, '\n'), 0o644); err != nil {
			return ioError(err, "write %s", name)
		}
	}
	for _, file := range existing {
		if _, keep := files[filepath.Base(file)]; keep {
			continue
		}
		if err := os.Remove(file); err != nil {
			return ioError(err, "remove %s", file)
		}
	}
	return nil
}
