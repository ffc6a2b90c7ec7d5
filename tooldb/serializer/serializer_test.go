package serializer

import (
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hzeller/tooldb/tooldb"
)

// testPath returns where a database of the given format lives inside dir.
func testPath(dir, format string) string {
	switch format {
	case "freecad":
		return filepath.Join(dir, "freecad")
	case "sqlite":
		return filepath.Join(dir, "tools.db")
	}
	return filepath.Join(dir, "tools."+format)
}

func newSerializer(t *testing.T, format, path string) tooldb.Serializer {
	t.Helper()
	ser, err := New(format, path)
	require.NoError(t, err)
	return ser
}

func sampleDB(t *testing.T) *tooldb.ToolDB {
	t.Helper()
	db := tooldb.NewToolDB()
	def, shop := tooldb.NewLibrary("Default"), tooldb.NewLibrary("Shop B")
	require.NoError(t, db.AddLibrary(def))
	require.NoError(t, db.AddLibrary(shop))
	require.NoError(t, db.AddLibrary(tooldb.NewLibrary("Empty")))

	add := func(lib *tooldb.Library, label, shape string, params tooldb.Params) *tooldb.Tool {
		tool, err := tooldb.NewTool(label, &tooldb.Shape{Name: shape}, params)
		require.NoError(t, err)
		require.NoError(t, db.AddTool(tool, lib))
		return tool
	}
	add(def, "6mm endmill", "endmill", tooldb.Params{
		"Diameter":     6.0,
		"Flutes":       2,
		"Material":     "Carbide",
		"Chipload":     0.1 + 0.2,
		"SpindleSpeed": int64(33953),
		"Coated":       true,
	})
	drill := add(def, "Spot drill", "drill", tooldb.Params{
		"Diameter":  "0.25 in",
		"TipAngle":  90.0,
		"Offset":    int64(-5),
		"Reference": "6", // a string, not a number
		"Huge":      1e21,
	})
	add(shop, "1/8\" v-bit", "v-bit", tooldb.Params{})
	add(shop, "ø3 ballend", "ballend", tooldb.Params{"Diameter": 3.175, "Coated": false})
	require.NoError(t, db.AssignPocket(drill, 7))
	return db
}

// normalized orders libraries by label; not every format keeps the
// insertion order of libraries.
func normalized(snap *tooldb.Snapshot) *tooldb.Snapshot {
	sort.SliceStable(snap.Libraries, func(i, j int) bool {
		return snap.Libraries[i].Label < snap.Libraries[j].Label
	})
	for i := range snap.Libraries {
		if snap.Libraries[i].Tools == nil {
			snap.Libraries[i].Tools = []tooldb.SnapshotTool{}
		}
	}
	return snap
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{"freecad", "plist", "sqlite", "yaml"}, Formats())

	_, err := New("csv", "tools.csv")
	assert.ErrorIs(t, err, tooldb.ErrNotFound)

	assert.Panics(t, func() { Register("yaml", NewYAML) })
	assert.Panics(t, func() { Register("nil", nil) })
}

func TestRoundTrip(t *testing.T) {
	for _, format := range Formats() {
		t.Run(format, func(t *testing.T) {
			db := sampleDB(t)
			ser := newSerializer(t, format, testPath(t.TempDir(), format))
			require.NoError(t, db.Serialize(ser))

			loaded := tooldb.NewToolDB()
			require.NoError(t, loaded.Deserialize(ser))
			require.NoError(t, loaded.Check())
			if diff := cmp.Diff(normalized(db.Snapshot()), normalized(loaded.Snapshot())); diff != "" {
				t.Errorf("%s round trip mismatch (-want +got):\n%s", format, diff)
			}
		})
	}
}

// Converting between any two formats must not lose anything.
func TestConversion(t *testing.T) {
	for _, from := range Formats() {
		for _, to := range Formats() {
			t.Run(from+"-"+to, func(t *testing.T) {
				dir := t.TempDir()
				db := sampleDB(t)
				src := newSerializer(t, from, testPath(filepath.Join(dir, "src"), from))
				require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
				require.NoError(t, os.MkdirAll(filepath.Join(dir, "dst"), 0o755))
				require.NoError(t, db.Serialize(src))

				middle := tooldb.NewToolDB()
				require.NoError(t, middle.Deserialize(src))
				dst := newSerializer(t, to, testPath(filepath.Join(dir, "dst"), to))
				require.NoError(t, middle.Serialize(dst))

				final := tooldb.NewToolDB()
				require.NoError(t, final.Deserialize(dst))
				if diff := cmp.Diff(normalized(db.Snapshot()), normalized(final.Snapshot())); diff != "" {
					t.Errorf("%s -> %s mismatch (-want +got):\n%s", from, to, diff)
				}
			})
		}
	}
}

func TestSaveReplacesContents(t *testing.T) {
	for _, format := range Formats() {
		t.Run(format, func(t *testing.T) {
			db := sampleDB(t)
			ser := newSerializer(t, format, testPath(t.TempDir(), format))
			require.NoError(t, db.Serialize(ser))

			shop, err := db.GetLibraryByLabel("Shop B")
			require.NoError(t, err)
			require.NoError(t, db.RemoveLibrary(shop))
			require.NoError(t, db.Serialize(ser))

			loaded := tooldb.NewToolDB()
			require.NoError(t, loaded.Deserialize(ser))
			assert.Equal(t, 2, loaded.NumLibraries())
			assert.Equal(t, 2, loaded.NumTools())
			_, err = loaded.GetLibraryByLabel("Shop B")
			assert.ErrorIs(t, err, tooldb.ErrNotFound)
		})
	}
}

func TestLoadMissingIsEmpty(t *testing.T) {
	for _, format := range Formats() {
		path := testPath(t.TempDir(), format)
		snap, err := newSerializer(t, format, path).Load()
		require.NoError(t, err, format)
		assert.Empty(t, snap.Libraries, format)
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err), "%s: load must not create %s", format, path)
	}
}

func TestLoadMalformed(t *testing.T) {
	garbage := map[string]string{
		"yaml":   "libraries: [ {",
		"plist":  `<?xml version="1.0" encoding="UTF-8"?><plist version="1.0"><dict><key>version</key>`,
		"sqlite": "this is not a database, just some text that is long enough to be noticed",
	}
	for format, content := range garbage {
		path := testPath(t.TempDir(), format)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err := newSerializer(t, format, path).Load()
		assert.ErrorIs(t, err, tooldb.ErrFormat, format)
	}

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Library"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Library", "Broken.fctl"), []byte("{"), 0o644))
	_, err := newSerializer(t, "freecad", dir).Load()
	assert.ErrorIs(t, err, tooldb.ErrFormat)
}

func TestYAMLParamValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
libraries:
  - id: lib-1
    label: Default
    tools:
      - id: tool-1
        label: Endmill
        shape: endmill
        pocket: 3
        params: {Diameter: 6.0, Flutes: 2, Material: HSS, Reference: "6", Coated: yes}
`), 0o644))
	snap, err := newSerializer(t, "yaml", path).Load()
	require.NoError(t, err)
	require.Len(t, snap.Libraries, 1)
	require.Len(t, snap.Libraries[0].Tools, 1)
	st := snap.Libraries[0].Tools[0]
	assert.Equal(t, 3, st.Pocket)
	assert.Equal(t, tooldb.Params{
		"Diameter":  6.0,
		"Flutes":    int64(2),
		"Material":  "HSS",
		"Reference": "6",
		"Coated":    "yes", // YAML 1.2: not a bool
	}, st.Tool.Params)
}

func TestLoadRejectsUnsupportedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
libraries:
  - id: lib-1
    label: Default
    tools:
      - {id: tool-1, label: Endmill, shape: endmill, pocket: 1, params: {Diameter: [6, 8]}}
`), 0o644))
	_, err := newSerializer(t, "yaml", path).Load()
	assert.ErrorIs(t, err, tooldb.ErrFormat)
}

func TestSaveUnsupportedValues(t *testing.T) {
	snap := &tooldb.Snapshot{Libraries: []tooldb.SnapshotLibrary{{
		ID: "lib", Label: "Default",
		Tools: []tooldb.SnapshotTool{{Pocket: 1, Tool: tooldb.Tool{
			ID: "t", Label: "x", Shape: "endmill",
			Params: tooldb.Params{"Diameter": []float64{6}},
		}}},
	}}}
	for _, format := range Formats() {
		err := newSerializer(t, format, testPath(t.TempDir(), format)).Save(snap)
		assert.ErrorIs(t, err, tooldb.ErrUnsupportedFeature, format)
	}
}

func TestSaveNonFiniteKeepsPreviousContents(t *testing.T) {
	for _, format := range Formats() {
		t.Run(format, func(t *testing.T) {
			db := sampleDB(t)
			ser := newSerializer(t, format, testPath(t.TempDir(), format))
			require.NoError(t, db.Serialize(ser))
			want := normalized(db.Snapshot())

			for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
				// Params of a stored tool are the caller's to change.
				for tool := range db.GetTools() {
					tool.Params["Diameter"] = bad
					break
				}
				assert.ErrorIs(t, db.Serialize(ser), tooldb.ErrUnsupportedFeature)

				loaded := tooldb.NewToolDB()
				require.NoError(t, loaded.Deserialize(ser))
				if diff := cmp.Diff(want, normalized(loaded.Snapshot())); diff != "" {
					t.Errorf("contents changed by failed save (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestSQLiteLoadLeavesForeignDatabaseAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.db")
	other, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = other.Exec("CREATE TABLE recipe (name TEXT)")
	require.NoError(t, err)
	require.NoError(t, other.Close())

	_, err = newSerializer(t, "sqlite", path).Load()
	assert.ErrorIs(t, err, tooldb.ErrFormat)

	other, err = sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer other.Close()
	var tables []string
	rows, err := other.Query("SELECT name FROM sqlite_master WHERE type = 'table'")
	require.NoError(t, err)
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		tables = append(tables, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"recipe"}, tables)
}

func TestDeserializeRejectsDuplicateLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
libraries:
  - {id: a, label: Default}
  - {id: b, label: Default}
`), 0o644))
	db := tooldb.NewToolDB()
	assert.ErrorIs(t, db.Deserialize(newSerializer(t, "yaml", path)), tooldb.ErrFormat)
	assert.Equal(t, 0, db.NumLibraries())
}
