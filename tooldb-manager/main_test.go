package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hzeller/tooldb/tooldb"
)

func TestParseGlobalFlags(t *testing.T) {
	g, _, rest, err := parseGlobalFlags([]string{"-f", "yaml", "-V", "lib.yaml", "export", "-f", "freecad", "out"})
	require.NoError(t, err)
	assert.Equal(t, "yaml", g.format)
	assert.True(t, g.verbose)
	assert.Equal(t, []string{"lib.yaml", "export", "-f", "freecad", "out"}, rest)

	g, _, rest, err = parseGlobalFlags([]string{"lib", "ls"})
	require.NoError(t, err)
	assert.Equal(t, "freecad", g.format)
	assert.Equal(t, []string{"lib", "ls"}, rest)

	_, _, _, err = parseGlobalFlags([]string{"--bogus", "lib"})
	assert.Error(t, err)
}

// runCLI runs the command line with an empty home directory.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRunCreateListExport(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "lib.yaml")

	_, err := runCLI(t, "-f", "yaml", db, "create", "library", "Default")
	require.NoError(t, err)
	_, err = runCLI(t, "-f", "yaml", db, "create", "library", "Shop B")
	require.NoError(t, err)

	out, err := runCLI(t, "-f", "yaml", db, "create", "tool", "-y", "-m", "Aluminium6061", "endmill")
	require.NoError(t, err)
	assert.Contains(t, out, `Tool will be added to library "Default".`)

	out, err = runCLI(t, "-f", "yaml", db, "ls", "tools")
	require.NoError(t, err)
	assert.Contains(t, out, `"New endmill"`)
	assert.Contains(t, out, "SpindleSpeed=8064")

	out, err = runCLI(t, "-f", "yaml", db, "search", "endmill")
	require.NoError(t, err)
	assert.Contains(t, out, "New endmill")

	exported := filepath.Join(dir, "exported")
	_, err = runCLI(t, "-f", "yaml", db, "export", "-f", "freecad", exported)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(exported, "Library", "Shop B.fctl"))
	assert.NoError(t, err)

	out, err = runCLI(t, exported, "ls", "libraries")
	require.NoError(t, err)
	assert.Contains(t, out, "Default")
	assert.Contains(t, out, "Shop B")
}

func TestRunDuplicateLibrary(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lib.db")
	_, err := runCLI(t, "-f", "sqlite", db, "create", "library", "Default")
	require.NoError(t, err)
	_, err = runCLI(t, "-f", "sqlite", db, "create", "library", "Default")
	assert.ErrorIs(t, err, tooldb.ErrDuplicateKey)
}

func TestRunCreateToolWithoutLibrary(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lib.yaml")
	_, err := runCLI(t, "-f", "yaml", db, "create", "tool", "-y", "drill")
	assert.ErrorIs(t, err, tooldb.ErrNotFound)
}

func TestRunUsage(t *testing.T) {
	out, err := runCLI(t, "lib")
	require.NoError(t, err)
	assert.Equal(t, "no command given, nothing to do\n", out)

	_, err = runCLI(t)
	assert.EqualError(t, err, "missing DB name")

	_, err = runCLI(t, "-f", "csv", "lib", "ls")
	assert.ErrorIs(t, err, tooldb.ErrNotFound)

	out, err = runCLI(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage: ")
	assert.Contains(t, out, "materials")

	_, err = runCLI(t, "lib", "ls", "everything")
	assert.Error(t, err)
}

func TestRunFeeds(t *testing.T) {
	out, err := runCLI(t, "lib", "feeds", "Aluminium6061", "carbide", "slotting", "6", "--flutes", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Aluminium")
	assert.Contains(t, out, "3 flutes")
	assert.Contains(t, out, "425 - 575 m/min")
	assert.NotContains(t, out, "estimated from milling")

	// No HSS slotting data for aluminium: scaled from milling.
	out, err = runCLI(t, "lib", "feeds", "Aluminium6061", "hss", "slotting", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "estimated from milling")

	_, err = runCLI(t, "lib", "feeds", "Unobtainium", "carbide", "milling", "6")
	assert.Error(t, err)

	out, err = runCLI(t, "lib", "materials")
	require.NoError(t, err)
	assert.Contains(t, out, "Softwood")
}
