package tooldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func choiceLines(choices []LibraryChoice) []string {
	var lines []string
	for _, c := range choices {
		lines = append(lines, c.String())
	}
	return lines
}

func TestSelectLibrary(t *testing.T) {
	def, shop := NewLibrary("Default"), NewLibrary("Shop B")
	libs := []*Library{def, shop}

	var presented []string
	var offered int
	lib, err := SelectLibrary(libs, func(choices []LibraryChoice, preselected int) (int, error) {
		presented = choiceLines(choices)
		offered = preselected
		return 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1) Shop B", "2) Default*"}, presented)
	assert.Equal(t, 2, offered)
	assert.Same(t, def, lib)

	lib, err = SelectLibrary(libs, PreselectedChoice)
	require.NoError(t, err)
	assert.Same(t, def, lib)
}

func TestSelectLibrarySingle(t *testing.T) {
	only := NewLibrary("Shop B")
	lib, err := SelectLibrary([]*Library{only}, func([]LibraryChoice, int) (int, error) {
		t.Fatal("nothing to choose")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Same(t, only, lib)
}

func TestSelectLibraryErrors(t *testing.T) {
	_, err := SelectLibrary(nil, PreselectedChoice)
	assert.ErrorIs(t, err, ErrNotFound)

	libs := []*Library{NewLibrary("A"), NewLibrary("B")}
	for _, n := range []int{0, 3, -1} {
		_, err = SelectLibrary(libs, func([]LibraryChoice, int) (int, error) { return n, nil })
		assert.ErrorIs(t, err, ErrValidation, "choice %d", n)
	}
}

func TestLibraryChoicesWithoutDefault(t *testing.T) {
	choices, preselected := LibraryChoices([]*Library{NewLibrary("Shop C"), NewLibrary("Annex"), NewLibrary("Shop B")})
	assert.Equal(t, []string{"1) Annex", "2) Shop B", "3) Shop C"}, choiceLines(choices))
	assert.Equal(t, 1, preselected)
}
