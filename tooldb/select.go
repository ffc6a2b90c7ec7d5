package tooldb

import (
	"fmt"
	"sort"
)

// LibraryChoice is one line of the library selection list.
type LibraryChoice struct {
	Index   int // 1-based
	Library *Library
	Default bool
}

func (c LibraryChoice) String() string {
	mark := ""
	if c.Default {
		mark = "*"
	}
	return fmt.Sprintf("%d) %s%s", c.Index, c.Library.Label, mark)
}

// LibraryChoices orders libraries by label and numbers them from 1. The
// library labeled "Default" goes last and is marked; its index is returned
// as the pre-selected one, or 1 if there is no such library.
func LibraryChoices(libraries []*Library) ([]LibraryChoice, int) {
	sorted := append([]*Library(nil), libraries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Label == DefaultLibraryLabel, sorted[j].Label == DefaultLibraryLabel
		if a != b {
			return b
		}
		return sorted[i].Label < sorted[j].Label
	})
	choices := make([]LibraryChoice, len(sorted))
	preselected := 1
	for i, lib := range sorted {
		choices[i] = LibraryChoice{Index: i + 1, Library: lib}
		if lib.Label == DefaultLibraryLabel {
			choices[i].Default = true
			preselected = i + 1
		}
	}
	return choices, preselected
}

// ChooseFunc asks for a 1-based index out of the presented choices.
type ChooseFunc func(choices []LibraryChoice, preselected int) (int, error)

// SelectLibrary picks the library a new tool goes to. With exactly one
// library there is nothing to choose; otherwise choose resolves it.
func SelectLibrary(libraries []*Library, choose ChooseFunc) (*Library, error) {
	switch len(libraries) {
	case 0:
		return nil, fmt.Errorf("%w: no library to add the tool to", ErrNotFound)
	case 1:
		return libraries[0], nil
	}
	choices, preselected := LibraryChoices(libraries)
	n, err := choose(choices, preselected)
	if err != nil {
		return nil, err
	}
	if n < 1 || n > len(choices) {
		return nil, &ValidationError{Field: "library", Reason: fmt.Sprintf("no library number %d", n)}
	}
	return choices[n-1].Library, nil
}

// PreselectedChoice is a ChooseFunc that accepts the pre-selected library.
func PreselectedChoice(_ []LibraryChoice, preselected int) (int, error) {
	return preselected, nil
}
