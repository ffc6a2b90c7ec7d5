package tooldb

// Serializer is the contract ToolDB uses to load from and save to an
// external representation. Implementations report malformed input with
// ErrFormat, storage failures with ErrIO and entities the format can't
// represent with ErrUnsupportedFeature.
type Serializer interface {
	Load() (*Snapshot, error)
	Save(snapshot *Snapshot) error
}

// Snapshot is the plain-data image of a ToolDB exchanged with serializers.
type Snapshot struct {
	Libraries []SnapshotLibrary
}

type SnapshotLibrary struct {
	ID    string
	Label string
	Tools []SnapshotTool // ordered by pocket
}

type SnapshotTool struct {
	Pocket int
	Tool   Tool
}

// NumTools counts the tools in all libraries.
func (s *Snapshot) NumTools() int {
	n := 0
	for _, lib := range s.Libraries {
		n += len(lib.Tools)
	}
	return n
}
