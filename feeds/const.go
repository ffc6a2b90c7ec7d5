package feeds

import (
	"strings"

	"github.com/pkg/errors"
)

// Operation is a machining operation. Operations are keys into a
// material's speed table.
type Operation string

const (
	Milling  Operation = "milling"
	Slotting Operation = "slotting"
	Drilling Operation = "drilling"

	// Reserved. No built-in material carries data for these yet.
	Turning Operation = "turning"
	Parting Operation = "parting"
)

var operations = []Operation{Milling, Slotting, Drilling, Turning, Parting}

// Operations returns all known operations.
func Operations() []Operation {
	return append([]Operation(nil), operations...)
}

func ParseOperation(s string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range operations {
		if op == known {
			return op, nil
		}
	}
	return "", errors.Wrapf(ErrNotFound, "operation %q", s)
}

// ToolMaterial selects which divisor and speed table of a material applies.
type ToolMaterial string

const (
	HSS     ToolMaterial = "hss"
	Carbide ToolMaterial = "carbide"
)

var toolMaterials = []ToolMaterial{HSS, Carbide}

// ToolMaterials returns all known tool materials.
func ToolMaterials() []ToolMaterial {
	return append([]ToolMaterial(nil), toolMaterials...)
}

func ParseToolMaterial(s string) (ToolMaterial, error) {
	tm := ToolMaterial(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range toolMaterials {
		if tm == known {
			return tm, nil
		}
	}
	return "", errors.Wrapf(ErrNotFound, "tool material %q", s)
}

func (t ToolMaterial) String() string {
	switch t {
	case HSS:
		return "HSS"
	case Carbide:
		return "Carbide"
	}
	return string(t)
}
