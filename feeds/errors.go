package feeds

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for unknown material, operation or tool
	// material keys.
	ErrNotFound = errors.New("not found")
	// ErrMissingData is matched by *MissingDataError.
	ErrMissingData = errors.New("missing speed data")
	// ErrMalformedData is returned when catalog data violates the
	// mandatory-field rules.
	ErrMalformedData = errors.New("malformed material data")
	// ErrInvalidQuery is returned for non-physical query values.
	ErrInvalidQuery = errors.New("invalid query")
)

// MissingDataError names the material/operation/tool-material combination
// that has no speed data and can not be estimated.
type MissingDataError struct {
	Material     string
	Operation    Operation
	ToolMaterial ToolMaterial
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("no %s speed data for %s with %s tools",
		e.Operation, e.Material, e.ToolMaterial)
}

func (e *MissingDataError) Is(target error) bool {
	return target == ErrMissingData
}
