package tooldb

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrDuplicateKey = errors.New("duplicate key")

	// Serializer boundary.
	ErrFormat             = errors.New("malformed input")
	ErrIO                 = errors.New("i/o error")
	ErrUnsupportedFeature = errors.New("not supported by format")

	// ErrDependencyUnavailable is returned when shape introspection needs
	// a collaborator (e.g. a CAD kernel) that is not installed.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// ValidationError describes a rejected tool field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid tool: " + e.Reason
	}
	return fmt.Sprintf("invalid tool %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
