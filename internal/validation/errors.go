package validation

import (
	"fmt"
	"strings"
)

// StructureError lists the field constraints a proposal violates.
type StructureError struct {
	Problems []string
}

func (e *StructureError) Error() string {
	return "invalid proposal structure: " + strings.Join(e.Problems, "; ")
}

// DocumentError is returned when a rendered document cannot be inspected.
type DocumentError struct {
	Path  string
	Op    string
	Cause error
}

func (e *DocumentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Cause)
	}
	return fmt.Sprintf("%s %s", e.Op, e.Path)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}
