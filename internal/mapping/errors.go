package mapping

import "fmt"

// MappingError records why one requirement could not be mapped.
type MappingError struct {
	RequirementID string
	Stage         string
	Cause         error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("mapping requirement %s failed at %s: %v", e.RequirementID, e.Stage, e.Cause)
}

func (e *MappingError) Unwrap() error {
	return e.Cause
}
