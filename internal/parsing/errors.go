package parsing

import (
	"errors"
	"fmt"
)

// Stage names the part of model extraction that failed.
type Stage string

const (
	// StageRequest covers the client, retrieval and prompt.
	StageRequest Stage = "request"
	// StageResponse covers an unusable model answer.
	StageResponse Stage = "response"
)

// ExtractionError is returned by the model extraction path. Extract turns
// it into a degraded summary.
type ExtractionError struct {
	Stage   Stage
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rfp extraction %s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("rfp extraction %s: %s", e.Stage, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

func requestError(message string, cause error) error {
	return &ExtractionError{Stage: StageRequest, Message: message, Cause: cause}
}

func responseError(message string, cause error) error {
	return &ExtractionError{Stage: StageResponse, Message: message, Cause: cause}
}

// IsResponseError reports whether err came from an unusable model response.
func IsResponseError(err error) bool {
	var extractErr *ExtractionError
	return errors.As(err, &extractErr) && extractErr.Stage == StageResponse
}
