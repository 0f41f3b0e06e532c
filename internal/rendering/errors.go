// Package rendering lays out a Proposal as a paginated PDF document with a
// title page, a table of contents and one page sequence per section.
package rendering

import "fmt"

// AssetError reports a required rendering asset (the font) that cannot be used.
// It is the one failure that aborts proposal generation.
type AssetError struct {
	Path    string
	Message string
	Cause   error
}

func (e *AssetError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("asset error: %s (%s): %v", e.Message, e.Path, e.Cause)
	}
	return fmt.Sprintf("asset error: %s (%s)", e.Message, e.Path)
}

func (e *AssetError) Unwrap() error {
	return e.Cause
}

// LayoutError reports that the final layout disagrees with the recorded
// section pages, so the table of contents would be wrong.
type LayoutError struct {
	Section  string
	Recorded int
	Actual   int
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("layout error: section %q recorded on page %d but laid out on page %d",
		e.Section, e.Recorded, e.Actual)
}

// RenderError represents a general rendering failure
type RenderError struct {
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("render error: %s", e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
