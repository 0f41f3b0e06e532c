// Package schemas provides JSON Schema validation for model responses and
// for the proposal documents the CLI writes.
package schemas

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ResolveSchemaPath looks for relativePath in the working directory and up to
// two parent directories, so commands and package tests find the repo's
// schemas. It returns "" when nothing matches.
func ResolveSchemaPath(relativePath string) string {
	dir := ""
	for range 3 {
		candidate, err := filepath.Abs(filepath.Join(dir, relativePath))
		if err == nil {
			if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
				return candidate
			}
		}
		dir = filepath.Join(dir, "..")
	}
	return ""
}

// FieldError is one schema violation.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// SchemaLoadError is returned when a schema cannot be read or compiled.
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// ValidateJSON validates the JSON file at jsonPath against the schema file at schemaPath.
func ValidateJSON(schemaPath, jsonPath string) error {
	schemaData, err := readFile("schema", schemaPath)
	if err != nil {
		return err
	}
	document, err := readFile("JSON", jsonPath)
	if err != nil {
		return err
	}

	schema, err := compile(schemaPath, gojsonschema.NewBytesLoader(schemaData))
	if err != nil {
		return err
	}
	return validate(schema, gojsonschema.NewBytesLoader(document))
}

// ValidateJSONString validates jsonContent against schemaContent.
func ValidateJSONString(schemaContent, jsonContent string) error {
	schema, err := compile("(string schema)", gojsonschema.NewStringLoader(schemaContent))
	if err != nil {
		return err
	}
	return validate(schema, gojsonschema.NewStringLoader(jsonContent))
}

func readFile(kind, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s file not found: %s", kind, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s file %s: %w", kind, path, err)
	}
	return data, nil
}

func compile(name string, loader gojsonschema.JSONLoader) (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "invalid schema", Cause: err}
	}
	return schema, nil
}

// validate runs schema against document and collects violations into a
// *ValidationError.
func validate(schema *gojsonschema.Schema, document gojsonschema.JSONLoader) error {
	result, err := schema.Validate(document)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	violations := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		violations.Errors = append(violations.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return violations
}
