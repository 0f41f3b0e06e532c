package schemas

import (
	"embed"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Response identifies an embedded schema for a model response.
type Response string

// Embedded response schemas.
const (
	RFPSummary     Response = "rfp_summary.schema.json"
	ServiceMapping Response = "service_mapping.schema.json"
)

//go:embed *.schema.json
var responseFiles embed.FS

var (
	compiled   = make(map[Response]*gojsonschema.Schema)
	compiledMu sync.Mutex
)

// ValidateResponse validates a model response document against an embedded schema.
// Compiled schemas are cached for the life of the process.
func ValidateResponse(name Response, jsonContent string) error {
	schema, err := loadResponseSchema(name)
	if err != nil {
		return err
	}

	return validate(schema, gojsonschema.NewStringLoader(jsonContent))
}

func loadResponseSchema(name Response) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if schema, ok := compiled[name]; ok {
		return schema, nil
	}

	data, err := responseFiles.ReadFile(string(name))
	if err != nil {
		return nil, &SchemaLoadError{Path: string(name), Message: "embedded schema not found", Cause: err}
	}

	schema, err := compile(string(name), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, err
	}

	compiled[name] = schema
	return schema, nil
}
