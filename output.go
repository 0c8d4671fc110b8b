package forge

import (
	"encoding/json"

	"github.com/alt-sl/agentforge/internal/schema"
)

// OutputFormat declares a structured output constraint: the model's
// response must conform to the named JSON Schema instead of free text.
type OutputFormat struct {
	Name       string
	Properties map[string]any
	Required   []string
}

// NewOutputFormat creates an OutputFormat with an explicit schema.
func NewOutputFormat(name string, properties map[string]any, required []string) OutputFormat {
	return OutputFormat{Name: name, Properties: properties, Required: required}
}

// NewOutputFormatType creates an OutputFormat from a Go struct type T.
// The schema is auto-generated from struct tags.
func NewOutputFormatType[T any](name string) OutputFormat {
	def := schema.Generate[T]()
	return OutputFormat{
		Name:       name,
		Properties: def.Properties,
		Required:   def.Required,
	}
}

// DecodeOutput unmarshals structured output into type T. A decode
// failure is reported as a *SchemaValidationError so callers can
// re-prompt rather than silently coerce.
func DecodeOutput[T any](format OutputFormat, raw json.RawMessage) (*T, error) {
	if len(raw) == 0 {
		return nil, &SchemaValidationError{Format: format.Name, Reason: "response carried no structured output"}
	}
	var result T
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &SchemaValidationError{Format: format.Name, Reason: "output does not match schema", Err: err}
	}
	return &result, nil
}
