// internal/common/validation/schema.go
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationResult holds the outcome of a schema validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator compiles a JSON Schema once and validates inputs against it.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles the given JSON Schema document.
func NewValidator(schemaJSON string) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// MustValidator compiles a schema known at build time and panics on error.
func MustValidator(schemaJSON string) *Validator {
	v, err := NewValidator(schemaJSON)
	if err != nil {
		panic(err)
	}
	return v
}

// ValidateBytes validates a raw JSON document.
func (v *Validator) ValidateBytes(doc []byte) *ValidationResult {
	return v.validate(gojsonschema.NewBytesLoader(doc))
}

// ValidateMap validates an already-decoded JSON object.
func (v *Validator) ValidateMap(doc map[string]interface{}) *ValidationResult {
	return v.validate(gojsonschema.NewGoLoader(doc))
}

func (v *Validator) validate(loader gojsonschema.JSONLoader) *ValidationResult {
	result, err := v.schema.Validate(loader)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "",
				Message: err.Error(),
				Code:    "INVALID_DOCUMENT",
			}},
		}
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	errors := make([]ValidationError, 0, len(result.Errors()))
	for _, resErr := range result.Errors() {
		errors = append(errors, ValidationError{
			Field:   resErr.Field(),
			Message: resErr.Description(),
			Code:    resErr.Type(),
		})
	}
	return &ValidationResult{Valid: false, Errors: errors}
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}
