// Package validation checks Zeebe job variables against the activity registry's
// JSON input schemas before a worker touches the store.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"recruiting-pipeline/internal/common/errors"
	"recruiting-pipeline/pkg/registry"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator holds one compiled schema per task type.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewValidator compiles every input schema in reg.
func NewValidator(reg *registry.ActivityRegistry) (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(reg.Activities))}
	for _, a := range reg.Activities {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(a.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("compile input schema for %s: %w", a.TaskType, err)
		}
		v.schemas[a.TaskType] = schema
	}
	return v, nil
}

// Validate checks decoded variables against the schema for taskType.
func (v *Validator) Validate(taskType string, variables map[string]interface{}) (*ValidationResult, error) {
	return v.validate(taskType, gojsonschema.NewGoLoader(variables))
}

// ValidateJSON checks raw job variables and returns a VALIDATION_FAILED error listing every violation.
func (v *Validator) ValidateJSON(taskType, raw string) error {
	result, err := v.validate(taskType, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return errors.NewValidationError(err.Error())
	}
	if result.Valid {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	stdErr := errors.NewValidationError(strings.Join(msgs, "; "))
	stdErr.Metadata = map[string]interface{}{"taskType": taskType, "violations": len(msgs)}
	return stdErr
}

func (v *Validator) validate(taskType string, doc gojsonschema.JSONLoader) (*ValidationResult, error) {
	schema, ok := v.schemas[taskType]
	if !ok {
		return nil, fmt.Errorf("no input schema registered for task type %q", taskType)
	}

	res, err := schema.Validate(doc)
	if err != nil {
		return nil, fmt.Errorf("validate %s input: %w", taskType, err)
	}

	out := &ValidationResult{Valid: res.Valid()}
	for _, e := range res.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    e.Type(),
		})
	}
	sort.Slice(out.Errors, func(i, j int) bool { return out.Errors[i].Field < out.Errors[j].Field })
	return out, nil
}
