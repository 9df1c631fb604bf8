package schema

import (
	"sort"

	"github.com/aretw0/flowrun/pkg/domain"
)

// Schema is a map of field names to their expected types.
// Example: {"code": String(), "issues": Slice(String())}
type Schema map[string]Type

// Validate checks if data conforms to the schema.
// Every field named by the schema is required. Keys not in the schema are ignored.
// Failures are reported in field-name order.
func Validate(schema Schema, data domain.State) error {
	if len(schema) == 0 {
		// No schema = no validation
		return nil
	}

	fields := make([]string, 0, len(schema))
	for name := range schema {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	return ValidateFields(schema, data, fields...)
}

// ValidateFields validates only specific fields from data against the schema.
// Missing fields are treated as an error.
func ValidateFields(schema Schema, data domain.State, fields ...string) error {
	if len(fields) == 0 {
		// No fields to validate
		return nil
	}

	var errs []error

	for _, fieldName := range fields {
		fieldType, exists := schema[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: "not defined in schema",
			})
			continue
		}

		value, fieldExists := data[fieldName]
		if !fieldExists {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: "required",
			})
			continue
		}

		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:     fieldName,
				Reason:  err.Error(),
				Value:   value,
				present: true,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}

	return nil
}
