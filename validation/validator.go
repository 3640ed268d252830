package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/promoflow/adkit/errors"
)

// Validator collects validation errors.
type Validator struct {
	errors []FieldError
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{
		errors: make([]FieldError, 0),
	}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns an AdError if there are validation errors, nil otherwise.
func (v *Validator) Validate() *errors.AdError {
	if !v.HasErrors() {
		return nil
	}

	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}

	adErr := errors.Validation(strings.Join(messages, "; "))
	adErr.Details = map[string]any{
		"fields": v.errors,
	}

	return adErr
}

// Required checks if a string is non-empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// MaxLength checks if a string is within max length.
func (v *Validator) MaxLength(field, value string, maxLen int) *Validator {
	if len(value) > maxLen {
		v.AddError(field, fmt.Sprintf("must be %d characters or less", maxLen))
	}
	return v
}

// MinLength checks if a string meets minimum length.
func (v *Validator) MinLength(field, value string, minLen int) *Validator {
	if len(value) < minLen {
		v.AddError(field, fmt.Sprintf("must be at least %d characters", minLen))
	}
	return v
}

// Range checks if a number is within a range.
func (v *Validator) Range(field string, value, minVal, maxVal int) *Validator {
	if value < minVal || value > maxVal {
		v.AddError(field, fmt.Sprintf("must be between %d and %d", minVal, maxVal))
	}
	return v
}

// Min checks if a number meets minimum value.
func (v *Validator) Min(field string, value, minVal int) *Validator {
	if value < minVal {
		v.AddError(field, fmt.Sprintf("must be at least %d", minVal))
	}
	return v
}

// Max checks if a number is within max value.
func (v *Validator) Max(field string, value, maxVal int) *Validator {
	if value > maxVal {
		v.AddError(field, fmt.Sprintf("must be %d or less", maxVal))
	}
	return v
}

// Pattern checks if a string matches a regex pattern.
func (v *Validator) Pattern(field, value, pattern string) *Validator {
	if value == "" {
		return v
	}
	matched, err := regexp.MatchString(pattern, value)
	if err != nil || !matched {
		v.AddError(field, "does not match required format")
	}
	return v
}

// OneOf checks if a value is one of the allowed values.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Custom applies a custom validation condition.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}

// Required validates a single required field and returns an error if empty.
func Required(field, value string) error {
	v := New().Required(field, value)
	if adErr := v.Validate(); adErr != nil {
		return adErr
	}
	return nil
}
