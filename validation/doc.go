// Package validation provides input validation for configuration and
// monitor request guards.
//
// It supports both struct tag validation (using the validator library)
// and programmatic validation with error collection. Both paths report
// failures as INVALID_INPUT AdErrors with per-field details.
//
// # Struct Tag Validation
//
//	type Placement struct {
//	    Tag    string `json:"tag" validate:"required"`
//	    UnitID string `json:"unit_id" validate:"required"`
//	}
//	err := validation.Validate(p)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("tag", tag).MaxLength("tag", tag, 64)
//	if err := v.Validate(); err != nil { ... }
package validation
