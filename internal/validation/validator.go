// PinkDiary - Personal Diary with Monthly Backup and Restore
// Copyright 2026 AiChengYin
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AiChengYin/pinkdiary

package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/AiChengYin/pinkdiary/internal/models"
)

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError represents a single field validation error.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field returns the struct field name that failed validation.
func (e *ValidationError) Field() string {
	return e.field
}

// Tag returns the validation tag that failed.
func (e *ValidationError) Tag() string {
	return e.tag
}

// Param returns the parameter for the validation tag (e.g., "9" for "max=9").
func (e *ValidationError) Param() string {
	return e.param
}

// Value returns the actual value that failed validation.
func (e *ValidationError) Value() interface{} {
	return e.value
}

// Error returns a human-readable error message.
func (e *ValidationError) Error() string {
	return e.message
}

// StructValidationError is the collection of field errors for one struct.
type StructValidationError struct {
	errors []ValidationError
}

// Errors returns the slice of validation errors.
func (ve *StructValidationError) Errors() []ValidationError {
	return ve.errors
}

// Fields returns the names of every field that failed.
func (ve *StructValidationError) Fields() []string {
	fields := make([]string, len(ve.errors))
	for i, err := range ve.errors {
		fields[i] = err.field
	}
	return fields
}

// Error joins the field messages.
func (ve *StructValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}

	messages := make([]string, 0, len(ve.errors))
	for _, err := range ve.errors {
		messages = append(messages, err.Error())
	}

	return strings.Join(messages, "; ")
}

// GetValidator returns the singleton validator instance.
// Custom tags:
//   - isodate: the first ten characters parse as YYYY-MM-DD
//   - mood:    one of the diary mood markers
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Registration only fails on an empty tag or nil func.
		_ = validate.RegisterValidation("isodate", validateISODate)
		_ = validate.RegisterValidation("mood", validateMood)
	})

	return validate
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := models.ParseDate(fl.Field().String())
	return err == nil
}

func validateMood(fl validator.FieldLevel) bool {
	return models.Mood(fl.Field().String()).IsValid()
}

// ValidateStruct validates a struct using the singleton validator.
// It returns an error (a *StructValidationError when the struct itself is
// invalid) so callers can wrap it with %w.
//
//	if err := validation.ValidateStruct(&record); err != nil {
//	    return fmt.Errorf("invalid diary entry: %w", err)
//	}
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &StructValidationError{
			errors: []ValidationError{
				{
					field:   "unknown",
					tag:     "unknown",
					message: err.Error(),
				},
			},
		}
	}

	fieldErrors := make([]ValidationError, len(validationErrs))
	for i, fieldErr := range validationErrs {
		fieldErrors[i] = ValidationError{
			field:   fieldErr.Field(),
			tag:     fieldErr.Tag(),
			param:   fieldErr.Param(),
			value:   fieldErr.Value(),
			message: translateError(fieldErr),
		}
	}

	return &StructValidationError{errors: fieldErrors}
}

// errorMessageTemplates maps validation tags to message templates.
var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"isodate":  "%s must start with a YYYY-MM-DD date",
	"mood":     "%s must be one of the mood markers",
}

// errorMessageWithParam maps validation tags to templates that include param.
var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

// translateError converts a validator.FieldError to a human-readable message.
func translateError(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}

	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	return translateMinMax(fe, field, tag, param)
}

// translateMinMax handles min/max validation with type-specific messages.
func translateMinMax(fe validator.FieldError, field, tag, param string) string {
	kind := fe.Kind().String()

	switch tag {
	case "min":
		switch kind {
		case "string":
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		case "slice":
			return fmt.Sprintf("%s must contain at least %s items", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		switch kind {
		case "string":
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		case "slice":
			return fmt.Sprintf("%s must contain at most %s items", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
