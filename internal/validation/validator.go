// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

// Package validation wraps go-playground/validator with request-level
// error translation. Struct tags declare the rules; ValidateStruct
// turns violations into a RequestValidationError the API layer can
// serialize directly.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes one failed field.
type ValidationError struct {
	field   string
	tag     string
	message string
}

// Field returns the offending field name.
func (e ValidationError) Field() string { return e.field }

// Tag returns the violated rule tag.
func (e ValidationError) Tag() string { return e.tag }

// Error implements the error interface.
func (e ValidationError) Error() string { return e.message }

// RequestValidationError aggregates all field failures of one request.
type RequestValidationError struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (e *RequestValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.message
	}
	return strings.Join(msgs, "; ")
}

// Details returns a field-to-message map for the API error body.
func (e *RequestValidationError) Details() map[string]any {
	details := make(map[string]any, len(e.Errors))
	for _, ve := range e.Errors {
		details[ve.field] = ve.message
	}
	return details
}

var (
	validatorOnce     sync.Once
	validatorInstance *validator.Validate
)

// GetValidator returns the shared validator instance.
func GetValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInstance = validator.New(validator.WithRequiredStructEnabled())
	})
	return validatorInstance
}

// ValidateStruct validates a tagged struct and returns a
// *RequestValidationError on failure.
func ValidateStruct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &RequestValidationError{Errors: make([]ValidationError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, ValidationError{
			field:   strings.ToLower(fe.Field()),
			tag:     fe.Tag(),
			message: translateError(fe),
		})
	}
	return out
}

var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"uuid":     "%s must be a valid UUID",
	"alphanum": "%s must contain only letters and digits",
}

var errorMessageWithParam = map[string]string{
	"min": "%s must be at least %s",
	"max": "%s must be at most %s",
	"gte": "%s must be at least %s",
	"lte": "%s must be at most %s",
	"len": "%s must be exactly %s long",
}

func translateError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	if tmpl, ok := errorMessageTemplates[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := errorMessageWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, field, fe.Param())
	}
	return fmt.Sprintf("%s failed validation rule %q", field, fe.Tag())
}
