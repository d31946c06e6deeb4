// Package error defines domain-specific errors for the todo application.
package error

import (
	"errors"
	"strings"
)

// ErrInvalidInput is returned when a request payload does not match its schema.
var ErrInvalidInput = errors.New("invalid input")

// InputErrorCode defines error codes for input errors.
type InputErrorCode string

const (
	ErrCodeInvalidInput InputErrorCode = "INPUT-010001"
)

// FieldError describes a single schema violation.
type FieldError struct {
	Field   string
	Message string
}

// String renders the field error as "field: message".
func (f FieldError) String() string {
	return f.Field + ": " + f.Message
}

// InputError represents a schema violation in client input.
type InputError struct {
	Code        InputErrorCode
	Message     string
	FieldErrors []FieldError
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if len(e.FieldErrors) == 0 {
		return e.Message
	}
	return e.Message + ": " + e.Details()
}

// Unwrap returns ErrInvalidInput so callers can use errors.Is.
func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// Details joins all field errors into a single human readable string.
func (e *InputError) Details() string {
	parts := make([]string, len(e.FieldErrors))
	for i, fe := range e.FieldErrors {
		parts[i] = fe.String()
	}
	return strings.Join(parts, "; ")
}

// NewInputError creates a new InputError.
func NewInputError(message string, fieldErrors []FieldError) *InputError {
	return &InputError{
		Code:        ErrCodeInvalidInput,
		Message:     message,
		FieldErrors: fieldErrors,
	}
}
