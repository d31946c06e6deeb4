// Package error defines domain-specific errors for the todo application.
package error

import "errors"

// Todo domain errors.
var (
	// ErrTodoNotFound is returned when a todo does not exist or is not owned by the caller.
	ErrTodoNotFound = errors.New("todo not found")

	// ErrTodoStorage is returned when the underlying persistence layer fails.
	ErrTodoStorage = errors.New("todo storage failure")

	// ErrBulkTimeout is returned when a bulk update exceeds its deadline.
	ErrBulkTimeout = errors.New("bulk update timed out")
)

// TodoErrorCode defines error codes for todo errors.
// Format: TODO-XXYYYY where XX is category and YYYY is specific error.
type TodoErrorCode string

const (
	// Lookup errors (01XXXX)
	ErrCodeTodoNotFound TodoErrorCode = "TODO-010001"

	// Storage errors (02XXXX)
	ErrCodeTodoStorage TodoErrorCode = "TODO-020001"

	// Bulk errors (03XXXX)
	ErrCodeBulkTimeout TodoErrorCode = "TODO-030001"
)

// TodoError represents a todo error with code and message.
type TodoError struct {
	Code    TodoErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *TodoError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *TodoError) Unwrap() error {
	return e.Err
}

// NewTodoError creates a new TodoError with the given code and message.
func NewTodoError(code TodoErrorCode, message string, err error) *TodoError {
	return &TodoError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewTodoNotFoundError creates the error shared by missing and foreign todos,
// so callers cannot tell one case from the other.
func NewTodoNotFoundError() *TodoError {
	return NewTodoError(ErrCodeTodoNotFound, "todo not found", ErrTodoNotFound)
}

// NewTodoStorageError wraps a persistence failure.
func NewTodoStorageError(message string, cause error) *TodoError {
	return NewTodoError(ErrCodeTodoStorage, message, errors.Join(ErrTodoStorage, cause))
}
