// Package error defines domain-specific errors for the todo application.
package error

import "errors"

// Authentication domain errors.
var (
	// ErrUnauthenticated is returned when a session is missing, unknown or expired.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUserNotFound is returned when a user is not found in the system.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when signing up with a username that already exists.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials is returned when sign-in credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionNotFound is returned by the session store when no live session exists for an id.
	ErrSessionNotFound = errors.New("session not found")
)

// AuthErrorCode defines error codes for authentication errors.
// Format: AUTH-XXYYYY where XX is category and YYYY is specific error.
type AuthErrorCode string

const (
	// Sign-up errors (01XXXX)
	ErrCodeUsernameTaken AuthErrorCode = "AUTH-010001"

	// Sign-in errors (02XXXX)
	ErrCodeInvalidCredentials AuthErrorCode = "AUTH-020001"
	ErrCodeRateLimited        AuthErrorCode = "AUTH-020002"

	// Session errors (03XXXX)
	ErrCodeMissingSession AuthErrorCode = "AUTH-030001"
	ErrCodeInvalidSession AuthErrorCode = "AUTH-030002"
)

// AuthError represents an authentication error with code and message.
type AuthError struct {
	Code    AuthErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError creates a new AuthError with the given code and message.
func NewAuthError(code AuthErrorCode, message string, err error) *AuthError {
	return &AuthError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewUnauthenticatedError creates an AuthError for a missing or invalid session.
func NewUnauthenticatedError(code AuthErrorCode, message string) *AuthError {
	return NewAuthError(code, message, ErrUnauthenticated)
}
