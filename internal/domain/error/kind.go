// Package error defines domain-specific errors for the todo application.
package error

import "errors"

// Kind is the coarse category of an error as seen by callers at the boundary.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindUnauthenticated
	KindNotFound
	KindStorage
	KindTimeout
	KindConflict
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	case KindTimeout:
		return "timeout"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// KindOf classifies err. Errors that are not part of the domain taxonomy are KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return KindInvalidInput
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		switch {
		case errors.Is(authErr, ErrUnauthenticated), errors.Is(authErr, ErrInvalidCredentials):
			return KindUnauthenticated
		case errors.Is(authErr, ErrUsernameTaken):
			return KindConflict
		}
		return KindUnknown
	}

	var todoErr *TodoError
	if errors.As(err, &todoErr) {
		switch todoErr.Code {
		case ErrCodeTodoNotFound:
			return KindNotFound
		case ErrCodeTodoStorage:
			return KindStorage
		case ErrCodeBulkTimeout:
			return KindTimeout
		}
	}

	return KindUnknown
}

// IsClassified reports whether err belongs to the domain taxonomy.
func IsClassified(err error) bool {
	return KindOf(err) != KindUnknown
}
