// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session binds an opaque session identifier to a user until it expires.
type Session struct {
	ID        string
	UserID    uuid.UUID
	ExpiresAt time.Time
}

// IsExpired reports whether the session is no longer valid at the given instant.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Cookie describes the session cookie handed back to the client.
type Cookie struct {
	Name     string
	Value    string
	MaxAge   int
	Path     string
	Secure   bool
	HTTPOnly bool
}
