// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/todo-app/backend/internal/domain/entity"
)

// SessionRepository stores sessions keyed by their opaque identifier.
type SessionRepository interface {
	// Save stores a session until it expires.
	Save(ctx context.Context, session *entity.Session) error

	// Get returns the session for id, or domainerror.ErrSessionNotFound.
	Get(ctx context.Context, id string) (*entity.Session, error)

	// Delete removes a session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, id string) error
}

// AuthenticationService resolves and manages sessions.
type AuthenticationService interface {
	// ValidateSession resolves a session id to its user.
	// Fails with an unauthenticated AuthError when the session is absent, unknown or expired.
	ValidateSession(ctx context.Context, sessionID string) (*entity.User, error)

	// CreateSession issues a new session for the user.
	CreateSession(ctx context.Context, userID uuid.UUID) (*entity.Session, error)

	// InvalidateSession ends a session.
	InvalidateSession(ctx context.Context, sessionID string) error

	// SessionCookie builds the cookie carrying session.
	SessionCookie(session *entity.Session) entity.Cookie

	// BlankCookie builds a cookie that clears the session on the client.
	BlankCookie() entity.Cookie

	// SessionLifetime returns how long new sessions stay valid.
	SessionLifetime() time.Duration
}

// RateLimiter counts hits per key.
type RateLimiter interface {
	// Allow records a hit for key. When the limit is exceeded it returns false and
	// how long the caller should wait.
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}
