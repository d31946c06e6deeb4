package adapters

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/todo-app/backend/config"
	"github.com/todo-app/backend/internal/application/adapter"
	"github.com/todo-app/backend/internal/domain/entity"
	domainerror "github.com/todo-app/backend/internal/domain/error"
)

const sessionIDBytes = 32

// authenticationService implements adapter.AuthenticationService with server-side sessions.
type authenticationService struct {
	sessions adapter.SessionRepository
	users    adapter.UserRepository
	cfg      config.SessionConfig
	now      func() time.Time
}

// NewAuthenticationService creates a new authentication service.
func NewAuthenticationService(
	sessions adapter.SessionRepository,
	users adapter.UserRepository,
	cfg config.SessionConfig,
) adapter.AuthenticationService {
	return &authenticationService{
		sessions: sessions,
		users:    users,
		cfg:      cfg,
		now:      time.Now,
	}
}

// ValidateSession resolves sessionID to its user.
func (s *authenticationService) ValidateSession(ctx context.Context, sessionID string) (*entity.User, error) {
	if sessionID == "" {
		return nil, domainerror.NewUnauthenticatedError(domainerror.ErrCodeMissingSession, "Must be logged in")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domainerror.ErrSessionNotFound) {
			return nil, invalidSession()
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.IsExpired(s.now()) {
		return nil, invalidSession()
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domainerror.ErrUserNotFound) {
			// the account is gone; the session must not outlive it
			_ = s.sessions.Delete(ctx, sessionID)
			return nil, invalidSession()
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	return user, nil
}

// CreateSession issues a new session for userID.
func (s *authenticationService) CreateSession(ctx context.Context, userID uuid.UUID) (*entity.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	session := &entity.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: s.now().Add(s.cfg.Lifetime),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// InvalidateSession removes the session.
func (s *authenticationService) InvalidateSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// SessionCookie builds the cookie carrying session.
func (s *authenticationService) SessionCookie(session *entity.Session) entity.Cookie {
	maxAge := int(session.ExpiresAt.Sub(s.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	return entity.Cookie{
		Name:     s.cfg.CookieName,
		Value:    session.ID,
		MaxAge:   maxAge,
		Path:     "/",
		Secure:   s.cfg.Secure,
		HTTPOnly: true,
	}
}

// BlankCookie builds a cookie that clears the session on the client.
func (s *authenticationService) BlankCookie() entity.Cookie {
	return entity.Cookie{
		Name:     s.cfg.CookieName,
		MaxAge:   -1,
		Path:     "/",
		Secure:   s.cfg.Secure,
		HTTPOnly: true,
	}
}

// SessionLifetime returns how long new sessions stay valid.
func (s *authenticationService) SessionLifetime() time.Duration {
	return s.cfg.Lifetime
}

func invalidSession() error {
	return domainerror.NewUnauthenticatedError(domainerror.ErrCodeInvalidSession, "Session is invalid or expired")
}

func newSessionID() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
