package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/todo-app/backend/internal/domain/entity"
	domainerror "github.com/todo-app/backend/internal/domain/error"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*entity.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.Username] = user
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domainerror.ErrUserNotFound
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[username]; ok {
		return u, nil
	}
	return nil, domainerror.ErrUserNotFound
}

func (r *memUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[username]
	return ok, nil
}

// prefixPasswordService stands in for bcrypt.
type prefixPasswordService struct{}

func (prefixPasswordService) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

func (prefixPasswordService) VerifyPassword(hashedPassword, password string) error {
	if hashedPassword != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type memAuthService struct {
	mu       sync.Mutex
	sessions map[string]*entity.Session
	users    *memUserRepo
	seq      int
}

func newMemAuthService(users *memUserRepo) *memAuthService {
	return &memAuthService{sessions: make(map[string]*entity.Session), users: users}
}

func (s *memAuthService) ValidateSession(ctx context.Context, sessionID string) (*entity.User, error) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, domainerror.NewUnauthenticatedError(domainerror.ErrCodeInvalidSession, "Session is invalid")
	}
	return s.users.FindByID(ctx, session.UserID)
}

func (s *memAuthService) CreateSession(_ context.Context, userID uuid.UUID) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	session := &entity.Session{
		ID:        fmt.Sprintf("session-%d", s.seq),
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.SessionLifetime()),
	}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *memAuthService) InvalidateSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *memAuthService) SessionCookie(session *entity.Session) entity.Cookie {
	return entity.Cookie{Name: "session", Value: session.ID, MaxAge: int(s.SessionLifetime().Seconds()), Path: "/", HTTPOnly: true}
}

func (s *memAuthService) BlankCookie() entity.Cookie {
	return entity.Cookie{Name: "session", Path: "/", MaxAge: -1, HTTPOnly: true}
}

func (s *memAuthService) SessionLifetime() time.Duration {
	return 30 * 24 * time.Hour
}
