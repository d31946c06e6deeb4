// Package middleware provides HTTP middleware for the API endpoints.
package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/todo-app/backend/internal/application/adapter"
	domainerror "github.com/todo-app/backend/internal/domain/error"
	"github.com/todo-app/backend/internal/integration/entrypoint/dto"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// UserIDKey is the context key for the authenticated user's ID.
	UserIDKey ContextKey = "user_id"
	// UsernameKey is the context key for the authenticated user's name.
	UsernameKey ContextKey = "username"
)

// AuthMiddleware authenticates requests by their session cookie.
type AuthMiddleware struct {
	authService adapter.AuthenticationService
	cookieName  string
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(authService adapter.AuthenticationService, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		cookieName:  cookieName,
	}
}

// Authenticate returns a Gin middleware handler that requires a live session.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, _ := c.Cookie(m.cookieName)

		user, err := m.authService.ValidateSession(c.Request.Context(), sessionID)
		if err != nil {
			var authErr *domainerror.AuthError
			if errors.As(err, &authErr) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
					Error:    authErr.Message,
					Code:     string(authErr.Code),
					Redirect: "/sign-in",
				})
				return
			}
			slog.ErrorContext(c.Request.Context(), "Failed to validate session", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error: "An internal error occurred",
			})
			return
		}

		c.Set(string(UserIDKey), user.ID)
		c.Set(string(UsernameKey), user.Username)

		c.Next()
	}
}

// GetUserIDFromContext extracts the user ID from the Gin context.
func GetUserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(string(UserIDKey))
	if !exists {
		return uuid.Nil, false
	}
	id, ok := userID.(uuid.UUID)
	return id, ok
}
