// Package auth contains authentication-related use cases.
package auth

import (
	"context"
	"fmt"

	"github.com/todo-app/backend/internal/application/adapter"
	"github.com/todo-app/backend/internal/domain/entity"
	domainerror "github.com/todo-app/backend/internal/domain/error"
)

// SignOutInput represents the input for user sign-out.
type SignOutInput struct {
	SessionID string
}

// SignOutOutput represents the output of user sign-out.
type SignOutOutput struct {
	Cookie entity.Cookie
}

// SignOutUseCase handles user sign-out logic.
type SignOutUseCase struct {
	authService adapter.AuthenticationService
}

// NewSignOutUseCase creates a new SignOutUseCase instance.
func NewSignOutUseCase(authService adapter.AuthenticationService) *SignOutUseCase {
	return &SignOutUseCase{
		authService: authService,
	}
}

// Execute ends the session and returns a cookie that clears it on the client.
func (uc *SignOutUseCase) Execute(ctx context.Context, input SignOutInput) (*SignOutOutput, error) {
	if input.SessionID == "" {
		return nil, domainerror.NewUnauthenticatedError(domainerror.ErrCodeMissingSession, "Must be logged in to sign out")
	}

	if _, err := uc.authService.ValidateSession(ctx, input.SessionID); err != nil {
		return nil, err
	}

	if err := uc.authService.InvalidateSession(ctx, input.SessionID); err != nil {
		return nil, fmt.Errorf("failed to invalidate session: %w", err)
	}

	return &SignOutOutput{Cookie: uc.authService.BlankCookie()}, nil
}
