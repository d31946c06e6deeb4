// Package auth contains authentication-related use cases.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/todo-app/backend/internal/application/adapter"
	"github.com/todo-app/backend/internal/domain/entity"
	domainerror "github.com/todo-app/backend/internal/domain/error"
)

// SignUpInput represents the input for user registration.
type SignUpInput struct {
	Username        string
	Password        string
	ConfirmPassword string
}

// SignUpOutput represents the output of user registration.
type SignUpOutput struct {
	User   *entity.User
	Cookie entity.Cookie
}

// SignUpUseCase handles user registration logic.
type SignUpUseCase struct {
	userRepo        adapter.UserRepository
	passwordService adapter.PasswordService
	authService     adapter.AuthenticationService
}

// NewSignUpUseCase creates a new SignUpUseCase instance.
func NewSignUpUseCase(
	userRepo adapter.UserRepository,
	passwordService adapter.PasswordService,
	authService adapter.AuthenticationService,
) *SignUpUseCase {
	return &SignUpUseCase{
		userRepo:        userRepo,
		passwordService: passwordService,
		authService:     authService,
	}
}

// Execute registers the user and signs them in.
func (uc *SignUpUseCase) Execute(ctx context.Context, input SignUpInput) (*SignUpOutput, error) {
	if fieldErrors := validateCredentials(input.Username, input.Password); len(fieldErrors) > 0 {
		return nil, domainerror.NewInputError("Invalid data", fieldErrors)
	}
	if input.Password != input.ConfirmPassword {
		return nil, domainerror.NewInputError("Invalid data", []domainerror.FieldError{
			{Field: "confirm_password", Message: "must match password"},
		})
	}

	exists, err := uc.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username existence: %w", err)
	}
	if exists {
		return nil, usernameTaken()
	}

	passwordHash, err := uc.passwordService.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := entity.NewUser(input.Username, passwordHash)
	if err := uc.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domainerror.ErrUsernameTaken) {
			return nil, usernameTaken()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := uc.authService.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SignUpOutput{
		User:   user,
		Cookie: uc.authService.SessionCookie(session),
	}, nil
}

func usernameTaken() error {
	return domainerror.NewAuthError(
		domainerror.ErrCodeUsernameTaken,
		"Username taken",
		domainerror.ErrUsernameTaken,
	)
}
