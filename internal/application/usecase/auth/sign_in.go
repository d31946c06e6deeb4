// Package auth contains authentication-related use cases.
package auth

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/todo-app/backend/internal/application/adapter"
	"github.com/todo-app/backend/internal/domain/entity"
	domainerror "github.com/todo-app/backend/internal/domain/error"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 31
	minPasswordLength = 6
	maxPasswordLength = 31
)

// SignInInput represents the input for user sign-in.
type SignInInput struct {
	Username string
	Password string
}

// SignInOutput represents the output of user sign-in.
type SignInOutput struct {
	User   *entity.User
	Cookie entity.Cookie
}

// SignInUseCase handles user sign-in logic.
type SignInUseCase struct {
	userRepo        adapter.UserRepository
	passwordService adapter.PasswordService
	authService     adapter.AuthenticationService
}

// NewSignInUseCase creates a new SignInUseCase instance.
func NewSignInUseCase(
	userRepo adapter.UserRepository,
	passwordService adapter.PasswordService,
	authService adapter.AuthenticationService,
) *SignInUseCase {
	return &SignInUseCase{
		userRepo:        userRepo,
		passwordService: passwordService,
		authService:     authService,
	}
}

// Execute verifies the credentials and issues a session.
func (uc *SignInUseCase) Execute(ctx context.Context, input SignInInput) (*SignInOutput, error) {
	if fieldErrors := validateCredentials(input.Username, input.Password); len(fieldErrors) > 0 {
		return nil, domainerror.NewInputError("Invalid data", fieldErrors)
	}

	user, err := uc.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, domainerror.ErrUserNotFound) {
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := uc.passwordService.VerifyPassword(user.PasswordHash, input.Password); err != nil {
		return nil, invalidCredentials()
	}

	session, err := uc.authService.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SignInOutput{
		User:   user,
		Cookie: uc.authService.SessionCookie(session),
	}, nil
}

// invalidCredentials is shared by unknown users and wrong passwords to prevent username enumeration.
func invalidCredentials() error {
	return domainerror.NewAuthError(
		domainerror.ErrCodeInvalidCredentials,
		"Incorrect username or password",
		domainerror.ErrInvalidCredentials,
	)
}

func validateCredentials(username, password string) []domainerror.FieldError {
	var fieldErrors []domainerror.FieldError
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		fieldErrors = append(fieldErrors, domainerror.FieldError{
			Field:   "username",
			Message: fmt.Sprintf("must be between %d and %d characters", minUsernameLength, maxUsernameLength),
		})
	}
	if n := utf8.RuneCountInString(password); n < minPasswordLength || n > maxPasswordLength {
		fieldErrors = append(fieldErrors, domainerror.FieldError{
			Field:   "password",
			Message: fmt.Sprintf("must be between %d and %d characters", minPasswordLength, maxPasswordLength),
		})
	}
	return fieldErrors
}
