package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/todo-app/backend/internal/application/usecase/auth"
	domainerror "github.com/todo-app/backend/internal/domain/error"
	"github.com/todo-app/backend/internal/integration/entrypoint/dto"
)

// AuthController handles authentication endpoints.
type AuthController struct {
	signUpUseCase  *auth.SignUpUseCase
	signInUseCase  *auth.SignInUseCase
	signOutUseCase *auth.SignOutUseCase
	cookieName     string
}

// NewAuthController creates a new auth controller instance.
func NewAuthController(
	signUpUseCase *auth.SignUpUseCase,
	signInUseCase *auth.SignInUseCase,
	signOutUseCase *auth.SignOutUseCase,
	cookieName string,
) *AuthController {
	return &AuthController{
		signUpUseCase:  signUpUseCase,
		signInUseCase:  signInUseCase,
		signOutUseCase: signOutUseCase,
		cookieName:     cookieName,
	}
}

// SignUp handles POST /auth/sign-up requests.
func (c *AuthController) SignUp(ctx *gin.Context) {
	var req dto.SignUpRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidBody(ctx)
		return
	}

	output, err := c.signUpUseCase.Execute(ctx.Request.Context(), auth.SignUpInput{
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		handleDomainError(ctx, err)
		return
	}

	setCookie(ctx, output.Cookie)
	ctx.JSON(http.StatusCreated, dto.ToUserResponse(output.User))
}

// SignIn handles POST /auth/sign-in requests.
func (c *AuthController) SignIn(ctx *gin.Context) {
	var req dto.SignInRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidBody(ctx)
		return
	}

	output, err := c.signInUseCase.Execute(ctx.Request.Context(), auth.SignInInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		handleDomainError(ctx, err)
		return
	}

	setCookie(ctx, output.Cookie)
	ctx.JSON(http.StatusOK, dto.ToUserResponse(output.User))
}

// SignOut handles POST /auth/sign-out requests.
func (c *AuthController) SignOut(ctx *gin.Context) {
	sessionID, _ := ctx.Cookie(c.cookieName)

	output, err := c.signOutUseCase.Execute(ctx.Request.Context(), auth.SignOutInput{SessionID: sessionID})
	if err != nil {
		handleDomainError(ctx, err)
		return
	}

	setCookie(ctx, output.Cookie)
	ctx.JSON(http.StatusOK, dto.MessageResponse{
		Message: "Successfully signed out",
	})
}

func invalidBody(ctx *gin.Context) {
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error: "Invalid request body",
		Code:  string(domainerror.ErrCodeInvalidInput),
	})
}
