// Package controller implements HTTP handlers for the API endpoints.
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/todo-app/backend/internal/domain/entity"
	domainerror "github.com/todo-app/backend/internal/domain/error"
	"github.com/todo-app/backend/internal/integration/entrypoint/dto"
)

// signInPath is where unauthenticated clients are sent.
const signInPath = "/sign-in"

// handleDomainError translates a domain error into an HTTP response. Internals of
// unclassified errors never reach the client.
func handleDomainError(ctx *gin.Context, err error) {
	var inputErr *domainerror.InputError
	if errors.As(err, &inputErr) {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   inputErr.Message,
			Code:    string(inputErr.Code),
			Details: inputErr.Details(),
		})
		return
	}

	var authErr *domainerror.AuthError
	if errors.As(err, &authErr) {
		response := dto.ErrorResponse{
			Error: authErr.Message,
			Code:  string(authErr.Code),
		}
		if errors.Is(authErr, domainerror.ErrUnauthenticated) {
			response.Redirect = signInPath
		}
		ctx.JSON(getStatusCodeForAuthError(authErr.Code), response)
		return
	}

	var todoErr *domainerror.TodoError
	if errors.As(err, &todoErr) {
		statusCode := getStatusCodeForTodoError(todoErr.Code)
		message := todoErr.Message
		if statusCode == http.StatusInternalServerError {
			message = "An internal error occurred"
		}
		ctx.JSON(statusCode, dto.ErrorResponse{
			Error: message,
			Code:  string(todoErr.Code),
		})
		return
	}

	// Generic server error
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error: "An internal error occurred",
	})
}

// getStatusCodeForAuthError maps auth error codes to HTTP status codes.
func getStatusCodeForAuthError(code domainerror.AuthErrorCode) int {
	switch code {
	case domainerror.ErrCodeUsernameTaken:
		return http.StatusConflict
	case domainerror.ErrCodeInvalidCredentials,
		domainerror.ErrCodeMissingSession,
		domainerror.ErrCodeInvalidSession:
		return http.StatusUnauthorized
	case domainerror.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// getStatusCodeForTodoError maps todo error codes to HTTP status codes.
func getStatusCodeForTodoError(code domainerror.TodoErrorCode) int {
	switch code {
	case domainerror.ErrCodeTodoNotFound:
		return http.StatusNotFound
	case domainerror.ErrCodeBulkTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func setCookie(ctx *gin.Context, cookie entity.Cookie) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(cookie.Name, cookie.Value, cookie.MaxAge, cookie.Path, "", cookie.Secure, cookie.HTTPOnly)
}
