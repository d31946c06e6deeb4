package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/todo-app/backend/internal/application/usecase/todo"
	domainerror "github.com/todo-app/backend/internal/domain/error"
	"github.com/todo-app/backend/internal/integration/entrypoint/dto"
	"github.com/todo-app/backend/internal/integration/entrypoint/middleware"
)

// maxBulkBodyBytes caps the size of a bulk update payload.
const maxBulkBodyBytes = 1 << 20

// TodoController handles todo endpoints.
type TodoController struct {
	listUseCase       *todo.ListTodosUseCase
	createUseCase     *todo.CreateTodoUseCase
	bulkUpdateUseCase *todo.BulkUpdateTodosUseCase
	cookieName        string
}

// NewTodoController creates a new todo controller instance.
func NewTodoController(
	listUseCase *todo.ListTodosUseCase,
	createUseCase *todo.CreateTodoUseCase,
	bulkUpdateUseCase *todo.BulkUpdateTodosUseCase,
	cookieName string,
) *TodoController {
	return &TodoController{
		listUseCase:       listUseCase,
		createUseCase:     createUseCase,
		bulkUpdateUseCase: bulkUpdateUseCase,
		cookieName:        cookieName,
	}
}

// List handles GET /todos requests.
func (c *TodoController) List(ctx *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		handleDomainError(ctx, domainerror.NewUnauthenticatedError(domainerror.ErrCodeMissingSession, "Must be logged in"))
		return
	}

	output, err := c.listUseCase.Execute(ctx.Request.Context(), todo.ListTodosInput{UserID: userID})
	if err != nil {
		handleDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToTodoListResponse(output.Todos))
}

// Create handles POST /todos requests.
func (c *TodoController) Create(ctx *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		handleDomainError(ctx, domainerror.NewUnauthenticatedError(domainerror.ErrCodeMissingSession, "Must be logged in"))
		return
	}

	var req dto.CreateTodoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		invalidBody(ctx)
		return
	}

	output, err := c.createUseCase.Execute(ctx.Request.Context(), todo.CreateTodoInput{
		Content: req.Content,
		UserID:  userID,
	})
	if err != nil {
		handleDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.ToTodoResponse(output.Todo))
}

// BulkUpdate handles POST /todos/bulk-update requests. The session is checked by the
// use case before the body is validated, so this route is not behind the session middleware.
func (c *TodoController) BulkUpdate(ctx *gin.Context) {
	sessionID, _ := ctx.Cookie(c.cookieName)

	payload, readErr := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxBulkBodyBytes))
	if readErr != nil {
		// an unreadable body still goes through authentication first
		payload = nil
	}

	err := c.bulkUpdateUseCase.Execute(ctx.Request.Context(), todo.BulkUpdateTodosInput{
		Payload:   payload,
		SessionID: sessionID,
	})
	if readErr != nil && (err == nil || domainerror.KindOf(err) == domainerror.KindInvalidInput) {
		var tooLarge *http.MaxBytesError
		if errors.As(readErr, &tooLarge) {
			ctx.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{
				Error: "Request body too large",
				Code:  string(domainerror.ErrCodeInvalidInput),
			})
			return
		}
		invalidBody(ctx)
		return
	}
	if err != nil {
		handleDomainError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
