// Package todo contains todo-related use cases.
package todo

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/todo-app/backend/internal/application/adapter"
	"github.com/todo-app/backend/internal/domain/entity"
	domainerror "github.com/todo-app/backend/internal/domain/error"
)

// maxContentLength is the maximum number of characters in a todo.
const maxContentLength = 255

// CreateTodoInput represents the input for todo creation.
type CreateTodoInput struct {
	Content string
	UserID  uuid.UUID
}

// CreateTodoOutput represents the output of todo creation.
type CreateTodoOutput struct {
	Todo *entity.Todo
}

// CreateTodoUseCase handles todo creation logic.
type CreateTodoUseCase struct {
	todoRepo        adapter.TodoRepository
	instrumentation adapter.Instrumentation
}

// NewCreateTodoUseCase creates a new CreateTodoUseCase instance.
func NewCreateTodoUseCase(todoRepo adapter.TodoRepository, instrumentation adapter.Instrumentation) *CreateTodoUseCase {
	return &CreateTodoUseCase{
		todoRepo:        todoRepo,
		instrumentation: instrumentation,
	}
}

// Execute creates a todo for the user.
func (uc *CreateTodoUseCase) Execute(ctx context.Context, input CreateTodoInput) (*CreateTodoOutput, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" || utf8.RuneCountInString(content) > maxContentLength {
		return nil, domainerror.NewInputError("Invalid data", []domainerror.FieldError{
			{Field: "content", Message: "must be between 1 and 255 characters"},
		})
	}

	todo := entity.NewTodo(input.UserID, content)
	err := uc.instrumentation.StartSpan(ctx, adapter.SpanOptions{Name: "createTodo Use Case", Op: "function"}, func(ctx context.Context) error {
		return uc.todoRepo.Create(ctx, todo)
	})
	if err != nil {
		return nil, domainerror.NewTodoStorageError("failed to create todo", err)
	}

	return &CreateTodoOutput{Todo: todo}, nil
}
