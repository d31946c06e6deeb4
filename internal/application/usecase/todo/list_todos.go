// Package todo contains todo-related use cases.
package todo

import (
	"context"

	"github.com/google/uuid"

	"github.com/todo-app/backend/internal/application/adapter"
	"github.com/todo-app/backend/internal/domain/entity"
	domainerror "github.com/todo-app/backend/internal/domain/error"
)

// ListTodosInput represents the input for listing todos.
type ListTodosInput struct {
	UserID uuid.UUID
}

// ListTodosOutput represents the output of listing todos.
type ListTodosOutput struct {
	Todos []*entity.Todo
}

// ListTodosUseCase handles listing a user's todos.
type ListTodosUseCase struct {
	todoRepo adapter.TodoRepository
}

// NewListTodosUseCase creates a new ListTodosUseCase instance.
func NewListTodosUseCase(todoRepo adapter.TodoRepository) *ListTodosUseCase {
	return &ListTodosUseCase{
		todoRepo: todoRepo,
	}
}

// Execute lists the user's todos.
func (uc *ListTodosUseCase) Execute(ctx context.Context, input ListTodosInput) (*ListTodosOutput, error) {
	todos, err := uc.todoRepo.FindByUser(ctx, input.UserID)
	if err != nil {
		return nil, domainerror.NewTodoStorageError("failed to list todos", err)
	}
	return &ListTodosOutput{Todos: todos}, nil
}
