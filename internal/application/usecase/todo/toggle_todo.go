// Package todo contains todo-related use cases.
package todo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/todo-app/backend/internal/application/adapter"
	domainerror "github.com/todo-app/backend/internal/domain/error"
)

// ToggleTodoInput represents the input for toggling a todo.
type ToggleTodoInput struct {
	TodoID int64
}

// ToggleTodo flips the completed flag of one todo inside a transaction context.
type ToggleTodo interface {
	Execute(ctx context.Context, input ToggleTodoInput, userID uuid.UUID, tx adapter.Tx) error
}

// ToggleTodoUseCase handles toggling a single todo.
type ToggleTodoUseCase struct {
	todoRepo        adapter.TodoRepository
	instrumentation adapter.Instrumentation
}

// NewToggleTodoUseCase creates a new ToggleTodoUseCase instance.
func NewToggleTodoUseCase(todoRepo adapter.TodoRepository, instrumentation adapter.Instrumentation) *ToggleTodoUseCase {
	return &ToggleTodoUseCase{
		todoRepo:        todoRepo,
		instrumentation: instrumentation,
	}
}

// Execute flips the completed flag of the todo identified by input.TodoID.
// A todo owned by someone else is reported exactly like a missing one.
func (uc *ToggleTodoUseCase) Execute(ctx context.Context, input ToggleTodoInput, userID uuid.UUID, tx adapter.Tx) error {
	return uc.instrumentation.StartSpan(ctx, adapter.SpanOptions{Name: "toggleTodo Use Case", Op: "function"}, func(ctx context.Context) error {
		todo, err := uc.todoRepo.FindByIDForUpdate(ctx, tx, input.TodoID)
		if err != nil {
			if errors.Is(err, domainerror.ErrTodoNotFound) {
				return domainerror.NewTodoNotFoundError()
			}
			return domainerror.NewTodoStorageError("failed to find todo", err)
		}

		if !todo.IsOwnedBy(userID) {
			return domainerror.NewTodoNotFoundError()
		}

		if err := uc.todoRepo.SetCompleted(ctx, tx, todo.ID, !todo.Completed); err != nil {
			if errors.Is(err, domainerror.ErrTodoNotFound) {
				return domainerror.NewTodoNotFoundError()
			}
			return domainerror.NewTodoStorageError("failed to toggle todo", err)
		}

		return nil
	})
}
