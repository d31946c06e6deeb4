// Package todo contains todo-related use cases.
package todo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/todo-app/backend/internal/application/adapter"
	domainerror "github.com/todo-app/backend/internal/domain/error"
)

// DeleteTodoInput represents the input for deleting a todo.
type DeleteTodoInput struct {
	TodoID int64
}

// DeleteTodo removes one todo inside a transaction context.
type DeleteTodo interface {
	Execute(ctx context.Context, input DeleteTodoInput, userID uuid.UUID, tx adapter.Tx) error
}

// DeleteTodoUseCase handles deleting a single todo.
type DeleteTodoUseCase struct {
	todoRepo        adapter.TodoRepository
	instrumentation adapter.Instrumentation
}

// NewDeleteTodoUseCase creates a new DeleteTodoUseCase instance.
func NewDeleteTodoUseCase(todoRepo adapter.TodoRepository, instrumentation adapter.Instrumentation) *DeleteTodoUseCase {
	return &DeleteTodoUseCase{
		todoRepo:        todoRepo,
		instrumentation: instrumentation,
	}
}

// Execute deletes the todo identified by input.TodoID.
func (uc *DeleteTodoUseCase) Execute(ctx context.Context, input DeleteTodoInput, userID uuid.UUID, tx adapter.Tx) error {
	return uc.instrumentation.StartSpan(ctx, adapter.SpanOptions{Name: "deleteTodo Use Case", Op: "function"}, func(ctx context.Context) error {
		todo, err := uc.todoRepo.FindByIDForUpdate(ctx, tx, input.TodoID)
		if err != nil {
			if errors.Is(err, domainerror.ErrTodoNotFound) {
				return domainerror.NewTodoNotFoundError()
			}
			return domainerror.NewTodoStorageError("failed to find todo", err)
		}

		// Same error as a missing row so other users' ids are not revealed.
		if !todo.IsOwnedBy(userID) {
			return domainerror.NewTodoNotFoundError()
		}

		if err := uc.todoRepo.Delete(ctx, tx, todo.ID); err != nil {
			if errors.Is(err, domainerror.ErrTodoNotFound) {
				return domainerror.NewTodoNotFoundError()
			}
			return domainerror.NewTodoStorageError("failed to delete todo", err)
		}

		return nil
	})
}
