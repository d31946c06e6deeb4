// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/todo-app/backend/internal/domain/entity"
)

// TodoRepository defines the interface for todo persistence operations.
// Methods taking a Tx run inside that transaction context.
type TodoRepository interface {
	// Create creates a new todo.
	Create(ctx context.Context, todo *entity.Todo) error

	// FindByUser retrieves all todos owned by a user, ordered by ID.
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Todo, error)

	// FindByIDForUpdate retrieves a todo by its ID inside tx.
	// Returns domainerror.ErrTodoNotFound when no row exists.
	FindByIDForUpdate(ctx context.Context, tx Tx, id int64) (*entity.Todo, error)

	// SetCompleted updates the completed flag of a todo inside tx.
	SetCompleted(ctx context.Context, tx Tx, id int64, completed bool) error

	// Delete removes a todo inside tx.
	Delete(ctx context.Context, tx Tx, id int64) error
}
