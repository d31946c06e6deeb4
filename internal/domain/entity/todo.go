// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Todo is a single item in a user's todo list.
type Todo struct {
	ID        int64
	UserID    uuid.UUID
	Content   string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTodo creates a new, not yet completed todo owned by userID.
func NewTodo(userID uuid.UUID, content string) *Todo {
	now := time.Now().UTC()
	return &Todo{
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsOwnedBy reports whether the todo belongs to the given user.
func (t *Todo) IsOwnedBy(userID uuid.UUID) bool {
	return t.UserID == userID
}

// BulkUpdateBatch is the set of changes submitted in a single bulk update.
// Dirty ids are toggled, Deleted ids are removed. An id may appear in both.
type BulkUpdateBatch struct {
	Dirty   []int64
	Deleted []int64
}

// IsEmpty reports whether the batch carries no changes at all.
func (b BulkUpdateBatch) IsEmpty() bool {
	return len(b.Dirty) == 0 && len(b.Deleted) == 0
}
