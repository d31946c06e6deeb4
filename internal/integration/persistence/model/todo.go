package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/todo-app/backend/internal/domain/entity"
)

// TodoModel represents the todos table in the database.
type TodoModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Content   string    `gorm:"type:varchar(255);not null"`
	Completed bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the TodoModel.
func (TodoModel) TableName() string {
	return "todos"
}

// ToEntity converts a TodoModel to a domain Todo entity.
func (m *TodoModel) ToEntity() *entity.Todo {
	return &entity.Todo{
		ID:        m.ID,
		UserID:    m.UserID,
		Content:   m.Content,
		Completed: m.Completed,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// TodoFromEntity creates a TodoModel from a domain Todo entity.
func TodoFromEntity(todo *entity.Todo) *TodoModel {
	return &TodoModel{
		ID:        todo.ID,
		UserID:    todo.UserID,
		Content:   todo.Content,
		Completed: todo.Completed,
		CreatedAt: todo.CreatedAt,
		UpdatedAt: todo.UpdatedAt,
	}
}

// AllModels lists every model managed by auto-migration.
func AllModels() []interface{} {
	return []interface{}{
		&UserModel{},
		&TodoModel{},
	}
}
