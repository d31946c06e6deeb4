package dto

import (
	"time"

	"github.com/todo-app/backend/internal/domain/entity"
)

// CreateTodoRequest represents the request body for todo creation.
type CreateTodoRequest struct {
	Content string `json:"content" binding:"required"`
}

// TodoResponse represents a todo in API responses.
type TodoResponse struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TodoListResponse represents a list of todos.
type TodoListResponse struct {
	Data []TodoResponse `json:"data"`
}

// ToTodoResponse converts a domain Todo entity to a TodoResponse DTO.
func ToTodoResponse(todo *entity.Todo) TodoResponse {
	return TodoResponse{
		ID:        todo.ID,
		Content:   todo.Content,
		Completed: todo.Completed,
		CreatedAt: todo.CreatedAt,
		UpdatedAt: todo.UpdatedAt,
	}
}

// ToTodoListResponse converts domain Todo entities to a TodoListResponse DTO.
func ToTodoListResponse(todos []*entity.Todo) TodoListResponse {
	data := make([]TodoResponse, len(todos))
	for i, todo := range todos {
		data[i] = ToTodoResponse(todo)
	}
	return TodoListResponse{Data: data}
}
