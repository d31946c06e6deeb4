package persistence

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/todo-app/backend/config"
	"github.com/todo-app/backend/internal/domain/entity"
	"github.com/todo-app/backend/internal/infra/db"
	"github.com/todo-app/backend/internal/integration/persistence/model"
)

type recordingCrashReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *recordingCrashReporter) Report(_ context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingCrashReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

func newTestDatabase(t *testing.T) *db.Database {
	t.Helper()
	database, err := db.NewSQLiteConnection(&config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, database.AutoMigrate(model.AllModels()...))
	return database
}

func seedTodo(t *testing.T, gdb *gorm.DB, userID uuid.UUID, content string, completed bool) *entity.Todo {
	t.Helper()
	todo := entity.NewTodo(userID, content)
	todo.Completed = completed
	m := model.TodoFromEntity(todo)
	require.NoError(t, gdb.Create(m).Error)
	todo.ID = m.ID
	return todo
}

func loadTodo(t *testing.T, gdb *gorm.DB, id int64) (*model.TodoModel, bool) {
	t.Helper()
	var m model.TodoModel
	result := gdb.Where("id = ?", id).Limit(1).Find(&m)
	require.NoError(t, result.Error)
	if result.RowsAffected == 0 {
		return nil, false
	}
	return &m, true
}
