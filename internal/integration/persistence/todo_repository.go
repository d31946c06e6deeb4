package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/todo-app/backend/internal/application/adapter"
	"github.com/todo-app/backend/internal/domain/entity"
	domainerror "github.com/todo-app/backend/internal/domain/error"
	"github.com/todo-app/backend/internal/integration/persistence/model"
)

// errUnsupportedTx is returned when a repository receives a transaction it cannot run statements on.
var errUnsupportedTx = errors.New("transaction does not expose a database connection")

// txConn is implemented by transaction contexts that own a GORM connection.
type txConn interface {
	WithConn(ctx context.Context, fn func(db *gorm.DB) error) error
}

// todoRepository implements the adapter.TodoRepository interface.
type todoRepository struct {
	db            *gorm.DB
	crashReporter adapter.CrashReporter
}

// NewTodoRepository creates a new todo repository instance.
func NewTodoRepository(db *gorm.DB, crashReporter adapter.CrashReporter) adapter.TodoRepository {
	return &todoRepository{
		db:            db,
		crashReporter: crashReporter,
	}
}

// Create creates a new todo and fills in its generated ID.
func (r *todoRepository) Create(ctx context.Context, todo *entity.Todo) error {
	todoModel := model.TodoFromEntity(todo)
	if err := r.db.WithContext(ctx).Create(todoModel).Error; err != nil {
		return r.report(ctx, err)
	}
	todo.ID = todoModel.ID
	return nil
}

// FindByUser retrieves all todos owned by a user, ordered by ID.
func (r *todoRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Todo, error) {
	var todoModels []model.TodoModel
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&todoModels)
	if result.Error != nil {
		return nil, r.report(ctx, result.Error)
	}

	todos := make([]*entity.Todo, len(todoModels))
	for i := range todoModels {
		todos[i] = todoModels[i].ToEntity()
	}
	return todos, nil
}

// FindByIDForUpdate retrieves a todo by its ID inside tx, locking the row where the database supports it.
func (r *todoRepository) FindByIDForUpdate(ctx context.Context, tx adapter.Tx, id int64) (*entity.Todo, error) {
	var todoModel model.TodoModel
	err := r.withTx(ctx, tx, func(db *gorm.DB) error {
		query := db
		if db.Dialector.Name() != "sqlite" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		return query.Where("id = ?", id).First(&todoModel).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerror.ErrTodoNotFound
		}
		return nil, err
	}
	return todoModel.ToEntity(), nil
}

// SetCompleted updates the completed flag of a todo inside tx.
func (r *todoRepository) SetCompleted(ctx context.Context, tx adapter.Tx, id int64, completed bool) error {
	return r.withTx(ctx, tx, func(db *gorm.DB) error {
		result := db.Model(&model.TodoModel{}).
			Where("id = ?", id).
			Update("completed", completed)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerror.ErrTodoNotFound
		}
		return nil
	})
}

// Delete removes a todo inside tx.
func (r *todoRepository) Delete(ctx context.Context, tx adapter.Tx, id int64) error {
	return r.withTx(ctx, tx, func(db *gorm.DB) error {
		result := db.Delete(&model.TodoModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerror.ErrTodoNotFound
		}
		return nil
	})
}

func (r *todoRepository) withTx(ctx context.Context, tx adapter.Tx, fn func(db *gorm.DB) error) error {
	conn, ok := tx.(txConn)
	if !ok {
		return r.report(ctx, fmt.Errorf("%w: %T", errUnsupportedTx, tx))
	}
	err := conn.WithConn(ctx, fn)
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, domainerror.ErrTodoNotFound) {
		return err
	}
	return r.report(ctx, err)
}

// report forwards unexpected database failures to the crash reporter. Cancellation and
// inactive transactions are expected outcomes of a failed bulk update and are not reported.
func (r *todoRepository) report(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, adapter.ErrTxNotActive) {
		return err
	}
	r.crashReporter.Report(ctx, err)
	return err
}
