// Package todo contains todo-related use cases.
package todo

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/todo-app/backend/internal/application/adapter"
	"github.com/todo-app/backend/internal/domain/entity"
	domainerror "github.com/todo-app/backend/internal/domain/error"
)

// errSavepointRollbackFailed marks a delete phase whose savepoint could not be rolled back.
// The root transaction must not commit in that case.
var errSavepointRollbackFailed = errors.New("savepoint rollback failed")

// bulkStage names the steps a bulk update goes through.
type bulkStage string

const (
	stageAuthenticating bulkStage = "authenticating"
	stageValidating     bulkStage = "validating"
	stageToggling       bulkStage = "toggling"
	stageDeleting       bulkStage = "deleting"
	stageDone           bulkStage = "done"
	stageFailed         bulkStage = "failed"
)

// BulkUpdateConfig tunes the bulk update orchestration.
type BulkUpdateConfig struct {
	// Timeout bounds the whole mutation. Zero disables the deadline.
	Timeout time.Duration
	// MaxConcurrency caps in-flight item operations per phase. Zero means unbounded.
	MaxConcurrency int
}

// BulkUpdateTodosInput represents the input for a bulk update. Payload is validated
// only after the session has been authenticated.
type BulkUpdateTodosInput struct {
	Payload   json.RawMessage
	SessionID string
}

// BulkUpdateTodosUseCase toggles and deletes todos in one request. Toggles run in a
// root transaction; deletes run in a savepoint under it so a failing delete never
// discards the toggles.
type BulkUpdateTodosUseCase struct {
	instrumentation adapter.Instrumentation
	crashReporter   adapter.CrashReporter
	authService     adapter.AuthenticationService
	txManager       adapter.TransactionManager
	toggleTodo      ToggleTodo
	deleteTodo      DeleteTodo
	config          BulkUpdateConfig
}

// NewBulkUpdateTodosUseCase creates a new BulkUpdateTodosUseCase instance.
func NewBulkUpdateTodosUseCase(
	instrumentation adapter.Instrumentation,
	crashReporter adapter.CrashReporter,
	authService adapter.AuthenticationService,
	txManager adapter.TransactionManager,
	toggleTodo ToggleTodo,
	deleteTodo DeleteTodo,
	config BulkUpdateConfig,
) *BulkUpdateTodosUseCase {
	return &BulkUpdateTodosUseCase{
		instrumentation: instrumentation,
		crashReporter:   crashReporter,
		authService:     authService,
		txManager:       txManager,
		toggleTodo:      toggleTodo,
		deleteTodo:      deleteTodo,
		config:          config,
	}
}

// Execute performs the bulk update.
func (uc *BulkUpdateTodosUseCase) Execute(ctx context.Context, input BulkUpdateTodosInput) error {
	return uc.instrumentation.StartSpan(ctx, adapter.SpanOptions{Name: "bulkUpdate Use Case"}, func(ctx context.Context) error {
		err := uc.execute(ctx, input)
		if err != nil {
			slog.DebugContext(ctx, "Bulk update stage", "stage", stageFailed, "error_kind", domainerror.KindOf(err).String())
			if !domainerror.IsClassified(err) {
				uc.crashReporter.Report(ctx, err)
			}
			return err
		}
		slog.DebugContext(ctx, "Bulk update stage", "stage", stageDone)
		return nil
	})
}

func (uc *BulkUpdateTodosUseCase) execute(ctx context.Context, input BulkUpdateTodosInput) error {
	slog.DebugContext(ctx, "Bulk update stage", "stage", stageAuthenticating)
	if input.SessionID == "" {
		return domainerror.NewUnauthenticatedError(
			domainerror.ErrCodeMissingSession,
			"Must be logged in to bulk update todos",
		)
	}
	user, err := uc.authService.ValidateSession(ctx, input.SessionID)
	if err != nil {
		return err
	}

	slog.DebugContext(ctx, "Bulk update stage", "stage", stageValidating, "user_id", user.ID)
	result := ParseBulkUpdateBatch(input.Payload)
	if !result.Valid() {
		return domainerror.NewInputError("Invalid data", result.FieldErrors)
	}

	if uc.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.config.Timeout)
		defer cancel()
	}

	err = uc.instrumentation.StartSpan(ctx, adapter.SpanOptions{Name: "Bulk Update Transaction"}, func(ctx context.Context) error {
		return uc.apply(ctx, user.ID, result.Batch)
	})
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domainerror.NewTodoError(
			domainerror.ErrCodeBulkTimeout,
			"bulk update did not finish in time",
			errors.Join(domainerror.ErrBulkTimeout, err),
		)
	}
	return err
}

// apply runs the toggle phase in a root transaction and the delete phase in a savepoint.
// A delete failure is carried out of the root's work as a value so the root still commits.
func (uc *BulkUpdateTodosUseCase) apply(ctx context.Context, userID uuid.UUID, batch entity.BulkUpdateBatch) error {
	var deleteErr error

	err := uc.txManager.StartTransaction(ctx, nil, func(ctx context.Context, mainTx adapter.Tx) error {
		slog.DebugContext(ctx, "Bulk update stage", "stage", stageToggling, "tx_id", mainTx.ID(), "count", len(batch.Dirty))
		err := uc.runPhase(ctx, batch.Dirty, func(ctx context.Context, id int64) error {
			return uc.toggleTodo.Execute(ctx, ToggleTodoInput{TodoID: id}, userID, mainTx)
		})
		if err != nil {
			slog.WarnContext(ctx, "Rolling back toggles", "tx_id", mainTx.ID(), "error", err)
			if rbErr := mainTx.Rollback(); rbErr != nil {
				uc.crashReporter.Report(ctx, rbErr)
				return domainerror.NewTodoStorageError("failed to roll back toggles", errors.Join(err, rbErr))
			}
			return err
		}

		deleteErr = uc.txManager.StartTransaction(ctx, mainTx, func(ctx context.Context, deleteTx adapter.Tx) error {
			slog.DebugContext(ctx, "Bulk update stage", "stage", stageDeleting, "tx_id", deleteTx.ID(), "count", len(batch.Deleted))
			err := uc.runPhase(ctx, batch.Deleted, func(ctx context.Context, id int64) error {
				return uc.deleteTodo.Execute(ctx, DeleteTodoInput{TodoID: id}, userID, deleteTx)
			})
			if err != nil {
				slog.WarnContext(ctx, "Rolling back deletes", "tx_id", deleteTx.ID(), "error", err)
				if rbErr := deleteTx.Rollback(); rbErr != nil {
					uc.crashReporter.Report(ctx, rbErr)
					return domainerror.NewTodoStorageError(
						"failed to roll back deletes",
						errors.Join(err, errSavepointRollbackFailed, rbErr),
					)
				}
				return err
			}
			return nil
		})
		if errors.Is(deleteErr, errSavepointRollbackFailed) {
			return deleteErr
		}
		return nil
	})
	if err != nil {
		return err
	}
	return deleteErr
}

// runPhase dispatches op for every id and waits for all of them to settle before
// returning the first failure.
func (uc *BulkUpdateTodosUseCase) runPhase(ctx context.Context, ids []int64, op func(ctx context.Context, id int64) error) error {
	var g errgroup.Group
	if uc.config.MaxConcurrency > 0 {
		g.SetLimit(uc.config.MaxConcurrency)
	}
	for _, id := range ids {
		id := id
		g.Go(func() error {
			return op(ctx, id)
		})
	}
	return g.Wait()
}
