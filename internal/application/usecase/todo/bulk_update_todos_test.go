package todo

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todo-app/backend/internal/application/adapter"
	"github.com/todo-app/backend/internal/domain/entity"
	domainerror "github.com/todo-app/backend/internal/domain/error"
)

const validSession = "valid-session"

type bulkFixture struct {
	owner    *entity.User
	other    *entity.User
	auth     *fakeAuthService
	txm      *memTxManager
	repo     *memTodoRepo
	reporter *recordingCrashReporter
	useCase  *BulkUpdateTodosUseCase
}

func newBulkFixture(t *testing.T, todos func(owner, other uuid.UUID) []*entity.Todo) *bulkFixture {
	t.Helper()

	owner := &entity.User{ID: uuid.New(), Username: "owner"}
	other := &entity.User{ID: uuid.New(), Username: "other"}
	txm := &memTxManager{}
	repo := newMemTodoRepo(txm, todos(owner.ID, other.ID)...)
	auth := &fakeAuthService{sessions: map[string]*entity.User{validSession: owner}}
	reporter := &recordingCrashReporter{}
	instr := passthroughInstrumentation{}

	return &bulkFixture{
		owner:    owner,
		other:    other,
		auth:     auth,
		txm:      txm,
		repo:     repo,
		reporter: reporter,
		useCase: NewBulkUpdateTodosUseCase(
			instr,
			reporter,
			auth,
			txm,
			NewToggleTodoUseCase(repo, instr),
			NewDeleteTodoUseCase(repo, instr),
			BulkUpdateConfig{},
		),
	}
}

func twoOwnedTodos(owner, _ uuid.UUID) []*entity.Todo {
	return []*entity.Todo{
		{ID: 1, UserID: owner, Content: "first"},
		{ID: 2, UserID: owner, Content: "second"},
	}
}

func payload(t *testing.T, dirty, deleted any) json.RawMessage {
	t.Helper()
	body, err := json.Marshal(map[string]any{"dirty": dirty, "deleted": deleted})
	require.NoError(t, err)
	return body
}

func (f *bulkFixture) completed(t *testing.T, id int64) bool {
	t.Helper()
	todo, ok := f.repo.get(id)
	require.True(t, ok, "todo %d should exist", id)
	return todo.Completed
}

func (f *bulkFixture) exists(id int64) bool {
	_, ok := f.repo.get(id)
	return ok
}

func TestBulkUpdateTodos_EmptyBatch(t *testing.T) {
	f := newBulkFixture(t, twoOwnedTodos)

	err := f.useCase.Execute(context.Background(), BulkUpdateTodosInput{
		Payload:   payload(t, []int64{}, []int64{}),
		SessionID: validSession,
	})

	require.NoError(t, err)
	assert.False(t, f.completed(t, 1))
	assert.False(t, f.completed(t, 2))
	assert.Equal(t, []string{"begin:tx-1", "begin:tx-2", "commit:tx-2", "commit:tx-1"}, f.txm.eventLog())
	assert.Zero(t, f.reporter.count())
}

func TestBulkUpdateTodos_TogglesAllDirtyTodos(t *testing.T) {
	f := newBulkFixture(t, twoOwnedTodos)

	err := f.useCase.Execute(context.Background(), BulkUpdateTodosInput{
		Payload:   payload(t, []int64{1, 2}, []int64{}),
		SessionID: validSession,
	})

	require.NoError(t, err)
	assert.True(t, f.completed(t, 1))
	assert.True(t, f.completed(t, 2))
}

func TestBulkUpdateTodos_ToggleFailureRollsBackEverything(t *testing.T) {
	f := newBulkFixture(t, twoOwnedTodos)

	err := f.useCase.Execute(context.Background(), BulkUpdateTodosInput{
		Payload:   payload(t, []int64{1, 99}, []int64{2}),
		SessionID: validSession,
	})

	require.Error(t, err)
	assert.Equal(t, domainerror.KindNotFound, domainerror.KindOf(err))
	assert.False(t, f.completed(t, 1))
	assert.True(t, f.exists(2), "delete phase must not run")
	assert.Equal(t, []string{"begin:tx-1", "rollback:tx-1"}, f.txm.eventLog())
}

func TestBulkUpdateTodos_DeleteFailureKeepsToggles(t *testing.T) {
	f := newBulkFixture(t, func(owner, other uuid.UUID) []*entity.Todo {
		return []*entity.Todo{
			{ID: 1, UserID: owner, Content: "mine"},
			{ID: 2, UserID: other, Content: "theirs"},
		}
	})

	err := f.useCase.Execute(context.Background(), BulkUpdateTodosInput{
		Payload:   payload(t, []int64{1}, []int64{2}),
		SessionID: validSession,
	})

	require.Error(t, err)
	assert.Equal(t, domainerror.KindNotFound, domainerror.KindOf(err))
	assert.True(t, f.completed(t, 1), "toggle must survive a failed delete")
	assert.True(t, f.exists(2))
	assert.Equal(t, []string{"begin:tx-1", "begin:tx-2", "rollback:tx-2", "commit:tx-1"}, f.txm.eventLog())
}

func TestBulkUpdateTodos_DeleteFailureRestoresSuccessfulDeletes(t *testing.T) {
	f := newBulkFixture(t, twoOwnedTodos)

	err := f.useCase.Execute(context.Background(), BulkUpdateTodosInput{
		Payload:   payload(t, []int64{1}, []int64{2, 99}),
		SessionID: validSession,
	})

	require.Error(t, err)
	assert.True(t, f.completed(t, 1))
	assert.True(t, f.exists(2), "delete of todo 2 must be undone with the savepoint")
}

func TestBulkUpdateTodos_SameIDToggledThenDeleted(t *testing.T) {
	f := newBulkFixture(t, twoOwnedTodos)

	err := f.useCase.Execute(context.Background(), BulkUpdateTodosInput{
		Payload:   payload(t, []int64{1}, []int64{1}),
		SessionID: validSession,
	})

	require.NoError(t, err)
	assert.False(t, f.exists(1))
	assert.True(t, f.exists(2))
}

func TestBulkUpdateTodos_Authentication(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		body      json.RawMessage
		authErr   error
		wantCode  domainerror.AuthErrorCode
		wantCalls int
	}{
		{
			name:      "missing session",
			sessionID: "",
			body:      json.RawMessage(`{"dirty":[1],"deleted":[]}`),
			wantCode:  domainerror.ErrCodeMissingSession,
			wantCalls: 0,
		},
		{
			name:      "unknown session",
			sessionID: "nope",
			body:      json.RawMessage(`{"dirty":[1],"deleted":[]}`),
			wantCode:  domainerror.ErrCodeInvalidSession,
			wantCalls: 1,
		},
		{
			name:      "malformed batch with missing session",
			sessionID: "",
			body:      json.RawMessage(`{"dirty":["x"]}`),
			wantCode:  domainerror.ErrCodeMissingSession,
			wantCalls: 0,
		},
		{
			name:      "malformed batch with unknown session",
			sessionID: "nope",
			body:      json.RawMessage(`not json`),
			wantCode:  domainerror.ErrCodeInvalidSession,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBulkFixture(t, twoOwnedTodos)

			err := f.useCase.Execute(context.Background(), BulkUpdateTodosInput{
				Payload:   tt.body,
				SessionID: tt.sessionID,
			})

			var authErr *domainerror.AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.wantCode, authErr.Code)
			assert.ErrorIs(t, err, domainerror.ErrUnauthenticated)
			assert.Equal(t, tt.wantCalls, f.auth.calls)
			assert.Empty(t, f.txm.eventLog(), "no transaction may be opened")
			assert.False(t, f.completed(t, 1))
		})
	}
}

func TestBulkUpdateTodos_AuthFailurePropagatesUnchanged(t *testing.T) {
	f := newBulkFixture(t, twoOwnedTodos)
	expired := domainerror.NewUnauthenticatedError(domainerror.ErrCodeInvalidSession, "session expired")
	f.auth.err = expired

	err := f.useCase.Execute(context.Background(), BulkUpdateTodosInput{
		Payload:   payload(t, []int64{1}, []int64{}),
		SessionID: validSession,
	})

	assert.Same(t, expired, err)
}

func TestBulkUpdateTodos_InvalidInput(t *testing.T) {
	f := newBulkFixture(t, twoOwnedTodos)

	err := f.useCase.Execute(context.Background(), BulkUpdateTodosInput{
		Payload:   json.RawMessage(`{"dirty":["x"],"deleted":[]}`),
		SessionID: validSession,
	})

	var inputErr *domainerror.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, domainerror.ErrCodeInvalidInput, inputErr.Code)
	assert.NotEmpty(t, inputErr.FieldErrors)
	assert.Empty(t, f.txm.eventLog())
	assert.Zero(t, f.reporter.count())
}

func TestBulkUpdateTodos_OwnershipIndistinguishableFromMissing(t *testing.T) {
	run := func(t *testing.T, body json.RawMessage) error {
		f := newBulkFixture(t, func(owner, other uuid.UUID) []*entity.Todo {
			return []*entity.Todo{
				{ID: 1, UserID: owner, Content: "mine"},
				{ID: 2, UserID: other, Content: "theirs"},
			}
		})
		return f.useCase.Execute(context.Background(), BulkUpdateTodosInput{Payload: body, SessionID: validSession})
	}

	t.Run("toggle", func(t *testing.T) {
		foreign := run(t, payload(t, []int64{2}, []int64{}))
		missing := run(t, payload(t, []int64{42}, []int64{}))
		assert.Equal(t, missing.Error(), foreign.Error())
		assert.Equal(t, domainerror.KindOf(missing), domainerror.KindOf(foreign))
	})

	t.Run("delete", func(t *testing.T) {
		foreign := run(t, payload(t, []int64{}, []int64{2}))
		missing := run(t, payload(t, []int64{}, []int64{42}))
		assert.Equal(t, missing.Error(), foreign.Error())
		assert.Equal(t, domainerror.KindOf(missing), domainerror.KindOf(foreign))
	})
}

func TestBulkUpdateTodos_StorageErrorIsClassified(t *testing.T) {
	f := newBulkFixture(t, twoOwnedTodos)
	f.repo.failOn[2] = errors.New("disk on fire")

	err := f.useCase.Execute(context.Background(), BulkUpdateTodosInput{
		Payload:   payload(t, []int64{1, 2}, []int64{}),
		SessionID: validSession,
	})

	assert.Equal(t, domainerror.KindStorage, domainerror.KindOf(err))
	assert.False(t, f.completed(t, 1))
	assert.Zero(t, f.reporter.count())
}

func TestBulkUpdateTodos_UnknownErrorReportedOnce(t *testing.T) {
	f := newBulkFixture(t, twoOwnedTodos)
	boom := errors.New("session store unreachable")
	f.auth.err = boom

	err := f.useCase.Execute(context.Background(), BulkUpdateTodosInput{
		Payload:   payload(t, []int64{1}, []int64{}),
		SessionID: validSession,
	})

	assert.ErrorIs(t, err, boom)
	require.Equal(t, 1, f.reporter.count())
	assert.Same(t, boom, f.reporter.reported[0])
}

// stubToggle and stubDelete let tests control per-item behaviour directly.
type stubToggle func(ctx context.Context, id int64, tx adapter.Tx) error

func (s stubToggle) Execute(ctx context.Context, input ToggleTodoInput, _ uuid.UUID, tx adapter.Tx) error {
	return s(ctx, input.TodoID, tx)
}

type stubDelete func(ctx context.Context, id int64, tx adapter.Tx) error

func (s stubDelete) Execute(ctx context.Context, input DeleteTodoInput, _ uuid.UUID, tx adapter.Tx) error {
	return s(ctx, input.TodoID, tx)
}

func newStubbedUseCase(auth *fakeAuthService, txm *memTxManager, toggle stubToggle, del stubDelete, cfg BulkUpdateConfig) *BulkUpdateTodosUseCase {
	return NewBulkUpdateTodosUseCase(passthroughInstrumentation{}, &recordingCrashReporter{}, auth, txm, toggle, del, cfg)
}

func TestBulkUpdateTodos_WaitsForEveryToggleBeforeDeciding(t *testing.T) {
	owner := &entity.User{ID: uuid.New()}
	auth := &fakeAuthService{sessions: map[string]*entity.User{validSession: owner}}
	txm := &memTxManager{}

	var slowFinished atomic.Bool
	toggle := stubToggle(func(ctx context.Context, id int64, _ adapter.Tx) error {
		if id == 1 {
			return domainerror.NewTodoNotFoundError()
		}
		time.Sleep(50 * time.Millisecond)
		slowFinished.Store(true)
		return nil
	})
	del := stubDelete(func(context.Context, int64, adapter.Tx) error {
		t.Error("delete must not run after a failed toggle phase")
		return nil
	})

	err := newStubbedUseCase(auth, txm, toggle, del, BulkUpdateConfig{}).Execute(context.Background(), BulkUpdateTodosInput{
		Payload:   payload(t, []int64{1, 2}, []int64{3}),
		SessionID: validSession,
	})

	require.Error(t, err)
	assert.True(t, slowFinished.Load(), "the slow toggle must settle before Execute returns")
}

func TestBulkUpdateTodos_DeletesStartAfterAllToggles(t *testing.T) {
	owner := &entity.User{ID: uuid.New()}
	auth := &fakeAuthService{sessions: map[string]*entity.User{validSession: owner}}
	txm := &memTxManager{}

	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, s)
	}

	toggle := stubToggle(func(_ context.Context, id int64, tx adapter.Tx) error {
		assert.Nil(t, tx.Parent(), "toggles run in the root transaction")
		time.Sleep(time.Duration(id) * 10 * time.Millisecond)
		record("toggle")
		return nil
	})
	del := stubDelete(func(_ context.Context, _ int64, tx adapter.Tx) error {
		assert.NotNil(t, tx.Parent(), "deletes run in a savepoint")
		record("delete")
		return nil
	})

	err := newStubbedUseCase(auth, txm, toggle, del, BulkUpdateConfig{}).Execute(context.Background(), BulkUpdateTodosInput{
		Payload:   payload(t, []int64{1, 2, 3}, []int64{4, 5}),
		SessionID: validSession,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"toggle", "toggle", "toggle", "delete", "delete"}, order)
}

func TestBulkUpdateTodos_MaxConcurrency(t *testing.T) {
	owner := &entity.User{ID: uuid.New()}
	auth := &fakeAuthService{sessions: map[string]*entity.User{validSession: owner}}
	txm := &memTxManager{}

	var inFlight, peak atomic.Int32
	toggle := stubToggle(func(context.Context, int64, adapter.Tx) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	})
	del := stubDelete(func(context.Context, int64, adapter.Tx) error { return nil })

	err := newStubbedUseCase(auth, txm, toggle, del, BulkUpdateConfig{MaxConcurrency: 2}).Execute(context.Background(), BulkUpdateTodosInput{
		Payload:   payload(t, []int64{1, 2, 3, 4, 5, 6}, []int64{}),
		SessionID: validSession,
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestBulkUpdateTodos_TimeoutDuringDeletesKeepsToggles(t *testing.T) {
	f := newBulkFixture(t, twoOwnedTodos)
	instr := passthroughInstrumentation{}
	del := stubDelete(func(ctx context.Context, _ int64, _ adapter.Tx) error {
		<-ctx.Done()
		return domainerror.NewTodoStorageError("failed to delete todo", ctx.Err())
	})
	useCase := NewBulkUpdateTodosUseCase(instr, f.reporter, f.auth, f.txm,
		NewToggleTodoUseCase(f.repo, instr), del, BulkUpdateConfig{Timeout: 20 * time.Millisecond})

	err := useCase.Execute(context.Background(), BulkUpdateTodosInput{
		Payload:   payload(t, []int64{1}, []int64{2}),
		SessionID: validSession,
	})

	assert.Equal(t, domainerror.KindTimeout, domainerror.KindOf(err))
	assert.ErrorIs(t, err, domainerror.ErrBulkTimeout)
	assert.NotContains(t, err.Error(), "timed out: bulk update timed out")
	assert.True(t, f.completed(t, 1))
	assert.True(t, f.exists(2))
}

// rollbackFailingTx wraps a memTx and refuses to roll back.
type rollbackFailingTx struct {
	*memTx
}

func (rollbackFailingTx) Rollback() error { return errors.New("connection lost") }

// savepointBreakingManager hands out savepoints that cannot be rolled back.
type savepointBreakingManager struct {
	*memTxManager
}

func (m savepointBreakingManager) StartTransaction(ctx context.Context, parent adapter.Tx, work func(ctx context.Context, tx adapter.Tx) error) error {
	if parent == nil {
		return m.memTxManager.StartTransaction(ctx, nil, work)
	}
	if wrapped, ok := parent.(rollbackFailingTx); ok {
		parent = wrapped.memTx
	}
	return m.memTxManager.StartTransaction(ctx, parent, func(ctx context.Context, tx adapter.Tx) error {
		return work(ctx, rollbackFailingTx{memTx: tx.(*memTx)})
	})
}

func TestBulkUpdateTodos_SavepointRollbackFailureAbortsRoot(t *testing.T) {
	f := newBulkFixture(t, twoOwnedTodos)
	instr := passthroughInstrumentation{}
	del := stubDelete(func(context.Context, int64, adapter.Tx) error {
		return domainerror.NewTodoNotFoundError()
	})
	useCase := NewBulkUpdateTodosUseCase(instr, f.reporter, f.auth, savepointBreakingManager{f.txm},
		NewToggleTodoUseCase(f.repo, instr), del, BulkUpdateConfig{})

	err := useCase.Execute(context.Background(), BulkUpdateTodosInput{
		Payload:   payload(t, []int64{1}, []int64{2}),
		SessionID: validSession,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errSavepointRollbackFailed)
	assert.Equal(t, domainerror.KindStorage, domainerror.KindOf(err))
	assert.False(t, f.completed(t, 1), "root must roll back when the savepoint could not")
	require.Equal(t, 1, f.reporter.count())
	assert.EqualError(t, f.reporter.reported[0], "connection lost")
}

// rootBreakingManager hands out root transactions that cannot be rolled back explicitly.
type rootBreakingManager struct {
	*memTxManager
}

func (m rootBreakingManager) StartTransaction(ctx context.Context, parent adapter.Tx, work func(ctx context.Context, tx adapter.Tx) error) error {
	return m.memTxManager.StartTransaction(ctx, parent, func(ctx context.Context, tx adapter.Tx) error {
		return work(ctx, rollbackFailingTx{memTx: tx.(*memTx)})
	})
}

func TestBulkUpdateTodos_RootRollbackFailureIsReported(t *testing.T) {
	f := newBulkFixture(t, twoOwnedTodos)
	toggle := stubToggle(func(context.Context, int64, adapter.Tx) error {
		return domainerror.NewTodoNotFoundError()
	})
	del := stubDelete(func(context.Context, int64, adapter.Tx) error {
		t.Error("delete must not run after a failed toggle phase")
		return nil
	})
	useCase := NewBulkUpdateTodosUseCase(passthroughInstrumentation{}, f.reporter, f.auth, rootBreakingManager{f.txm},
		toggle, del, BulkUpdateConfig{})

	err := useCase.Execute(context.Background(), BulkUpdateTodosInput{
		Payload:   payload(t, []int64{1}, []int64{2}),
		SessionID: validSession,
	})

	require.Error(t, err)
	assert.Equal(t, domainerror.KindStorage, domainerror.KindOf(err))
	assert.Contains(t, err.Error(), "failed to roll back toggles")
	require.Equal(t, 1, f.reporter.count())
	assert.EqualError(t, f.reporter.reported[0], "connection lost")
}
