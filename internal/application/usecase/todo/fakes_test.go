package todo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/todo-app/backend/internal/application/adapter"
	"github.com/todo-app/backend/internal/domain/entity"
	domainerror "github.com/todo-app/backend/internal/domain/error"
)

// passthroughInstrumentation runs work without recording anything.
type passthroughInstrumentation struct{}

func (passthroughInstrumentation) StartSpan(ctx context.Context, _ adapter.SpanOptions, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// recordingCrashReporter keeps every reported error.
type recordingCrashReporter struct {
	mu       sync.Mutex
	reported []error
}

func (r *recordingCrashReporter) Report(_ context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reported = append(r.reported, err)
}

func (r *recordingCrashReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reported)
}

// fakeAuthService resolves sessions from a fixed map.
type fakeAuthService struct {
	adapter.AuthenticationService
	sessions map[string]*entity.User
	err      error
	calls    int
}

func (f *fakeAuthService) ValidateSession(_ context.Context, sessionID string) (*entity.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.sessions[sessionID]
	if !ok {
		return nil, domainerror.NewUnauthenticatedError(domainerror.ErrCodeInvalidSession, "invalid session")
	}
	return user, nil
}

// memTx is a node of the in-memory transaction tree. Writes record undo steps;
// a committed savepoint hands its undo log to the parent.
type memTx struct {
	id       string
	parent   *memTx
	mgr      *memTxManager
	state    adapter.TxState
	undo     []func()
	children []*memTx
}

func (t *memTx) ID() string { return t.id }

func (t *memTx) Parent() adapter.Tx {
	if t.parent == nil {
		return nil
	}
	return t.parent
}

func (t *memTx) State() adapter.TxState {
	t.mgr.mu.Lock()
	defer t.mgr.mu.Unlock()
	return t.state
}

func (t *memTx) Rollback() error {
	t.mgr.mu.Lock()
	defer t.mgr.mu.Unlock()
	switch t.state {
	case adapter.TxRolledBack:
		return nil
	case adapter.TxCommitted:
		return adapter.ErrTxNotActive
	}
	t.rollbackLocked()
	return nil
}

func (t *memTx) rollbackLocked() {
	for _, child := range t.children {
		if child.state == adapter.TxActive {
			child.rollbackLocked()
		}
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.state = adapter.TxRolledBack
	t.mgr.events = append(t.mgr.events, "rollback:"+t.id)
}

// memTxManager implements adapter.TransactionManager over a memTodoRepo.
type memTxManager struct {
	mu     sync.Mutex
	seq    int
	events []string
}

func (m *memTxManager) StartTransaction(ctx context.Context, parent adapter.Tx, work func(ctx context.Context, tx adapter.Tx) error) error {
	m.mu.Lock()
	m.seq++
	tx := &memTx{id: fmt.Sprintf("tx-%d", m.seq), mgr: m, state: adapter.TxActive}
	if parent != nil {
		p, ok := parent.(*memTx)
		if !ok || p.state != adapter.TxActive {
			m.mu.Unlock()
			return adapter.ErrTxNotActive
		}
		tx.parent = p
		p.children = append(p.children, tx)
	}
	m.events = append(m.events, "begin:"+tx.id)
	m.mu.Unlock()

	if err := work(ctx, tx); err != nil {
		m.mu.Lock()
		if tx.state == adapter.TxActive {
			tx.rollbackLocked()
		}
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.state != adapter.TxActive {
		return nil
	}
	if tx.parent != nil {
		tx.parent.undo = append(tx.parent.undo, tx.undo...)
	}
	tx.undo = nil
	tx.state = adapter.TxCommitted
	m.events = append(m.events, "commit:"+tx.id)
	return nil
}

func (m *memTxManager) eventLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

// memTodoRepo stores todos in a map guarded by the manager's mutex.
type memTodoRepo struct {
	mgr     *memTxManager
	todos   map[int64]*entity.Todo
	failOn  map[int64]error
	nextID  int64
	findHit int
}

func newMemTodoRepo(mgr *memTxManager, todos ...*entity.Todo) *memTodoRepo {
	repo := &memTodoRepo{mgr: mgr, todos: map[int64]*entity.Todo{}, failOn: map[int64]error{}}
	for _, todo := range todos {
		copied := *todo
		repo.todos[todo.ID] = &copied
		if todo.ID > repo.nextID {
			repo.nextID = todo.ID
		}
	}
	return repo
}

func (r *memTodoRepo) activeTx(tx adapter.Tx) (*memTx, error) {
	mt, ok := tx.(*memTx)
	if !ok {
		return nil, errors.New("unsupported transaction handle")
	}
	if mt.state != adapter.TxActive {
		return nil, adapter.ErrTxNotActive
	}
	return mt, nil
}

func (r *memTodoRepo) Create(_ context.Context, todo *entity.Todo) error {
	r.mgr.mu.Lock()
	defer r.mgr.mu.Unlock()
	r.nextID++
	todo.ID = r.nextID
	copied := *todo
	r.todos[todo.ID] = &copied
	return nil
}

func (r *memTodoRepo) FindByUser(_ context.Context, userID uuid.UUID) ([]*entity.Todo, error) {
	r.mgr.mu.Lock()
	defer r.mgr.mu.Unlock()
	var todos []*entity.Todo
	for _, todo := range r.todos {
		if todo.UserID == userID {
			copied := *todo
			todos = append(todos, &copied)
		}
	}
	sort.Slice(todos, func(i, j int) bool { return todos[i].ID < todos[j].ID })
	return todos, nil
}

func (r *memTodoRepo) FindByIDForUpdate(_ context.Context, tx adapter.Tx, id int64) (*entity.Todo, error) {
	r.mgr.mu.Lock()
	defer r.mgr.mu.Unlock()
	r.findHit++
	if _, err := r.activeTx(tx); err != nil {
		return nil, err
	}
	if err, ok := r.failOn[id]; ok {
		return nil, err
	}
	todo, ok := r.todos[id]
	if !ok {
		return nil, domainerror.ErrTodoNotFound
	}
	copied := *todo
	return &copied, nil
}

func (r *memTodoRepo) SetCompleted(_ context.Context, tx adapter.Tx, id int64, completed bool) error {
	r.mgr.mu.Lock()
	defer r.mgr.mu.Unlock()
	mt, err := r.activeTx(tx)
	if err != nil {
		return err
	}
	todo, ok := r.todos[id]
	if !ok {
		return domainerror.ErrTodoNotFound
	}
	previous := todo.Completed
	todo.Completed = completed
	mt.undo = append(mt.undo, func() { todo.Completed = previous })
	return nil
}

func (r *memTodoRepo) Delete(_ context.Context, tx adapter.Tx, id int64) error {
	r.mgr.mu.Lock()
	defer r.mgr.mu.Unlock()
	mt, err := r.activeTx(tx)
	if err != nil {
		return err
	}
	todo, ok := r.todos[id]
	if !ok {
		return domainerror.ErrTodoNotFound
	}
	delete(r.todos, id)
	mt.undo = append(mt.undo, func() { r.todos[id] = todo })
	return nil
}

func (r *memTodoRepo) get(id int64) (*entity.Todo, bool) {
	r.mgr.mu.Lock()
	defer r.mgr.mu.Unlock()
	todo, ok := r.todos[id]
	if !ok {
		return nil, false
	}
	copied := *todo
	return &copied, true
}
