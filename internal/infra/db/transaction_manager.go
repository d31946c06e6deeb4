package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/todo-app/backend/internal/application/adapter"
)

// ErrForeignTransaction is returned when a parent context was not created by this manager.
var ErrForeignTransaction = errors.New("parent transaction belongs to another manager")

// TransactionManager implements adapter.TransactionManager on top of GORM.
// A root context is a database transaction; every child is a SAVEPOINT on the
// root's connection.
type TransactionManager struct {
	db *gorm.DB
}

// NewTransactionManager creates a transaction manager bound to database.
func NewTransactionManager(database *Database) *TransactionManager {
	return &TransactionManager{db: database.DB()}
}

// StartTransaction implements adapter.TransactionManager.
func (m *TransactionManager) StartTransaction(
	ctx context.Context,
	parent adapter.Tx,
	work func(ctx context.Context, tx adapter.Tx) error,
) error {
	tx, err := m.begin(ctx, parent)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("Failed to roll back transaction after panic", "tx_id", tx.id, "error", rbErr)
			}
			panic(r)
		}
	}()

	if err := work(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, adapter.ErrTxNotActive) {
			slog.Error("Failed to roll back transaction", "tx_id", tx.id, "error", rbErr)
		}
		return err
	}

	return tx.commit()
}

func (m *TransactionManager) begin(ctx context.Context, parent adapter.Tx) (*gormTx, error) {
	id := uuid.NewString()

	if parent == nil {
		// Cancelling the request must not roll back the whole tree behind our back;
		// only statements observe the caller's context.
		root := m.db.WithContext(context.WithoutCancel(ctx)).Begin()
		if root.Error != nil {
			return nil, fmt.Errorf("failed to begin transaction: %w", root.Error)
		}
		tx := &gormTx{id: id, db: root, mu: &sync.Mutex{}}
		slog.Debug("Transaction started", "tx_id", id)
		return tx, nil
	}

	p, ok := parent.(*gormTx)
	if !ok {
		return nil, ErrForeignTransaction
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != adapter.TxActive {
		return nil, adapter.ErrTxNotActive
	}

	name := "sp_" + strings.ReplaceAll(id, "-", "")
	if err := p.db.WithContext(context.WithoutCancel(ctx)).SavePoint(name).Error; err != nil {
		return nil, fmt.Errorf("failed to create savepoint: %w", err)
	}

	tx := &gormTx{id: id, parent: p, db: p.db, savepoint: name, mu: p.mu}
	p.children = append(p.children, tx)
	slog.Debug("Savepoint started", "tx_id", id, "parent_tx_id", p.id)
	return tx, nil
}

// gormTx is one node of a transaction tree. Every node shares the root's
// connection and mutex, so statements and state transitions are serialized
// across the tree.
type gormTx struct {
	id        string
	parent    *gormTx
	db        *gorm.DB
	savepoint string
	mu        *sync.Mutex
	state     adapter.TxState
	children  []*gormTx
}

// ID implements adapter.Tx.
func (t *gormTx) ID() string {
	return t.id
}

// Parent implements adapter.Tx.
func (t *gormTx) Parent() adapter.Tx {
	if t.parent == nil {
		return nil
	}
	return t.parent
}

// State implements adapter.Tx.
func (t *gormTx) State() adapter.TxState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// WithConn runs fn with exclusive use of the transaction's connection.
// fn's statements observe ctx; the transaction itself is unaffected by its cancellation.
func (t *gormTx) WithConn(ctx context.Context, fn func(db *gorm.DB) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != adapter.TxActive {
		return adapter.ErrTxNotActive
	}
	return fn(t.db.WithContext(ctx))
}

// Rollback implements adapter.Tx. Rolling back twice is a no-op; rolling back a
// committed context fails with adapter.ErrTxNotActive.
func (t *gormTx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case adapter.TxRolledBack:
		return nil
	case adapter.TxCommitted:
		return adapter.ErrTxNotActive
	}
	return t.rollbackLocked()
}

func (t *gormTx) rollbackLocked() error {
	t.markDescendantsRolledBack()
	t.state = adapter.TxRolledBack

	conn := t.db.WithContext(context.Background())
	if t.parent == nil {
		if err := conn.Rollback().Error; err != nil {
			return fmt.Errorf("failed to roll back transaction: %w", err)
		}
		slog.Debug("Transaction rolled back", "tx_id", t.id)
		return nil
	}

	if err := conn.RollbackTo(t.savepoint).Error; err != nil {
		return fmt.Errorf("failed to roll back savepoint: %w", err)
	}
	slog.Debug("Savepoint rolled back", "tx_id", t.id, "parent_tx_id", t.parent.id)
	return nil
}

// markDescendantsRolledBack flags open descendants; the database discards their
// work together with this context's.
func (t *gormTx) markDescendantsRolledBack() {
	for _, child := range t.children {
		if child.state == adapter.TxActive {
			child.state = adapter.TxRolledBack
		}
		child.markDescendantsRolledBack()
	}
}

func (t *gormTx) commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case adapter.TxRolledBack:
		// work rolled back explicitly and still reported success
		return nil
	case adapter.TxCommitted:
		return adapter.ErrTxNotActive
	}

	for _, child := range t.children {
		if child.state == adapter.TxActive {
			if err := child.rollbackLocked(); err != nil {
				return err
			}
		}
	}

	conn := t.db.WithContext(context.Background())
	if t.parent == nil {
		if err := conn.Commit().Error; err != nil {
			t.state = adapter.TxRolledBack
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		t.state = adapter.TxCommitted
		slog.Debug("Transaction committed", "tx_id", t.id)
		return nil
	}

	if err := conn.Exec("RELEASE SAVEPOINT " + t.savepoint).Error; err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	t.state = adapter.TxCommitted
	slog.Debug("Savepoint released", "tx_id", t.id, "parent_tx_id", t.parent.id)
	return nil
}
