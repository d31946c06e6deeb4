// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"
	"errors"
)

// ErrTxNotActive is returned when work is attempted on a committed or rolled back transaction.
var ErrTxNotActive = errors.New("transaction is not active")

// TxState is the lifecycle state of a transaction context.
type TxState int

const (
	TxActive TxState = iota
	TxCommitted
	TxRolledBack
)

// String returns the name of the state.
func (s TxState) String() string {
	switch s {
	case TxActive:
		return "active"
	case TxCommitted:
		return "committed"
	case TxRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Tx is a handle on one unit of atomic work. A Tx with a parent is a savepoint:
// rolling it back discards only what was done under it and its descendants.
// A Tx without a parent is a root transaction.
type Tx interface {
	// ID returns the unique identifier of this context.
	ID() string

	// Parent returns the enclosing context, or nil for a root transaction.
	Parent() Tx

	// State returns the current lifecycle state.
	State() TxState

	// Rollback discards the effects of this context and of its open descendants.
	// Rolling back a savepoint leaves the parent active with its prior effects intact.
	Rollback() error
}

// TransactionManager opens root and nested transaction contexts.
type TransactionManager interface {
	// StartTransaction runs work inside a fresh context bound to parent (root when nil).
	//
	// When work returns nil the context commits; for a savepoint that means its effects
	// are folded into the parent. When work returns an error without having rolled back,
	// the context alone is rolled back and the error is returned unchanged. Ancestors are
	// never rolled back on behalf of a failing descendant.
	StartTransaction(ctx context.Context, parent Tx, work func(ctx context.Context, tx Tx) error) error
}
