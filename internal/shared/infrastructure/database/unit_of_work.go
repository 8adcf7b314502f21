package database

import (
	"context"
	"errors"
)

var errNoTx = errors.New("database: no transaction in context")

// txScope is the transaction carried by a context. owner is false for
// nested units that joined an enclosing transaction.
type txScope struct {
	tx    Transaction
	owner bool
}

type txScopeKey struct{}

func scopeOf(ctx context.Context) (txScope, bool) {
	scope, ok := ctx.Value(txScopeKey{}).(txScope)
	return scope, ok && scope.tx != nil
}

// WithTx returns ctx carrying tx. The owner commits or rolls it back.
func WithTx(ctx context.Context, tx Transaction, owner bool) context.Context {
	return context.WithValue(ctx, txScopeKey{}, txScope{tx: tx, owner: owner})
}

// TxFromContext returns the open transaction, or nil.
func TxFromContext(ctx context.Context) Transaction {
	scope, _ := scopeOf(ctx)
	return scope.tx
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	_, ok := scopeOf(ctx)
	return ok
}

// ExecutorFromContext returns the open transaction or, outside one, conn.
// Repositories must always go through it: the SQLite pool holds a single
// connection, so bypassing an open transaction deadlocks.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if scope, ok := scopeOf(ctx); ok {
		return scope.tx
	}
	return conn
}

// TxUnitOfWork implements application.UnitOfWork on a Connection. Units
// nest: an inner Begin joins the outer transaction, and only the outermost
// Commit or Rollback reaches the database.
type TxUnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a unit of work on conn.
func NewUnitOfWork(conn Connection) *TxUnitOfWork {
	return &TxUnitOfWork{conn: conn}
}

func (u *TxUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if scope, ok := scopeOf(ctx); ok {
		return WithTx(ctx, scope.tx, false), nil
	}
	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return WithTx(ctx, tx, true), nil
}

func (u *TxUnitOfWork) Commit(ctx context.Context) error {
	return u.finish(ctx, Transaction.Commit)
}

func (u *TxUnitOfWork) Rollback(ctx context.Context) error {
	return u.finish(ctx, Transaction.Rollback)
}

func (u *TxUnitOfWork) finish(ctx context.Context, end func(Transaction, context.Context) error) error {
	scope, ok := scopeOf(ctx)
	if !ok {
		return errNoTx
	}
	if !scope.owner {
		return nil
	}
	return end(scope.tx, ctx)
}
