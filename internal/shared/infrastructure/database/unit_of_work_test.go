package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	Connection
	commits   int
	rollbacks int
}

func (t *fakeTx) Commit(context.Context) error   { t.commits++; return nil }
func (t *fakeTx) Rollback(context.Context) error { t.rollbacks++; return nil }

type fakeConn struct {
	Connection
	begun []*fakeTx
}

func (c *fakeConn) BeginTx(context.Context) (Transaction, error) {
	tx := &fakeTx{}
	c.begun = append(c.begun, tx)
	return tx, nil
}

func TestTxUnitOfWork_NestedJoinsOuter(t *testing.T) {
	conn := &fakeConn{}
	uow := NewUnitOfWork(conn)

	outer, err := uow.Begin(context.Background())
	require.NoError(t, err)
	inner, err := uow.Begin(outer)
	require.NoError(t, err)

	require.Len(t, conn.begun, 1)
	assert.Same(t, TxFromContext(outer), TxFromContext(inner))

	require.NoError(t, uow.Commit(inner))
	assert.Equal(t, 0, conn.begun[0].commits)
	require.NoError(t, uow.Commit(outer))
	assert.Equal(t, 1, conn.begun[0].commits)
}

func TestTxUnitOfWork_Rollback(t *testing.T) {
	conn := &fakeConn{}
	uow := NewUnitOfWork(conn)

	ctx, err := uow.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, uow.Rollback(ctx))
	assert.Equal(t, 1, conn.begun[0].rollbacks)
}

func TestTxUnitOfWork_OutsideTransaction(t *testing.T) {
	uow := NewUnitOfWork(&fakeConn{})
	ctx := context.Background()

	assert.ErrorIs(t, uow.Commit(ctx), errNoTx)
	assert.ErrorIs(t, uow.Rollback(ctx), errNoTx)
	assert.False(t, InTx(ctx))
	assert.Nil(t, TxFromContext(ctx))
}

func TestExecutorFromContext(t *testing.T) {
	conn := &fakeConn{}
	assert.Equal(t, Executor(conn), ExecutorFromContext(context.Background(), conn))

	tx := &fakeTx{}
	ctx := WithTx(context.Background(), tx, true)
	assert.True(t, InTx(ctx))
	assert.Equal(t, Executor(tx), ExecutorFromContext(ctx, conn))
}
