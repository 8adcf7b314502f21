package outbox_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/spabook/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/outbox"
)

func openOutboxDB(t *testing.T) database.Connection {
	t.Helper()
	ctx := context.Background()
	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "outbox.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = migrations.Run(ctx, conn, nil)
	require.NoError(t, err)
	return conn
}

func TestSQLRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := outbox.NewRepository(openOutboxDB(t))

	first := bookingMessage("booking.created")
	first.CreatedAt = time.Now().Add(-time.Minute)
	second := bookingMessage("booking.cancelled")
	require.NoError(t, repo.SaveBatch(ctx, []*outbox.Message{first, second}))
	assert.NotZero(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	due, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, first.EventID, due[0].EventID)
	assert.JSONEq(t, string(first.Payload), string(due[0].Payload))
	assert.WithinDuration(t, first.CreatedAt, due[0].CreatedAt, time.Microsecond)

	require.NoError(t, repo.MarkPublished(ctx, first.ID))
	require.NoError(t, repo.MarkFailed(ctx, second.ID, "timeout", time.Now().Add(time.Hour)))

	due, err = repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due, "published and backed-off messages are not due")
}

func TestSQLRepository_MarkDead(t *testing.T) {
	ctx := context.Background()
	repo := outbox.NewRepository(openOutboxDB(t))

	msg := bookingMessage("booking.created")
	require.NoError(t, repo.Save(ctx, msg))
	require.NoError(t, repo.MarkDead(ctx, msg.ID, "poison"))

	due, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestSQLRepository_SaveBatchJoinsTransaction(t *testing.T) {
	ctx := context.Background()
	conn := openOutboxDB(t)
	repo := outbox.NewRepository(conn)

	tx, err := conn.BeginTx(ctx)
	require.NoError(t, err)
	txCtx := database.WithTx(ctx, tx, true)
	require.NoError(t, repo.SaveBatch(txCtx, []*outbox.Message{bookingMessage("booking.created")}))
	require.NoError(t, tx.Rollback(ctx))

	due, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due, "rolled back with the surrounding transaction")
}

func TestSQLRepository_DeleteOld(t *testing.T) {
	ctx := context.Background()
	repo := outbox.NewRepository(openOutboxDB(t))

	msg := bookingMessage("booking.created")
	require.NoError(t, repo.Save(ctx, msg))
	require.NoError(t, repo.MarkPublished(ctx, msg.ID))

	n, err := repo.DeleteOld(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, n, "recently published messages are retained")

	n, err = repo.DeleteOld(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
