// Package testutil opens migrated throwaway databases for repository tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/spabook/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/migrations"
)

// Seeded service ids from the catalog seed migration.
const (
	RelaxingMassageID = "5b0f3a52-8d3e-4c1a-9f41-0c6f1e2a7a01"
	HotStonesID       = "5b0f3a52-8d3e-4c1a-9f41-0c6f1e2a7a03"
	ReflexologyID     = "5b0f3a52-8d3e-4c1a-9f41-0c6f1e2a7a04"
)

// OpenSQLite opens a migrated SQLite database in a temp dir, closed on cleanup.
func OpenSQLite(t testing.TB) database.Connection {
	t.Helper()
	ctx := context.Background()
	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "spabook.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = migrations.Run(ctx, conn, nil)
	require.NoError(t, err)
	return conn
}
