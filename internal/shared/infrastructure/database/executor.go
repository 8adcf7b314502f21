package database

import "context"

// Executor runs SQL. Connections and transactions both implement it, and
// repositories obtain one through ExecutorFromContext. Statements use
// PostgreSQL $N placeholders; the SQLite driver rebinds them.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

type Row interface {
	Scan(dest ...any) error
}

type Rows interface {
	Row
	Next() bool
	Close() error
	Err() error
}

type Result interface {
	RowsAffected() (int64, error)
}

// Transaction is an Executor that must be finished exactly once.
type Transaction interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is a pooled handle on one database.
type Connection interface {
	Executor
	BeginTx(ctx context.Context) (Transaction, error)
	Ping(ctx context.Context) error
	Driver() Driver
	Close() error
}

// RowsAffected reads the affected row count. A nil result or a driver
// that cannot report it counts as zero.
func RowsAffected(res Result) int64 {
	if res == nil {
		return 0
	}
	if n, err := res.RowsAffected(); err == nil {
		return n
	}
	return 0
}
