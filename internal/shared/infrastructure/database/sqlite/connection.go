// Package sqlite implements database.Connection on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"modernc.org/sqlite"

	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/database"
)

func init() {
	database.RegisterSQLiteDriver(NewConnection)
}

// Connection wraps sql.DB to implement database.Connection for SQLite.
type Connection struct {
	db *sql.DB
}

// NewConnection opens (creating if needed) the SQLite database file.
func NewConnection(ctx context.Context, cfg database.Config) (database.Connection, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = database.DefaultSQLitePath()
	}
	if path != ":memory:" {
		if err := database.EnsureDirectory(path); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + fmt.Sprintf(
		"_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_txlock=immediate",
		busy.Milliseconds(),
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// A single connection serialises writers; transactions take the write
	// lock up front (_txlock=immediate) so read-then-write never upgrades.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, database.ConnectionError(fmt.Errorf("failed to ping SQLite database: %w", err))
	}

	return &Connection{db: db}, nil
}

// DB returns the underlying sql.DB.
func (c *Connection) DB() *sql.DB {
	return c.db
}

func (c *Connection) Driver() database.Driver {
	return database.DriverSQLite
}

func (c *Connection) Close() error {
	return c.db.Close()
}

func (c *Connection) Ping(ctx context.Context) error {
	return classify(c.db.PingContext(ctx))
}

func (c *Connection) BeginTx(ctx context.Context) (database.Transaction, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	return &Transaction{tx: tx}, nil
}

func (c *Connection) Exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	res, err := c.db.ExecContext(ctx, Rebind(query), normalizeArgs(args)...)
	if err != nil {
		return nil, classify(err)
	}
	return res, nil
}

func (c *Connection) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return classifiedRow{row: c.db.QueryRowContext(ctx, Rebind(query), normalizeArgs(args)...)}
}

func (c *Connection) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := c.db.QueryContext(ctx, Rebind(query), normalizeArgs(args)...)
	if err != nil {
		return nil, classify(err)
	}
	return &sqlRows{rows: rows}, nil
}

// Transaction wraps sql.Tx to implement database.Transaction.
type Transaction struct {
	tx *sql.Tx
}

func (t *Transaction) Commit(ctx context.Context) error {
	return classify(t.tx.Commit())
}

// Rollback rolls back the transaction. Rolling back a finished transaction is a no-op.
func (t *Transaction) Rollback(ctx context.Context) error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (t *Transaction) Exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	res, err := t.tx.ExecContext(ctx, Rebind(query), normalizeArgs(args)...)
	if err != nil {
		return nil, classify(err)
	}
	return res, nil
}

func (t *Transaction) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return classifiedRow{row: t.tx.QueryRowContext(ctx, Rebind(query), normalizeArgs(args)...)}
}

func (t *Transaction) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, Rebind(query), normalizeArgs(args)...)
	if err != nil {
		return nil, classify(err)
	}
	return &sqlRows{rows: rows}, nil
}

type classifiedRow struct {
	row *sql.Row
}

func (r classifiedRow) Scan(dest ...any) error {
	return classify(r.row.Scan(dest...))
}

type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool             { return r.rows.Next() }
func (r *sqlRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *sqlRows) Close() error           { return r.rows.Close() }
func (r *sqlRows) Err() error             { return classify(r.rows.Err()) }

var placeholder = regexp.MustCompile(`\$(\d+)`)

// Rebind rewrites PostgreSQL $N placeholders into SQLite ?N placeholders.
func Rebind(query string) string {
	return placeholder.ReplaceAllString(query, "?$1")
}

// normalizeArgs stores instants in database.TimeLayout so TEXT comparisons
// order chronologically.
func normalizeArgs(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case time.Time:
			out[i] = database.FormatTime(v)
		case *time.Time:
			if v == nil {
				out[i] = nil
			} else {
				out[i] = database.FormatTime(*v)
			}
		case database.NullTimestamp:
			if v.Valid {
				out[i] = database.FormatTime(v.Time)
			} else {
				out[i] = nil
			}
		default:
			out[i] = arg
		}
	}
	return out
}

// SQLite extended result codes mapped by classify.
const (
	codeBusy               = 5
	codeLocked             = 6
	codeCantOpen           = 14
	codeConstraintPrimary  = 1555
	codeConstraintUnique   = 2067
	codeBusySnapshot       = 517
	constraintFailedPrefix = "constraint failed: "
)

func classify(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	switch sqliteErr.Code() {
	case codeConstraintUnique, codeConstraintPrimary:
		return &database.Violation{
			Kind:       database.ViolationUnique,
			Constraint: constraintColumns(sqliteErr.Error()),
			Err:        err,
		}
	case codeBusy, codeLocked, codeCantOpen, codeBusySnapshot:
		return database.ConnectionError(err)
	}
	return err
}

// constraintColumns extracts "table.col, table.col" from messages such as
// "constraint failed: UNIQUE constraint failed: bookings.code (2067)".
func constraintColumns(msg string) string {
	if i := strings.LastIndex(msg, constraintFailedPrefix); i >= 0 {
		msg = msg[i+len(constraintFailedPrefix):]
	}
	if i := strings.LastIndex(msg, " ("); i >= 0 {
		msg = msg[:i]
	}
	return strings.TrimSpace(msg)
}
