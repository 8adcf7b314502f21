package database

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoTransaction is returned by operations that only make sense inside a
// unit of work.
var ErrNoTransaction = errors.New("database: operation requires a transaction")

// LockDay serialises writers on one calendar day until the transaction in
// ctx ends. The upsert row-locks booking_days in PostgreSQL and takes the
// write lock in SQLite; both block concurrent writers for the same day.
func LockDay(ctx context.Context, day string, at time.Time) error {
	tx := TxFromContext(ctx)
	if tx == nil {
		return ErrNoTransaction
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO booking_days (day, locked_at) VALUES ($1, $2)
		ON CONFLICT (day) DO UPDATE SET locked_at = excluded.locked_at`,
		day, at,
	)
	if err != nil {
		return fmt.Errorf("lock day %s: %w", day, err)
	}
	return nil
}
