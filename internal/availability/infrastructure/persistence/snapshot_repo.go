package persistence

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/spabook/internal/availability/domain"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/database"
)

// SnapshotRepository reads day snapshots straight from the database.
type SnapshotRepository struct {
	conn database.Connection
}

// NewSnapshotRepository creates a new snapshot repository.
func NewSnapshotRepository(conn database.Connection) *SnapshotRepository {
	return &SnapshotRepository{conn: conn}
}

// Snapshot loads the blocked day flag, blocked ranges and non-cancelled
// bookings of date, using the transaction in ctx when there is one.
func (r *SnapshotRepository) Snapshot(ctx context.Context, date sharedDomain.Date) (domain.DaySnapshot, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	day := date.String()
	snap := domain.DaySnapshot{Date: date}

	var blocked int
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM blocked_days WHERE day = $1`, day).Scan(&blocked); err != nil {
		return domain.DaySnapshot{}, fmt.Errorf("read blocked day: %w", err)
	}
	snap.DayBlocked = blocked > 0
	if snap.DayBlocked {
		return snap, nil
	}

	var err error
	snap.BlockedHours, err = readIntervals(ctx, exec,
		`SELECT start_minute, end_minute FROM blocked_hours WHERE day = $1 ORDER BY start_minute`, day)
	if err != nil {
		return domain.DaySnapshot{}, fmt.Errorf("read blocked hours: %w", err)
	}

	snap.Bookings, err = readIntervals(ctx, exec,
		`SELECT start_minute, end_minute FROM bookings
		WHERE booking_date = $1 AND status <> 'cancelled' ORDER BY start_minute`, day)
	if err != nil {
		return domain.DaySnapshot{}, fmt.Errorf("read bookings: %w", err)
	}
	return snap, nil
}

func readIntervals(ctx context.Context, exec database.Executor, query string, args ...any) ([]sharedDomain.Interval, error) {
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sharedDomain.Interval
	for rows.Next() {
		var start, end int
		if err := rows.Scan(&start, &end); err != nil {
			return nil, err
		}
		out = append(out, sharedDomain.Interval{Start: sharedDomain.Clock(start), End: sharedDomain.Clock(end)})
	}
	return out, rows.Err()
}
