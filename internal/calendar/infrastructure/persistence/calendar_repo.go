package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/spabook/internal/calendar/domain"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// CalendarRepository implements domain.Repository on either driver.
type CalendarRepository struct {
	conn database.Connection
}

// NewCalendarRepository creates a new calendar repository.
func NewCalendarRepository(conn database.Connection) *CalendarRepository {
	return &CalendarRepository{conn: conn}
}

const (
	blockedDayColumns   = `id, CAST(day AS TEXT), reason, blocked_by, created_at, updated_at`
	blockedHoursColumns = `id, CAST(day AS TEXT), start_minute, end_minute, reason, blocked_by, created_at, updated_at`
)

func (r *CalendarRepository) LockDay(ctx context.Context, date sharedDomain.Date) error {
	return database.LockDay(ctx, date.String(), time.Now())
}

func (r *CalendarRepository) CreateBlockedDay(ctx context.Context, day *domain.BlockedDay) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		INSERT INTO blocked_days (id, day, reason, blocked_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		day.ID(), day.Date().String(), day.Reason(), day.BlockedBy(), day.CreatedAt(), day.UpdatedAt(),
	)
	if _, ok := database.AsViolation(err); ok {
		return domain.ErrAlreadyBlocked
	}
	if err != nil {
		return fmt.Errorf("insert blocked day: %w", err)
	}
	return nil
}

func (r *CalendarRepository) FindBlockedDay(ctx context.Context, date sharedDomain.Date) (*domain.BlockedDay, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, `SELECT `+blockedDayColumns+` FROM blocked_days WHERE day = $1`, date.String())

	day, err := scanBlockedDay(row)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find blocked day: %w", err)
	}
	return day, nil
}

func (r *CalendarRepository) DeleteBlockedDay(ctx context.Context, id uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	res, err := exec.Exec(ctx, `DELETE FROM blocked_days WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blocked day: %w", err)
	}
	if database.RowsAffected(res) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CalendarRepository) ListBlockedDays(ctx context.Context, from sharedDomain.Date) ([]*domain.BlockedDay, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, `SELECT `+blockedDayColumns+` FROM blocked_days WHERE day >= $1 ORDER BY day`, from.String())
	if err != nil {
		return nil, fmt.Errorf("list blocked days: %w", err)
	}
	defer rows.Close()

	var days []*domain.BlockedDay
	for rows.Next() {
		day, err := scanBlockedDay(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blocked day: %w", err)
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

func (r *CalendarRepository) CreateBlockedHours(ctx context.Context, b *domain.BlockedHourRange) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		INSERT INTO blocked_hours (id, day, start_minute, end_minute, reason, blocked_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID(), b.Date().String(), b.Start().Minutes(), b.End().Minutes(), b.Reason(), b.BlockedBy(), b.CreatedAt(), b.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("insert blocked hours: %w", err)
	}
	return nil
}

func (r *CalendarRepository) FindBlockedHours(ctx context.Context, id uuid.UUID) (*domain.BlockedHourRange, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, `SELECT `+blockedHoursColumns+` FROM blocked_hours WHERE id = $1`, id)

	b, err := scanBlockedHours(row)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find blocked hours: %w", err)
	}
	return b, nil
}

func (r *CalendarRepository) DeleteBlockedHours(ctx context.Context, id uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	res, err := exec.Exec(ctx, `DELETE FROM blocked_hours WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blocked hours: %w", err)
	}
	if database.RowsAffected(res) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CalendarRepository) ListBlockedHours(ctx context.Context, date sharedDomain.Date) ([]*domain.BlockedHourRange, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, `
		SELECT `+blockedHoursColumns+` FROM blocked_hours
		WHERE day = $1
		ORDER BY start_minute`,
		date.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list blocked hours: %w", err)
	}
	defer rows.Close()

	var ranges []*domain.BlockedHourRange
	for rows.Next() {
		b, err := scanBlockedHours(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blocked hours: %w", err)
		}
		ranges = append(ranges, b)
	}
	return ranges, rows.Err()
}

func scanBlockedDay(row database.Row) (*domain.BlockedDay, error) {
	var (
		id        uuid.UUID
		day       string
		reason    string
		blockedBy string
		createdAt database.Timestamp
		updatedAt database.Timestamp
	)
	if err := row.Scan(&id, &day, &reason, &blockedBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	date, err := sharedDomain.ParseDate(day)
	if err != nil {
		return nil, err
	}
	return domain.RehydrateBlockedDay(id, date, reason, blockedBy, createdAt.Time, updatedAt.Time), nil
}

func scanBlockedHours(row database.Row) (*domain.BlockedHourRange, error) {
	var (
		id          uuid.UUID
		day         string
		startMinute int
		endMinute   int
		reason      string
		blockedBy   string
		createdAt   database.Timestamp
		updatedAt   database.Timestamp
	)
	if err := row.Scan(&id, &day, &startMinute, &endMinute, &reason, &blockedBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	date, err := sharedDomain.ParseDate(day)
	if err != nil {
		return nil, err
	}
	return domain.RehydrateBlockedHourRange(
		id, date,
		sharedDomain.Clock(startMinute), sharedDomain.Clock(endMinute),
		reason, blockedBy,
		createdAt.Time, updatedAt.Time,
	), nil
}
