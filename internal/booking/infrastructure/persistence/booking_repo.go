package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/spabook/internal/booking/domain"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// BookingRepository implements domain.Repository on either driver.
type BookingRepository struct {
	conn database.Connection
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(conn database.Connection) *BookingRepository {
	return &BookingRepository{conn: conn}
}

const bookingColumns = `id, code, service_id, therapist_id, client_name, client_email, client_phone, notes,
	CAST(booking_date AS TEXT), start_minute, end_minute, starts_at, ends_at, price_cents, currency,
	status, cancel_reason, idempotency_key, expires_at, version, created_at, updated_at`

const creditColumns = `id, booking_id, client_email, client_phone, amount_cents, currency, issued_at, expires_at, redeemed_at`

func (r *BookingRepository) LockDay(ctx context.Context, date sharedDomain.Date) error {
	return database.LockDay(ctx, date.String(), time.Now())
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	c := b.Customer()
	_, err := exec.Exec(ctx, `
		INSERT INTO bookings (id, code, service_id, therapist_id, client_name, client_email, client_phone, notes,
			booking_date, start_minute, end_minute, starts_at, ends_at, price_cents, currency,
			status, cancel_reason, idempotency_key, expires_at, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		b.ID(), b.Code(), b.ServiceID(), nullUUID(b.TherapistID()), c.Name, c.Email, c.Phone, c.Notes,
		b.Date().String(), b.Start().Minutes(), b.End().Minutes(), b.StartsAt(), b.EndsAt(),
		b.Price().Amount(), b.Price().Currency(),
		string(b.Status()), b.CancelReason(), nullString(b.IdempotencyKey()), b.ExpiresAt(),
		b.Version(), b.CreatedAt(), b.UpdatedAt(),
	)
	if v, ok := database.AsViolation(err); ok {
		switch {
		case v.Involves("idempotency"):
			return domain.ErrDuplicateIdempotencyKey
		case v.Involves("code"):
			return domain.ErrDuplicateCode
		default:
			return fmt.Errorf("%w: %w", domain.ErrSlotNoLongerAvailable, err)
		}
	}
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	res, err := exec.Exec(ctx, `
		UPDATE bookings
		SET status = $1, cancel_reason = $2, expires_at = $3, version = version + 1, updated_at = $4
		WHERE id = $5 AND version = $6`,
		string(b.Status()), b.CancelReason(), b.ExpiresAt(), b.UpdatedAt(), b.ID(), b.Version(),
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if database.RowsAffected(res) == 0 {
		return domain.ErrVersionConflict
	}
	b.IncrementVersion()
	return nil
}

func (r *BookingRepository) FindByCode(ctx context.Context, code string) (*domain.Booking, error) {
	return r.findOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE code = $1`, code)
}

func (r *BookingRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error) {
	return r.findOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE idempotency_key = $1`, key)
}

func (r *BookingRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Booking, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	b, err := scanBooking(exec.QueryRow(ctx, query, args...))
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return b, nil
}

func (r *BookingRepository) ListByDate(ctx context.Context, date sharedDomain.Date) ([]*domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_date = $1 ORDER BY start_minute, created_at`, date.String())
}

func (r *BookingRepository) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status = 'pending' AND expires_at IS NOT NULL AND expires_at <= $1
		ORDER BY expires_at LIMIT $2`, now, limit)
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BookingRepository) CreateCredit(ctx context.Context, c *domain.Credit) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		INSERT INTO credits (id, booking_id, client_email, client_phone, amount_cents, currency, issued_at, expires_at, redeemed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID(), c.BookingID(), c.Email(), c.Phone(), c.Amount().Amount(), c.Amount().Currency(),
		c.IssuedAt(), c.ExpiresAt(), c.RedeemedAt(),
	)
	if err != nil {
		return fmt.Errorf("insert credit: %w", err)
	}
	return nil
}

func (r *BookingRepository) ListCreditsByEmail(ctx context.Context, email string) ([]*domain.Credit, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, `SELECT `+creditColumns+` FROM credits WHERE client_email = $1 ORDER BY issued_at DESC`, email)
	if err != nil {
		return nil, fmt.Errorf("list credits: %w", err)
	}
	defer rows.Close()

	var out []*domain.Credit
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credit: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanBooking(row database.Row) (*domain.Booking, error) {
	var (
		s              domain.BookingState
		therapistID    uuid.NullUUID
		day            string
		startMinute    int
		endMinute      int
		startsAt       database.Timestamp
		endsAt         database.Timestamp
		priceCents     int64
		currency       string
		status         string
		idempotencyKey *string
		expiresAt      database.NullTimestamp
		createdAt      database.Timestamp
		updatedAt      database.Timestamp
	)
	err := row.Scan(
		&s.ID, &s.Code, &s.ServiceID, &therapistID,
		&s.Customer.Name, &s.Customer.Email, &s.Customer.Phone, &s.Customer.Notes,
		&day, &startMinute, &endMinute, &startsAt, &endsAt, &priceCents, &currency,
		&status, &s.CancelReason, &idempotencyKey, &expiresAt, &s.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if s.Date, err = sharedDomain.ParseDate(day); err != nil {
		return nil, err
	}
	if s.Status, err = domain.ParseStatus(status); err != nil {
		return nil, err
	}
	if s.Price, err = sharedDomain.NewMoney(priceCents, currency); err != nil {
		return nil, err
	}
	if therapistID.Valid {
		id := therapistID.UUID
		s.TherapistID = &id
	}
	if idempotencyKey != nil {
		s.IdempotencyKey = *idempotencyKey
	}
	s.Start, s.End = sharedDomain.Clock(startMinute), sharedDomain.Clock(endMinute)
	s.StartsAt, s.EndsAt = startsAt.Time, endsAt.Time
	s.ExpiresAt = expiresAt.Ptr()
	s.CreatedAt, s.UpdatedAt = createdAt.Time, updatedAt.Time
	return domain.RehydrateBooking(s), nil
}

func scanCredit(row database.Row) (*domain.Credit, error) {
	var (
		s           domain.CreditState
		amountCents int64
		currency    string
		issuedAt    database.Timestamp
		expiresAt   database.Timestamp
		redeemedAt  database.NullTimestamp
	)
	if err := row.Scan(&s.ID, &s.BookingID, &s.Email, &s.Phone, &amountCents, &currency, &issuedAt, &expiresAt, &redeemedAt); err != nil {
		return nil, err
	}
	amount, err := sharedDomain.NewMoney(amountCents, currency)
	if err != nil {
		return nil, err
	}
	s.Amount = amount
	s.IssuedAt, s.ExpiresAt = issuedAt.Time, expiresAt.Time
	s.RedeemedAt = redeemedAt.Ptr()
	return domain.RehydrateCredit(s), nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ domain.Repository = (*BookingRepository)(nil)
