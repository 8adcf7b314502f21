package domain

import (
	"context"
	"time"

	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
)

// Repository persists bookings and credits. Find methods return nil, nil
// when nothing matches.
type Repository interface {
	// LockDay serialises writers of one date for the rest of the
	// transaction in ctx.
	LockDay(ctx context.Context, date sharedDomain.Date) error

	// Create inserts a booking. It returns ErrSlotNoLongerAvailable when an
	// occupying booking already overlaps, ErrDuplicateCode or
	// ErrDuplicateIdempotencyKey on those collisions.
	Create(ctx context.Context, b *Booking) error

	// Update saves a status change, failing with ErrVersionConflict when
	// the stored version differs from the loaded one.
	Update(ctx context.Context, b *Booking) error

	FindByCode(ctx context.Context, code string) (*Booking, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*Booking, error)
	ListByDate(ctx context.Context, date sharedDomain.Date) ([]*Booking, error)
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*Booking, error)

	CreateCredit(ctx context.Context, c *Credit) error
	ListCreditsByEmail(ctx context.Context, email string) ([]*Credit, error)
}
