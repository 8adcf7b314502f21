package domain

import (
	"context"

	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/google/uuid"
)

// Repository persists day and hour blocks.
type Repository interface {
	// LockDay serialises calendar and booking writers on date until the
	// surrounding transaction ends.
	LockDay(ctx context.Context, date sharedDomain.Date) error

	// CreateBlockedDay returns ErrAlreadyBlocked when the date is taken.
	CreateBlockedDay(ctx context.Context, day *BlockedDay) error
	// FindBlockedDay returns nil, nil when the date is open.
	FindBlockedDay(ctx context.Context, date sharedDomain.Date) (*BlockedDay, error)
	DeleteBlockedDay(ctx context.Context, id uuid.UUID) error
	// ListBlockedDays returns blocks on or after from, ordered by date.
	ListBlockedDays(ctx context.Context, from sharedDomain.Date) ([]*BlockedDay, error)

	CreateBlockedHours(ctx context.Context, r *BlockedHourRange) error
	// FindBlockedHours returns nil, nil for an unknown id.
	FindBlockedHours(ctx context.Context, id uuid.UUID) (*BlockedHourRange, error)
	DeleteBlockedHours(ctx context.Context, id uuid.UUID) error
	// ListBlockedHours returns the ranges on date ordered by start.
	ListBlockedHours(ctx context.Context, date sharedDomain.Date) ([]*BlockedHourRange, error)
}
