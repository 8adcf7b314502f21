// Package domain holds the booking aggregate, its status machine and the
// credits issued when a booking is cancelled.
package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/google/uuid"
)

// ReasonExpired is the cancel reason of pending bookings dropped by the sweeper.
const ReasonExpired = "expired"

// Booking is a reserved slot on the shared timeline.
type Booking struct {
	sharedDomain.BaseAggregateRoot
	code           string
	serviceID      uuid.UUID
	therapistID    *uuid.UUID
	date           sharedDomain.Date
	start          sharedDomain.Clock
	end            sharedDomain.Clock
	startsAt       time.Time
	endsAt         time.Time
	status         Status
	customer       Customer
	price          sharedDomain.Money
	cancelReason   string
	idempotencyKey string
	expiresAt      *time.Time
}

// NewBookingParams carries everything needed to reserve a slot.
type NewBookingParams struct {
	Code           string
	ServiceID      uuid.UUID
	Duration       time.Duration
	Price          sharedDomain.Money
	TherapistID    *uuid.UUID
	Date           sharedDomain.Date
	Start          sharedDomain.Clock
	Location       *time.Location
	Customer       Customer
	IdempotencyKey string

	// AutoConfirm creates the booking confirmed. Otherwise it stays pending
	// until PendingTTL elapses.
	AutoConfirm bool
	PendingTTL  time.Duration
}

// NewBooking creates a booking and records BookingCreated.
func NewBooking(p NewBookingParams, at time.Time) (*Booking, error) {
	customer := p.Customer.Normalize()
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	if p.Duration <= 0 || !p.Start.Valid() {
		return nil, ErrSlotUnavailable
	}
	end := p.Start.Add(p.Duration)
	if !end.Valid() {
		return nil, ErrSlotUnavailable
	}

	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	startsAt := p.Date.At(p.Start, loc)

	b := &Booking{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(at),
		code:              p.Code,
		serviceID:         p.ServiceID,
		therapistID:       p.TherapistID,
		date:              p.Date,
		start:             p.Start,
		end:               end,
		startsAt:          startsAt.UTC(),
		endsAt:            startsAt.Add(p.Duration).UTC(),
		status:            StatusConfirmed,
		customer:          customer,
		price:             p.Price,
		idempotencyKey:    p.IdempotencyKey,
	}
	if !p.AutoConfirm {
		b.status = StatusPending
		expires := b.CreatedAt().Add(p.PendingTTL)
		b.expiresAt = &expires
	}

	b.AddDomainEvent(NewBookingCreated(b, at))
	return b, nil
}

func (b *Booking) Code() string              { return b.code }
func (b *Booking) ServiceID() uuid.UUID      { return b.serviceID }
func (b *Booking) TherapistID() *uuid.UUID   { return b.therapistID }
func (b *Booking) Date() sharedDomain.Date   { return b.date }
func (b *Booking) Start() sharedDomain.Clock { return b.start }
func (b *Booking) End() sharedDomain.Clock   { return b.end }
func (b *Booking) StartsAt() time.Time       { return b.startsAt }
func (b *Booking) EndsAt() time.Time         { return b.endsAt }
func (b *Booking) Status() Status            { return b.status }
func (b *Booking) Customer() Customer        { return b.customer }
func (b *Booking) Price() sharedDomain.Money { return b.price }
func (b *Booking) CancelReason() string      { return b.cancelReason }
func (b *Booking) IdempotencyKey() string    { return b.idempotencyKey }
func (b *Booking) ExpiresAt() *time.Time     { return b.expiresAt }
func (b *Booking) Interval() sharedDomain.Interval {
	return sharedDomain.Interval{Start: b.start, End: b.end}
}

// TransitionTo moves the booking to target. reason is kept for
// cancellations only.
func (b *Booking) TransitionTo(target Status, reason string, at time.Time) error {
	if !target.IsValid() {
		return ErrInvalidStatus
	}
	if !b.status.CanTransitionTo(target) {
		return ErrInvalidTransition
	}

	from := b.status
	b.status = target
	b.expiresAt = nil
	if target == StatusCancelled {
		b.cancelReason = reason
		b.AddDomainEvent(NewBookingCancelled(b, from, at))
	} else {
		b.AddDomainEvent(NewBookingStatusChanged(b, from, at))
	}
	b.Touch(at)
	return nil
}

func (b *Booking) Confirm(at time.Time) error    { return b.TransitionTo(StatusConfirmed, "", at) }
func (b *Booking) Complete(at time.Time) error   { return b.TransitionTo(StatusCompleted, "", at) }
func (b *Booking) MarkNoShow(at time.Time) error { return b.TransitionTo(StatusNoShow, "", at) }

func (b *Booking) Cancel(reason string, at time.Time) error {
	return b.TransitionTo(StatusCancelled, reason, at)
}

// Expire cancels a pending booking whose hold ran out.
func (b *Booking) Expire(at time.Time) error {
	if b.status != StatusPending {
		return ErrInvalidTransition
	}
	return b.TransitionTo(StatusCancelled, ReasonExpired, at)
}

// IsExpired reports whether a pending hold has lapsed at now.
func (b *Booking) IsExpired(now time.Time) bool {
	return b.status == StatusPending && b.expiresAt != nil && !now.Before(*b.expiresAt)
}

// IssueCredit creates the credit owed for a cancelled booking and records
// CreditIssued.
func (b *Booking) IssueCredit(validityMonths int, at time.Time) (*Credit, error) {
	if b.status != StatusCancelled || b.cancelReason == ReasonExpired {
		return nil, ErrCreditNotAllowed
	}
	credit := newCredit(b, validityMonths, at)
	b.AddDomainEvent(NewCreditIssued(b, credit, at))
	return credit, nil
}

// BookingState is the persisted form used to rehydrate a Booking.
type BookingState struct {
	ID             uuid.UUID
	Code           string
	ServiceID      uuid.UUID
	TherapistID    *uuid.UUID
	Date           sharedDomain.Date
	Start          sharedDomain.Clock
	End            sharedDomain.Clock
	StartsAt       time.Time
	EndsAt         time.Time
	Status         Status
	Customer       Customer
	Price          sharedDomain.Money
	CancelReason   string
	IdempotencyKey string
	ExpiresAt      *time.Time
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RehydrateBooking recreates a booking from persistence.
func RehydrateBooking(s BookingState) *Booking {
	return &Booking{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(s.ID, s.CreatedAt, s.UpdatedAt, s.Version),
		code:              s.Code,
		serviceID:         s.ServiceID,
		therapistID:       s.TherapistID,
		date:              s.Date,
		start:             s.Start,
		end:               s.End,
		startsAt:          s.StartsAt.UTC(),
		endsAt:            s.EndsAt.UTC(),
		status:            s.Status,
		customer:          s.Customer,
		price:             s.Price,
		cancelReason:      s.CancelReason,
		idempotencyKey:    s.IdempotencyKey,
		expiresAt:         s.ExpiresAt,
	}
}
