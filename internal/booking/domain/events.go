package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Booking"

	RoutingKeyBookingCreated       = "booking.created"
	RoutingKeyBookingCancelled     = "booking.cancelled"
	RoutingKeyBookingStatusChanged = "booking.status_changed"
	RoutingKeyCreditIssued         = "credit.issued"
)

// BookingCreated is emitted when a slot is reserved.
type BookingCreated struct {
	sharedDomain.BaseEvent
	BookingID     uuid.UUID          `json:"booking_id"`
	Code          string             `json:"code"`
	ServiceID     uuid.UUID          `json:"service_id"`
	Date          sharedDomain.Date  `json:"date"`
	Start         sharedDomain.Clock `json:"start"`
	End           sharedDomain.Clock `json:"end"`
	StartsAt      time.Time          `json:"starts_at"`
	Status        Status             `json:"status"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email,omitempty"`
	CustomerPhone string             `json:"customer_phone,omitempty"`
	PriceCents    int64              `json:"price_cents"`
	Currency      string             `json:"currency"`
}

func NewBookingCreated(b *Booking, at time.Time) BookingCreated {
	return BookingCreated{
		BaseEvent:     sharedDomain.NewBaseEvent(b.ID(), AggregateType, RoutingKeyBookingCreated, at),
		BookingID:     b.ID(),
		Code:          b.code,
		ServiceID:     b.serviceID,
		Date:          b.date,
		Start:         b.start,
		End:           b.end,
		StartsAt:      b.startsAt,
		Status:        b.status,
		CustomerName:  b.customer.Name,
		CustomerEmail: b.customer.Email,
		CustomerPhone: b.customer.Phone,
		PriceCents:    b.price.Amount(),
		Currency:      b.price.Currency(),
	}
}

// BookingCancelled is emitted when a booking releases its slot.
type BookingCancelled struct {
	sharedDomain.BaseEvent
	BookingID     uuid.UUID          `json:"booking_id"`
	Code          string             `json:"code"`
	Date          sharedDomain.Date  `json:"date"`
	Start         sharedDomain.Clock `json:"start"`
	PreviousState Status             `json:"previous_status"`
	Reason        string             `json:"reason,omitempty"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email,omitempty"`
	CustomerPhone string             `json:"customer_phone,omitempty"`
}

func NewBookingCancelled(b *Booking, from Status, at time.Time) BookingCancelled {
	return BookingCancelled{
		BaseEvent:     sharedDomain.NewBaseEvent(b.ID(), AggregateType, RoutingKeyBookingCancelled, at),
		BookingID:     b.ID(),
		Code:          b.code,
		Date:          b.date,
		Start:         b.start,
		PreviousState: from,
		Reason:        b.cancelReason,
		CustomerName:  b.customer.Name,
		CustomerEmail: b.customer.Email,
		CustomerPhone: b.customer.Phone,
	}
}

// BookingStatusChanged covers confirm, complete and no-show.
type BookingStatusChanged struct {
	sharedDomain.BaseEvent
	BookingID uuid.UUID `json:"booking_id"`
	Code      string    `json:"code"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
}

func NewBookingStatusChanged(b *Booking, from Status, at time.Time) BookingStatusChanged {
	return BookingStatusChanged{
		BaseEvent: sharedDomain.NewBaseEvent(b.ID(), AggregateType, RoutingKeyBookingStatusChanged, at),
		BookingID: b.ID(),
		Code:      b.code,
		From:      from,
		To:        b.status,
	}
}

// CreditIssued is emitted alongside a cancellation that earns a credit.
type CreditIssued struct {
	sharedDomain.BaseEvent
	CreditID    uuid.UUID `json:"credit_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	Code        string    `json:"code"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func NewCreditIssued(b *Booking, c *Credit, at time.Time) CreditIssued {
	return CreditIssued{
		BaseEvent:   sharedDomain.NewBaseEvent(b.ID(), AggregateType, RoutingKeyCreditIssued, at),
		CreditID:    c.id,
		BookingID:   b.ID(),
		Code:        b.code,
		Email:       c.email,
		Phone:       c.phone,
		AmountCents: c.amount.Amount(),
		Currency:    c.amount.Currency(),
		ExpiresAt:   c.expiresAt,
	}
}
