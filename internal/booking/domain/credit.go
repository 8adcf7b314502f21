package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/google/uuid"
)

// Credit is store credit owed to a customer after a cancellation.
type Credit struct {
	id         uuid.UUID
	bookingID  uuid.UUID
	email      string
	phone      string
	amount     sharedDomain.Money
	issuedAt   time.Time
	expiresAt  time.Time
	redeemedAt *time.Time
}

func newCredit(b *Booking, validityMonths int, at time.Time) *Credit {
	issued := at.UTC()
	return &Credit{
		id:        uuid.New(),
		bookingID: b.ID(),
		email:     b.customer.Email,
		phone:     b.customer.Phone,
		amount:    b.price,
		issuedAt:  issued,
		expiresAt: issued.AddDate(0, validityMonths, 0),
	}
}

func (c *Credit) ID() uuid.UUID              { return c.id }
func (c *Credit) BookingID() uuid.UUID       { return c.bookingID }
func (c *Credit) Email() string              { return c.email }
func (c *Credit) Phone() string              { return c.phone }
func (c *Credit) Amount() sharedDomain.Money { return c.amount }
func (c *Credit) IssuedAt() time.Time        { return c.issuedAt }
func (c *Credit) ExpiresAt() time.Time       { return c.expiresAt }
func (c *Credit) RedeemedAt() *time.Time     { return c.redeemedAt }

// Usable reports whether the credit can still be redeemed at now.
func (c *Credit) Usable(now time.Time) bool {
	return c.redeemedAt == nil && now.Before(c.expiresAt)
}

// CreditState is the persisted form used to rehydrate a Credit.
type CreditState struct {
	ID         uuid.UUID
	BookingID  uuid.UUID
	Email      string
	Phone      string
	Amount     sharedDomain.Money
	IssuedAt   time.Time
	ExpiresAt  time.Time
	RedeemedAt *time.Time
}

// RehydrateCredit recreates a credit from persistence.
func RehydrateCredit(s CreditState) *Credit {
	return &Credit{
		id:         s.ID,
		bookingID:  s.BookingID,
		email:      s.Email,
		phone:      s.Phone,
		amount:     s.Amount,
		issuedAt:   s.IssuedAt.UTC(),
		expiresAt:  s.ExpiresAt.UTC(),
		redeemedAt: s.RedeemedAt,
	}
}
