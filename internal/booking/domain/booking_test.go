package domain

import (
	"testing"
	"time"

	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lima      = time.FixedZone("PET", -5*60*60)
	createdAt = time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
)

func validParams() NewBookingParams {
	return NewBookingParams{
		Code:        "SPA-2025-ABC123",
		ServiceID:   uuid.New(),
		Duration:    90 * time.Minute,
		Price:       sharedDomain.MustMoney(15000, "PEN"),
		Date:        sharedDomain.MustDate("2025-09-05"),
		Start:       sharedDomain.NewClock(10, 0),
		Location:    lima,
		Customer:    Customer{Name: " Lucía ", Email: "LUCIA@example.com"},
		AutoConfirm: true,
	}
}

func TestNewBooking(t *testing.T) {
	b, err := NewBooking(validParams(), createdAt)
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, b.Status())
	assert.Equal(t, sharedDomain.NewClock(11, 30), b.End())
	assert.Equal(t, time.Date(2025, 9, 5, 15, 0, 0, 0, time.UTC), b.StartsAt())
	assert.Equal(t, b.StartsAt().Add(90*time.Minute), b.EndsAt())
	assert.Equal(t, "Lucía", b.Customer().Name)
	assert.Equal(t, "lucia@example.com", b.Customer().Email)
	assert.Nil(t, b.ExpiresAt())

	events := b.PullDomainEvents()
	require.Len(t, events, 1)
	created, ok := events[0].(BookingCreated)
	require.True(t, ok)
	assert.Equal(t, RoutingKeyBookingCreated, created.RoutingKey())
	assert.Equal(t, "SPA-2025-ABC123", created.Code)
}

func TestNewBooking_Pending(t *testing.T) {
	p := validParams()
	p.AutoConfirm = false
	p.PendingTTL = 30 * time.Minute

	b, err := NewBooking(p, createdAt)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, b.Status())
	require.NotNil(t, b.ExpiresAt())
	assert.Equal(t, createdAt.Add(30*time.Minute), *b.ExpiresAt())
	assert.False(t, b.IsExpired(createdAt.Add(29*time.Minute)))
	assert.True(t, b.IsExpired(createdAt.Add(30*time.Minute)))
}

func TestNewBooking_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*NewBookingParams)
		err    error
	}{
		{"missing name", func(p *NewBookingParams) { p.Customer.Name = "  " }, ErrCustomerNameRequired},
		{"no contact", func(p *NewBookingParams) { p.Customer.Email = "" }, ErrContactRequired},
		{"bad email", func(p *NewBookingParams) { p.Customer.Email = "not-an-email" }, ErrInvalidEmail},
		{"phone only", func(p *NewBookingParams) { p.Customer.Email = ""; p.Customer.Phone = "+51999888777" }, nil},
		{"past midnight", func(p *NewBookingParams) { p.Start = sharedDomain.NewClock(23, 0) }, ErrSlotUnavailable},
		{"no duration", func(p *NewBookingParams) { p.Duration = 0 }, ErrSlotUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			_, err := NewBooking(p, createdAt)
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestBooking_Transitions(t *testing.T) {
	b, err := NewBooking(validParams(), createdAt)
	require.NoError(t, err)
	b.PullDomainEvents()

	later := createdAt.Add(time.Hour)
	require.NoError(t, b.Complete(later))
	assert.Equal(t, StatusCompleted, b.Status())
	assert.True(t, later.Equal(b.UpdatedAt()))

	assert.ErrorIs(t, b.Cancel("cambio de planes", later), ErrInvalidTransition)
	assert.ErrorIs(t, b.MarkNoShow(later), ErrInvalidTransition)

	events := b.PullDomainEvents()
	require.Len(t, events, 1)
	changed := events[0].(BookingStatusChanged)
	assert.Equal(t, StatusConfirmed, changed.From)
	assert.Equal(t, StatusCompleted, changed.To)
}

func TestBooking_CancelIssuesCredit(t *testing.T) {
	b, err := NewBooking(validParams(), createdAt)
	require.NoError(t, err)
	b.PullDomainEvents()

	_, err = b.IssueCredit(6, createdAt)
	assert.ErrorIs(t, err, ErrCreditNotAllowed)

	require.NoError(t, b.Cancel("enfermedad", createdAt))
	credit, err := b.IssueCredit(6, createdAt)
	require.NoError(t, err)

	assert.Equal(t, b.ID(), credit.BookingID())
	assert.Equal(t, int64(15000), credit.Amount().Amount())
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), credit.ExpiresAt())
	assert.Equal(t, "lucia@example.com", credit.Email())
	assert.True(t, credit.Usable(createdAt))
	assert.False(t, credit.Usable(credit.ExpiresAt()))

	events := b.PullDomainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, RoutingKeyBookingCancelled, events[0].RoutingKey())
	assert.Equal(t, RoutingKeyCreditIssued, events[1].RoutingKey())
	assert.Equal(t, "enfermedad", events[0].(BookingCancelled).Reason)
}

func TestBooking_Expire(t *testing.T) {
	p := validParams()
	p.AutoConfirm = false
	p.PendingTTL = time.Minute
	b, err := NewBooking(p, createdAt)
	require.NoError(t, err)

	require.NoError(t, b.Expire(createdAt.Add(time.Minute)))
	assert.Equal(t, StatusCancelled, b.Status())
	assert.Equal(t, ReasonExpired, b.CancelReason())
	assert.Nil(t, b.ExpiresAt())

	_, err = b.IssueCredit(6, createdAt)
	assert.ErrorIs(t, err, ErrCreditNotAllowed)

	confirmed, err := NewBooking(validParams(), createdAt)
	require.NoError(t, err)
	assert.ErrorIs(t, confirmed.Expire(createdAt), ErrInvalidTransition)
}
