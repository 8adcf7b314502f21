package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/spabook/internal/booking/domain"
	"github.com/felixgeelhaar/spabook/internal/booking/infrastructure/persistence"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createdAt = time.Date(2025, 9, 1, 13, 0, 0, 0, time.UTC)

func newBooking(t *testing.T, code string, start sharedDomain.Clock, mutate func(*domain.NewBookingParams)) *domain.Booking {
	t.Helper()
	p := domain.NewBookingParams{
		Code:        code,
		ServiceID:   uuid.MustParse(testutil.RelaxingMassageID),
		Duration:    time.Hour,
		Price:       sharedDomain.MustMoney(12000, "PEN"),
		Date:        sharedDomain.MustDate("2025-09-05"),
		Start:       start,
		Location:    time.UTC,
		Customer:    domain.Customer{Name: "Rosa", Email: "rosa@example.com"},
		AutoConfirm: true,
	}
	if mutate != nil {
		mutate(&p)
	}
	b, err := domain.NewBooking(p, createdAt)
	require.NoError(t, err)
	return b
}

func TestBookingRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewBookingRepository(testutil.OpenSQLite(t))
	therapist := uuid.New()

	b := newBooking(t, "SPA-2025-AAAAAA", sharedDomain.NewClock(10, 0), func(p *domain.NewBookingParams) {
		p.TherapistID = &therapist
		p.IdempotencyKey = "key-1"
		p.AutoConfirm = false
		p.PendingTTL = 30 * time.Minute
		p.Customer.Notes = "alergia a la lavanda"
	})
	require.NoError(t, repo.Create(ctx, b))

	got, err := repo.FindByCode(ctx, "SPA-2025-AAAAAA")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b.ID(), got.ID())
	require.NotNil(t, got.TherapistID())
	assert.Equal(t, therapist, *got.TherapistID())
	assert.Equal(t, domain.StatusPending, got.Status())
	assert.Equal(t, "alergia a la lavanda", got.Customer().Notes)
	require.NotNil(t, got.ExpiresAt())
	assert.True(t, createdAt.Add(30*time.Minute).Equal(*got.ExpiresAt()))
	assert.True(t, b.StartsAt().Equal(got.StartsAt()))

	byKey, err := repo.FindByIdempotencyKey(ctx, "key-1")
	require.NoError(t, err)
	require.NotNil(t, byKey)
	assert.Equal(t, b.ID(), byKey.ID())

	missing, err := repo.FindByCode(ctx, "SPA-2025-BBBBBB")
	require.NoError(t, err)
	assert.Nil(t, missing)

	expired, err := repo.ListExpiredPending(ctx, createdAt.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, b.ID(), expired[0].ID())
}

func TestBookingRepository_ConstraintMapping(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewBookingRepository(testutil.OpenSQLite(t))

	require.NoError(t, repo.Create(ctx, newBooking(t, "SPA-2025-AAAAAA", sharedDomain.NewClock(10, 0), func(p *domain.NewBookingParams) {
		p.IdempotencyKey = "key-1"
	})))

	err := repo.Create(ctx, newBooking(t, "SPA-2025-AAAAAA", sharedDomain.NewClock(12, 0), nil))
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)

	err = repo.Create(ctx, newBooking(t, "SPA-2025-CCCCCC", sharedDomain.NewClock(13, 0), func(p *domain.NewBookingParams) {
		p.IdempotencyKey = "key-1"
	}))
	assert.ErrorIs(t, err, domain.ErrDuplicateIdempotencyKey)

	err = repo.Create(ctx, newBooking(t, "SPA-2025-DDDDDD", sharedDomain.NewClock(10, 0), nil))
	assert.ErrorIs(t, err, domain.ErrSlotNoLongerAvailable)

	list, err := repo.ListByDate(ctx, sharedDomain.MustDate("2025-09-05"))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
