package commands_test

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/spabook/internal/booking/application/commands"
	"github.com/felixgeelhaar/spabook/internal/booking/domain"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpirePending(t *testing.T) {
	ctx := context.Background()
	policy := commands.DefaultPolicy()
	policy.AutoConfirm = false
	policy.PendingTTL = 30 * time.Minute
	f := newBookingFixture(t, policy)
	metrics := observability.NewInMemoryMetrics()
	sweeper := commands.NewExpirePendingHandler(f.repo, f.outbox, f.uow, f.invalidator, f.clock, 10, metrics, nil)

	held, err := f.create.Handle(ctx, bookCmd(massageID, sharedDomain.NewClock(10, 0)))
	require.NoError(t, err)
	confirmed, err := f.create.Handle(ctx, bookCmd(massageID, sharedDomain.NewClock(12, 0)))
	require.NoError(t, err)
	_, err = f.status.Handle(ctx, commands.ConfirmBooking(confirmed.Code, "admin"))
	require.NoError(t, err)

	n, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "holds have not lapsed yet")

	f.clock.Advance(31 * time.Minute)
	n, err = sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricBookingsExpired))

	stored, err := f.repo.FindByCode(ctx, held.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status())
	assert.Equal(t, domain.ReasonExpired, stored.CancelReason())

	credits, err := f.repo.ListCreditsByEmail(ctx, "lucia@example.com")
	require.NoError(t, err)
	assert.Empty(t, credits, "expired holds earn no credit")

	snap, err := f.snapshots.Snapshot(ctx, bookDate)
	require.NoError(t, err)
	assert.Equal(t, []sharedDomain.Interval{{Start: 720, End: 780}}, snap.Bookings)

	n, err = sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
