package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/spabook/internal/availability/domain"
	"github.com/felixgeelhaar/spabook/internal/availability/infrastructure/persistence"
	calendarDomain "github.com/felixgeelhaar/spabook/internal/calendar/domain"
	calendarPersistence "github.com/felixgeelhaar/spabook/internal/calendar/infrastructure/persistence"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/spabook/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertBooking(t *testing.T, conn database.Connection, date sharedDomain.Date, start, end int, status string) {
	t.Helper()
	now := database.FormatTime(time.Now())
	_, err := conn.Exec(context.Background(), `
		INSERT INTO bookings (id, code, service_id, client_name, booking_date, start_minute, end_minute,
			starts_at, ends_at, price_cents, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		uuid.New(), "SPA-2025-"+uuid.NewString()[:6], testutil.RelaxingMassageID, "Cliente",
		date.String(), start, end, now, now, 12000, "PEN", status, now, now,
	)
	require.NoError(t, err)
}

func TestSnapshotRepository_Snapshot(t *testing.T) {
	ctx := context.Background()
	conn := testutil.OpenSQLite(t)
	calendar := calendarPersistence.NewCalendarRepository(conn)
	repo := persistence.NewSnapshotRepository(conn)
	date := sharedDomain.MustDate("2025-10-06")

	block, err := calendarDomain.NewBlockedHourRange(date, sharedDomain.NewClock(14, 0), sharedDomain.NewClock(16, 0), "mantenimiento", "ana", time.Now())
	require.NoError(t, err)
	require.NoError(t, calendar.CreateBlockedHours(ctx, block))

	insertBooking(t, conn, date, 11*60, 12*60, "confirmed")
	insertBooking(t, conn, date, 9*60, 10*60, "cancelled")
	insertBooking(t, conn, date.AddDays(1), 9*60, 10*60, "confirmed")

	snap, err := repo.Snapshot(ctx, date)
	require.NoError(t, err)

	assert.Equal(t, date, snap.Date)
	assert.False(t, snap.DayBlocked)
	assert.Equal(t, []sharedDomain.Interval{{Start: 14 * 60, End: 16 * 60}}, snap.BlockedHours)
	assert.Equal(t, []sharedDomain.Interval{{Start: 11 * 60, End: 12 * 60}}, snap.Bookings, "cancelled and other dates are ignored")
}

func TestSnapshotRepository_BlockedDay(t *testing.T) {
	ctx := context.Background()
	conn := testutil.OpenSQLite(t)
	date := sharedDomain.MustDate("2025-12-25")

	require.NoError(t, calendarPersistence.NewCalendarRepository(conn).
		CreateBlockedDay(ctx, calendarDomain.NewBlockedDay(date, "navidad", "admin", time.Now())))

	snap, err := persistence.NewSnapshotRepository(conn).Snapshot(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, domain.DaySnapshot{Date: date, DayBlocked: true}, snap)
}
