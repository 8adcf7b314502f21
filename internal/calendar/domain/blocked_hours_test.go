package domain

import (
	"testing"
	"time"

	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = sharedDomain.MustDate("2025-07-14")

func hours(t *testing.T, from, to string) *BlockedHourRange {
	t.Helper()
	start, err := sharedDomain.ParseClock(from)
	require.NoError(t, err)
	end, err := sharedDomain.ParseClock(to)
	require.NoError(t, err)
	r, err := NewBlockedHourRange(day, start, end, "reunion", "admin", time.Now())
	require.NoError(t, err)
	return r
}

func TestNewBlockedHourRange_Validation(t *testing.T) {
	tests := []struct {
		name       string
		start, end sharedDomain.Clock
	}{
		{"start equals end", sharedDomain.NewClock(14, 0), sharedDomain.NewClock(14, 0)},
		{"start after end", sharedDomain.NewClock(16, 0), sharedDomain.NewClock(14, 0)},
		{"negative start", -30, sharedDomain.NewClock(1, 0)},
		{"past midnight", sharedDomain.NewClock(23, 0), sharedDomain.EndOfDay + 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBlockedHourRange(day, tt.start, tt.end, "", "", time.Now())
			assert.ErrorIs(t, err, ErrInvalidRange)
		})
	}

	r, err := NewBlockedHourRange(day, sharedDomain.NewClock(22, 0), sharedDomain.EndOfDay, " limpieza ", "ana", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "limpieza", r.Reason())
	require.Len(t, r.DomainEvents(), 1)
	assert.Equal(t, RoutingKeyHoursBlocked, r.DomainEvents()[0].RoutingKey())
}

func TestCheckOverlap(t *testing.T) {
	existing := []*BlockedHourRange{hours(t, "14:00", "16:00")}

	assert.ErrorIs(t, CheckOverlap(hours(t, "15:00", "17:00"), existing), ErrOverlap)
	assert.ErrorIs(t, CheckOverlap(hours(t, "13:00", "14:30"), existing), ErrOverlap)
	assert.ErrorIs(t, CheckOverlap(hours(t, "14:30", "15:00"), existing), ErrOverlap)
	assert.NoError(t, CheckOverlap(hours(t, "16:00", "17:00"), existing), "touching ranges are allowed")
	assert.NoError(t, CheckOverlap(hours(t, "12:00", "14:00"), existing))

	other := hours(t, "14:00", "16:00")
	other.date = day.AddDays(1)
	assert.NoError(t, CheckOverlap(other, existing), "different dates never overlap")
}

func TestSortByStartAndIntervals(t *testing.T) {
	ranges := []*BlockedHourRange{hours(t, "16:00", "17:00"), hours(t, "09:00", "10:00"), hours(t, "12:00", "13:00")}

	SortByStart(ranges)

	got := Intervals(ranges)
	require.Len(t, got, 3)
	assert.Equal(t, "09:00-10:00", got[0].String())
	assert.Equal(t, "12:00-13:00", got[1].String())
	assert.Equal(t, "16:00-17:00", got[2].String())
}

func TestBlockedDay_Events(t *testing.T) {
	d := NewBlockedDay(day, "feriado", "admin", time.Now())
	d.Lift("admin", time.Now())

	events := d.DomainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, RoutingKeyDayBlocked, events[0].RoutingKey())
	assert.Equal(t, RoutingKeyDayUnblocked, events[1].RoutingKey())
	assert.Equal(t, d.ID(), events[0].AggregateID())
	assert.Equal(t, day, events[0].(DayBlocked).Date)
}
