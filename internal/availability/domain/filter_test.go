package domain

import (
	"testing"
	"time"

	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interval(from, to string) sharedDomain.Interval {
	start, err := sharedDomain.ParseClock(from)
	if err != nil {
		panic(err)
	}
	end, err := sharedDomain.ParseClock(to)
	if err != nil {
		panic(err)
	}
	return sharedDomain.Interval{Start: start, End: end}
}

func rules(t *testing.T) Rules {
	return Rules{Hours: DefaultBusinessHours(), Location: lima(t)}
}

func TestEvaluate_BlockedDayReturnsNothing(t *testing.T) {
	r := rules(t)
	date := sharedDomain.MustDate("2025-05-20")
	now := date.AddDays(-3).At(sharedDomain.NewClock(8, 0), r.Location)

	got := r.Evaluate(DaySnapshot{Date: date, DayBlocked: true}, time.Hour, now)

	assert.Equal(t, OutcomeDayBlocked, got.Outcome)
	assert.Empty(t, got.Candidates)
	assert.Empty(t, got.Slots())
}

func TestEvaluate_FutureDayAllFree(t *testing.T) {
	r := rules(t)
	date := sharedDomain.MustDate("2025-05-20")
	now := date.AddDays(-1).At(sharedDomain.NewClock(23, 0), r.Location)

	got := r.Evaluate(DaySnapshot{Date: date}, time.Hour, now)

	assert.Equal(t, OutcomeAvailable, got.Outcome)
	assert.Len(t, got.Slots(), 11)
}

func TestEvaluate_TodayLateEveningHasNothingLeft(t *testing.T) {
	r := rules(t)
	date := sharedDomain.MustDate("2025-05-20")
	now := date.At(sharedDomain.NewClock(19, 45), r.Location)

	got := r.Evaluate(DaySnapshot{Date: date}, time.Hour, now)

	assert.Equal(t, OutcomeNoSlotsRemaining, got.Outcome)
	assert.Empty(t, got.Slots())
	assert.Len(t, got.Candidates, 11)
	for _, c := range got.Candidates {
		assert.Equal(t, ReasonLeadTime, c.Reason, c.Slot.Start.String())
	}
}

func TestEvaluate_TodayRespectsLeadTime(t *testing.T) {
	r := rules(t)
	date := sharedDomain.MustDate("2025-05-20")
	now := date.At(sharedDomain.NewClock(10, 31), r.Location)

	got := r.Evaluate(DaySnapshot{Date: date}, time.Hour, now)

	assert.Equal(t, []string{"12:00", "13:00", "14:00", "15:00", "16:00", "17:00", "18:00", "19:00"}, starts(got.Slots()))
	c, ok := got.Candidate(sharedDomain.NewClock(11, 0))
	require.True(t, ok)
	assert.Equal(t, ReasonLeadTime, c.Reason)
}

func TestEvaluate_PastDayHasNoSlots(t *testing.T) {
	r := rules(t)
	date := sharedDomain.MustDate("2025-05-20")
	now := date.AddDays(1).At(sharedDomain.NewClock(8, 0), r.Location)

	got := r.Evaluate(DaySnapshot{Date: date}, time.Hour, now)

	assert.Equal(t, OutcomeNoSlotsRemaining, got.Outcome)
	assert.Empty(t, got.Slots())
}

func TestEvaluate_BlockedHoursExcluded(t *testing.T) {
	r := rules(t)
	date := sharedDomain.MustDate("2025-05-20")
	now := date.AddDays(-1).At(sharedDomain.NewClock(12, 0), r.Location)
	blocked := interval("14:00", "16:00")

	got := r.Evaluate(DaySnapshot{Date: date, BlockedHours: []sharedDomain.Interval{blocked}}, 90*time.Minute, now)

	for _, slot := range got.Slots() {
		assert.False(t, slot.Interval().Overlaps(blocked), slot.Interval().String())
	}
	c, _ := got.Candidate(sharedDomain.NewClock(13, 0))
	assert.Equal(t, ReasonBlockedHours, c.Reason, "13:00-14:30 reaches into the block")
	c, _ = got.Candidate(sharedDomain.NewClock(16, 0))
	assert.True(t, c.Available(), "slot starting at the block end is free")
}

func TestEvaluate_BookingOverlapWithOffsetGrid(t *testing.T) {
	r := rules(t)
	r.Hours.Step = 30 * time.Minute
	date := sharedDomain.MustDate("2025-05-20")
	now := date.AddDays(-1).At(sharedDomain.NewClock(12, 0), r.Location)

	got := r.Evaluate(DaySnapshot{Date: date, Bookings: []sharedDomain.Interval{interval("10:00", "11:00")}}, 30*time.Minute, now)

	for _, start := range []string{"10:00", "10:30"} {
		clock, _ := sharedDomain.ParseClock(start)
		c, ok := got.Candidate(clock)
		require.True(t, ok)
		assert.Equal(t, ReasonBooked, c.Reason, start)
	}
	c, _ := got.Candidate(sharedDomain.NewClock(11, 0))
	assert.True(t, c.Available())
	c, _ = got.Candidate(sharedDomain.NewClock(9, 30))
	assert.True(t, c.Available())
}

func TestEvaluate_EverySlotEndsByClosing(t *testing.T) {
	r := rules(t)
	date := sharedDomain.MustDate("2025-05-20")
	now := date.AddDays(-7).At(sharedDomain.NewClock(12, 0), r.Location)

	for _, duration := range []time.Duration{30 * time.Minute, 45 * time.Minute, time.Hour, 90 * time.Minute, 3 * time.Hour} {
		got := r.Evaluate(DaySnapshot{Date: date}, duration, now)
		for _, slot := range got.Slots() {
			assert.LessOrEqual(t, slot.End, r.Hours.Close, "%s %s", duration, slot.Start)
		}
	}

	got := r.Evaluate(DaySnapshot{Date: date}, 90*time.Minute, now)
	c, _ := got.Candidate(sharedDomain.NewClock(19, 0))
	assert.Equal(t, ReasonAfterClosing, c.Reason)
}

func TestEvaluate_NilLocationFallsBackToUTC(t *testing.T) {
	r := Rules{Hours: DefaultBusinessHours()}
	date := sharedDomain.MustDate("2025-05-20")

	got := r.Evaluate(DaySnapshot{Date: date}, time.Hour, date.AddDays(-1).At(0, time.UTC))

	assert.Len(t, got.Slots(), 11)
}
