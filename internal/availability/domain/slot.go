// Package domain holds the pure slot generation and availability rules.
package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
)

// Slot is a candidate appointment start on a given day. It is derived on
// demand and never persisted.
type Slot struct {
	Date     sharedDomain.Date
	Start    sharedDomain.Clock
	End      sharedDomain.Clock
	StartsAt time.Time
}

// Interval returns the occupied range of the slot.
func (s Slot) Interval() sharedDomain.Interval {
	return sharedDomain.Interval{Start: s.Start, End: s.End}
}

// BusinessHours describes when the spa takes appointments.
type BusinessHours struct {
	Open     sharedDomain.Clock
	Close    sharedDomain.Clock
	Step     time.Duration
	LeadTime time.Duration
}

// DefaultBusinessHours opens 09:00 to 20:00 with hourly slots and a
// 30 minute lead time.
func DefaultBusinessHours() BusinessHours {
	return BusinessHours{
		Open:     sharedDomain.NewClock(9, 0),
		Close:    sharedDomain.NewClock(20, 0),
		Step:     time.Hour,
		LeadTime: 30 * time.Minute,
	}
}

// OnGrid reports whether c is one of the candidate starts.
func (h BusinessHours) OnGrid(c sharedDomain.Clock) bool {
	step := sharedDomain.Clock(h.Step / time.Minute)
	if step <= 0 || c < h.Open || c >= h.Close {
		return false
	}
	return (c-h.Open)%step == 0
}

// GenerateSlots enumerates candidate starts open, open+step, ... strictly
// before close. Each slot spans one step; callers re-span it with the
// service duration. A non-positive step or an empty day yields nil.
func GenerateSlots(date sharedDomain.Date, open, close sharedDomain.Clock, step time.Duration, loc *time.Location) []Slot {
	stepMinutes := sharedDomain.Clock(step / time.Minute)
	if stepMinutes <= 0 || open >= close {
		return nil
	}

	slots := make([]Slot, 0, int((close-open+stepMinutes-1)/stepMinutes))
	for start := open; start < close; start += stepMinutes {
		slots = append(slots, Slot{
			Date:     date,
			Start:    start,
			End:      start + stepMinutes,
			StartsAt: date.At(start, loc),
		})
	}
	return slots
}
