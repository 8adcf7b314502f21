package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
)

// Outcome summarises an availability result for caller messaging.
type Outcome string

const (
	OutcomeAvailable        Outcome = "available"
	OutcomeDayBlocked       Outcome = "day_blocked"
	OutcomeNoSlotsRemaining Outcome = "no_slots_remaining"
)

// Reason explains why a candidate slot was rejected.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonBlockedHours Reason = "blocked_hours"
	ReasonBooked       Reason = "booked"
	ReasonLeadTime     Reason = "lead_time"
	ReasonAfterClosing Reason = "after_closing"
)

// DaySnapshot is everything the filter needs to know about one date.
type DaySnapshot struct {
	Date         sharedDomain.Date       `json:"date"`
	DayBlocked   bool                    `json:"day_blocked"`
	BlockedHours []sharedDomain.Interval `json:"blocked_hours"`
	Bookings     []sharedDomain.Interval `json:"bookings"`
}

// Candidate is a generated slot re-spanned to the service duration, with
// the first rule that rejected it.
type Candidate struct {
	Slot   Slot
	Reason Reason
}

func (c Candidate) Available() bool {
	return c.Reason == ReasonNone
}

// Availability is the evaluated day for one service.
type Availability struct {
	Date       sharedDomain.Date
	Outcome    Outcome
	Candidates []Candidate
}

// Slots returns the bookable slots in ascending start order.
func (a Availability) Slots() []Slot {
	var out []Slot
	for _, c := range a.Candidates {
		if c.Available() {
			out = append(out, c.Slot)
		}
	}
	return out
}

// Candidate returns the evaluation of the slot starting at start.
func (a Availability) Candidate(start sharedDomain.Clock) (Candidate, bool) {
	for _, c := range a.Candidates {
		if c.Slot.Start == start {
			return c, true
		}
	}
	return Candidate{}, false
}

// Rules evaluates availability for a business timezone.
type Rules struct {
	Hours    BusinessHours
	Location *time.Location
}

// Evaluate applies the availability rules to a snapshot. A blocked day
// returns no candidates. Otherwise every generated slot is kept with the
// first reason that rejects it, checked in order: blocked hours, bookings,
// closing time, lead time.
func (r Rules) Evaluate(snap DaySnapshot, duration time.Duration, now time.Time) Availability {
	result := Availability{Date: snap.Date}
	if snap.DayBlocked {
		result.Outcome = OutcomeDayBlocked
		return result
	}

	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	today := sharedDomain.DateOf(now, loc)
	cutoff := now.Add(r.Hours.LeadTime)
	span := sharedDomain.Clock(duration / time.Minute)

	for _, slot := range GenerateSlots(snap.Date, r.Hours.Open, r.Hours.Close, r.Hours.Step, loc) {
		slot.End = slot.Start + span
		candidate := Candidate{Slot: slot, Reason: r.reject(snap, slot, today, cutoff)}
		if candidate.Available() {
			result.Outcome = OutcomeAvailable
		}
		result.Candidates = append(result.Candidates, candidate)
	}

	if result.Outcome == "" {
		result.Outcome = OutcomeNoSlotsRemaining
	}
	return result
}

func (r Rules) reject(snap DaySnapshot, slot Slot, today sharedDomain.Date, cutoff time.Time) Reason {
	occupied := slot.Interval()
	for _, blocked := range snap.BlockedHours {
		if occupied.Overlaps(blocked) {
			return ReasonBlockedHours
		}
	}
	for _, booked := range snap.Bookings {
		if occupied.Overlaps(booked) {
			return ReasonBooked
		}
	}
	if slot.End > r.Hours.Close {
		return ReasonAfterClosing
	}
	switch {
	case snap.Date.Before(today):
		return ReasonLeadTime
	case snap.Date == today && slot.StartsAt.Before(cutoff):
		return ReasonLeadTime
	}
	return ReasonNone
}
