package domain

import (
	"sort"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/google/uuid"
)

// BlockedHourRange closes part of a day, [start, end).
type BlockedHourRange struct {
	sharedDomain.BaseAggregateRoot
	date      sharedDomain.Date
	interval  sharedDomain.Interval
	reason    string
	blockedBy string
}

// ValidateRange checks a range before anything is written.
func ValidateRange(start, end sharedDomain.Clock) error {
	if !start.Valid() || !end.Valid() || start >= end {
		return ErrInvalidRange
	}
	return nil
}

// NewBlockedHourRange validates the range and records HoursBlocked.
func NewBlockedHourRange(date sharedDomain.Date, start, end sharedDomain.Clock, reason, blockedBy string, at time.Time) (*BlockedHourRange, error) {
	if err := ValidateRange(start, end); err != nil {
		return nil, err
	}
	r := &BlockedHourRange{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(at),
		date:              date,
		interval:          sharedDomain.Interval{Start: start, End: end},
		reason:            strings.TrimSpace(reason),
		blockedBy:         strings.TrimSpace(blockedBy),
	}
	r.AddDomainEvent(NewHoursBlocked(r, at))
	return r, nil
}

func (r *BlockedHourRange) Date() sharedDomain.Date         { return r.date }
func (r *BlockedHourRange) Interval() sharedDomain.Interval { return r.interval }
func (r *BlockedHourRange) Start() sharedDomain.Clock       { return r.interval.Start }
func (r *BlockedHourRange) End() sharedDomain.Clock         { return r.interval.End }
func (r *BlockedHourRange) Reason() string                  { return r.reason }
func (r *BlockedHourRange) BlockedBy() string               { return r.blockedBy }

// Overlaps reports whether the two ranges fall on the same date and share
// a minute. Touching ranges are allowed.
func (r *BlockedHourRange) Overlaps(other *BlockedHourRange) bool {
	return r.date == other.date && r.interval.Overlaps(other.interval)
}

// Lift records HoursUnblocked; the caller deletes the row.
func (r *BlockedHourRange) Lift(by string, at time.Time) {
	r.AddDomainEvent(NewHoursUnblocked(r, by, at))
}

// CheckOverlap returns ErrOverlap when candidate intersects any existing range.
func CheckOverlap(candidate *BlockedHourRange, existing []*BlockedHourRange) error {
	for _, e := range existing {
		if e.ID() != candidate.ID() && candidate.Overlaps(e) {
			return ErrOverlap
		}
	}
	return nil
}

// SortByStart orders ranges by start clock.
func SortByStart(ranges []*BlockedHourRange) {
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].interval.Start < ranges[j].interval.Start
	})
}

// Intervals projects ranges onto their time-of-day spans.
func Intervals(ranges []*BlockedHourRange) []sharedDomain.Interval {
	out := make([]sharedDomain.Interval, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, r.interval)
	}
	return out
}

// RehydrateBlockedHourRange recreates a range from persisted state.
func RehydrateBlockedHourRange(
	id uuid.UUID,
	date sharedDomain.Date,
	start, end sharedDomain.Clock,
	reason, blockedBy string,
	createdAt, updatedAt time.Time,
) *BlockedHourRange {
	return &BlockedHourRange{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(id, createdAt, updatedAt, 0),
		date:              date,
		interval:          sharedDomain.Interval{Start: start, End: end},
		reason:            reason,
		blockedBy:         blockedBy,
	}
}
