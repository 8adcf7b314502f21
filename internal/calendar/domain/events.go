package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Calendar"

	RoutingKeyDayBlocked     = "calendar.day.blocked"
	RoutingKeyDayUnblocked   = "calendar.day.unblocked"
	RoutingKeyHoursBlocked   = "calendar.hours.blocked"
	RoutingKeyHoursUnblocked = "calendar.hours.unblocked"
)

// DayBlocked is emitted when a whole day is closed.
type DayBlocked struct {
	sharedDomain.BaseEvent
	BlockID   uuid.UUID         `json:"block_id"`
	Date      sharedDomain.Date `json:"date"`
	Reason    string            `json:"reason"`
	BlockedBy string            `json:"blocked_by"`
}

func NewDayBlocked(d *BlockedDay, at time.Time) DayBlocked {
	return DayBlocked{
		BaseEvent: sharedDomain.NewBaseEvent(d.ID(), AggregateType, RoutingKeyDayBlocked, at),
		BlockID:   d.ID(),
		Date:      d.date,
		Reason:    d.reason,
		BlockedBy: d.blockedBy,
	}
}

// DayUnblocked is emitted when a day block is lifted.
type DayUnblocked struct {
	sharedDomain.BaseEvent
	BlockID     uuid.UUID         `json:"block_id"`
	Date        sharedDomain.Date `json:"date"`
	UnblockedBy string            `json:"unblocked_by,omitempty"`
}

func NewDayUnblocked(d *BlockedDay, by string, at time.Time) DayUnblocked {
	return DayUnblocked{
		BaseEvent:   sharedDomain.NewBaseEvent(d.ID(), AggregateType, RoutingKeyDayUnblocked, at),
		BlockID:     d.ID(),
		Date:        d.date,
		UnblockedBy: by,
	}
}

// HoursBlocked is emitted when part of a day is closed.
type HoursBlocked struct {
	sharedDomain.BaseEvent
	RangeID   uuid.UUID          `json:"range_id"`
	Date      sharedDomain.Date  `json:"date"`
	Start     sharedDomain.Clock `json:"start"`
	End       sharedDomain.Clock `json:"end"`
	Reason    string             `json:"reason"`
	BlockedBy string             `json:"blocked_by"`
}

func NewHoursBlocked(r *BlockedHourRange, at time.Time) HoursBlocked {
	return HoursBlocked{
		BaseEvent: sharedDomain.NewBaseEvent(r.ID(), AggregateType, RoutingKeyHoursBlocked, at),
		RangeID:   r.ID(),
		Date:      r.date,
		Start:     r.interval.Start,
		End:       r.interval.End,
		Reason:    r.reason,
		BlockedBy: r.blockedBy,
	}
}

// HoursUnblocked is emitted when a blocked range is removed.
type HoursUnblocked struct {
	sharedDomain.BaseEvent
	RangeID     uuid.UUID          `json:"range_id"`
	Date        sharedDomain.Date  `json:"date"`
	Start       sharedDomain.Clock `json:"start"`
	End         sharedDomain.Clock `json:"end"`
	UnblockedBy string             `json:"unblocked_by,omitempty"`
}

func NewHoursUnblocked(r *BlockedHourRange, by string, at time.Time) HoursUnblocked {
	return HoursUnblocked{
		BaseEvent:   sharedDomain.NewBaseEvent(r.ID(), AggregateType, RoutingKeyHoursUnblocked, at),
		RangeID:     r.ID(),
		Date:        r.date,
		Start:       r.interval.Start,
		End:         r.interval.End,
		UnblockedBy: by,
	}
}
