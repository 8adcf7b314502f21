package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/google/uuid"
)

// BlockedDay closes the spa for a whole calendar day. At most one exists
// per date.
type BlockedDay struct {
	sharedDomain.BaseAggregateRoot
	date      sharedDomain.Date
	reason    string
	blockedBy string
}

// NewBlockedDay creates a block and records DayBlocked.
func NewBlockedDay(date sharedDomain.Date, reason, blockedBy string, at time.Time) *BlockedDay {
	d := &BlockedDay{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(at),
		date:              date,
		reason:            strings.TrimSpace(reason),
		blockedBy:         strings.TrimSpace(blockedBy),
	}
	d.AddDomainEvent(NewDayBlocked(d, at))
	return d
}

func (d *BlockedDay) Date() sharedDomain.Date { return d.date }
func (d *BlockedDay) Reason() string          { return d.reason }
func (d *BlockedDay) BlockedBy() string       { return d.blockedBy }

// Lift records DayUnblocked; the caller deletes the row.
func (d *BlockedDay) Lift(by string, at time.Time) {
	d.AddDomainEvent(NewDayUnblocked(d, by, at))
}

// RehydrateBlockedDay recreates a block from persisted state.
func RehydrateBlockedDay(id uuid.UUID, date sharedDomain.Date, reason, blockedBy string, createdAt, updatedAt time.Time) *BlockedDay {
	return &BlockedDay{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(id, createdAt, updatedAt, 0),
		date:              date,
		reason:            reason,
		blockedBy:         blockedBy,
	}
}
