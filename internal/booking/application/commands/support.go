package commands

import (
	"context"
	"time"

	catalogDomain "github.com/felixgeelhaar/spabook/internal/catalog/domain"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/google/uuid"
)

// AvailabilityInvalidator drops cached availability for a date after commit.
type AvailabilityInvalidator interface {
	Invalidate(ctx context.Context, date sharedDomain.Date)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, sharedDomain.Date) {}

func invalidatorOrNoop(inv AvailabilityInvalidator) AvailabilityInvalidator {
	if inv == nil {
		return noopInvalidator{}
	}
	return inv
}

// ServiceFinder looks up catalog entries.
type ServiceFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*catalogDomain.Service, error)
}

// Policy holds the booking rules that come from configuration.
type Policy struct {
	AutoConfirm          bool
	PendingTTL           time.Duration
	CreditValidityMonths int
}

// DefaultPolicy auto-confirms and grants six month credits.
func DefaultPolicy() Policy {
	return Policy{AutoConfirm: true, PendingTTL: 30 * time.Minute, CreditValidityMonths: 6}
}

// LockKey is the distributed lock key guarding writers of a date.
func LockKey(date sharedDomain.Date) string {
	return "booking:lock:" + date.String()
}
