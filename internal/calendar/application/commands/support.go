package commands

import (
	"context"

	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
)

// AvailabilityInvalidator drops cached availability for a date. It is
// called after commit and must not fail the command.
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
