package domain

import (
	"context"

	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
)

// SnapshotReader loads the calendar and booking state of one date. Readers
// honour a transaction carried in ctx so writers can re-check under lock.
type SnapshotReader interface {
	Snapshot(ctx context.Context, date sharedDomain.Date) (DaySnapshot, error)
}
