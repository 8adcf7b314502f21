package outbox

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/spabook/internal/shared/application"
	"github.com/felixgeelhaar/spabook/internal/shared/domain"
)

// Record stamps events with request metadata and saves them through repo,
// joining the transaction in ctx.
func Record(ctx context.Context, repo Repository, actor string, events []domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx, actor))
	msgs, err := FromEvents(events)
	if err != nil {
		return err
	}
	return repo.SaveBatch(ctx, msgs)
}
