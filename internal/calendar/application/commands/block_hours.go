package commands

import (
	"context"

	"github.com/felixgeelhaar/spabook/internal/calendar/domain"
	sharedApplication "github.com/felixgeelhaar/spabook/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// BlockHoursCommand closes [Start, End) on Date.
type BlockHoursCommand struct {
	Date      sharedDomain.Date
	Start     sharedDomain.Clock
	End       sharedDomain.Clock
	Reason    string
	BlockedBy string
}

// BlockHoursResult identifies the created range.
type BlockHoursResult struct {
	RangeID uuid.UUID
}

// BlockHoursHandler handles the BlockHoursCommand.
type BlockHoursHandler struct {
	repo        domain.Repository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	invalidator AvailabilityInvalidator
	clock       sharedApplication.Clock
}

// NewBlockHoursHandler creates a new BlockHoursHandler.
func NewBlockHoursHandler(
	repo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	invalidator AvailabilityInvalidator,
	clock sharedApplication.Clock,
) *BlockHoursHandler {
	return &BlockHoursHandler{
		repo:        repo,
		outboxRepo:  outboxRepo,
		uow:         uow,
		invalidator: invalidatorOrNoop(invalidator),
		clock:       clock,
	}
}

// Handle validates the range before opening a transaction, then rejects it
// with domain.ErrOverlap if it intersects a range already on the date.
func (h *BlockHoursHandler) Handle(ctx context.Context, cmd BlockHoursCommand) (*BlockHoursResult, error) {
	if err := domain.ValidateRange(cmd.Start, cmd.End); err != nil {
		return nil, err
	}

	var result *BlockHoursResult
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.repo.LockDay(txCtx, cmd.Date); err != nil {
			return err
		}

		candidate, err := domain.NewBlockedHourRange(cmd.Date, cmd.Start, cmd.End, cmd.Reason, cmd.BlockedBy, h.clock.Now())
		if err != nil {
			return err
		}

		existing, err := h.repo.ListBlockedHours(txCtx, cmd.Date)
		if err != nil {
			return err
		}
		if err := domain.CheckOverlap(candidate, existing); err != nil {
			return err
		}

		if err := h.repo.CreateBlockedHours(txCtx, candidate); err != nil {
			return err
		}
		if err := outbox.Record(txCtx, h.outboxRepo, cmd.BlockedBy, candidate.PullDomainEvents()); err != nil {
			return err
		}

		sharedApplication.AfterCommit(txCtx, func(ctx context.Context) {
			h.invalidator.Invalidate(ctx, cmd.Date)
		})
		result = &BlockHoursResult{RangeID: candidate.ID()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
