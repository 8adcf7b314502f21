package commands

import (
	"context"

	"github.com/felixgeelhaar/spabook/internal/calendar/domain"
	sharedApplication "github.com/felixgeelhaar/spabook/internal/shared/application"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// UnblockHoursCommand removes a blocked range by id.
type UnblockHoursCommand struct {
	RangeID     uuid.UUID
	UnblockedBy string
}

// UnblockHoursHandler handles the UnblockHoursCommand.
type UnblockHoursHandler struct {
	repo        domain.Repository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	invalidator AvailabilityInvalidator
	clock       sharedApplication.Clock
}

// NewUnblockHoursHandler creates a new UnblockHoursHandler.
func NewUnblockHoursHandler(
	repo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	invalidator AvailabilityInvalidator,
	clock sharedApplication.Clock,
) *UnblockHoursHandler {
	return &UnblockHoursHandler{
		repo:        repo,
		outboxRepo:  outboxRepo,
		uow:         uow,
		invalidator: invalidatorOrNoop(invalidator),
		clock:       clock,
	}
}

// Handle returns domain.ErrNotFound for an unknown id.
func (h *UnblockHoursHandler) Handle(ctx context.Context, cmd UnblockHoursCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		blocked, err := h.repo.FindBlockedHours(txCtx, cmd.RangeID)
		if err != nil {
			return err
		}
		if blocked == nil {
			return domain.ErrNotFound
		}

		blocked.Lift(cmd.UnblockedBy, h.clock.Now())
		if err := h.repo.DeleteBlockedHours(txCtx, blocked.ID()); err != nil {
			return err
		}
		if err := outbox.Record(txCtx, h.outboxRepo, cmd.UnblockedBy, blocked.PullDomainEvents()); err != nil {
			return err
		}

		date := blocked.Date()
		sharedApplication.AfterCommit(txCtx, func(ctx context.Context) {
			h.invalidator.Invalidate(ctx, date)
		})
		return nil
	})
}
