package commands

import (
	"context"

	"github.com/felixgeelhaar/spabook/internal/calendar/domain"
	sharedApplication "github.com/felixgeelhaar/spabook/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/outbox"
)

// UnblockDayCommand reopens a blocked day.
type UnblockDayCommand struct {
	Date        sharedDomain.Date
	UnblockedBy string
}

// UnblockDayHandler handles the UnblockDayCommand.
type UnblockDayHandler struct {
	repo        domain.Repository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	invalidator AvailabilityInvalidator
	clock       sharedApplication.Clock
}

// NewUnblockDayHandler creates a new UnblockDayHandler.
func NewUnblockDayHandler(
	repo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	invalidator AvailabilityInvalidator,
	clock sharedApplication.Clock,
) *UnblockDayHandler {
	return &UnblockDayHandler{
		repo:        repo,
		outboxRepo:  outboxRepo,
		uow:         uow,
		invalidator: invalidatorOrNoop(invalidator),
		clock:       clock,
	}
}

// Handle returns domain.ErrNotFound when the date is not blocked.
func (h *UnblockDayHandler) Handle(ctx context.Context, cmd UnblockDayCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.repo.LockDay(txCtx, cmd.Date); err != nil {
			return err
		}

		day, err := h.repo.FindBlockedDay(txCtx, cmd.Date)
		if err != nil {
			return err
		}
		if day == nil {
			return domain.ErrNotFound
		}

		day.Lift(cmd.UnblockedBy, h.clock.Now())
		if err := h.repo.DeleteBlockedDay(txCtx, day.ID()); err != nil {
			return err
		}
		if err := outbox.Record(txCtx, h.outboxRepo, cmd.UnblockedBy, day.PullDomainEvents()); err != nil {
			return err
		}

		sharedApplication.AfterCommit(txCtx, func(ctx context.Context) {
			h.invalidator.Invalidate(ctx, cmd.Date)
		})
		return nil
	})
}
