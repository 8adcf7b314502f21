package commands

import (
	"context"

	"github.com/felixgeelhaar/spabook/internal/calendar/domain"
	sharedApplication "github.com/felixgeelhaar/spabook/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// BlockDayCommand closes a whole day.
type BlockDayCommand struct {
	Date      sharedDomain.Date
	Reason    string
	BlockedBy string
}

// BlockDayResult identifies the created block.
type BlockDayResult struct {
	BlockID uuid.UUID
}

// BlockDayHandler handles the BlockDayCommand.
type BlockDayHandler struct {
	repo        domain.Repository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	invalidator AvailabilityInvalidator
	clock       sharedApplication.Clock
}

// NewBlockDayHandler creates a new BlockDayHandler.
func NewBlockDayHandler(
	repo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	invalidator AvailabilityInvalidator,
	clock sharedApplication.Clock,
) *BlockDayHandler {
	return &BlockDayHandler{
		repo:        repo,
		outboxRepo:  outboxRepo,
		uow:         uow,
		invalidator: invalidatorOrNoop(invalidator),
		clock:       clock,
	}
}

// Handle returns domain.ErrAlreadyBlocked when the date already has a block.
func (h *BlockDayHandler) Handle(ctx context.Context, cmd BlockDayCommand) (*BlockDayResult, error) {
	var result *BlockDayResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.repo.LockDay(txCtx, cmd.Date); err != nil {
			return err
		}

		existing, err := h.repo.FindBlockedDay(txCtx, cmd.Date)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyBlocked
		}

		day := domain.NewBlockedDay(cmd.Date, cmd.Reason, cmd.BlockedBy, h.clock.Now())
		if err := h.repo.CreateBlockedDay(txCtx, day); err != nil {
			return err
		}
		if err := outbox.Record(txCtx, h.outboxRepo, cmd.BlockedBy, day.PullDomainEvents()); err != nil {
			return err
		}

		sharedApplication.AfterCommit(txCtx, func(ctx context.Context) {
			h.invalidator.Invalidate(ctx, cmd.Date)
		})
		result = &BlockDayResult{BlockID: day.ID()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
