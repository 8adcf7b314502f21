package commands

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/spabook/internal/booking/domain"
	sharedApplication "github.com/felixgeelhaar/spabook/internal/shared/application"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/spabook/pkg/observability"
)

const sweeperActor = "system:sweeper"

// ExpirePendingHandler cancels pending bookings whose hold has lapsed.
// Expired bookings earn no credit.
type ExpirePendingHandler struct {
	repo        domain.Repository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	invalidator AvailabilityInvalidator
	clock       sharedApplication.Clock
	batchSize   int
	metrics     observability.Metrics
	logger      *slog.Logger
}

// NewExpirePendingHandler creates a new ExpirePendingHandler.
func NewExpirePendingHandler(
	repo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	invalidator AvailabilityInvalidator,
	clock sharedApplication.Clock,
	batchSize int,
	metrics observability.Metrics,
	logger *slog.Logger,
) *ExpirePendingHandler {
	if batchSize <= 0 {
		batchSize = 100
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpirePendingHandler{
		repo:        repo,
		outboxRepo:  outboxRepo,
		uow:         uow,
		invalidator: invalidatorOrNoop(invalidator),
		clock:       clock,
		batchSize:   batchSize,
		metrics:     metrics,
		logger:      logger,
	}
}

// Run expires one batch and returns how many bookings were cancelled.
// A failure on one booking is logged and does not stop the batch.
func (h *ExpirePendingHandler) Run(ctx context.Context) (int, error) {
	now := h.clock.Now()
	candidates, err := h.repo.ListExpiredPending(ctx, now, h.batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		ok, err := h.expire(ctx, candidate.Code())
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to expire booking", "code", candidate.Code(), "error", err)
			continue
		}
		if ok {
			expired++
		}
	}

	if expired > 0 {
		h.metrics.Counter(observability.MetricBookingsExpired, int64(expired))
		h.logger.InfoContext(ctx, "expired pending bookings", "count", expired)
	}
	return expired, nil
}

func (h *ExpirePendingHandler) expire(ctx context.Context, code string) (bool, error) {
	expired := false
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		booking, err := h.repo.FindByCode(txCtx, code)
		if err != nil || booking == nil {
			return err
		}
		now := h.clock.Now()
		if !booking.IsExpired(now) {
			return nil
		}
		if err := h.repo.LockDay(txCtx, booking.Date()); err != nil {
			return err
		}
		if err := booking.Expire(now); err != nil {
			return err
		}
		if err := h.repo.Update(txCtx, booking); err != nil {
			return err
		}
		if err := outbox.Record(txCtx, h.outboxRepo, sweeperActor, booking.PullDomainEvents()); err != nil {
			return err
		}

		date := booking.Date()
		sharedApplication.AfterCommit(txCtx, func(ctx context.Context) {
			h.invalidator.Invalidate(ctx, date)
		})
		expired = true
		return nil
	})
	return expired, err
}
