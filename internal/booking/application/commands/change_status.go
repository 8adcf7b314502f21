package commands

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/spabook/internal/booking/domain"
	sharedApplication "github.com/felixgeelhaar/spabook/internal/shared/application"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/spabook/pkg/observability"
)

// ChangeStatusCommand moves a booking through its lifecycle.
type ChangeStatusCommand struct {
	Code   string
	Target domain.Status
	Reason string
	Actor  string
}

func ConfirmBooking(code, actor string) ChangeStatusCommand {
	return ChangeStatusCommand{Code: code, Target: domain.StatusConfirmed, Actor: actor}
}

func CompleteBooking(code, actor string) ChangeStatusCommand {
	return ChangeStatusCommand{Code: code, Target: domain.StatusCompleted, Actor: actor}
}

func MarkNoShow(code, actor string) ChangeStatusCommand {
	return ChangeStatusCommand{Code: code, Target: domain.StatusNoShow, Actor: actor}
}

// CancelBooking releases the slot and issues a credit for the price paid.
func CancelBooking(code, reason, actor string) ChangeStatusCommand {
	return ChangeStatusCommand{Code: code, Target: domain.StatusCancelled, Reason: reason, Actor: actor}
}

// ChangeStatusResult reports the new state and any credit issued.
type ChangeStatusResult struct {
	Code   string
	Status domain.Status
	Credit *domain.Credit
}

// ChangeStatusHandler handles the ChangeStatusCommand.
type ChangeStatusHandler struct {
	repo        domain.Repository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	invalidator AvailabilityInvalidator
	clock       sharedApplication.Clock
	policy      Policy
	metrics     observability.Metrics
	logger      *slog.Logger
}

// NewChangeStatusHandler creates a new ChangeStatusHandler.
func NewChangeStatusHandler(
	repo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	invalidator AvailabilityInvalidator,
	clock sharedApplication.Clock,
	policy Policy,
	metrics observability.Metrics,
	logger *slog.Logger,
) *ChangeStatusHandler {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangeStatusHandler{
		repo:        repo,
		outboxRepo:  outboxRepo,
		uow:         uow,
		invalidator: invalidatorOrNoop(invalidator),
		clock:       clock,
		policy:      policy,
		metrics:     metrics,
		logger:      logger,
	}
}

// Handle applies the transition. A stale read surfaces as
// domain.ErrVersionConflict.
func (h *ChangeStatusHandler) Handle(ctx context.Context, cmd ChangeStatusCommand) (*ChangeStatusResult, error) {
	if !cmd.Target.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	var result *ChangeStatusResult
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		booking, err := h.repo.FindByCode(txCtx, cmd.Code)
		if err != nil {
			return err
		}
		if booking == nil {
			return domain.ErrBookingNotFound
		}
		if err := h.repo.LockDay(txCtx, booking.Date()); err != nil {
			return err
		}

		now := h.clock.Now()
		if err := booking.TransitionTo(cmd.Target, cmd.Reason, now); err != nil {
			return err
		}

		result = &ChangeStatusResult{Code: booking.Code(), Status: booking.Status()}
		if cmd.Target == domain.StatusCancelled {
			credit, err := booking.IssueCredit(h.policy.CreditValidityMonths, now)
			if err != nil {
				return err
			}
			if err := h.repo.CreateCredit(txCtx, credit); err != nil {
				return err
			}
			result.Credit = credit
		}

		if err := h.repo.Update(txCtx, booking); err != nil {
			return err
		}
		if err := outbox.Record(txCtx, h.outboxRepo, cmd.Actor, booking.PullDomainEvents()); err != nil {
			return err
		}

		if !booking.Status().Occupies() {
			date := booking.Date()
			sharedApplication.AfterCommit(txCtx, func(ctx context.Context) {
				h.invalidator.Invalidate(ctx, date)
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Status == domain.StatusCancelled {
		h.metrics.Counter(observability.MetricBookingsCancelled, 1)
		h.metrics.Counter(observability.MetricCreditsIssued, 1)
	}
	h.logger.InfoContext(ctx, "booking status changed", "code", result.Code, "status", string(result.Status))
	return result, nil
}
