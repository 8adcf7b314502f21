package commands

import (
	"context"
	"errors"
	"log/slog"

	availabilityDomain "github.com/felixgeelhaar/spabook/internal/availability/domain"
	"github.com/felixgeelhaar/spabook/internal/booking/domain"
	catalogDomain "github.com/felixgeelhaar/spabook/internal/catalog/domain"
	sharedApplication "github.com/felixgeelhaar/spabook/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/spabook/pkg/observability"
	"github.com/google/uuid"
)

const maxCodeAttempts = 5

// CreateBookingCommand reserves Start on Date for a service.
type CreateBookingCommand struct {
	ServiceID      uuid.UUID
	TherapistID    *uuid.UUID
	Date           sharedDomain.Date
	Start          sharedDomain.Clock
	Customer       domain.Customer
	IdempotencyKey string
}

// CreateBookingResult identifies the reservation.
type CreateBookingResult struct {
	BookingID uuid.UUID
	Code      string
	Status    domain.Status

	// Replayed is set when the idempotency key matched an earlier booking.
	Replayed bool
}

// CreateBookingHandler handles the CreateBookingCommand.
type CreateBookingHandler struct {
	repo        domain.Repository
	services    ServiceFinder
	snapshots   availabilityDomain.SnapshotReader
	rules       availabilityDomain.Rules
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	invalidator AvailabilityInvalidator
	clock       sharedApplication.Clock
	policy      Policy
	locker      cache.Locker
	metrics     observability.Metrics
	logger      *slog.Logger
}

// NewCreateBookingHandler creates a new CreateBookingHandler. snapshots
// must read the database directly; cached snapshots would defeat the
// re-check under lock.
func NewCreateBookingHandler(
	repo domain.Repository,
	services ServiceFinder,
	snapshots availabilityDomain.SnapshotReader,
	rules availabilityDomain.Rules,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	invalidator AvailabilityInvalidator,
	clock sharedApplication.Clock,
	policy Policy,
) *CreateBookingHandler {
	return &CreateBookingHandler{
		repo:        repo,
		services:    services,
		snapshots:   snapshots,
		rules:       rules,
		outboxRepo:  outboxRepo,
		uow:         uow,
		invalidator: invalidatorOrNoop(invalidator),
		clock:       clock,
		policy:      policy,
		locker:      cache.NoopLocker{},
		metrics:     observability.NoopMetrics{},
		logger:      slog.Default(),
	}
}

// WithLocker serialises writers across instances before the transaction.
func (h *CreateBookingHandler) WithLocker(l cache.Locker) *CreateBookingHandler {
	if l != nil {
		h.locker = l
	}
	return h
}

func (h *CreateBookingHandler) WithMetrics(m observability.Metrics) *CreateBookingHandler {
	if m != nil {
		h.metrics = m
	}
	return h
}

func (h *CreateBookingHandler) WithLogger(l *slog.Logger) *CreateBookingHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

// Handle validates the request, then re-evaluates the slot against fresh
// data while holding the per-date lock and inserts the booking. A request
// whose idempotency key is already stored gets the earlier booking back,
// including when the earlier request committed while this one waited.
func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	if result, err := h.replay(ctx, cmd); result != nil || err != nil {
		return result, err
	}

	service, err := h.services.FindByID(ctx, cmd.ServiceID)
	if err != nil {
		return nil, err
	}
	if service == nil {
		return nil, catalogDomain.ErrServiceNotFound
	}
	if err := service.EnsureBookable(); err != nil {
		return nil, err
	}
	if !h.rules.Hours.OnGrid(cmd.Start) {
		return nil, domain.ErrSlotUnavailable
	}
	if err := cmd.Customer.Normalize().Validate(); err != nil {
		return nil, err
	}

	release, err := h.locker.Acquire(ctx, LockKey(cmd.Date))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		h.logger.WarnContext(ctx, "proceeding without slot lock", "date", cmd.Date.String(), "error", err)
	} else {
		defer release(context.WithoutCancel(ctx))
	}

	for attempt := 1; ; attempt++ {
		result, err := h.create(ctx, cmd, service)
		switch {
		case err == nil && result.Replayed:
			return result, nil
		case err == nil:
			h.metrics.Counter(observability.MetricBookingsCreated, 1, observability.T("status", string(result.Status)))
			h.logger.InfoContext(ctx, "booking created",
				"code", result.Code, "date", cmd.Date.String(), "start", cmd.Start.String())
			return result, nil
		case errors.Is(err, domain.ErrDuplicateCode) && attempt < maxCodeAttempts:
			continue
		case errors.Is(err, domain.ErrDuplicateIdempotencyKey):
			if replayed, rerr := h.replay(ctx, cmd); replayed != nil || rerr != nil {
				return replayed, rerr
			}
			return nil, err
		case domain.IsConflict(err):
			h.metrics.Counter(observability.MetricBookingConflicts, 1)
			return nil, err
		default:
			return nil, err
		}
	}
}

func (h *CreateBookingHandler) create(ctx context.Context, cmd CreateBookingCommand, service *catalogDomain.Service) (*CreateBookingResult, error) {
	var result *CreateBookingResult
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.repo.LockDay(txCtx, cmd.Date); err != nil {
			return err
		}
		replayed, err := h.replay(txCtx, cmd)
		if err != nil || replayed != nil {
			result = replayed
			return err
		}

		now := h.clock.Now()
		snap, err := h.snapshots.Snapshot(txCtx, cmd.Date)
		if err != nil {
			return err
		}
		if err := checkSlot(h.rules.Evaluate(snap, service.Duration(), now), cmd.Start); err != nil {
			return err
		}

		code, err := domain.GenerateCode(cmd.Date.Year())
		if err != nil {
			return err
		}
		booking, err := domain.NewBooking(domain.NewBookingParams{
			Code:           code,
			ServiceID:      service.ID(),
			Duration:       service.Duration(),
			Price:          service.Price(),
			TherapistID:    cmd.TherapistID,
			Date:           cmd.Date,
			Start:          cmd.Start,
			Location:       h.rules.Location,
			Customer:       cmd.Customer,
			IdempotencyKey: cmd.IdempotencyKey,
			AutoConfirm:    h.policy.AutoConfirm,
			PendingTTL:     h.policy.PendingTTL,
		}, now)
		if err != nil {
			return err
		}

		if err := h.repo.Create(txCtx, booking); err != nil {
			return err
		}
		if err := outbox.Record(txCtx, h.outboxRepo, booking.Customer().Email, booking.PullDomainEvents()); err != nil {
			return err
		}

		sharedApplication.AfterCommit(txCtx, func(ctx context.Context) {
			h.invalidator.Invalidate(ctx, cmd.Date)
		})
		result = &CreateBookingResult{BookingID: booking.ID(), Code: booking.Code(), Status: booking.Status()}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// replay returns the booking already stored under the command's
// idempotency key, or nil when there is none.
func (h *CreateBookingHandler) replay(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	if cmd.IdempotencyKey == "" {
		return nil, nil
	}
	existing, err := h.repo.FindByIdempotencyKey(ctx, cmd.IdempotencyKey)
	if err != nil || existing == nil {
		return nil, err
	}
	if existing.ServiceID() != cmd.ServiceID || existing.Date() != cmd.Date || existing.Start() != cmd.Start {
		return nil, domain.ErrIdempotencyKeyReused
	}
	return &CreateBookingResult{
		BookingID: existing.ID(),
		Code:      existing.Code(),
		Status:    existing.Status(),
		Replayed:  true,
	}, nil
}

// checkSlot maps the evaluation of start onto the booking error taxonomy.
func checkSlot(a availabilityDomain.Availability, start sharedDomain.Clock) error {
	if a.Outcome == availabilityDomain.OutcomeDayBlocked {
		return domain.ErrSlotBlocked
	}
	candidate, ok := a.Candidate(start)
	if !ok {
		return domain.ErrSlotUnavailable
	}
	switch candidate.Reason {
	case availabilityDomain.ReasonNone:
		return nil
	case availabilityDomain.ReasonBlockedHours:
		return domain.ErrSlotBlocked
	case availabilityDomain.ReasonBooked:
		return domain.ErrSlotNoLongerAvailable
	default:
		return domain.ErrSlotUnavailable
	}
}
