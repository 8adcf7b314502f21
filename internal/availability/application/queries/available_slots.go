package queries

import (
	"context"

	"github.com/felixgeelhaar/spabook/internal/availability/domain"
	catalogDomain "github.com/felixgeelhaar/spabook/internal/catalog/domain"
	sharedApplication "github.com/felixgeelhaar/spabook/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/pkg/observability"
	"github.com/google/uuid"
)

var (
	ErrServiceNotFound = catalogDomain.ErrServiceNotFound
	ErrServiceInactive = catalogDomain.ErrServiceInactive
)

// ServiceFinder looks up catalog entries.
type ServiceFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*catalogDomain.Service, error)
}

// AvailableSlotsQuery asks which slots of a date can be booked for a service.
type AvailableSlotsQuery struct {
	Date      sharedDomain.Date
	ServiceID uuid.UUID
}

// SlotDTO is one evaluated candidate.
type SlotDTO struct {
	Start     string        `json:"hora"`
	End       string        `json:"hora_fin"`
	Available bool          `json:"disponible"`
	Reason    domain.Reason `json:"motivo,omitempty"`
}

// AvailableSlotsResult is the evaluated day.
type AvailableSlotsResult struct {
	Date      sharedDomain.Date `json:"fecha"`
	ServiceID uuid.UUID         `json:"servicio_id"`
	Outcome   domain.Outcome    `json:"estado"`
	Slots     []SlotDTO         `json:"horarios"`
}

// AvailableCount returns how many slots are bookable.
func (r AvailableSlotsResult) AvailableCount() int {
	n := 0
	for _, s := range r.Slots {
		if s.Available {
			n++
		}
	}
	return n
}

// AvailableSlotsHandler handles AvailableSlotsQuery.
type AvailableSlotsHandler struct {
	snapshots domain.SnapshotReader
	services  ServiceFinder
	rules     domain.Rules
	clock     sharedApplication.Clock
	metrics   observability.Metrics
}

// NewAvailableSlotsHandler creates a new AvailableSlotsHandler.
func NewAvailableSlotsHandler(
	snapshots domain.SnapshotReader,
	services ServiceFinder,
	rules domain.Rules,
	clock sharedApplication.Clock,
	metrics observability.Metrics,
) *AvailableSlotsHandler {
	if clock == nil {
		clock = sharedApplication.SystemClock{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &AvailableSlotsHandler{
		snapshots: snapshots,
		services:  services,
		rules:     rules,
		clock:     clock,
		metrics:   metrics,
	}
}

// Handle executes the query.
func (h *AvailableSlotsHandler) Handle(ctx context.Context, query AvailableSlotsQuery) (AvailableSlotsResult, error) {
	service, err := h.services.FindByID(ctx, query.ServiceID)
	if err != nil {
		return AvailableSlotsResult{}, err
	}
	if service == nil {
		return AvailableSlotsResult{}, ErrServiceNotFound
	}
	if err := service.EnsureBookable(); err != nil {
		return AvailableSlotsResult{}, err
	}

	snap, err := h.snapshots.Snapshot(ctx, query.Date)
	if err != nil {
		return AvailableSlotsResult{}, err
	}

	availability := h.rules.Evaluate(snap, service.Duration(), h.clock.Now())
	result := toResult(availability, query.ServiceID)

	outcome := observability.T("outcome", string(result.Outcome))
	h.metrics.Counter(observability.MetricAvailabilityQuery, 1, outcome)
	h.metrics.Counter(observability.MetricSlotsServed, int64(result.AvailableCount()))

	return result, nil
}

func toResult(a domain.Availability, serviceID uuid.UUID) AvailableSlotsResult {
	result := AvailableSlotsResult{
		Date:      a.Date,
		ServiceID: serviceID,
		Outcome:   a.Outcome,
		Slots:     make([]SlotDTO, 0, len(a.Candidates)),
	}
	for _, c := range a.Candidates {
		result.Slots = append(result.Slots, SlotDTO{
			Start:     c.Slot.Start.String(),
			End:       c.Slot.End.String(),
			Available: c.Available(),
			Reason:    c.Reason,
		})
	}
	return result
}
