package queries

import (
	"context"

	"github.com/felixgeelhaar/spabook/internal/calendar/domain"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/google/uuid"
)

// BlockedDayDTO is the read model of a blocked day.
type BlockedDayDTO struct {
	ID        uuid.UUID         `json:"id"`
	Date      sharedDomain.Date `json:"fecha"`
	Reason    string            `json:"motivo"`
	BlockedBy string            `json:"bloqueado_por"`
}

// BlockedHoursDTO is the read model of a blocked range.
type BlockedHoursDTO struct {
	ID        uuid.UUID          `json:"id"`
	Date      sharedDomain.Date  `json:"fecha"`
	Start     sharedDomain.Clock `json:"hora_inicio"`
	End       sharedDomain.Clock `json:"hora_fin"`
	Reason    string             `json:"motivo"`
	BlockedBy string             `json:"bloqueado_por"`
}

// IsDayBlockedQuery asks whether a date is closed.
type IsDayBlockedQuery struct {
	Date sharedDomain.Date
}

// IsDayBlockedHandler handles IsDayBlockedQuery.
type IsDayBlockedHandler struct {
	repo domain.Repository
}

func NewIsDayBlockedHandler(repo domain.Repository) *IsDayBlockedHandler {
	return &IsDayBlockedHandler{repo: repo}
}

func (h *IsDayBlockedHandler) Handle(ctx context.Context, query IsDayBlockedQuery) (bool, error) {
	day, err := h.repo.FindBlockedDay(ctx, query.Date)
	if err != nil {
		return false, err
	}
	return day != nil, nil
}

// GetBlockedHoursQuery lists the blocked ranges on a date.
type GetBlockedHoursQuery struct {
	Date sharedDomain.Date
}

// GetBlockedHoursHandler handles GetBlockedHoursQuery.
type GetBlockedHoursHandler struct {
	repo domain.Repository
}

func NewGetBlockedHoursHandler(repo domain.Repository) *GetBlockedHoursHandler {
	return &GetBlockedHoursHandler{repo: repo}
}

// Handle returns the ranges ordered by start.
func (h *GetBlockedHoursHandler) Handle(ctx context.Context, query GetBlockedHoursQuery) ([]BlockedHoursDTO, error) {
	ranges, err := h.repo.ListBlockedHours(ctx, query.Date)
	if err != nil {
		return nil, err
	}
	domain.SortByStart(ranges)

	dtos := make([]BlockedHoursDTO, 0, len(ranges))
	for _, r := range ranges {
		dtos = append(dtos, BlockedHoursDTO{
			ID:        r.ID(),
			Date:      r.Date(),
			Start:     r.Start(),
			End:       r.End(),
			Reason:    r.Reason(),
			BlockedBy: r.BlockedBy(),
		})
	}
	return dtos, nil
}

// ListBlockedDaysQuery lists blocks on or after From. A zero From lists all.
type ListBlockedDaysQuery struct {
	From sharedDomain.Date
}

// ListBlockedDaysHandler handles ListBlockedDaysQuery.
type ListBlockedDaysHandler struct {
	repo domain.Repository
}

func NewListBlockedDaysHandler(repo domain.Repository) *ListBlockedDaysHandler {
	return &ListBlockedDaysHandler{repo: repo}
}

func (h *ListBlockedDaysHandler) Handle(ctx context.Context, query ListBlockedDaysQuery) ([]BlockedDayDTO, error) {
	from := query.From
	if from.IsZero() {
		from = sharedDomain.NewDate(1, 1, 1)
	}
	days, err := h.repo.ListBlockedDays(ctx, from)
	if err != nil {
		return nil, err
	}

	dtos := make([]BlockedDayDTO, 0, len(days))
	for _, d := range days {
		dtos = append(dtos, BlockedDayDTO{
			ID:        d.ID(),
			Date:      d.Date(),
			Reason:    d.Reason(),
			BlockedBy: d.BlockedBy(),
		})
	}
	return dtos, nil
}
