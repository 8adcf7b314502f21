package queries

import (
	"context"

	"github.com/felixgeelhaar/spabook/internal/catalog/domain"
	"github.com/google/uuid"
)

// ServiceDTO is the read model of a catalog entry.
type ServiceDTO struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"nombre"`
	Description     string    `json:"descripcion,omitempty"`
	DurationMinutes int       `json:"duracion"`
	PriceCents      int64     `json:"precio"`
	Currency        string    `json:"moneda"`
	Active          bool      `json:"activo"`
}

// ToDTO maps a service onto its read model.
func ToDTO(s *domain.Service) ServiceDTO {
	return ServiceDTO{
		ID:              s.ID(),
		Name:            s.Name(),
		Description:     s.Description(),
		DurationMinutes: s.DurationMinutes(),
		PriceCents:      s.Price().Amount(),
		Currency:        s.Price().Currency(),
		Active:          s.IsActive(),
	}
}

// ListServicesQuery lists the active catalog.
type ListServicesQuery struct{}

// ListServicesHandler handles ListServicesQuery.
type ListServicesHandler struct {
	repo domain.ServiceRepository
}

// NewListServicesHandler creates a new ListServicesHandler.
func NewListServicesHandler(repo domain.ServiceRepository) *ListServicesHandler {
	return &ListServicesHandler{repo: repo}
}

// Handle executes the query.
func (h *ListServicesHandler) Handle(ctx context.Context, _ ListServicesQuery) ([]ServiceDTO, error) {
	services, err := h.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]ServiceDTO, 0, len(services))
	for _, s := range services {
		dtos = append(dtos, ToDTO(s))
	}
	return dtos, nil
}

// GetServiceQuery loads one service.
type GetServiceQuery struct {
	ServiceID uuid.UUID
}

// GetServiceHandler handles GetServiceQuery.
type GetServiceHandler struct {
	repo domain.ServiceRepository
}

// NewGetServiceHandler creates a new GetServiceHandler.
func NewGetServiceHandler(repo domain.ServiceRepository) *GetServiceHandler {
	return &GetServiceHandler{repo: repo}
}

// Handle returns domain.ErrServiceNotFound for unknown ids. Inactive
// services are returned so callers can tell the two apart.
func (h *GetServiceHandler) Handle(ctx context.Context, query GetServiceQuery) (*domain.Service, error) {
	service, err := h.repo.FindByID(ctx, query.ServiceID)
	if err != nil {
		return nil, err
	}
	if service == nil {
		return nil, domain.ErrServiceNotFound
	}
	return service, nil
}
