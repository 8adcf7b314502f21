package domain

import (
	"context"

	"github.com/google/uuid"
)

// ServiceRepository defines persistence for the catalog.
type ServiceRepository interface {
	// Save inserts or updates a service.
	Save(ctx context.Context, service *Service) error

	// FindByID returns nil, nil when the service does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*Service, error)

	// ListActive returns bookable services ordered by name.
	ListActive(ctx context.Context) ([]*Service, error)
}
