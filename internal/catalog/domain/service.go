package domain

import (
	"errors"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrServiceNotFound    = errors.New("service not found")
	ErrServiceInactive    = errors.New("service is not bookable")
	ErrInvalidDuration    = errors.New("service duration must be positive")
	ErrServiceNameMissing = errors.New("service name is required")
)

// Service is a bookable treatment.
type Service struct {
	sharedDomain.BaseEntity
	name        string
	description string
	duration    time.Duration
	price       sharedDomain.Money
	active      bool
}

// NewService creates an active service.
func NewService(name, description string, duration time.Duration, price sharedDomain.Money, at time.Time) (*Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrServiceNameMissing
	}
	if duration < time.Minute {
		return nil, ErrInvalidDuration
	}
	return &Service{
		BaseEntity:  sharedDomain.NewBaseEntity(at),
		name:        name,
		description: description,
		duration:    duration.Truncate(time.Minute),
		price:       price,
		active:      true,
	}, nil
}

func (s *Service) Name() string              { return s.name }
func (s *Service) Description() string       { return s.description }
func (s *Service) Duration() time.Duration   { return s.duration }
func (s *Service) Price() sharedDomain.Money { return s.price }
func (s *Service) IsActive() bool            { return s.active }
func (s *Service) DurationMinutes() int      { return int(s.duration / time.Minute) }

// EnsureBookable returns ErrServiceInactive for retired services.
func (s *Service) EnsureBookable() error {
	if !s.active {
		return ErrServiceInactive
	}
	return nil
}

// Deactivate retires the service from the catalog.
func (s *Service) Deactivate(at time.Time) {
	s.active = false
	s.Touch(at)
}

// RehydrateService recreates a service from persisted state.
func RehydrateService(
	id uuid.UUID,
	name, description string,
	durationMinutes int,
	price sharedDomain.Money,
	active bool,
	createdAt, updatedAt time.Time,
) *Service {
	return &Service{
		BaseEntity:  sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		name:        name,
		description: description,
		duration:    time.Duration(durationMinutes) * time.Minute,
		price:       price,
		active:      active,
	}
}
