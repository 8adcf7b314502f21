package persistence

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/spabook/internal/catalog/domain"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// ServiceRepository implements domain.ServiceRepository on either driver.
type ServiceRepository struct {
	conn database.Connection
}

// NewServiceRepository creates a new service repository.
func NewServiceRepository(conn database.Connection) *ServiceRepository {
	return &ServiceRepository{conn: conn}
}

const serviceColumns = `id, name, description, duration_minutes, price_cents, currency, active, created_at, updated_at`

// Save upserts the service by id.
func (r *ServiceRepository) Save(ctx context.Context, service *domain.Service) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		INSERT INTO services (`+serviceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			duration_minutes = excluded.duration_minutes,
			price_cents = excluded.price_cents,
			currency = excluded.currency,
			active = excluded.active,
			updated_at = excluded.updated_at`,
		service.ID(),
		service.Name(),
		service.Description(),
		service.DurationMinutes(),
		service.Price().Amount(),
		service.Price().Currency(),
		service.IsActive(),
		service.CreatedAt(),
		service.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save service: %w", err)
	}
	return nil
}

// FindByID returns nil, nil when no service has the id.
func (r *ServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id)

	service, err := scanService(row)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find service: %w", err)
	}
	return service, nil
}

// ListActive returns bookable services ordered by name.
func (r *ServiceRepository) ListActive(ctx context.Context) ([]*domain.Service, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, `SELECT `+serviceColumns+` FROM services WHERE active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []*domain.Service
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, service)
	}
	return services, rows.Err()
}

func scanService(row database.Row) (*domain.Service, error) {
	var (
		id          uuid.UUID
		name        string
		description string
		minutes     int
		priceCents  int64
		currency    string
		active      bool
		createdAt   database.Timestamp
		updatedAt   database.Timestamp
	)
	if err := row.Scan(&id, &name, &description, &minutes, &priceCents, &currency, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	price, err := sharedDomain.NewMoney(priceCents, currency)
	if err != nil {
		return nil, err
	}
	return domain.RehydrateService(id, name, description, minutes, price, active, createdAt.Time, updatedAt.Time), nil
}
