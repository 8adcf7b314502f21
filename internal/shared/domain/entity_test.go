package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseEntity(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.FixedZone("PET", -5*3600))

	entity := domain.NewBaseEntity(at)

	assert.NotEqual(t, uuid.Nil, entity.ID())
	assert.Equal(t, at.UTC(), entity.CreatedAt())
	assert.Equal(t, time.UTC, entity.CreatedAt().Location())
	assert.Equal(t, entity.CreatedAt(), entity.UpdatedAt())
}

func TestNewBaseEntity_ZeroInstantUsesClock(t *testing.T) {
	before := time.Now().UTC()
	entity := domain.NewBaseEntity(time.Time{})

	assert.False(t, entity.CreatedAt().Before(before))
}

func TestBaseEntity_Touch(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	entity := domain.NewBaseEntity(at)

	entity.Touch(at.Add(time.Hour))
	assert.Equal(t, at.Add(time.Hour), entity.UpdatedAt())
	assert.Equal(t, at, entity.CreatedAt())

	// Moving backwards is ignored.
	entity.Touch(at)
	assert.Equal(t, at.Add(time.Hour), entity.UpdatedAt())
}

func TestSameIdentity(t *testing.T) {
	id := uuid.New()
	now := time.Now()
	a := domain.RehydrateBaseEntity(id, now, now)
	b := domain.RehydrateBaseEntity(id, now, now.Add(time.Minute))
	c := domain.NewBaseEntity(now)

	assert.True(t, domain.SameIdentity(a, b))
	assert.False(t, domain.SameIdentity(a, c))
	assert.False(t, domain.SameIdentity(a, nil))
}
