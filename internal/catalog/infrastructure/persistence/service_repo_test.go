package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/spabook/internal/catalog/domain"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceRepository_SeededCatalog(t *testing.T) {
	ctx := context.Background()
	repo := NewServiceRepository(testutil.OpenSQLite(t))

	services, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, services, 5)
	for i := 1; i < len(services); i++ {
		assert.LessOrEqual(t, services[i-1].Name(), services[i].Name())
	}

	stones, err := repo.FindByID(ctx, uuid.MustParse(testutil.HotStonesID))
	require.NoError(t, err)
	require.NotNil(t, stones)
	assert.Equal(t, 90*time.Minute, stones.Duration())
	assert.Equal(t, int64(18000), stones.Price().Amount())
	assert.Equal(t, "PEN", stones.Price().Currency())
}

func TestServiceRepository_FindMissing(t *testing.T) {
	repo := NewServiceRepository(testutil.OpenSQLite(t))

	s, err := repo.FindByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestServiceRepository_SaveAndDeactivate(t *testing.T) {
	ctx := context.Background()
	repo := NewServiceRepository(testutil.OpenSQLite(t))

	s, err := domain.NewService("Aromaterapia", "aceites esenciales", 75*time.Minute, sharedDomain.MustMoney(14000, "PEN"), time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, s))

	s.Deactivate(time.Now())
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.FindByID(ctx, s.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.IsActive())
	assert.Equal(t, "aceites esenciales", got.Description())

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 5)
}
