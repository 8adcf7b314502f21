package domain

import (
	"testing"
	"time"

	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService(t *testing.T) {
	now := time.Now()
	price := sharedDomain.MustMoney(12000, "PEN")

	s, err := NewService("  Masaje relajante ", "", 60*time.Minute, price, now)
	require.NoError(t, err)
	assert.Equal(t, "Masaje relajante", s.Name())
	assert.Equal(t, 60, s.DurationMinutes())
	assert.True(t, s.IsActive())
	assert.NoError(t, s.EnsureBookable())

	_, err = NewService(" ", "", time.Hour, price, now)
	assert.ErrorIs(t, err, ErrServiceNameMissing)

	_, err = NewService("Facial", "", 0, price, now)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestService_Deactivate(t *testing.T) {
	s, err := NewService("Facial", "", 45*time.Minute, sharedDomain.MustMoney(9000, "PEN"), time.Now())
	require.NoError(t, err)

	later := time.Now().Add(time.Hour)
	s.Deactivate(later)

	assert.False(t, s.IsActive())
	assert.ErrorIs(t, s.EnsureBookable(), ErrServiceInactive)
	assert.True(t, later.Equal(s.UpdatedAt()))
}
