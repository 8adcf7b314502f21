package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/spabook/pkg/observability"
)

type mockExpirer struct {
	mock.Mock
}

func (m *mockExpirer) Run(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockCleaner struct {
	mock.Mock
}

func (m *mockCleaner) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	args := m.Called(ctx, olderThanDays)
	return args.Get(0).(int64), args.Error(1)
}

func TestScheduler_Add(t *testing.T) {
	s := NewScheduler(time.UTC, nil)

	require.NoError(t, s.Add(Job{Name: "a", Schedule: "@every 1m", Run: func(context.Context) error { return nil }}))
	require.NoError(t, s.Add(Job{Name: "disabled", Run: func(context.Context) error { return nil }}))
	assert.Equal(t, 1, s.Len())

	err := s.Add(Job{Name: "bad", Schedule: "every minute", Run: func(context.Context) error { return nil }})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")

	assert.Error(t, s.Add(Job{Schedule: "@hourly"}))
}

func TestScheduler_RunNow(t *testing.T) {
	s := NewScheduler(time.UTC, nil)
	calls := 0
	require.NoError(t, s.Add(Job{
		Name:     "count",
		Schedule: "@hourly",
		Run: func(context.Context) error {
			calls++
			return nil
		},
	}))

	require.NoError(t, s.RunNow(context.Background(), "count"))
	assert.Equal(t, 1, calls)

	err := s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestScheduler_RecordsRunMetrics(t *testing.T) {
	m := observability.NewInMemoryMetrics()
	s := NewScheduler(time.UTC, nil).WithMetrics(m)
	require.NoError(t, s.Add(Job{
		Name:     "expire_pending",
		Schedule: "@every 1m",
		Run:      func(context.Context) error { return errors.New("db locked") },
	}))

	assert.Error(t, s.RunNow(context.Background(), "expire_pending"))

	op := observability.T("operation", "job.expire_pending")
	assert.Equal(t, int64(1), m.GetCounter(observability.MetricOperationTotal, op))
	assert.Equal(t, int64(1), m.GetCounter(observability.MetricOperationErrors, op))
}

func TestScheduler_RunNowAppliesTimeout(t *testing.T) {
	s := NewScheduler(time.UTC, nil)
	require.NoError(t, s.Add(Job{
		Name:     "slow",
		Schedule: "@hourly",
		Timeout:  10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}))

	err := s.RunNow(context.Background(), "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(time.UTC, nil)
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestPendingSweeper(t *testing.T) {
	expirer := new(mockExpirer)
	expirer.On("Run", mock.Anything).Return(3, nil).Once()
	expirer.On("Run", mock.Anything).Return(0, errors.New("db down")).Once()

	job := PendingSweeper("@every 1m", expirer, nil)
	assert.Equal(t, PendingSweeperJob, job.Name)

	require.NoError(t, job.Run(context.Background()))
	assert.EqualError(t, job.Run(context.Background()), "db down")
	expirer.AssertExpectations(t)
}

func TestOutboxCleanup(t *testing.T) {
	cleaner := new(mockCleaner)
	cleaner.On("DeleteOld", mock.Anything, 14).Return(int64(7), nil)

	job := OutboxCleanup("@daily", 0, cleaner, nil)
	assert.Equal(t, OutboxCleanupJob, job.Name)

	require.NoError(t, job.Run(context.Background()))
	cleaner.AssertExpectations(t)
}
