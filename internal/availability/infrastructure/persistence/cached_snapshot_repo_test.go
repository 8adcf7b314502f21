package persistence_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/spabook/internal/availability/domain"
	"github.com/felixgeelhaar/spabook/internal/availability/infrastructure/persistence"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/spabook/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReader struct {
	calls int
	snap  domain.DaySnapshot
	err   error
}

func (r *countingReader) Snapshot(_ context.Context, date sharedDomain.Date) (domain.DaySnapshot, error) {
	r.calls++
	s := r.snap
	s.Date = date
	return s, r.err
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}
func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}
func (failingCache) Delete(context.Context, string) error { return errors.New("connection refused") }
func (failingCache) Generation(context.Context, string) (int64, error) {
	return 0, errors.New("connection refused")
}
func (failingCache) Invalidate(context.Context, string) error { return errors.New("connection refused") }
func (failingCache) SetIfGeneration(context.Context, string, []byte, time.Duration, int64) (bool, error) {
	return false, errors.New("connection refused")
}

// gatedReader parks the first read between loading the snapshot and
// returning it, so a test can commit and invalidate in that window.
type gatedReader struct {
	mu      sync.Mutex
	blocked bool
	calls   int
	loaded  chan struct{}
	resume  chan struct{}
}

func (r *gatedReader) Snapshot(_ context.Context, date sharedDomain.Date) (domain.DaySnapshot, error) {
	r.mu.Lock()
	r.calls++
	first := r.calls == 1
	snap := domain.DaySnapshot{Date: date, DayBlocked: r.blocked}
	r.mu.Unlock()

	if first {
		close(r.loaded)
		<-r.resume
	}
	return snap, nil
}

func (r *gatedReader) block() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocked = true
}

func TestCachedSnapshotRepository_HitMissAndInvalidate(t *testing.T) {
	ctx := context.Background()
	date := sharedDomain.MustDate("2025-10-06")
	reader := &countingReader{snap: domain.DaySnapshot{
		BlockedHours: []sharedDomain.Interval{{Start: 14 * 60, End: 16 * 60}},
		Bookings:     []sharedDomain.Interval{{Start: 10 * 60, End: 11 * 60}},
	}}
	metrics := observability.NewInMemoryMetrics()
	mem := cache.NewMemoryCache()
	repo := persistence.NewCachedSnapshotRepository(reader, mem, time.Minute, metrics, nil)

	first, err := repo.Snapshot(ctx, date)
	require.NoError(t, err)
	second, err := repo.Snapshot(ctx, date)
	require.NoError(t, err)

	assert.Equal(t, 1, reader.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricCacheHits))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricCacheMisses))

	_, ok, _ := mem.Get(ctx, "availability:2025-10-06")
	assert.True(t, ok)

	repo.Invalidate(ctx, date)
	_, err = repo.Snapshot(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, 2, reader.calls)
}

func TestCachedSnapshotRepository_ReadRacingInvalidationIsNotCached(t *testing.T) {
	ctx := context.Background()
	date := sharedDomain.MustDate("2025-10-07")
	reader := &gatedReader{loaded: make(chan struct{}), resume: make(chan struct{})}
	repo := persistence.NewCachedSnapshotRepository(reader, cache.NewMemoryCache(), time.Minute, nil, nil)

	done := make(chan domain.DaySnapshot)
	go func() {
		snap, err := repo.Snapshot(ctx, date)
		assert.NoError(t, err)
		done <- snap
	}()

	<-reader.loaded
	reader.block()
	repo.Invalidate(ctx, date)
	close(reader.resume)

	racing := <-done
	assert.False(t, racing.DayBlocked, "the racing read still sees the day as it was loaded")

	snap, err := repo.Snapshot(ctx, date)
	require.NoError(t, err)
	assert.True(t, snap.DayBlocked)
	assert.Equal(t, 2, reader.calls)
}

func TestCachedSnapshotRepository_DegradesOnCacheFailure(t *testing.T) {
	ctx := context.Background()
	reader := &countingReader{}
	repo := persistence.NewCachedSnapshotRepository(reader, failingCache{}, time.Minute, nil, nil)

	_, err := repo.Snapshot(ctx, sharedDomain.MustDate("2025-10-06"))
	require.NoError(t, err)
	assert.Equal(t, 1, reader.calls)

	repo.Invalidate(ctx, sharedDomain.MustDate("2025-10-06"))
}

func TestCachedSnapshotRepository_PropagatesReaderError(t *testing.T) {
	reader := &countingReader{err: errors.New("db down")}
	repo := persistence.NewCachedSnapshotRepository(reader, cache.NewMemoryCache(), time.Minute, nil, nil)

	_, err := repo.Snapshot(context.Background(), sharedDomain.MustDate("2025-10-06"))
	assert.EqualError(t, err, "db down")
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "availability:2025-01-31", persistence.CacheKey(sharedDomain.MustDate("2025-01-31")))
}
