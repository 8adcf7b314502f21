package persistence

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/spabook/internal/availability/domain"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/spabook/pkg/observability"
)

// CacheKey is the cache key of a date's snapshot.
func CacheKey(date sharedDomain.Date) string {
	return "availability:" + date.String()
}

// CachedSnapshotRepository serves snapshots from a cache and falls back to
// the wrapped reader. Cache failures degrade to a database read. A miss is
// written back only if no invalidation ran since the generation was
// sampled, so a read that overlapped a commit never caches the old day.
type CachedSnapshotRepository struct {
	next    domain.SnapshotReader
	cache   cache.Cache
	ttl     time.Duration
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewCachedSnapshotRepository wraps next with c.
func NewCachedSnapshotRepository(
	next domain.SnapshotReader,
	c cache.Cache,
	ttl time.Duration,
	metrics observability.Metrics,
	logger *slog.Logger,
) *CachedSnapshotRepository {
	if c == nil {
		c = cache.NoopCache{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSnapshotRepository{next: next, cache: c, ttl: ttl, metrics: metrics, logger: logger}
}

func (r *CachedSnapshotRepository) Snapshot(ctx context.Context, date sharedDomain.Date) (domain.DaySnapshot, error) {
	key := CacheKey(date)

	raw, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.WarnContext(ctx, "availability cache read failed", "key", key, "error", err)
	}
	if ok {
		var snap domain.DaySnapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			r.metrics.Counter(observability.MetricCacheHits, 1)
			return snap, nil
		}
		r.logger.WarnContext(ctx, "discarding undecodable availability entry", "key", key)
	}
	r.metrics.Counter(observability.MetricCacheMisses, 1)

	gen, genErr := r.cache.Generation(ctx, key)
	snap, err := r.next.Snapshot(ctx, date)
	if err != nil {
		return domain.DaySnapshot{}, err
	}
	if genErr != nil {
		r.logger.WarnContext(ctx, "availability cache generation unreadable, not caching", "key", key, "error", genErr)
		return snap, nil
	}
	r.writeBack(ctx, key, snap, gen)
	return snap, nil
}

func (r *CachedSnapshotRepository) writeBack(ctx context.Context, key string, snap domain.DaySnapshot, gen int64) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	stored, err := r.cache.SetIfGeneration(ctx, key, raw, r.ttl, gen)
	switch {
	case err != nil:
		r.logger.WarnContext(ctx, "availability cache write failed", "key", key, "error", err)
	case !stored:
		r.logger.DebugContext(ctx, "availability changed during read, not caching", "key", key)
	}
}

// Invalidate drops the cached snapshot of date and fences off reads that
// started before it.
func (r *CachedSnapshotRepository) Invalidate(ctx context.Context, date sharedDomain.Date) {
	key := CacheKey(date)
	if err := r.cache.Invalidate(ctx, key); err != nil {
		r.logger.ErrorContext(ctx, "availability cache invalidation failed", "key", key, "error", err)
		return
	}
	r.logger.DebugContext(ctx, "availability cache invalidated", "key", key)
}
