package observability

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// HealthStatus is the state of one dependency or of the whole service.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// severity orders statuses so the service reports its worst check.
func (s HealthStatus) severity() int {
	switch s {
	case HealthStatusUnhealthy:
		return 2
	case HealthStatusDegraded:
		return 1
	}
	return 0
}

// HealthCheckResult is the outcome of one probe.
type HealthCheckResult struct {
	Status    HealthStatus  `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthChecker probes one dependency.
type HealthChecker func(ctx context.Context) HealthCheckResult

// OverallHealth is what /readyz and `spabook health` report.
type OverallHealth struct {
	Status    HealthStatus                 `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Checks    map[string]HealthCheckResult `json:"checks"`
}

// HealthRegistry holds the named checks of a process and remembers the
// outcome of the last full run.
type HealthRegistry struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
	last     map[string]HealthCheckResult
}

// NewHealthRegistry creates an empty registry.
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{checkers: map[string]HealthChecker{}, last: map[string]HealthCheckResult{}}
}

// Register adds or replaces the check called name.
func (r *HealthRegistry) Register(name string, checker HealthChecker) {
	r.mu.Lock()
	r.checkers[name] = checker
	r.mu.Unlock()
}

// Unregister removes the check and its last result.
func (r *HealthRegistry) Unregister(name string) {
	r.mu.Lock()
	delete(r.checkers, name)
	delete(r.last, name)
	r.mu.Unlock()
}

// Check runs every check concurrently and records the results.
func (r *HealthRegistry) Check(ctx context.Context) map[string]HealthCheckResult {
	r.mu.RLock()
	pending := make(map[string]HealthChecker, len(r.checkers))
	for name, checker := range r.checkers {
		pending[name] = checker
	}
	r.mu.RUnlock()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]HealthCheckResult, len(pending))
	)
	for name, checker := range pending {
		wg.Add(1)
		go func(name string, checker HealthChecker) {
			defer wg.Done()
			result := probe(ctx, checker)
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}
	wg.Wait()

	r.mu.Lock()
	r.last = results
	r.mu.Unlock()
	return results
}

// CheckOne runs a single check without touching the recorded results.
func (r *HealthRegistry) CheckOne(ctx context.Context, name string) (HealthCheckResult, bool) {
	r.mu.RLock()
	checker, ok := r.checkers[name]
	r.mu.RUnlock()
	if !ok {
		return HealthCheckResult{}, false
	}
	return probe(ctx, checker), true
}

func probe(ctx context.Context, checker HealthChecker) HealthCheckResult {
	start := time.Now()
	result := checker(ctx)
	result.Duration = time.Since(start)
	result.Timestamp = time.Now()
	return result
}

// OverallStatus is the worst status of the last Check, healthy when no
// check has run.
func (r *HealthRegistry) OverallStatus() HealthStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return worst(r.last)
}

func worst(results map[string]HealthCheckResult) HealthStatus {
	status := HealthStatusHealthy
	for _, result := range results {
		if result.Status.severity() > status.severity() {
			status = result.Status
		}
	}
	return status
}

// GetOverallHealth runs every check and summarizes them.
func (r *HealthRegistry) GetOverallHealth(ctx context.Context) OverallHealth {
	checks := r.Check(ctx)
	return OverallHealth{Status: worst(checks), Timestamp: time.Now(), Checks: checks}
}

// DependencyChecker turns a ping into a check. A failing critical
// dependency makes the service unhealthy; other failures degrade it.
func DependencyChecker(component string, critical bool, ping func(ctx context.Context) error) HealthChecker {
	failed := HealthStatusDegraded
	if critical {
		failed = HealthStatusUnhealthy
	}
	return func(ctx context.Context) HealthCheckResult {
		if err := ping(ctx); err != nil {
			return HealthCheckResult{Status: failed, Message: fmt.Sprintf("%s check failed: %v", component, err)}
		}
		return HealthCheckResult{Status: HealthStatusHealthy, Message: component + " healthy"}
	}
}

// DatabaseHealthChecker reports the database as critical.
func DatabaseHealthChecker(ping func(ctx context.Context) error) HealthChecker {
	return DependencyChecker("database", true, ping)
}

// RedisHealthChecker degrades without failing: the cache and slot lock are optional.
func RedisHealthChecker(ping func(ctx context.Context) error) HealthChecker {
	return DependencyChecker("redis", false, ping)
}

// BrokerHealthChecker degrades without failing: the outbox buffers events.
func BrokerHealthChecker(ping func(ctx context.Context) error) HealthChecker {
	return DependencyChecker("broker", false, ping)
}
