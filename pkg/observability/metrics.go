package observability

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Metrics records application metrics.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Histogram(name string, value float64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag is a metric label.
type Tag struct {
	Key   string
	Value string
}

// T creates a new Tag.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)        {}
func (NoopMetrics) Gauge(string, float64, ...Tag)        {}
func (NoopMetrics) Histogram(string, float64, ...Tag)    {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// InMemoryMetrics keeps metrics in process. The worker logs a snapshot
// periodically and the HTTP server exposes one at /metrics.
type InMemoryMetrics struct {
	mu         sync.RWMutex
	counters   map[string]int64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewInMemoryMetrics creates an empty collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[formatKey(name, tags)] += value
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[formatKey(name, tags)] = value
}

func (m *InMemoryMetrics) Histogram(name string, value float64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := formatKey(name, tags)
	m.histograms[key] = append(m.histograms[key], value)
}

// Timing records the duration in milliseconds as a histogram sample.
func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.Histogram(name, float64(duration.Microseconds())/1000, tags...)
}

// GetCounter returns the counter value for name and tags.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[formatKey(name, tags)]
}

// GetGauge returns the last gauge value.
func (m *InMemoryMetrics) GetGauge(name string, tags ...Tag) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gauges[formatKey(name, tags)]
}

// GetHistogram returns a copy of the recorded samples.
func (m *InMemoryMetrics) GetHistogram(name string, tags ...Tag) []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]float64(nil), m.histograms[formatKey(name, tags)]...)
}

// Summary aggregates one histogram.
type Summary struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Max   float64 `json:"max"`
}

// Snapshot is a point-in-time copy of every metric.
type Snapshot struct {
	Counters   map[string]int64   `json:"counters"`
	Gauges     map[string]float64 `json:"gauges"`
	Histograms map[string]Summary `json:"histograms"`
}

// Snapshot copies the current values.
func (m *InMemoryMetrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		Counters:   make(map[string]int64, len(m.counters)),
		Gauges:     make(map[string]float64, len(m.gauges)),
		Histograms: make(map[string]Summary, len(m.histograms)),
	}
	for k, v := range m.counters {
		snap.Counters[k] = v
	}
	for k, v := range m.gauges {
		snap.Gauges[k] = v
	}
	for k, samples := range m.histograms {
		var sum Summary
		for _, v := range samples {
			sum.Count++
			sum.Sum += v
			if v > sum.Max {
				sum.Max = v
			}
		}
		snap.Histograms[k] = sum
	}
	return snap
}

// formatKey renders name{k=v,...} with tags sorted so label order never
// splits a series.
func formatKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	sorted := append([]Tag(nil), tags...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, t := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Key)
		b.WriteByte('=')
		b.WriteString(t.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// Metric names.
const (
	MetricOperationTotal    = "spabook.operation.total"
	MetricOperationDuration = "spabook.operation.duration"
	MetricOperationErrors   = "spabook.operation.errors"

	MetricSlotsServed       = "spabook.availability.slots_served"
	MetricAvailabilityQuery = "spabook.availability.queries"
	MetricCacheHits         = "spabook.availability.cache_hits"
	MetricCacheMisses       = "spabook.availability.cache_misses"

	MetricBookingsCreated   = "spabook.bookings.created"
	MetricBookingConflicts  = "spabook.bookings.conflicts"
	MetricBookingsCancelled = "spabook.bookings.cancelled"
	MetricBookingsExpired   = "spabook.bookings.expired"
	MetricCreditsIssued     = "spabook.credits.issued"

	MetricCalendarBlocks = "spabook.calendar.blocks"

	MetricHTTPRequest     = "spabook.http.request"
	MetricHTTPRateLimited = "spabook.http.rate_limited"

	MetricEventsPublished     = "spabook.events.published"
	MetricEventsConsumed      = "spabook.events.consumed"
	MetricNotificationsSent   = "spabook.notifications.sent"
	MetricNotificationsFailed = "spabook.notifications.failed"
	MetricBreakerState        = "spabook.events.breaker_state"
)
