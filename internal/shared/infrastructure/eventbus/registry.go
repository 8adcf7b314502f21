package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/spabook/pkg/observability"
)

type route struct {
	pattern  string
	consumer EventConsumer
}

// ConsumerRegistry routes events to consumers by topic pattern, with the
// same matching rules as an AMQP topic exchange.
type ConsumerRegistry struct {
	mu      sync.RWMutex
	routes  []route
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewConsumerRegistry creates an empty registry.
func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{logger: logger, metrics: observability.NoopMetrics{}}
}

// WithMetrics counts dispatches under MetricEventsConsumed.
func (r *ConsumerRegistry) WithMetrics(m observability.Metrics) *ConsumerRegistry {
	if m != nil {
		r.metrics = m
	}
	return r
}

// Register adds a route for every pattern the consumer declares.
func (r *ConsumerRegistry) Register(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pattern := range consumer.EventTypes() {
		r.routes = append(r.routes, route{pattern: pattern, consumer: consumer})
		r.logger.Debug("registered event consumer", "pattern", pattern)
	}
}

// Match returns the consumers for routingKey in registration order. A
// consumer matched by several patterns appears once.
func (r *ConsumerRegistry) Match(routingKey string) []EventConsumer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []EventConsumer
	seen := make(map[EventConsumer]bool)
	for _, rt := range r.routes {
		if seen[rt.consumer] || !TopicMatch(rt.pattern, routingKey) {
			continue
		}
		seen[rt.consumer] = true
		out = append(out, rt.consumer)
	}
	return out
}

// Patterns returns the distinct registered patterns, sorted. Broker
// consumers bind their queue with them.
func (r *ConsumerRegistry) Patterns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]struct{}, len(r.routes))
	for _, rt := range r.routes {
		set[rt.pattern] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of routes.
func (r *ConsumerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}

// Dispatch hands event to every matching consumer. All consumers run even
// when one fails; the failures are joined.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, event *ConsumedEvent) error {
	consumers := r.Match(event.RoutingKey)
	if len(consumers) == 0 {
		r.logger.Debug("no consumers for event", "routing_key", event.RoutingKey)
		return nil
	}

	var errs []error
	for _, consumer := range consumers {
		err := consumer.Handle(ctx, event)
		outcome := "ok"
		if err != nil {
			outcome = "error"
			r.logger.ErrorContext(ctx, "event consumer failed",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"correlation_id", event.Metadata.CorrelationID,
				"error", err,
			)
			errs = append(errs, err)
		}
		r.metrics.Counter(observability.MetricEventsConsumed, 1,
			observability.T("routing_key", event.RoutingKey),
			observability.T("outcome", outcome),
		)
	}
	return errors.Join(errs...)
}

// TopicMatch reports whether key matches pattern. Words are dot
// separated; "*" matches exactly one word and "#" zero or more.
func TopicMatch(pattern, key string) bool {
	return matchWords(strings.Split(pattern, "."), strings.Split(key, "."))
}

func matchWords(pattern, key []string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case "#":
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(key); i++ {
				if matchWords(pattern[1:], key[i:]) {
					return true
				}
			}
			return false
		case "*":
			if len(key) == 0 {
				return false
			}
		default:
			if len(key) == 0 || key[0] != pattern[0] {
				return false
			}
		}
		pattern, key = pattern[1:], key[1:]
	}
	return len(key) == 0
}
