package eventbus

import (
	"context"
	"log/slog"
	"time"
)

// InProcessEventBus delivers envelopes to consumers registered in the same
// process. It is the Publisher of single-node installs that run without a
// broker: the outbox processor calls Publish and the consumers run inline.
type InProcessEventBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
}

// NewInProcessEventBus creates a bus with an empty registry.
func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{
		registry: NewConsumerRegistry(logger),
		logger:   logger,
	}
}

// Registry exposes the routing table, e.g. to attach metrics.
func (b *InProcessEventBus) Registry() *ConsumerRegistry {
	return b.registry
}

// RegisterConsumer adds a consumer.
func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish decodes the envelope and dispatches it synchronously. Malformed
// envelopes and consumer failures are returned so the outbox retries the
// row and eventually dead-letters it.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event, err := DecodeEvent(routingKey, payload)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := b.registry.Dispatch(ctx, event); err != nil {
		return err
	}
	b.logger.DebugContext(ctx, "event dispatched in process",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Close is a no-op.
func (b *InProcessEventBus) Close() error {
	return nil
}
