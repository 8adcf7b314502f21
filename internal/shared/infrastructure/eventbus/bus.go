package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrMalformedEvent is returned for bodies that are not an outbox envelope.
var ErrMalformedEvent = errors.New("malformed event envelope")

// Publisher hands outbox envelopes to a transport.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// HealthReporter is implemented by publishers that hold a broker connection.
type HealthReporter interface {
	Healthy(ctx context.Context) error
}

// EventConsumer reacts to events. EventTypes returns routing keys or topic
// patterns: "*" matches one dot-separated word and "#" zero or more.
type EventConsumer interface {
	EventTypes() []string
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// Consumer pulls events from a transport and dispatches them.
type Consumer interface {
	RegisterConsumer(consumer EventConsumer)
	// Start blocks until ctx is cancelled or the consumer is closed.
	Start(ctx context.Context) error
	Close() error
}

// ConsumedEvent is the decoded outbox envelope.
type ConsumedEvent struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
	Metadata      EventMetadata   `json:"metadata,omitempty"`
}

// EventMetadata carries the request that caused the event.
type EventMetadata struct {
	CorrelationID string `json:"correlation_id,omitempty"`
	CausationID   string `json:"causation_id,omitempty"`
	Actor         string `json:"actor,omitempty"`
}

// DecodeEvent parses an envelope. The transport's routing key fills in a
// missing one.
func DecodeEvent(routingKey string, body []byte) (*ConsumedEvent, error) {
	var event ConsumedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.EventID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing event_id", ErrMalformedEvent)
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}
	return &event, nil
}
