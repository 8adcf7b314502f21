package application

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventMetadata(t *testing.T) {
	t.Run("uses request identifiers from context", func(t *testing.T) {
		ctx := observability.WithCorrelationID(context.Background(), "corr-123")
		ctx = observability.WithRequestID(ctx, "req-456")

		md := NewEventMetadata(ctx, "admin")

		assert.Equal(t, "corr-123", md.CorrelationID)
		assert.Equal(t, "req-456", md.CausationID)
		assert.Equal(t, "admin", md.Actor)
	})

	t.Run("mints identifiers outside a request", func(t *testing.T) {
		md1 := NewEventMetadata(context.Background(), "cron")
		md2 := NewEventMetadata(context.Background(), "cron")

		assert.NotEmpty(t, md1.CorrelationID)
		assert.NotEqual(t, md1.CorrelationID, md2.CorrelationID)
	})
}

type testEvent struct {
	domain.BaseEvent
}

type nonSetterEvent struct{}

func (nonSetterEvent) EventID() uuid.UUID             { return uuid.Nil }
func (nonSetterEvent) AggregateID() uuid.UUID         { return uuid.Nil }
func (nonSetterEvent) AggregateType() string          { return "test" }
func (nonSetterEvent) RoutingKey() string             { return "test.event" }
func (nonSetterEvent) OccurredAt() time.Time          { return time.Time{} }
func (nonSetterEvent) Metadata() domain.EventMetadata { return domain.EventMetadata{} }

func TestApplyEventMetadata(t *testing.T) {
	event := &testEvent{BaseEvent: domain.NewBaseEvent(uuid.New(), "test", "test.created", time.Now())}
	md := domain.EventMetadata{CorrelationID: "c", CausationID: "x", Actor: "someone"}

	ApplyEventMetadata([]domain.DomainEvent{event, nonSetterEvent{}}, md)

	assert.Equal(t, md, event.Metadata())

	require.NotPanics(t, func() {
		ApplyEventMetadata(nil, md)
	})
}
