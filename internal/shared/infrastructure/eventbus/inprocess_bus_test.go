package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/eventbus"
)

func TestInProcessEventBus_PublishDecodesEnvelope(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	consumer := &recordingConsumer{eventTypes: []string{"booking.created"}}
	bus.RegisterConsumer(consumer)

	event := bookingEvent("booking.created")
	event.Metadata.CorrelationID = "corr-9"
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), "booking.created", payload))

	got := consumer.received()
	require.Len(t, got, 1)
	assert.Equal(t, event.EventID, got[0].EventID)
	assert.Equal(t, "corr-9", got[0].Metadata.CorrelationID)
	assert.JSONEq(t, `{"code":"SPA-2025-ABC123"}`, string(got[0].Payload))
}

func TestInProcessEventBus_RoutingKeyFallback(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	consumer := &recordingConsumer{eventTypes: []string{"credit.issued"}}
	bus.RegisterConsumer(consumer)

	payload, err := json.Marshal(map[string]any{"event_id": uuid.New()})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), "credit.issued", payload))

	require.Len(t, consumer.received(), 1)
	assert.Equal(t, "credit.issued", consumer.received()[0].RoutingKey)
}

func TestInProcessEventBus_ReturnsFailures(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	bus.RegisterConsumer(&recordingConsumer{
		eventTypes: []string{"booking.created"},
		err:        errors.New("boom"),
	})

	err := bus.Publish(context.Background(), "booking.created", []byte("not json"))
	assert.ErrorIs(t, err, eventbus.ErrMalformedEvent)

	payload, err := json.Marshal(bookingEvent("booking.created"))
	require.NoError(t, err)
	assert.EqualError(t, bus.Publish(context.Background(), "booking.created", payload), "boom")
	assert.NoError(t, bus.Close())
}

func TestInProcessEventBus_UnroutedEventIsAccepted(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)

	payload, err := json.Marshal(bookingEvent("calendar.day.blocked"))
	require.NoError(t, err)
	assert.NoError(t, bus.Publish(context.Background(), "calendar.day.blocked", payload))
}
