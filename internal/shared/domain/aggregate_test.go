package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type testAggregate struct {
	domain.BaseAggregateRoot
}

type testAggregateEvent struct {
	domain.BaseEvent
}

func newTestAggregateEvent(aggregateID uuid.UUID) testAggregateEvent {
	return testAggregateEvent{
		BaseEvent: domain.NewBaseEvent(aggregateID, "TestAggregate", "test.aggregate.created", time.Now()),
	}
}

func TestNewBaseAggregateRoot(t *testing.T) {
	agg := domain.NewBaseAggregateRoot(time.Now())

	assert.NotEqual(t, uuid.Nil, agg.ID())
	assert.Equal(t, 0, agg.Version())
	assert.Empty(t, agg.DomainEvents())
}

func TestBaseAggregateRoot_PullDomainEvents(t *testing.T) {
	agg := &testAggregate{BaseAggregateRoot: domain.NewBaseAggregateRoot(time.Now())}
	agg.AddDomainEvent(newTestAggregateEvent(agg.ID()))
	agg.AddDomainEvent(newTestAggregateEvent(agg.ID()))

	events := agg.PullDomainEvents()

	assert.Len(t, events, 2)
	assert.Empty(t, agg.DomainEvents())
}

func TestBaseAggregateRoot_ClearDomainEvents(t *testing.T) {
	agg := &testAggregate{BaseAggregateRoot: domain.NewBaseAggregateRoot(time.Now())}
	agg.AddDomainEvent(newTestAggregateEvent(agg.ID()))

	agg.ClearDomainEvents()

	assert.Empty(t, agg.DomainEvents())
}

func TestRehydrateBaseAggregateRoot(t *testing.T) {
	id := uuid.New()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	agg := domain.RehydrateBaseAggregateRoot(id, created, created.Add(time.Hour), 3)
	assert.Equal(t, id, agg.ID())
	assert.Equal(t, 3, agg.Version())

	agg.IncrementVersion()
	assert.Equal(t, 4, agg.Version())
}
