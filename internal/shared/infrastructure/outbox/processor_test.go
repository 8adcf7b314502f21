package outbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/spabook/pkg/observability"
)

// memoryRepository is an in-memory outbox.Repository.
type memoryRepository struct {
	mu           sync.Mutex
	messages     []*outbox.Message
	publishedIDs []int64
	failedIDs    []int64
	deadIDs      []int64
}

func (r *memoryRepository) Save(ctx context.Context, msg *outbox.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = int64(len(r.messages) + 1)
	r.messages = append(r.messages, msg)
	return nil
}

func (r *memoryRepository) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	for _, msg := range msgs {
		if err := r.Save(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (r *memoryRepository) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []*outbox.Message
	now := time.Now()
	for _, msg := range r.messages {
		if msg.PublishedAt != nil || msg.DeadLetteredAt != nil {
			continue
		}
		if msg.NextRetryAt != nil && msg.NextRetryAt.After(now) {
			continue
		}
		due = append(due, msg)
		if len(due) >= limit {
			break
		}
	}
	return due, nil
}

func (r *memoryRepository) MarkPublished(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishedIDs = append(r.publishedIDs, id)
	now := time.Now()
	r.messages[id-1].PublishedAt = &now
	return nil
}

func (r *memoryRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedIDs = append(r.failedIDs, id)
	msg := r.messages[id-1]
	msg.RetryCount++
	msg.LastError = &errMsg
	msg.NextRetryAt = &nextRetryAt
	return nil
}

func (r *memoryRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deadIDs = append(r.deadIDs, id)
	now := time.Now()
	r.messages[id-1].DeadLetteredAt = &now
	r.messages[id-1].DeadLetterReason = &reason
	return nil
}

func (r *memoryRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	return 0, nil
}

type capturePublisher struct {
	mu          sync.Mutex
	payloads    map[string][][]byte
	failForKeys map[string]bool
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{payloads: map[string][][]byte{}, failForKeys: map[string]bool{}}
}

func (p *capturePublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failForKeys[routingKey] {
		return errors.New("broker unreachable")
	}
	p.payloads[routingKey] = append(p.payloads[routingKey], payload)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, v := range p.payloads {
		n += len(v)
	}
	return n
}

func bookingMessage(routingKey string) *outbox.Message {
	return &outbox.Message{
		EventID:       uuid.New(),
		AggregateType: "Booking",
		AggregateID:   uuid.New(),
		RoutingKey:    routingKey,
		Payload:       json.RawMessage(`{"code":"SPA-2025-K7Q2ZP"}`),
		Metadata:      json.RawMessage(`{"correlation_id":"corr-1"}`),
		CreatedAt:     time.Now(),
	}
}

func TestProcessor_PublishesEnvelopes(t *testing.T) {
	repo := &memoryRepository{}
	publisher := newCapturePublisher()
	processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil)

	msg := bookingMessage("booking.created")
	require.NoError(t, repo.Save(context.Background(), msg))
	require.NoError(t, repo.Save(context.Background(), bookingMessage("credit.issued")))

	require.NoError(t, processor.ProcessOnce(context.Background()))

	assert.Equal(t, 2, publisher.count())
	assert.Equal(t, []int64{1, 2}, repo.publishedIDs)

	var envelope eventbus.ConsumedEvent
	require.NoError(t, json.Unmarshal(publisher.payloads["booking.created"][0], &envelope))
	assert.Equal(t, msg.EventID, envelope.EventID)
	assert.Equal(t, "corr-1", envelope.Metadata.CorrelationID)
	assert.JSONEq(t, `{"code":"SPA-2025-K7Q2ZP"}`, string(envelope.Payload))

	stats := processor.GetStats()
	assert.Equal(t, uint64(2), stats.PublishedCount)
	assert.NotNil(t, stats.LastProcessedAt)
}

func TestProcessor_FailureSchedulesRetry(t *testing.T) {
	repo := &memoryRepository{}
	publisher := newCapturePublisher()
	publisher.failForKeys["booking.cancelled"] = true
	processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil)

	require.NoError(t, repo.Save(context.Background(), bookingMessage("booking.created")))
	require.NoError(t, repo.Save(context.Background(), bookingMessage("booking.cancelled")))

	before := time.Now()
	require.NoError(t, processor.ProcessOnce(context.Background()))

	assert.Equal(t, []int64{1}, repo.publishedIDs)
	assert.Equal(t, []int64{2}, repo.failedIDs)
	failed := repo.messages[1]
	require.NotNil(t, failed.NextRetryAt)
	assert.True(t, failed.NextRetryAt.After(before))
	assert.Equal(t, "broker unreachable", *failed.LastError)

	stats := processor.GetStats()
	assert.Equal(t, uint64(1), stats.FailedCount)
	assert.Equal(t, "broker unreachable", stats.LastError)
}

func TestProcessor_DeadLettersAfterMaxRetries(t *testing.T) {
	repo := &memoryRepository{}
	publisher := newCapturePublisher()
	publisher.failForKeys["booking.created"] = true
	cfg := outbox.DefaultProcessorConfig()
	cfg.MaxRetries = 1
	processor := outbox.NewProcessor(repo, publisher, cfg, nil)

	require.NoError(t, repo.Save(context.Background(), bookingMessage("booking.created")))
	require.NoError(t, processor.ProcessOnce(context.Background()))

	assert.Empty(t, repo.failedIDs)
	assert.Equal(t, []int64{1}, repo.deadIDs)
	assert.Equal(t, uint64(1), processor.GetStats().DeadCount)
}

func TestProcessor_NotifyWakesBeforePollInterval(t *testing.T) {
	repo := &memoryRepository{}
	publisher := newCapturePublisher()
	cfg := outbox.DefaultProcessorConfig()
	cfg.PollInterval = time.Hour
	processor := outbox.NewProcessor(repo, publisher, cfg, nil)

	require.NoError(t, processor.Start(context.Background()))
	defer processor.Stop()

	require.NoError(t, repo.Save(context.Background(), bookingMessage("booking.created")))
	processor.Notify()
	processor.Notify()

	assert.Eventually(t, func() bool { return publisher.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestProcessor_StartStopIsIdempotent(t *testing.T) {
	processor := outbox.NewProcessor(&memoryRepository{}, newCapturePublisher(), outbox.DefaultProcessorConfig(), nil)

	require.NoError(t, processor.Start(context.Background()))
	require.NoError(t, processor.Start(context.Background()))
	assert.True(t, processor.GetStats().IsRunning)

	processor.Stop()
	processor.Stop()
	assert.False(t, processor.IsRunning())
}

func TestBackoff(t *testing.T) {
	base, max := time.Second, 10*time.Second

	assert.Equal(t, time.Second, outbox.Backoff(1, base, max))
	assert.Equal(t, 2*time.Second, outbox.Backoff(2, base, max))
	assert.Equal(t, 8*time.Second, outbox.Backoff(4, base, max))
	assert.Equal(t, max, outbox.Backoff(5, base, max))
	assert.Equal(t, max, outbox.Backoff(500, base, max))
	assert.Equal(t, time.Second, outbox.Backoff(0, 0, 0))
	assert.Equal(t, time.Minute, outbox.Backoff(1, 2*time.Minute, 0))
}

func TestProcessor_RecordsPublishMetrics(t *testing.T) {
	repo := &memoryRepository{}
	publisher := newCapturePublisher()
	publisher.failForKeys["booking.cancelled"] = true
	metrics := observability.NewInMemoryMetrics()
	processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil).WithMetrics(metrics)

	require.NoError(t, repo.Save(context.Background(), bookingMessage("booking.created")))
	require.NoError(t, repo.Save(context.Background(), bookingMessage("booking.cancelled")))
	require.NoError(t, processor.ProcessOnce(context.Background()))

	assert.Len(t, metrics.GetHistogram(observability.MetricEventsPublished,
		observability.T("routing_key", "booking.created"), observability.T("outcome", "ok")), 1)
	assert.Len(t, metrics.GetHistogram(observability.MetricEventsPublished,
		observability.T("routing_key", "booking.cancelled"), observability.T("outcome", "error")), 1)
}
