package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/spabook/pkg/observability"
)

const defaultPublishTimeout = 10 * time.Second

// ProcessorConfig holds configuration for the outbox processor.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration

	// PublishTimeout bounds a single broker call. Zero means 10s.
	PublishTimeout time.Duration
}

// DefaultProcessorConfig returns sensible defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     100 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		PublishTimeout:   defaultPublishTimeout,
	}
}

// Processor relays committed outbox rows to the event publisher. Rows are
// marked published only after the publisher accepted them, so delivery is
// at least once. Failed rows are retried with exponential backoff and dead
// lettered after MaxRetries attempts.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	metrics   observability.Metrics
	wake      chan struct{}

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	published atomic.Uint64
	failed    atomic.Uint64
	dead      atomic.Uint64

	statsMu sync.Mutex
	stats   Stats
}

// NewProcessor creates a new outbox processor.
func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = defaultPublishTimeout
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger,
		metrics:   observability.NoopMetrics{},
		wake:      make(chan struct{}, 1),
	}
}

// WithMetrics records one MetricEventsPublished sample per delivery attempt.
func (p *Processor) WithMetrics(m observability.Metrics) *Processor {
	if m != nil {
		p.metrics = m
	}
	return p
}

// Notify asks the processor to poll now. It never blocks.
func (p *Processor) Notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Start launches the polling loop. Starting a running processor is a no-op.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	p.running = true
	p.stopChan = make(chan struct{})

	p.wg.Add(1)
	go p.loop(ctx, p.stopChan)

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
		"max_retries", p.config.MaxRetries,
	)
	return nil
}

// Stop ends the loop and waits for the batch in flight.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopChan)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("outbox processor stopped")
}

// IsRunning returns true if the processor is running.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// ProcessOnce relays a single batch synchronously.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	return p.processBatch(ctx)
}

func (p *Processor) loop(ctx context.Context, stop <-chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
		case <-p.wake:
		}
		if err := p.processBatch(ctx); err != nil {
			p.logger.Error("failed to process outbox batch", "error", err)
		}
	}
}

func (p *Processor) processBatch(ctx context.Context) error {
	messages, err := p.repo.GetUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		p.noteError(err)
		return err
	}
	p.noteBatch(messages)

	for _, msg := range messages {
		if ctx.Err() != nil {
			return nil
		}
		p.deliver(ctx, msg)
	}
	return nil
}

func (p *Processor) deliver(ctx context.Context, msg *Message) {
	start := time.Now()
	err := p.publish(ctx, msg)
	p.metrics.Timing(observability.MetricEventsPublished, time.Since(start),
		observability.T("routing_key", msg.RoutingKey),
		observability.T("outcome", outcomeOf(err)),
	)

	if err != nil {
		p.settleFailure(ctx, msg, err)
		return
	}
	if err := p.repo.MarkPublished(ctx, msg.ID); err != nil {
		// The row is picked up again; consumers dedupe on event_id.
		p.logger.Error("failed to mark message as published",
			"id", msg.ID,
			"event_id", msg.EventID,
			"error", err,
		)
		return
	}
	p.published.Add(1)
}

func (p *Processor) publish(ctx context.Context, msg *Message) error {
	envelope, err := msg.Envelope()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.config.PublishTimeout)
	defer cancel()
	return p.publisher.Publish(ctx, msg.RoutingKey, envelope)
}

func (p *Processor) settleFailure(ctx context.Context, msg *Message, cause error) {
	meta := metadataOf(msg)
	p.logger.Warn("failed to publish message",
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"event_id", msg.EventID,
		"attempt", msg.RetryCount+1,
		"correlation_id", meta.CorrelationID,
		"actor", meta.Actor,
		"error", cause,
	)
	p.noteError(cause)

	reason := cause.Error()
	if p.exhausted(msg) {
		p.dead.Add(1)
		if err := p.repo.MarkDead(ctx, msg.ID, reason); err != nil {
			p.logger.Error("failed to dead-letter message", "id", msg.ID, "error", err)
		}
		return
	}

	p.failed.Add(1)
	next := time.Now().Add(Backoff(msg.RetryCount+1, p.config.RetryBackoffBase, p.config.RetryBackoffMax))
	if err := p.repo.MarkFailed(ctx, msg.ID, reason, next); err != nil {
		p.logger.Error("failed to schedule message retry", "id", msg.ID, "error", err)
	}
}

func (p *Processor) exhausted(msg *Message) bool {
	return p.config.MaxRetries <= 0 || msg.RetryCount+1 >= p.config.MaxRetries
}

// Backoff returns the wait before the given attempt: base doubled per prior
// attempt, capped at max. Non-positive inputs fall back to 1s and 1m.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if max <= 0 {
		max = time.Minute
	}
	wait := base
	for i := 1; i < attempt && wait < max; i++ {
		wait *= 2
	}
	if wait > max {
		return max
	}
	return wait
}

func metadataOf(msg *Message) domain.EventMetadata {
	var metadata domain.EventMetadata
	if len(msg.Metadata) > 0 {
		_ = json.Unmarshal(msg.Metadata, &metadata)
	}
	return metadata
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Stats is a point-in-time view of the processor.
type Stats struct {
	IsRunning       bool
	PublishedCount  uint64
	FailedCount     uint64
	DeadCount       uint64
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
	OldestMessageAt *time.Time
}

// GetStats returns current processor statistics.
func (p *Processor) GetStats() Stats {
	p.statsMu.Lock()
	s := p.stats
	p.statsMu.Unlock()

	s.IsRunning = p.IsRunning()
	s.PublishedCount = p.published.Load()
	s.FailedCount = p.failed.Load()
	s.DeadCount = p.dead.Load()
	return s
}

func (p *Processor) noteError(err error) {
	now := time.Now()
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.stats.LastError = err.Error()
	p.stats.LastErrorAt = &now
}

// noteBatch tracks lag as the age of the oldest due row.
func (p *Processor) noteBatch(messages []*Message) {
	now := time.Now()
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.stats.LastProcessedAt = &now
	if len(messages) == 0 {
		p.stats.LagSeconds = 0
		p.stats.OldestMessageAt = nil
		return
	}

	oldest := messages[0].CreatedAt
	for _, msg := range messages[1:] {
		if msg.CreatedAt.Before(oldest) {
			oldest = msg.CreatedAt
		}
	}
	p.stats.OldestMessageAt = &oldest
	p.stats.LagSeconds = now.Sub(oldest).Seconds()
}
