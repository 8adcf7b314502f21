package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultConsumerQueueName is the queue the notification worker drains.
const DefaultConsumerQueueName = "spabook.notifications"

// RabbitMQConsumerConfig configures the RabbitMQ consumer.
type RabbitMQConsumerConfig struct {
	URL       string
	QueueName string
	Exchange  string
	// Prefetch caps unacknowledged deliveries. Zero means 1.
	Prefetch int
	Logger   *slog.Logger
}

// RabbitMQConsumer drains a durable queue bound to the events exchange and
// dispatches each delivery through a ConsumerRegistry. The queue is bound
// to every registered pattern when Start runs.
type RabbitMQConsumer struct {
	cfg      RabbitMQConsumerConfig
	session  *amqpSession
	registry *ConsumerRegistry
	logger   *slog.Logger

	mu        sync.Mutex
	running   bool
	closeOnce sync.Once
	closed    chan struct{}
}

// NewRabbitMQConsumer dials the broker and declares the exchange and queue.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, registry *ConsumerRegistry) (*RabbitMQConsumer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.QueueName == "" {
		cfg.QueueName = DefaultConsumerQueueName
	}
	if cfg.Exchange == "" {
		cfg.Exchange = ExchangeName
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if registry == nil {
		registry = NewConsumerRegistry(cfg.Logger)
	}

	session, err := dialSession(cfg.URL, cfg.Exchange)
	if err != nil {
		return nil, err
	}
	// durable, not auto-deleted, shared between worker replicas
	if _, err := session.channel.QueueDeclare(cfg.QueueName, true, false, false, false, nil); err != nil {
		_ = session.close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.QueueName, err)
	}

	cfg.Logger.Info("RabbitMQ consumer connected", "queue", cfg.QueueName, "exchange", cfg.Exchange)
	return &RabbitMQConsumer{
		cfg:      cfg,
		session:  session,
		registry: registry,
		logger:   cfg.Logger,
		closed:   make(chan struct{}),
	}, nil
}

// RegisterConsumer adds a consumer. Call it before Start.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)
}

// Start binds the queue and consumes until ctx is cancelled or Close is
// called.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	deliveries, err := c.subscribe()
	if err != nil {
		return err
	}
	c.logger.Info("started consuming events", "queue", c.cfg.QueueName, "patterns", c.registry.Patterns())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.settle(msg, c.handle(ctx, msg))
		}
	}
}

func (c *RabbitMQConsumer) subscribe() (<-chan amqp.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, pattern := range c.registry.Patterns() {
		if err := c.session.channel.QueueBind(c.cfg.QueueName, pattern, c.cfg.Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", pattern, err)
		}
	}
	if err := c.session.channel.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}
	deliveries, err := c.session.channel.Consume(c.cfg.QueueName, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}
	return deliveries, nil
}

func (c *RabbitMQConsumer) handle(ctx context.Context, msg amqp.Delivery) error {
	event, err := DecodeEvent(msg.RoutingKey, msg.Body)
	if err != nil {
		return err
	}
	start := time.Now()
	if err := c.registry.Dispatch(ctx, event); err != nil {
		return err
	}
	c.logger.Debug("event processed",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Settlement is what happens to a delivery after handling.
type Settlement int

const (
	Ack Settlement = iota
	Requeue
	Drop
)

// SettlementFor picks the settlement for a handling result. Malformed
// envelopes are never requeued; other failures get one redelivery.
func SettlementFor(err error, redelivered bool) Settlement {
	switch {
	case err == nil:
		return Ack
	case errors.Is(err, ErrMalformedEvent), redelivered:
		return Drop
	default:
		return Requeue
	}
}

func (c *RabbitMQConsumer) settle(msg amqp.Delivery, err error) {
	var settleErr error
	switch SettlementFor(err, msg.Redelivered) {
	case Ack:
		settleErr = msg.Ack(false)
	case Requeue:
		c.logger.Warn("event handling failed, requeueing", "routing_key", msg.RoutingKey, "error", err)
		settleErr = msg.Nack(false, true)
	case Drop:
		c.logger.Error("event handling failed, dropping", "routing_key", msg.RoutingKey, "error", err)
		settleErr = msg.Nack(false, false)
	}
	if settleErr != nil {
		c.logger.Error("failed to settle delivery", "routing_key", msg.RoutingKey, "error", settleErr)
	}
}

// Close stops Start and releases the connection. It is safe to call twice.
func (c *RabbitMQConsumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.running = false
		err = c.session.close()
		c.logger.Info("RabbitMQ consumer closed")
	})
	return err
}
