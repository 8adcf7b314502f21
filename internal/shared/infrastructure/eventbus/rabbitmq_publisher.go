package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQPublisher publishes envelopes to the topic exchange as
// persistent messages keyed by routing key.
type RabbitMQPublisher struct {
	session  *amqpSession
	exchange string
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewRabbitMQPublisher dials url and declares the exchange. An empty
// exchange selects ExchangeName.
func NewRabbitMQPublisher(url, exchange string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if exchange == "" {
		exchange = ExchangeName
	}
	session, err := dialSession(url, exchange)
	if err != nil {
		return nil, err
	}
	logger.Info("RabbitMQ publisher connected", "exchange", exchange)
	return &RabbitMQPublisher{session: session, exchange: exchange, logger: logger}, nil
}

// Publish sends one message. Channels are not safe for concurrent
// publishing, so calls are serialized.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		AppId:        "spabook",
		Body:         payload,
	}

	p.mu.Lock()
	err := p.session.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	p.logger.Debug("message published", "routing_key", routingKey, "size", len(payload))
	return nil
}

// Healthy reports whether the broker connection is still open.
func (p *RabbitMQPublisher) Healthy(context.Context) error {
	return p.session.healthy()
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.close()
}

// NoopPublisher accepts and discards every message. It stands in for a
// broker that was unreachable at startup in development.
type NoopPublisher struct {
	logger *slog.Logger
}

func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) Publish(_ context.Context, routingKey string, payload []byte) error {
	p.logger.Debug("noop publish", "routing_key", routingKey, "size", len(payload))
	return nil
}

func (p *NoopPublisher) Close() error { return nil }
