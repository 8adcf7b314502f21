package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// KafkaPublisher writes each event to the topic named by its routing key,
// keyed by aggregate id so one aggregate's events stay ordered.
type KafkaPublisher struct {
	writer  *kafka.Writer
	brokers []string
	logger  *slog.Logger
}

// NewKafkaPublisher creates a publisher for brokers.
func NewKafkaPublisher(brokers []string, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	if logger == nil {
		logger = slog.Default()
	}

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Balancer: &kafka.Hash{},
	})
	writer.AllowAutoTopicCreation = true

	logger.Info("Kafka publisher configured", "brokers", brokers)

	return &KafkaPublisher{writer: writer, brokers: brokers, logger: logger}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	msg := kafkaMessage(ctx, routingKey, payload)
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to write kafka message",
			"topic", routingKey,
			"error", err,
		)
		return err
	}
	return nil
}

func kafkaMessage(ctx context.Context, routingKey string, payload []byte) kafka.Message {
	var ids struct {
		EventID     string `json:"event_id"`
		AggregateID string `json:"aggregate_id"`
	}
	_ = json.Unmarshal(payload, &ids)

	msg := kafka.Message{
		Topic: routingKey,
		Key:   []byte(ids.AggregateID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(ids.EventID)},
			{Key: "event_type", Value: []byte(routingKey)},
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	carrier := &headerCarrier{headers: msg.Headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	msg.Headers = carrier.headers
	return msg
}

// Healthy dials the first broker.
func (p *KafkaPublisher) Healthy(ctx context.Context) error {
	dialer := kafka.Dialer{Timeout: 2 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka broker %s: %w", p.brokers[0], err)
	}
	return conn.Close()
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// HeaderValue returns the first header named key.
func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

type headerCarrier struct {
	headers []kafka.Header
}

var _ propagation.TextMapCarrier = (*headerCarrier)(nil)

func (c *headerCarrier) Get(key string) string {
	return HeaderValue(c.headers, key)
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func (c *headerCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}
