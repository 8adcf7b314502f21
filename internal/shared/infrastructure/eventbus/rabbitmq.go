package eventbus

import (
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the topic exchange domain events are published to.
const ExchangeName = "spabook.events"

var errConnectionClosed = errors.New("rabbitmq connection closed")

// amqpSession is one connection with one channel, the unit both the
// publisher and the consumer hold.
type amqpSession struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// dialSession connects and declares the durable topic exchange.
func dialSession(url, exchange string) (*amqpSession, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	// durable, not auto-deleted, not internal
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &amqpSession{conn: conn, channel: ch}, nil
}

func (s *amqpSession) healthy() error {
	if s.conn.IsClosed() {
		return errConnectionClosed
	}
	return nil
}

// close shuts the channel and then the connection. A channel error is only
// reported when the connection closed cleanly.
func (s *amqpSession) close() error {
	chErr := s.channel.Close()
	if err := s.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	if chErr != nil && !errors.Is(chErr, amqp.ErrClosed) {
		return chErr
	}
	return nil
}
