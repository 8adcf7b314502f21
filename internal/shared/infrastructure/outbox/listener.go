package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// NotifyChannel is the PostgreSQL channel the outbox insert trigger signals.
const NotifyChannel = "outbox_messages"

// Listener wakes a Processor when PostgreSQL reports new outbox rows, so
// delivery latency does not depend on the poll interval.
type Listener struct {
	listener  *pq.Listener
	processor *Processor
	logger    *slog.Logger
}

// NewListener subscribes to NotifyChannel using a dedicated lib/pq connection.
func NewListener(dsn string, processor *Processor, logger *slog.Logger) (*Listener, error) {
	if logger == nil {
		logger = slog.Default()
	}

	l := pq.NewListener(dsn, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventDisconnected:
			logger.Warn("outbox listener disconnected", "error", err)
		case pq.ListenerEventReconnected:
			logger.Info("outbox listener reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			logger.Warn("outbox listener connection attempt failed", "error", err)
		}
	})
	if err := l.Listen(NotifyChannel); err != nil {
		_ = l.Close()
		return nil, err
	}

	return &Listener{listener: l, processor: processor, logger: logger}, nil
}

// Run forwards notifications until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) {
	keepalive := time.NewTicker(90 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-l.listener.Notify:
			// nil after a reconnect; rows may have been missed meanwhile.
			if n != nil {
				l.logger.Debug("outbox notification", "message_id", n.Extra)
			}
			l.processor.Notify()
		case <-keepalive.C:
			if err := l.listener.Ping(); err != nil {
				l.logger.Warn("outbox listener ping failed", "error", err)
			}
		}
	}
}

// Close releases the listener connection.
func (l *Listener) Close() error {
	return l.listener.Close()
}
