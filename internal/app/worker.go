package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/spabook/internal/jobs"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/spabook/pkg/config"
	"github.com/felixgeelhaar/spabook/pkg/observability"
	"github.com/go-chi/chi/v5"
)

const statsInterval = time.Minute

// Worker runs the background side of spabook: the outbox processor, the
// maintenance jobs, the broker consumer and a small health server.
type Worker struct {
	c         *Container
	scheduler *jobs.Scheduler
	consumer  eventbus.Consumer
}

// NewWorker prepares a worker on c. With RabbitMQ it also consumes the
// notification queue; in-process delivery happens inside the processor.
func NewWorker(c *Container) (*Worker, error) {
	scheduler, err := c.Scheduler()
	if err != nil {
		return nil, fmt.Errorf("schedule jobs: %w", err)
	}
	w := &Worker{c: c, scheduler: scheduler}

	if c.Config.EventBus == config.EventBusRabbitMQ {
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:    c.Config.RabbitMQURL,
			Logger: c.Logger,
		}, eventbus.NewConsumerRegistry(c.Logger).WithMetrics(c.Metrics))
		if err != nil {
			if !c.Config.IsDevelopment() {
				return nil, err
			}
			c.Logger.Warn("RabbitMQ consumer unavailable, notifications disabled", "error", err)
		} else {
			consumer.RegisterConsumer(c.Notifier)
			w.consumer = consumer
		}
	}
	return w, nil
}

// Run blocks until ctx is cancelled, then stops every component.
func (w *Worker) Run(ctx context.Context) error {
	logger := w.c.Logger

	if err := w.c.StartOutbox(ctx); err != nil {
		return err
	}
	w.scheduler.Start()
	logger.Info("job scheduler started", "jobs", w.scheduler.Len())

	if w.consumer != nil {
		go func() {
			if err := w.consumer.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("event consumer stopped", "error", err)
			}
		}()
	}

	var healthSrv *http.Server
	if addr := w.c.Config.WorkerHealthAddr; addr != "" {
		healthSrv = &http.Server{
			Addr:              addr,
			Handler:           w.HealthHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("health server starting", "addr", addr)
			if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server error", "error", err)
			}
		}()
	}

	go w.logStats(ctx)

	<-ctx.Done()
	logger.Info("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if healthSrv != nil {
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("health server shutdown error", "error", err)
		}
	}
	if err := w.scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("jobs still running at shutdown", "error", err)
	}
	if w.consumer != nil {
		_ = w.consumer.Close()
	}
	w.c.OutboxProcessor.Stop()
	logger.Info("worker stopped")
	return nil
}

// HealthHandler serves /healthz with outbox statistics and /readyz with
// the dependency checks.
func (w *Worker) HealthHandler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		stats := w.c.OutboxProcessor.GetStats()
		writeHealth(rw, http.StatusOK, map[string]any{
			"status":            "ok",
			"running":           stats.IsRunning,
			"published":         stats.PublishedCount,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"jobs":              w.scheduler.Len(),
			"last_processed_at": stats.LastProcessedAt,
			"last_error_at":     stats.LastErrorAt,
			"last_error":        stats.LastError,
		})
	})
	r.Get("/readyz", func(rw http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		health := w.c.Health.GetOverallHealth(ctx)
		status := http.StatusOK
		if health.Status == observability.HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeHealth(rw, status, health)
	})
	return r
}

func writeHealth(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (w *Worker) logStats(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := w.c.OutboxProcessor.GetStats()
			w.c.Logger.Info("outbox stats",
				"running", stats.IsRunning,
				"published", stats.PublishedCount,
				"failed", stats.FailedCount,
				"dead", stats.DeadCount,
				"lag_seconds", stats.LagSeconds,
				"oldest_message_at", stats.OldestMessageAt,
				"last_error", stats.LastError,
			)
		}
	}
}
