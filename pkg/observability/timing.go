package observability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Timer tracks the duration of an operation and records it as a span,
// a log line and metrics.
type Timer struct {
	operation string
	start     time.Time
	logger    *slog.Logger
	metrics   Metrics
	tags      []Tag
	span      trace.Span
}

// StartTimer creates a timer without a span.
func StartTimer(operation string) *Timer {
	return &Timer{
		operation: operation,
		start:     time.Now(),
	}
}

// StartTracedTimer creates a timer that also opens a span.
func StartTracedTimer(ctx context.Context, operation string) (context.Context, *Timer) {
	ctx, span := StartSpan(ctx, operation)
	t := StartTimer(operation)
	t.span = span
	return ctx, t
}

func (t *Timer) WithLogger(logger *slog.Logger) *Timer {
	t.logger = logger
	return t
}

func (t *Timer) WithMetrics(metrics Metrics) *Timer {
	t.metrics = metrics
	return t
}

func (t *Timer) WithTags(tags ...Tag) *Timer {
	t.tags = append(t.tags, tags...)
	return t
}

// Stop records a successful completion.
func (t *Timer) Stop() time.Duration {
	return t.StopWithError(nil)
}

// StopWithError records the duration, marking the operation failed when err is non-nil.
func (t *Timer) StopWithError(err error) time.Duration {
	duration := time.Since(t.start)

	if t.span != nil {
		EndSpan(t.span, err)
	}

	if t.logger != nil {
		if err != nil {
			t.logger.Error("operation failed",
				"operation", t.operation,
				DurationKey, duration.Milliseconds(),
				ErrorKey, err.Error(),
			)
		} else {
			t.logger.Debug("operation completed",
				"operation", t.operation,
				DurationKey, duration.Milliseconds(),
			)
		}
	}

	if t.metrics != nil {
		tags := append(append([]Tag(nil), t.tags...), T("operation", t.operation))
		t.metrics.Timing(MetricOperationDuration, duration, tags...)
		t.metrics.Counter(MetricOperationTotal, 1, tags...)
		if err != nil {
			t.metrics.Counter(MetricOperationErrors, 1, tags...)
		}
	}

	return duration
}

func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// TimeOperation runs fn inside a traced timer.
func TimeOperation(ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func(ctx context.Context) error) error {
	ctx, timer := StartTracedTimer(ctx, operation)
	timer.WithLogger(logger).WithMetrics(metrics)

	err := fn(ctx)
	timer.StopWithError(err)
	return err
}

// TimeOperationResult is TimeOperation for functions returning a value.
func TimeOperationResult[R any](ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func(ctx context.Context) (R, error)) (R, error) {
	ctx, timer := StartTracedTimer(ctx, operation)
	timer.WithLogger(logger).WithMetrics(metrics)

	result, err := fn(ctx)
	timer.StopWithError(err)
	return result, err
}
