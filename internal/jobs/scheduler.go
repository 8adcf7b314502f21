// Package jobs runs periodic maintenance on cron schedules.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/felixgeelhaar/spabook/pkg/observability"
)

// ErrUnknownJob is returned by RunNow for a name that was never added.
var ErrUnknownJob = errors.New("unknown job")

// Job is a named unit of periodic work.
type Job struct {
	Name     string
	Schedule string
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs jobs on their cron schedules. Overlapping runs of the same
// job are skipped and panics are recovered.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	metrics observability.Metrics
	ctx     context.Context
	cancel  context.CancelFunc

	mu   sync.Mutex
	jobs map[string]Job
}

// NewScheduler creates a scheduler whose schedules are evaluated in loc.
func NewScheduler(loc *time.Location, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		metrics: observability.NoopMetrics{},
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]Job),
	}
}

// WithMetrics records each run as operation "job.<name>".
func (s *Scheduler) WithMetrics(m observability.Metrics) *Scheduler {
	if m != nil {
		s.metrics = m
	}
	return s
}

// Add registers a job. An empty schedule disables it.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("job needs a name and a run func")
	}
	if job.Schedule == "" {
		s.logger.Info("job disabled", "job", job.Name)
		return nil
	}

	if _, err := s.cron.AddFunc(job.Schedule, func() { _ = s.run(s.ctx, job) }); err != nil {
		return fmt.Errorf("job %s: invalid schedule %q: %w", job.Name, job.Schedule, err)
	}

	s.mu.Lock()
	s.jobs[job.Name] = job
	s.mu.Unlock()

	s.logger.Info("job scheduled", "job", job.Name, "schedule", job.Schedule)
	return nil
}

// RunNow runs a registered job synchronously, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.run(ctx, job)
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	logger := s.logger.With("job", job.Name)
	return observability.TimeOperation(ctx, logger, s.metrics, "job."+job.Name, job.Run)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
