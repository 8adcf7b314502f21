package jobs

import (
	"context"
	"log/slog"
	"time"
)

// Job names.
const (
	PendingSweeperJob = "pending-sweeper"
	OutboxCleanupJob  = "outbox-cleanup"
)

// PendingExpirer cancels pending bookings whose hold has lapsed.
type PendingExpirer interface {
	Run(ctx context.Context) (int, error)
}

// OutboxCleaner deletes published outbox rows older than a retention window.
type OutboxCleaner interface {
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)
}

// PendingSweeper builds the job that expires lapsed pending bookings.
func PendingSweeper(schedule string, expirer PendingExpirer, logger *slog.Logger) Job {
	if logger == nil {
		logger = slog.Default()
	}
	return Job{
		Name:     PendingSweeperJob,
		Schedule: schedule,
		Timeout:  30 * time.Second,
		Run: func(ctx context.Context) error {
			n, err := expirer.Run(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("expired pending bookings", "count", n)
			}
			return nil
		},
	}
}

// OutboxCleanup builds the job that prunes delivered outbox messages.
func OutboxCleanup(schedule string, retentionDays int, cleaner OutboxCleaner, logger *slog.Logger) Job {
	if logger == nil {
		logger = slog.Default()
	}
	if retentionDays <= 0 {
		retentionDays = 14
	}
	return Job{
		Name:     OutboxCleanupJob,
		Schedule: schedule,
		Timeout:  5 * time.Minute,
		Run: func(ctx context.Context) error {
			n, err := cleaner.DeleteOld(ctx, retentionDays)
			if err != nil {
				return err
			}
			logger.Info("outbox cleanup", "deleted", n, "retention_days", retentionDays)
			return nil
		},
	}
}
