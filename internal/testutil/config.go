package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/spabook/pkg/config"
)

// Config returns a test configuration on a fresh SQLite file
// with the in-process bus, open 09:00-20:00 on hourly slots.
func Config(t testing.TB) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:                "test",
		Timezone:              "America/Lima",
		DatabaseDriver:        "sqlite",
		SQLitePath:            filepath.Join(t.TempDir(), "spabook.db"),
		EventBus:              config.EventBusInProcess,
		BusinessOpen:          9 * 60,
		BusinessClose:         20 * 60,
		SlotStep:              time.Hour,
		LeadTime:              30 * time.Minute,
		BookingAutoConfirm:    true,
		BookingPendingTTL:     30 * time.Minute,
		CreditValidityMonths:  6,
		AvailabilityCacheTTL:  time.Minute,
		OutboxPollInterval:    time.Second,
		OutboxBatchSize:       10,
		OutboxMaxRetries:      3,
		OutboxRetentionDays:   14,
		OutboxCleanupSchedule: "@daily",
		SweeperSchedule:       "@every 1m",
	}
}
