package app

import (
	"context"
	"time"

	"github.com/felixgeelhaar/spabook/adapter/api"
	"github.com/felixgeelhaar/spabook/adapter/cli"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/spabook/pkg/observability"
)

// CLIApp exposes the container to the command line.
func (c *Container) CLIApp() *cli.App {
	a := &cli.App{
		Location: c.Location,

		ListServices:   c.ListServicesHandler,
		AvailableSlots: c.AvailableSlotsHandler,

		BlockDay:     c.BlockDayHandler,
		UnblockDay:   c.UnblockDayHandler,
		BlockHours:   c.BlockHoursHandler,
		UnblockHours: c.UnblockHoursHandler,
		BlockedDays:  c.ListBlockedDaysHandler,
		BlockedHours: c.BlockedHoursHandler,

		CreateBooking: c.CreateBookingHandler,
		ChangeStatus:  c.ChangeStatusHandler,
		GetBooking:    c.GetBookingHandler,
		ListBookings:  c.ListBookingsHandler,
		ListCredits:   c.ListCreditsHandler,

		Serve: c.Serve,
		Work: func(ctx context.Context) error {
			w, err := NewWorker(c)
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
		Migrate: func(ctx context.Context) (int, error) {
			return migrations.Run(ctx, c.DBConn, c.Logger)
		},
		Health: func(ctx context.Context) observability.OverallHealth {
			return c.Health.GetOverallHealth(ctx)
		},
	}

	if tokens := api.NewTokenManager(c.Config.JWTSecret, api.TokenIssuer); tokens != nil {
		a.IssueToken = func(subject string, ttl time.Duration) (string, error) {
			return tokens.Issue(subject, api.RoleAdmin, ttl)
		}
	}
	return a
}
