package app

import (
	"context"
	"time"

	"github.com/felixgeelhaar/spabook/adapter/api"
)

// APIHandlers exposes the container's use cases to the HTTP adapter.
func (c *Container) APIHandlers() api.Handlers {
	return api.Handlers{
		AvailableSlots: c.AvailableSlotsHandler,
		ListServices:   c.ListServicesHandler,

		BlockedDays:  c.ListBlockedDaysHandler,
		BlockedHours: c.BlockedHoursHandler,
		BlockDay:     c.BlockDayHandler,
		UnblockDay:   c.UnblockDayHandler,
		BlockHours:   c.BlockHoursHandler,
		UnblockHours: c.UnblockHoursHandler,

		CreateBooking: c.CreateBookingHandler,
		ChangeStatus:  c.ChangeStatusHandler,
		GetBooking:    c.GetBookingHandler,
		ListBookings:  c.ListBookingsHandler,
		ListCredits:   c.ListCreditsHandler,
	}
}

// BookingLimiter picks the booking rate limiter. With Redis the budget is
// shared by every instance as a per-minute window; otherwise each process
// keeps its own token buckets. A non-positive rate disables limiting.
func (c *Container) BookingLimiter() api.Limiter {
	rate := c.Config.BookingRateLimit
	if rate <= 0 {
		return nil
	}
	if c.RedisClient != nil {
		limit := int(rate * 60)
		if limit < c.Config.BookingRateBurst {
			limit = c.Config.BookingRateBurst
		}
		return api.NewRedisRateLimiter(c.RedisClient, limit, time.Minute)
	}
	return api.NewIPRateLimiter(rate, c.Config.BookingRateBurst)
}

// APIServer builds the HTTP server on the container's dependencies.
func (c *Container) APIServer() *api.Server {
	cfg := api.DefaultServerConfig()
	cfg.Addr = c.Config.HTTPAddr
	cfg.Location = c.Location
	cfg.AdminAPIKey = c.Config.AdminAPIKey

	return api.NewServer(cfg, c.APIHandlers(), api.Dependencies{
		Tokens:         api.NewTokenManager(c.Config.JWTSecret, api.TokenIssuer),
		BookingLimiter: c.BookingLimiter(),
		Health:         c.Health,
		Metrics:        c.Metrics,
	}, c.Logger)
}

// Serve runs the API until ctx is cancelled. The embedded outbox processor
// is started only when OUTBOX_PROCESSOR_ENABLED is set; deployments that
// run the worker binary leave it off.
func (c *Container) Serve(ctx context.Context) error {
	if c.Config.OutboxProcessorEnabled {
		if err := c.StartOutbox(ctx); err != nil {
			return err
		}
	} else {
		c.Logger.Info("outbox processor disabled in API process")
	}

	server := c.APIServer()
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	c.OutboxProcessor.Stop()
	return nil
}
