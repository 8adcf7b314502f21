package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/spabook/adapter/cli"
	"github.com/felixgeelhaar/spabook/adapter/cli/availability"
	"github.com/felixgeelhaar/spabook/adapter/cli/booking"
	"github.com/felixgeelhaar/spabook/adapter/cli/calendar"
	"github.com/felixgeelhaar/spabook/adapter/cli/catalog"
	"github.com/felixgeelhaar/spabook/internal/app"
	"github.com/felixgeelhaar/spabook/pkg/config"
	"github.com/felixgeelhaar/spabook/pkg/observability"
)

func main() {
	// Create context cancelled on shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.LoggerFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat, cli.Version)
	slog.SetDefault(logger)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		// version and help still work without a database in development
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()
		cli.SetApp(container.CLIApp())
	}

	cli.AddCommand(catalog.Cmd)
	cli.AddCommand(availability.Cmd)
	cli.AddCommand(calendar.Cmd)
	cli.AddCommand(booking.Cmd)

	cli.Execute(ctx)
}
