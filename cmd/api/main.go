package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lorrc/ticket-reports/internal/app"
	"github.com/lorrc/ticket-reports/internal/config"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Data Sources & Services
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// 4. Initialize Filter Store, Real-time Hub & Router
	srv, err := app.NewServer(ctx, a)
	if err != nil {
		logger.Error("failed to initialize server", "error", err)
		a.Close()
		os.Exit(1)
	}
	defer srv.Close()

	// 5. Serve until SIGINT/SIGTERM
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", "error", err)
		srv.Close()
		a.Close()
		os.Exit(1)
	}
}
