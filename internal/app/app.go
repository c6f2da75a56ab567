// Package app wires configuration, data sources and core services. Both the
// API server and reportctl start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/ticket-reports/internal/adapters/secondary/backend"
	"github.com/lorrc/ticket-reports/internal/adapters/secondary/postgres"
	"github.com/lorrc/ticket-reports/internal/config"
	apperrors "github.com/lorrc/ticket-reports/internal/core/errors"
	"github.com/lorrc/ticket-reports/internal/core/ports"
	"github.com/lorrc/ticket-reports/internal/core/services"
	"github.com/lorrc/ticket-reports/internal/infrastructure/logging"
)

var errDatabaseNotConfigured = errors.New("database not configured: set DATABASE_URL")

// App holds the long-lived dependencies of one process.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Location *time.Location

	// Backend is nil when the hosted backend is not configured.
	Backend *backend.Client
	// Pool is nil unless DATABASE_URL is set.
	Pool *pgxpool.Pool

	Reports *services.ReportService
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg *config.Config) *slog.Logger {
	return logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})
}

// New initializes the backend client, the optional database pool and the
// report service. An unusable backend is logged and leaves Backend nil; an
// unreachable database is fatal only when it is the data source.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load report timezone: %w", err)
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Location: loc,
	}

	a.Backend = backend.Init(BackendSettings(cfg, logger), backend.Options{Timeout: cfg.Backend.Timeout}, logger)

	if cfg.Database.URL != "" {
		pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
			URL:             cfg.Database.URL,
			MaxConns:        cfg.Database.MaxOpenConns,
			MinConns:        cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		})
		switch {
		case err == nil:
			a.Pool = pool
			logger.Info("database connection established")
		case cfg.DataSource == config.DataSourcePostgres:
			return nil, err
		default:
			logger.Warn("database unavailable, snapshots disabled", "error", err)
		}
	}

	tickets, users := a.repositories()
	a.Reports = services.NewReportService(tickets, users, loc)

	logger.Info("report service ready",
		"data_source", cfg.DataSource,
		"backend_configured", a.Backend != nil,
		"timezone", loc.String(),
	)
	return a, nil
}

// BackendSettings resolves the backend URL and key from the local override
// file first and the environment second. An unreadable override file is
// logged and treated as empty.
func BackendSettings(cfg *config.Config, logger *slog.Logger) backend.Settings {
	overrides, err := backend.LoadOverrides(cfg.Backend.OverridesFile)
	if err != nil {
		logger.Warn("failed to read backend overrides",
			"path", cfg.Backend.OverridesFile,
			"error", err,
		)
		overrides = map[string]string{}
	}

	return backend.ResolveSettings(overrides, backend.Settings{
		URL:     cfg.Backend.URL,
		AnonKey: cfg.Backend.AnonKey,
	})
}

// repositories selects the data-loading collaborators. Interfaces stay nil
// when the data source is missing so the report service can detect it.
func (a *App) repositories() (ports.TicketRepository, ports.UserRepository) {
	if a.Config.DataSource == config.DataSourcePostgres {
		if a.Pool == nil {
			return nil, nil
		}
		return postgres.NewTicketRepository(a.Pool, a.Location), postgres.NewUserRepository(a.Pool)
	}

	if a.Backend == nil {
		return nil, nil
	}
	return backend.NewTicketRepository(a.Backend), backend.NewUserRepository(a.Backend)
}

// BackendReports returns a report service that always reads the hosted
// backend, regardless of the configured data source.
func (a *App) BackendReports() (*services.ReportService, error) {
	if a.Backend == nil {
		return nil, apperrors.ErrBackendUnavailable
	}
	return services.NewReportService(
		backend.NewTicketRepository(a.Backend),
		backend.NewUserRepository(a.Backend),
		a.Location,
	), nil
}

// Snapshotter returns the database importer, or an error without a pool.
func (a *App) Snapshotter() (*postgres.Snapshotter, error) {
	if a.Pool == nil {
		return nil, errDatabaseNotConfigured
	}
	return postgres.NewSnapshotter(
		postgres.NewTransactionManager(a.Pool),
		postgres.NewTicketRepository(a.Pool, a.Location),
		postgres.NewUserRepository(a.Pool),
	), nil
}

// Close releases the database pool.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}
