package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	httpAdapter "github.com/lorrc/ticket-reports/internal/adapters/primary/http"
	mw "github.com/lorrc/ticket-reports/internal/adapters/primary/http/middleware"
	"github.com/lorrc/ticket-reports/internal/adapters/primary/websocket"
	"github.com/lorrc/ticket-reports/internal/adapters/secondary/memory"
	"github.com/lorrc/ticket-reports/internal/adapters/secondary/redisstore"
	"github.com/lorrc/ticket-reports/internal/auth"
	"github.com/lorrc/ticket-reports/internal/config"
	"github.com/lorrc/ticket-reports/internal/core/ports"
	"github.com/lorrc/ticket-reports/internal/core/services"
)

// sweepInterval is how often the in-memory filter store drops idle sessions.
const sweepInterval = 5 * time.Minute

// Server is the HTTP and websocket surface of the report service.
type Server struct {
	app *App

	hub         *websocket.Hub
	memStore    *memory.FilterStore
	redisClient *redis.Client
	rateLimiter *mw.RateLimiter

	handler http.Handler
}

// NewServer wires the filter store, the live report hub and the router.
// The filter store lives in Redis when REDIS_ADDR is set, in memory
// otherwise.
func NewServer(ctx context.Context, a *App) (*Server, error) {
	cfg := a.Config
	s := &Server{
		app: a,
		hub: websocket.NewHub(a.Logger),
	}

	var (
		store       ports.FilterStore
		redisHealth httpAdapter.HealthChecker
	)
	if cfg.Redis.Addr != "" {
		client, err := redisstore.NewClient(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect filter store: %w", err)
		}
		redisStore := redisstore.NewFilterStore(client, cfg.Report.SessionTTL)
		s.redisClient = client
		store = redisStore
		redisHealth = redisStore
		a.Logger.Info("filter sessions stored in redis", "addr", cfg.Redis.Addr)
	} else {
		s.memStore = memory.NewFilterStore(cfg.Report.SessionTTL)
		store = s.memStore
		a.Logger.Info("filter sessions stored in memory")
	}
	filterService := services.NewFilterService(store)

	var tokenManager *auth.TokenManager
	if cfg.AuthEnabled() {
		tokenManager = auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	} else {
		a.Logger.Warn("JWT_SECRET not set, report API is unauthenticated")
	}

	if cfg.RateLimit.Enabled {
		s.rateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
	}

	// Handlers (Primary Adapters)
	errorHandler := httpAdapter.NewErrorHandler(a.Logger)
	sessions := httpAdapter.NewSessionResolver(cfg.Report.SessionTTL, cfg.IsProduction())
	reportHandler := httpAdapter.NewReportHandler(a.Reports, filterService, s.hub, sessions, errorHandler, a.Logger)
	wsHandler := httpAdapter.NewWebSocketHandler(s.hub, a.Reports, filterService, sessions, tokenManager, cfg, errorHandler, a.Logger)
	healthHandler := httpAdapter.NewHealthHandler(s.requiredChecks(), s.optionalChecks(redisHealth), cfg.App.Version)

	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(a.Logger))
	r.Use(mw.RecoveryLogger(a.Logger))
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.Handler(corsOptions(cfg.CORS)))
	}
	if s.rateLimiter != nil {
		r.Use(s.rateLimiter.Middleware)
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	healthHandler.RegisterRoutes(r)

	r.Route("/api/v1", func(r chi.Router) {
		// Authentication is handled inside the websocket handler
		r.Get("/reports/live", wsHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			if tokenManager != nil {
				r.Use(mw.JWTMiddleware(tokenManager))
			}
			r.Route("/reports", reportHandler.RegisterRoutes)
		})
	})

	s.handler = r
	return s, nil
}

func corsOptions(cfg config.CORSConfig) cors.Options {
	return cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader, httpAdapter.SessionHeader},
		ExposedHeaders:   []string{mw.RequestIDHeader, httpAdapter.SessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// requiredChecks lists the configured data source. A nil entry means it is
// missing, which fails readiness.
func (s *Server) requiredChecks() map[string]httpAdapter.HealthChecker {
	if s.app.Config.DataSource == config.DataSourcePostgres {
		if s.app.Pool == nil {
			return map[string]httpAdapter.HealthChecker{"database": nil}
		}
		return map[string]httpAdapter.HealthChecker{"database": s.app.Pool}
	}

	if s.app.Backend == nil {
		return map[string]httpAdapter.HealthChecker{"backend": nil}
	}
	return map[string]httpAdapter.HealthChecker{"backend": s.app.Backend}
}

func (s *Server) optionalChecks(redisHealth httpAdapter.HealthChecker) map[string]httpAdapter.HealthChecker {
	checks := map[string]httpAdapter.HealthChecker{"redis": redisHealth}
	if s.app.Config.DataSource != config.DataSourcePostgres && s.app.Pool != nil {
		checks["database"] = s.app.Pool
	}
	return checks
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the live report hub.
func (s *Server) Hub() *websocket.Hub {
	return s.hub
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.app.Config
	logger := s.app.Logger

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	go s.hub.Run(bgCtx)
	if s.memStore != nil {
		go s.memStore.Run(bgCtx, sweepInterval)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      s.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Websocket connections are hijacked; closing the hub disconnects them.
	stopBackground()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server shutdown complete")
	return nil
}

// Close releases the server's own resources. The App is closed separately.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
}
