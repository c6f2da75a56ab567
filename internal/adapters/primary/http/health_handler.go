package http

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
)

// HealthChecker defines the interface for health check dependencies
type HealthChecker interface {
	Ping(ctx context.Context) error
}

const (
	statusHealthy       = "healthy"
	statusUnhealthy     = "unhealthy"
	statusDegraded      = "degraded"
	statusNotConfigured = "not_configured"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	required  map[string]HealthChecker
	optional  map[string]HealthChecker
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler. A nil checker in required
// marks a dependency the service needs but was not configured, which fails
// readiness. Optional checkers only degrade the detailed health report.
func NewHealthHandler(required, optional map[string]HealthChecker, version string) *HealthHandler {
	return &HealthHandler{
		required:  required,
		optional:  optional,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Version   string           `json:"version,omitempty"`
	Uptime    string           `json:"uptime,omitempty"`
	Checks    map[string]Check `json:"checks,omitempty"`
}

// Check represents an individual health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

// HandleLiveness handles liveness probe requests (is the service running?)
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    statusHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles readiness probe requests (can the service serve
// reports?). Only required dependencies count.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]Check, len(h.required))
	overallStatus := statusHealthy
	for _, name := range sortedNames(h.required) {
		check := runCheck(ctx, h.required[name])
		checks[name] = check
		if check.Status != statusHealthy {
			overallStatus = statusUnhealthy
		}
	}

	statusCode := http.StatusOK
	if overallStatus != statusHealthy {
		statusCode = http.StatusServiceUnavailable
	}

	WriteJSON(w, statusCode, HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    checks,
	})
}

// HandleHealth handles detailed health check requests (for monitoring/debugging)
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]Check, len(h.required)+len(h.optional))
	overallStatus := statusHealthy

	for _, name := range sortedNames(h.required) {
		check := runCheck(ctx, h.required[name])
		checks[name] = check
		if check.Status != statusHealthy {
			overallStatus = statusDegraded
		}
	}
	for _, name := range sortedNames(h.optional) {
		checker := h.optional[name]
		if checker == nil {
			checks[name] = Check{Status: statusNotConfigured}
			continue
		}
		check := runCheck(ctx, checker)
		checks[name] = check
		if check.Status != statusHealthy {
			overallStatus = statusDegraded
		}
	}

	// Add memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := struct {
		HealthResponse
		Memory struct {
			Alloc      uint64 `json:"alloc_bytes"`
			TotalAlloc uint64 `json:"total_alloc_bytes"`
			Sys        uint64 `json:"sys_bytes"`
			NumGC      uint32 `json:"num_gc"`
		} `json:"memory"`
		Goroutines int `json:"goroutines"`
	}{
		HealthResponse: HealthResponse{
			Status:    overallStatus,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   h.version,
			Uptime:    time.Since(h.startTime).Round(time.Second).String(),
			Checks:    checks,
		},
		Goroutines: runtime.NumGoroutine(),
	}
	response.Memory.Alloc = memStats.Alloc
	response.Memory.TotalAlloc = memStats.TotalAlloc
	response.Memory.Sys = memStats.Sys
	response.Memory.NumGC = memStats.NumGC

	statusCode := http.StatusOK
	if overallStatus == statusDegraded {
		statusCode = http.StatusServiceUnavailable
	}

	WriteJSON(w, statusCode, response)
}

// runCheck pings one dependency
func runCheck(ctx context.Context, checker HealthChecker) Check {
	if checker == nil {
		return Check{
			Status:  statusUnhealthy,
			Message: "Not configured",
		}
	}

	start := time.Now()
	err := checker.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{
			Status:  statusUnhealthy,
			Message: err.Error(),
			Latency: latency.String(),
		}
	}

	return Check{
		Status:  statusHealthy,
		Latency: latency.String(),
	}
}

func sortedNames(checks map[string]HealthChecker) []string {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
