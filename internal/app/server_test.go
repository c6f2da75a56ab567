package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/ticket-reports/internal/config"
	"github.com/lorrc/ticket-reports/internal/core/domain"
)

func testConfig(backendURL string) *config.Config {
	cfg := config.FromEnv()
	cfg.DataSource = config.DataSourceBackend
	cfg.Backend.URL = backendURL
	cfg.Backend.AnonKey = ""
	if backendURL != "" {
		cfg.Backend.AnonKey = "anon-key"
	}
	cfg.Backend.OverridesFile = ""
	cfg.Database.URL = ""
	cfg.Redis.Addr = ""
	cfg.Report.Timezone = "UTC"
	cfg.JWT.Secret = ""
	cfg.RateLimit.Enabled = false
	cfg.CORS.AllowedOrigins = []string{"http://localhost:5173"}
	return cfg
}

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	today := domain.FormatLocalDate(time.Now().UTC())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/rest/v1/tickets":
			_, _ = fmt.Fprintf(w, `[
				{"id":1,"entry_date":%q,"status":"open","area":"Lobby","technician":"Anna"},
				{"id":2,"entry_date":%q,"completion_date":%q,"status":"completed","area":"Kitchen","technician":"Ben"},
				{"id":3,"entry_date":"N/A","status":"overdue","area":"Lobby","technician":null}
			]`, today, today, today)
		case "/rest/v1/users":
			_, _ = fmt.Fprint(w, `[
				{"name":"Anna","role":"Technician"},
				{"name":"Ben","role":"Technician"},
				{"name":"Cleo","role":"Technician"},
				{"name":"Dora","role":"Admin"}
			]`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	s, err := NewServer(context.Background(), a)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_ReportFromBackend(t *testing.T) {
	s := newTestServer(t, testConfig(fakeBackend(t).URL))

	rec := get(t, s.Handler(), "/api/v1/reports")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data domain.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	report := body.Data
	// the N/A entry date is excluded from the default 30 day range
	assert.Equal(t, 2, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.Completed)
	assert.Equal(t, 0.0, report.Stats.AvgProcessingDays)

	labels := make([]string, 0, len(report.Charts.ByTechnician.Bars))
	for _, bar := range report.Charts.ByTechnician.Bars {
		labels = append(labels, bar.Label)
	}
	assert.ElementsMatch(t, []string{"Anna", "Ben", "Cleo"}, labels)

	rec = get(t, s.Handler(), "/api/v1/reports?range=all&area=Lobby")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Data.Stats.Total)
	assert.Equal(t, 1, body.Data.Stats.Overdue)
}

func TestServer_Readiness(t *testing.T) {
	s := newTestServer(t, testConfig(fakeBackend(t).URL))

	rec := get(t, s.Handler(), "/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestServer_WithoutBackend(t *testing.T) {
	s := newTestServer(t, testConfig(""))

	rec := get(t, s.Handler(), "/api/v1/reports")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "BACKEND_UNAVAILABLE")

	rec = get(t, s.Handler(), "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(t, s.Handler(), "/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_IncompleteBackendConfig(t *testing.T) {
	cfg := testConfig("")
	cfg.Backend.URL = "ftp://example.com"
	cfg.Backend.AnonKey = "anon-key"

	s := newTestServer(t, cfg)

	rec := get(t, s.Handler(), "/api/v1/reports")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_SessionFilters(t *testing.T) {
	s := newTestServer(t, testConfig(fakeBackend(t).URL))
	h := s.Handler()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/reports/filters", strings.NewReader(`{"timeRange":"all","status":"overdue"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "browser-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports/session", nil)
	req.Header.Set("X-Session-ID", "browser-1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Report domain.Report `json:"report"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.Report.Stats.Total)
	assert.Equal(t, domain.RangeAll, body.Data.Report.Filters.TimeRange)
}

func TestServer_CORSPreflight(t *testing.T) {
	s := newTestServer(t, testConfig(""))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/reports", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
