package http

import (
	"context"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	wsAdapter "github.com/lorrc/ticket-reports/internal/adapters/primary/websocket"
	"github.com/lorrc/ticket-reports/internal/auth"
	"github.com/lorrc/ticket-reports/internal/config"
	"github.com/lorrc/ticket-reports/internal/core/domain"
	"github.com/lorrc/ticket-reports/internal/core/mocks"
)

func newWebSocketServer(t *testing.T, tm *auth.TokenManager) (*httptest.Server, *mocks.MockFilterService) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reports := mocks.NewMockReportService()
	reports.On("LoadDataset", mock.Anything).Return(&domain.Dataset{}, nil)
	reports.On("BuildReport", mock.Anything, mock.Anything).Return(sampleReport(domain.DefaultFilters()), nil)

	filters := mocks.NewMockFilterService()
	filters.On("Current", mock.Anything, mock.Anything).Return(domain.DefaultFilters(), nil)

	hub := wsAdapter.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	cfg := config.FromEnv()
	cfg.App.Environment = "test"
	cfg.WebSocket.AllowedOrigins = []string{"dashboard.example.com"}

	handler := NewWebSocketHandler(hub, reports, filters, NewSessionResolver(time.Hour, false), tm, cfg, NewErrorHandler(logger), logger)
	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return srv, filters
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + query
}

func TestWebSocketHandler_NewSession(t *testing.T) {
	srv, filters := newWebSocketServer(t, nil)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.NoError(t, err)
	defer conn.Close()

	sessionID := resp.Header.Get(SessionHeader)
	require.NotEmpty(t, sessionID)
	require.NotEmpty(t, resp.Cookies())
	assert.Equal(t, SessionCookie, resp.Cookies()[0].Name)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg wsAdapter.ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, wsAdapter.MessageFilters, msg.Type)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, wsAdapter.MessageReport, msg.Type)

	filters.AssertCalled(t, "Current", mock.Anything, sessionID)
}

func TestWebSocketHandler_Auth(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, time.Hour)
	srv, _ := newWebSocketServer(t, tm)

	t.Run("missing token", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("invalid token", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "?token=nope"), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := tm.GenerateToken("dashboard", domain.RoleStaff)
		require.NoError(t, err)

		conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?token="+token), stdhttp.Header{SessionHeader: {"sess-1"}})
		require.NoError(t, err)
		_ = conn.Close()
	})
}

func TestWebSocketHandler_Origin(t *testing.T) {
	srv, _ := newWebSocketServer(t, nil)

	t.Run("allowed", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), stdhttp.Header{"Origin": {"https://dashboard.example.com"}})
		require.NoError(t, err)
		_ = conn.Close()
	})

	t.Run("rejected", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), stdhttp.Header{"Origin": {"https://evil.example.org"}})
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, stdhttp.StatusForbidden, resp.StatusCode)
	})
}

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"*.example.com", "localhost:5173"}

	assert.True(t, originAllowed("app.example.com", allowed))
	assert.True(t, originAllowed("example.com", allowed))
	assert.True(t, originAllowed("localhost:5173", allowed))
	assert.False(t, originAllowed("example.org", allowed))
	assert.False(t, originAllowed("localhost:3000", allowed))
}
