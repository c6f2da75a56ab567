package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/ticket-reports/internal/adapters/secondary/memory"
	"github.com/lorrc/ticket-reports/internal/core/domain"
	apperrors "github.com/lorrc/ticket-reports/internal/core/errors"
	"github.com/lorrc/ticket-reports/internal/core/mocks"
	"github.com/lorrc/ticket-reports/internal/core/services"
)

var fixedNow = time.Date(2026, 1, 20, 16, 30, 0, 0, time.UTC)

func testTickets() []domain.Ticket {
	return []domain.Ticket{
		{ID: "1", EntryDate: "18.01.2026", Status: domain.StatusOpen, Area: "Kitchen", Technician: "Anna"},
		{ID: "2", EntryDate: "05.01.2026", CompletionDate: "07.01.2026", Status: domain.StatusCompleted, Area: "Lobby", Technician: "Ben"},
		{ID: "3", EntryDate: "01.06.2025", Status: domain.StatusOverdue, Area: "Lobby", Technician: domain.NotAvailable},
	}
}

type received struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type liveFixture struct {
	hub     *Hub
	conn    *websocket.Conn
	tickets *mocks.MockTicketRepository
}

func newLiveFixture(t *testing.T, ticketErr error) *liveFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tickets := mocks.NewMockTicketRepository()
	if ticketErr != nil {
		tickets.On("ListAll", mock.Anything).Return(nil, ticketErr)
	} else {
		tickets.On("ListAll", mock.Anything).Return(testTickets(), nil)
	}
	users := mocks.NewMockUserRepository()
	users.On("ListAll", mock.Anything).Return([]domain.User{
		{Name: "Anna", Role: domain.RoleTechnician},
		{Name: "Ben", Role: domain.RoleTechnician},
	}, nil)

	reports := services.NewReportServiceWithClock(tickets, users, time.UTC, func() time.Time { return fixedNow })
	filters := services.NewFilterService(memory.NewFilterStore(time.Hour))

	hub := NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(hub, conn, "sess-1", reports, filters, ClientConfig{}, logger).Start()
	}))

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		srv.Close()
	})

	return &liveFixture{hub: hub, conn: conn, tickets: tickets}
}

func (f *liveFixture) read(t *testing.T) received {
	t.Helper()
	require.NoError(t, f.conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg received
	require.NoError(t, f.conn.ReadJSON(&msg))
	return msg
}

func (f *liveFixture) write(t *testing.T, msgType string, payload any) {
	t.Helper()
	msg := map[string]any{"type": msgType}
	if payload != nil {
		msg["payload"] = payload
	}
	require.NoError(t, f.conn.WriteJSON(msg))
}

func (f *liveFixture) readReport(t *testing.T) domain.Report {
	t.Helper()
	msg := f.read(t)
	require.Equal(t, MessageReport, msg.Type)

	var report domain.Report
	require.NoError(t, json.Unmarshal(msg.Payload, &report))
	return report
}

func (f *liveFixture) readFilters(t *testing.T) FiltersPayload {
	t.Helper()
	msg := f.read(t)
	require.Equal(t, MessageFilters, msg.Type)

	var payload FiltersPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	return payload
}

func TestClient_InitialStateAndFilterChanges(t *testing.T) {
	f := newLiveFixture(t, nil)

	initial := f.readFilters(t)
	assert.Equal(t, "sess-1", initial.SessionID)
	assert.True(t, initial.IsDefault)

	report := f.readReport(t)
	assert.Equal(t, 2, report.Stats.Total)
	assert.Equal(t, domain.Range30Days, report.Filters.TimeRange)

	f.write(t, MessageSetFilters, map[string]string{"timeRange": "all", "area": "Lobby"})

	updated := f.readFilters(t)
	assert.False(t, updated.IsDefault)
	assert.Equal(t, domain.RangeAll, updated.Filters.TimeRange)
	assert.Equal(t, "all", updated.Filters.Status)

	report = f.readReport(t)
	assert.Equal(t, 2, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.Overdue)

	f.write(t, MessageResetFilters, nil)
	assert.True(t, f.readFilters(t).IsDefault)
	assert.Equal(t, 2, f.readReport(t).Stats.Total)

	// filter changes reuse the loaded dataset
	f.tickets.AssertNumberOfCalls(t, "ListAll", 1)
}

func TestClient_SetFiltersMatchesHTTPNormalization(t *testing.T) {
	f := newLiveFixture(t, nil)
	f.readFilters(t)
	f.readReport(t)

	f.write(t, MessageSetFilters, map[string]string{"timeRange": " all ", "area": " Lobby"})

	updated := f.readFilters(t)
	assert.Equal(t, domain.RangeAll, updated.Filters.TimeRange)
	assert.Equal(t, "Lobby", updated.Filters.Area)
	assert.Equal(t, 2, f.readReport(t).Stats.Total)

	f.write(t, MessageSetFilters, map[string]string{"technician": strings.Repeat("x", domain.MaxFilterValueLength+1)})

	msg := f.read(t)
	require.Equal(t, MessageError, msg.Type)
	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "VALIDATION_ERROR", payload.Code)
	assert.Contains(t, payload.Fields, "technician")
}

func TestClient_InvalidFiltersKeepPreviousState(t *testing.T) {
	f := newLiveFixture(t, nil)
	f.readFilters(t)
	f.readReport(t)

	f.write(t, MessageSetFilters, map[string]string{"timeRange": "1y"})

	msg := f.read(t)
	require.Equal(t, MessageError, msg.Type)
	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "VALIDATION_ERROR", payload.Code)
	assert.Contains(t, payload.Fields, "timeRange")

	f.write(t, MessagePing, nil)
	assert.Equal(t, MessagePong, f.read(t).Type)
}

func TestClient_MalformedMessage(t *testing.T) {
	f := newLiveFixture(t, nil)
	f.readFilters(t)
	f.readReport(t)

	require.NoError(t, f.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	msg := f.read(t)
	require.Equal(t, MessageError, msg.Type)
	assert.Contains(t, string(msg.Payload), "BAD_REQUEST")
}

func TestClient_RefreshReloadsDataset(t *testing.T) {
	f := newLiveFixture(t, nil)
	f.readFilters(t)
	f.readReport(t)

	f.write(t, MessageRefresh, nil)
	f.readReport(t)

	require.Eventually(t, func() bool { return f.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	f.hub.BroadcastRefresh()
	f.readReport(t)

	f.tickets.AssertNumberOfCalls(t, "ListAll", 3)
}

func TestClient_BackendUnavailable(t *testing.T) {
	f := newLiveFixture(t, apperrors.ErrBackendUnavailable)
	f.readFilters(t)

	msg := f.read(t)
	require.Equal(t, MessageError, msg.Type)
	assert.Contains(t, string(msg.Payload), "BACKEND_UNAVAILABLE")
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	f := newLiveFixture(t, nil)
	f.readFilters(t)
	f.readReport(t)
	require.Equal(t, 1, f.hub.ClientCount())

	require.NoError(t, f.conn.Close())

	assert.Eventually(t, func() bool { return f.hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastRefreshNeverBlocks(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))

	for i := 0; i < 10; i++ {
		hub.BroadcastRefresh()
	}
	assert.Len(t, hub.refresh, 1)
}
