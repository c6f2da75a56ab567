package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lorrc/ticket-reports/internal/core/ports"
)

// Hub tracks live report viewers and fans out refresh notifications.
type Hub struct {
	clients map[*Client]bool

	// refresh is a pending-refresh flag; extra signals coalesce.
	refresh chan struct{}

	// mu protects the clients map
	mu sync.RWMutex

	logger *slog.Logger
}

// Ensure Hub implements the RefreshBroadcaster interface.
var _ ports.RefreshBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		refresh: make(chan struct{}, 1),
		logger:  logger.With("component", "websocket_hub"),
	}
}

// BroadcastRefresh asks every connected viewer to reload its dataset.
// It never blocks.
func (h *Hub) BroadcastRefresh() {
	select {
	case h.refresh <- struct{}{}:
	default:
		h.logger.Debug("refresh already pending")
	}
}

// Run delivers refresh notifications until ctx is done, then disconnects
// all clients.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-h.refresh:
			h.refreshAll()
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	h.logger.Info("client registered",
		"session_id", client.sessionID,
		"total_connections", len(h.clients),
	)
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if !ok {
		return
	}
	client.close()

	h.logger.Info("client unregistered", "session_id", client.sessionID)
}

func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

func (h *Hub) refreshAll() {
	clients := h.snapshot()

	h.logger.Debug("broadcasting refresh", "client_count", len(clients))

	for _, client := range clients {
		if !client.offer(command{kind: cmdRefresh}) {
			h.logger.Warn("client inbox full, skipping refresh", "session_id", client.sessionID)
		}
	}
}

func (h *Hub) closeAll() {
	for _, client := range h.snapshot() {
		h.unregister(client)
	}
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
