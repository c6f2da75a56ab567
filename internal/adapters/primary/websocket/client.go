package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lorrc/ticket-reports/internal/core/domain"
	apperrors "github.com/lorrc/ticket-reports/internal/core/errors"
	"github.com/lorrc/ticket-reports/internal/core/ports"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Buffered outbound messages per client.
	sendBuffer = 16

	// Queued requests per client.
	inboxBuffer = 8

	// Upper bound for one load or derivation.
	operationTimeout = 30 * time.Second
)

// ClientConfig tunes connection keep-alive.
type ClientConfig struct {
	PingInterval time.Duration
	PongWait     time.Duration
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.PongWait {
		c.PingInterval = (c.PongWait * 9) / 10
	}
	return c
}

type commandKind int

const (
	cmdInit commandKind = iota
	cmdSetFilters
	cmdReset
	cmdRefresh
	cmdPing
	cmdReject
)

type command struct {
	kind    commandKind
	filters domain.ReportFilters
	err     error
}

// Client is one live reports view. It owns the loaded dataset and the
// session's current filters; every filter change re-derives the report
// from the cached dataset without reloading it.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionID string
	reports   ports.ReportService
	filters   ports.FilterService
	cfg       ClientConfig

	send  chan ServerMessage
	inbox chan command
	done  chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	// owned by the run loop
	dataset *domain.Dataset
	current domain.ReportFilters

	logger *slog.Logger
}

// NewClient creates a new live report client for an upgraded connection.
func NewClient(
	hub *Hub,
	conn *websocket.Conn,
	sessionID string,
	reports ports.ReportService,
	filters ports.FilterService,
	cfg ClientConfig,
	logger *slog.Logger,
) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:       hub,
		conn:      conn,
		sessionID: sessionID,
		reports:   reports,
		filters:   filters,
		cfg:       cfg.withDefaults(),
		send:      make(chan ServerMessage, sendBuffer),
		inbox:     make(chan command, inboxBuffer),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		current:   domain.DefaultFilters(),
		logger:    logger.With("session_id", sessionID),
	}
}

// Start registers the client and runs its goroutines. The initial filters
// and report are sent right away.
func (c *Client) Start() {
	c.hub.register(c)
	c.inbox <- command{kind: cmdInit}

	go c.run()
	go c.WritePump()
	go c.ReadPump()
}

// close stops the client exactly once.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.cancel()
	})
}

// push queues a command, waiting for room unless the client is closed.
func (c *Client) push(cmd command) {
	select {
	case c.inbox <- cmd:
	case <-c.done:
	}
}

// offer queues a command if there is room.
func (c *Client) offer(cmd command) bool {
	select {
	case c.inbox <- cmd:
		return true
	case <-c.done:
		return true
	default:
		return false
	}
}

// ReadPump pumps messages from the websocket connection into the inbox.
// This method runs in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
			c.logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			return
		}

		c.handleIncomingMessage(message)
	}
}

// WritePump pumps messages from the run loop to the websocket connection.
// This method runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug("failed to send close message", "error", err)
				}
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

// handleIncomingMessage parses a viewer message into a command.
func (c *Client) handleIncomingMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		c.push(command{kind: cmdReject, err: apperrors.NewBadRequestError(apperrors.ErrBadRequest, "Malformed message")})
		return
	}

	switch msg.Type {
	case MessageSetFilters:
		var filters domain.ReportFilters
		if err := json.Unmarshal(msg.Payload, &filters); err != nil {
			c.logger.Warn("failed to unmarshal filters payload", "error", err)
			c.push(command{kind: cmdReject, err: apperrors.NewBadRequestError(apperrors.ErrBadRequest, "Malformed filters payload")})
			return
		}
		c.push(command{kind: cmdSetFilters, filters: filters})

	case MessageResetFilters:
		c.push(command{kind: cmdReset})

	case MessageRefresh:
		c.push(command{kind: cmdRefresh})

	case MessagePing:
		c.push(command{kind: cmdPing})

	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
	}
}

// run executes commands one at a time. It is the only writer to send and
// closes it on exit.
func (c *Client) run() {
	defer close(c.send)

	for {
		select {
		case <-c.done:
			return
		case cmd := <-c.inbox:
			c.execute(cmd)
		}
	}
}

func (c *Client) execute(cmd command) {
	ctx, cancel := context.WithTimeout(c.ctx, operationTimeout)
	defer cancel()

	var err error
	switch cmd.kind {
	case cmdInit:
		err = c.applyFilters(c.filters.Current(ctx, c.sessionID))
		if err == nil {
			err = c.reload(ctx)
		}

	case cmdSetFilters:
		err = c.applyFilters(c.filters.Update(ctx, c.sessionID, cmd.filters))
		if err == nil {
			err = c.sendReport(ctx)
		}

	case cmdReset:
		err = c.applyFilters(c.filters.Reset(ctx, c.sessionID))
		if err == nil {
			err = c.sendReport(ctx)
		}

	case cmdRefresh:
		err = c.reload(ctx)

	case cmdPing:
		c.deliver(ServerMessage{Type: MessagePong})

	case cmdReject:
		err = cmd.err
	}

	if err != nil {
		if c.ctx.Err() != nil {
			return
		}
		c.logger.Warn("live report request failed", "error", err)
		c.deliver(errorMessage(err))
	}
}

// applyFilters adopts filters returned by the filter service and echoes
// them to the viewer. On error the previous filters stay in effect.
func (c *Client) applyFilters(filters domain.ReportFilters, err error) error {
	if err != nil {
		return err
	}
	c.current = filters
	c.sendFilters()
	return nil
}

// reload fetches a fresh dataset and sends the report.
func (c *Client) reload(ctx context.Context) error {
	ds, err := c.reports.LoadDataset(ctx)
	if err != nil {
		return err
	}
	if ds == nil {
		ds = &domain.Dataset{}
	}
	c.dataset = ds
	return c.sendReport(ctx)
}

func (c *Client) sendReport(ctx context.Context) error {
	if c.dataset == nil {
		return c.reload(ctx)
	}

	report, err := c.reports.BuildReport(c.dataset, c.current)
	if err != nil {
		return err
	}
	c.deliver(ServerMessage{Type: MessageReport, Payload: report})
	return nil
}

func (c *Client) sendFilters() {
	c.deliver(ServerMessage{Type: MessageFilters, Payload: FiltersPayload{
		SessionID: c.sessionID,
		Filters:   c.current,
		IsDefault: c.current.IsDefault(),
	}})
}

// deliver queues an outbound message from the run loop, waiting for room.
func (c *Client) deliver(msg ServerMessage) {
	select {
	case c.send <- msg:
	case <-c.done:
	}
}
