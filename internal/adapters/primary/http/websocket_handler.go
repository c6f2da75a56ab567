package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	mw "github.com/lorrc/ticket-reports/internal/adapters/primary/http/middleware"
	wsAdapter "github.com/lorrc/ticket-reports/internal/adapters/primary/websocket"
	"github.com/lorrc/ticket-reports/internal/auth"
	"github.com/lorrc/ticket-reports/internal/config"
	"github.com/lorrc/ticket-reports/internal/core/ports"
	"github.com/lorrc/ticket-reports/internal/infrastructure/logging"
)

// WebSocketHandler upgrades live report connections
type WebSocketHandler struct {
	hub           *wsAdapter.Hub
	reportService ports.ReportService
	filterService ports.FilterService
	sessions      *SessionResolver
	tm            *auth.TokenManager
	clientConfig  wsAdapter.ClientConfig
	upgrader      websocket.Upgrader
	errorHandler  *ErrorHandler
	logger        *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler. A nil token manager
// accepts connections without a token.
func NewWebSocketHandler(
	hub *wsAdapter.Hub,
	reportService ports.ReportService,
	filterService ports.FilterService,
	sessions *SessionResolver,
	tm *auth.TokenManager,
	cfg *config.Config,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub:           hub,
		reportService: reportService,
		filterService: filterService,
		sessions:      sessions,
		tm:            tm,
		clientConfig: wsAdapter.ClientConfig{
			PingInterval: cfg.WebSocket.PingInterval,
			PongWait:     cfg.WebSocket.PongWait,
		},
		errorHandler: errorHandler,
		logger:       logger.With("handler", "websocket"),
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     handler.makeOriginChecker(cfg.IsDevelopment(), cfg.WebSocket.AllowedOrigins),
	}

	return handler
}

// makeOriginChecker creates an origin checking function based on configuration
func (h *WebSocketHandler) makeOriginChecker(allowAll bool, allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// In development mode, allow all origins (but log a warning)
		if allowAll {
			if origin != "" {
				h.logger.Warn("allowing websocket connection in development mode",
					"origin", origin,
					"remote_addr", r.RemoteAddr,
				)
			}
			return true
		}

		// No origin header (same-origin request or non-browser client)
		if origin == "" {
			return true
		}

		parsedOrigin, err := url.Parse(origin)
		if err != nil {
			h.logger.Warn("failed to parse websocket origin",
				"origin", origin,
				"error", err,
			)
			return false
		}

		if originAllowed(parsedOrigin.Host, allowedOrigins) {
			return true
		}

		h.logger.Warn("websocket connection rejected due to origin",
			"origin", origin,
			"remote_addr", r.RemoteAddr,
			"allowed_origins", allowedOrigins,
		)
		return false
	}
}

// originAllowed matches a host against exact entries and "*.example.com"
// wildcards.
func originAllowed(host string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if strings.HasPrefix(allowed, "*.") {
			suffix := allowed[1:] // Remove the "*", keep ".example.com"
			if strings.HasSuffix(host, suffix) || host == allowed[2:] {
				return true
			}
		} else if host == allowed {
			return true
		}
	}
	return false
}

// ServeHTTP handles WebSocket connection requests
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 1. Authenticate via query parameter; browsers cannot set headers here
	if h.tm != nil {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			h.logger.WarnContext(r.Context(), "websocket connection rejected: missing token",
				"remote_addr", r.RemoteAddr,
			)
			WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Missing authentication token", Code: "UNAUTHORIZED"})
			return
		}

		claims, err := h.tm.ValidateToken(tokenString)
		if err != nil {
			h.logger.WarnContext(r.Context(), "websocket connection rejected: invalid token",
				"remote_addr", r.RemoteAddr,
				"error", err,
			)
			WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired token", Code: "UNAUTHORIZED"})
			return
		}
		r = r.WithContext(mw.WithClaims(r.Context(), claims))
	}

	// 2. Resolve the filter session before upgrading
	sessionID, isNew, err := h.sessions.Resolve(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	ctx := logging.WithSessionID(r.Context(), sessionID)

	responseHeader := http.Header{}
	if isNew {
		h.sessions.Attach(responseHeader, sessionID)
	}

	// 3. Upgrade the connection
	conn, err := h.upgrader.Upgrade(w, r, responseHeader)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to upgrade websocket connection", "error", err)
		return
	}

	h.logger.InfoContext(ctx, "websocket connection established", "remote_addr", r.RemoteAddr)

	// 4. Start the client; it sends its filters and first report right away
	client := wsAdapter.NewClient(
		h.hub,
		conn,
		sessionID,
		h.reportService,
		h.filterService,
		h.clientConfig,
		logging.LoggerFromContext(r.Context(), h.logger),
	)
	client.Start()
}
