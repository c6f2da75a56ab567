package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	mw "github.com/lorrc/ticket-reports/internal/adapters/primary/http/middleware"
	"github.com/lorrc/ticket-reports/internal/adapters/primary/validation"
	"github.com/lorrc/ticket-reports/internal/core/domain"
	"github.com/lorrc/ticket-reports/internal/core/ports"
	"github.com/lorrc/ticket-reports/internal/infrastructure/logging"
)


// ReportHandler serves the reports view and its per-session filter state.
type ReportHandler struct {
	reportService ports.ReportService
	filterService ports.FilterService
	broadcaster   ports.RefreshBroadcaster
	sessions      *SessionResolver
	errorHandler  *ErrorHandler
	logger        *slog.Logger
}

// NewReportHandler creates a new report handler. broadcaster may be nil when
// no live channel is running.
func NewReportHandler(
	reportService ports.ReportService,
	filterService ports.FilterService,
	broadcaster ports.RefreshBroadcaster,
	sessions *SessionResolver,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		filterService: filterService,
		broadcaster:   broadcaster,
		sessions:      sessions,
		errorHandler:  errorHandler,
		logger:        logger.With("handler", "report"),
	}
}

// Router sets up a new chi Router for all report routes.
func (h *ReportHandler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes sets up the routing for all report endpoints.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleGetReport)
	r.Get("/options", h.HandleGetOptions)
	r.Get("/session", h.HandleGetSessionReport)

	r.Route("/filters", func(r chi.Router) {
		r.Get("/", h.HandleGetFilters)
		r.Put("/", h.HandleUpdateFilters)
		r.Post("/reset", h.HandleResetFilters)
	})

	// Staff viewers may read reports but not trigger reloads.
	r.With(mw.RequireRole(domain.RoleAdmin, domain.RoleTechnician)).
		Post("/refresh", h.HandleRefresh)
}

// --- Request/Response DTOs ---

// FiltersRequest is the filter state sent by a client. Empty fields take
// their defaults.
type FiltersRequest struct {
	TimeRange  string `json:"timeRange"`
	Area       string `json:"area"`
	Status     string `json:"status"`
	Technician string `json:"technician"`
}

// Validate validates the filters request
func (r *FiltersRequest) Validate() error {
	ranges := make([]string, 0, len(domain.AllTimeRanges()))
	for _, tr := range domain.AllTimeRanges() {
		ranges = append(ranges, tr.String())
	}
	statuses := []string{domain.FilterAll}
	for _, s := range domain.AllStatuses() {
		statuses = append(statuses, s.String())
	}

	v := validation.NewValidator()
	v.OneOf("timeRange", strings.TrimSpace(r.TimeRange), ranges).
		OneOf("status", strings.TrimSpace(r.Status), statuses).
		MaxLength("area", strings.TrimSpace(r.Area), domain.MaxFilterValueLength).
		MaxLength("technician", strings.TrimSpace(r.Technician), domain.MaxFilterValueLength)

	return v.Err()
}

// Filters converts the request into normalized domain filters.
func (r *FiltersRequest) Filters() domain.ReportFilters {
	return domain.ReportFilters{
		TimeRange:  domain.TimeRange(r.TimeRange),
		Area:       r.Area,
		Status:     r.Status,
		Technician: r.Technician,
	}.Normalize()
}

// filtersFromQuery reads the stateless report query parameters.
func filtersFromQuery(r *http.Request) *FiltersRequest {
	return &FiltersRequest{
		TimeRange:  validation.ParseStringQueryParam(r, "range"),
		Area:       validation.ParseStringQueryParam(r, "area"),
		Status:     validation.ParseStringQueryParam(r, "status"),
		Technician: validation.ParseStringQueryParam(r, "technician"),
	}
}

// SessionFiltersResponse is the filter state of one session.
type SessionFiltersResponse struct {
	SessionID string               `json:"sessionId"`
	Filters   domain.ReportFilters `json:"filters"`
	IsDefault bool                 `json:"isDefault"`
}

// SessionReportResponse is the report for a session's current filters.
type SessionReportResponse struct {
	SessionID string         `json:"sessionId"`
	Report    *domain.Report `json:"report"`
}

func newSessionFiltersResponse(sessionID string, filters domain.ReportFilters) SessionFiltersResponse {
	return SessionFiltersResponse{
		SessionID: sessionID,
		Filters:   filters,
		IsDefault: filters.IsDefault(),
	}
}

// --- Handlers ---

// HandleGetReport derives a report from query parameters without touching
// session state.
func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	req := filtersFromQuery(r)
	if HandleError(w, r, req.Validate(), h.errorHandler) {
		return
	}

	report, err := h.reportService.GenerateReport(r.Context(), req.Filters())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteSuccess(w, report)
}

// HandleGetOptions lists the values offered by the filter controls.
func (h *ReportHandler) HandleGetOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.reportService.Options(r.Context())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteSuccess(w, opts)
}

// HandleGetSessionReport derives a report for the session's stored filters.
func (h *ReportHandler) HandleGetSessionReport(w http.ResponseWriter, r *http.Request) {
	sessionID, r, ok := h.session(w, r)
	if !ok {
		return
	}

	filters, err := h.filterService.Current(r.Context(), sessionID)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	report, err := h.reportService.GenerateReport(r.Context(), filters)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteSuccess(w, SessionReportResponse{SessionID: sessionID, Report: report})
}

// HandleGetFilters returns the session's filters.
func (h *ReportHandler) HandleGetFilters(w http.ResponseWriter, r *http.Request) {
	sessionID, r, ok := h.session(w, r)
	if !ok {
		return
	}

	filters, err := h.filterService.Current(r.Context(), sessionID)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteSuccess(w, newSessionFiltersResponse(sessionID, filters))
}

// HandleUpdateFilters replaces the session's filters.
func (h *ReportHandler) HandleUpdateFilters(w http.ResponseWriter, r *http.Request) {
	sessionID, r, ok := h.session(w, r)
	if !ok {
		return
	}

	req, err := validation.DecodeAndValidate[FiltersRequest](w, r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if HandleError(w, r, req.Validate(), h.errorHandler) {
		return
	}

	filters, err := h.filterService.Update(r.Context(), sessionID, req.Filters())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.InfoContext(r.Context(), "report filters updated",
		"time_range", filters.TimeRange,
		"area", filters.Area,
		"status", filters.Status,
		"technician", filters.Technician,
	)

	WriteSuccess(w, newSessionFiltersResponse(sessionID, filters))
}

// HandleResetFilters restores the default filters for the session.
func (h *ReportHandler) HandleResetFilters(w http.ResponseWriter, r *http.Request) {
	sessionID, r, ok := h.session(w, r)
	if !ok {
		return
	}

	filters, err := h.filterService.Reset(r.Context(), sessionID)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.InfoContext(r.Context(), "report filters reset")

	WriteSuccess(w, newSessionFiltersResponse(sessionID, filters))
}

// HandleRefresh asks live viewers to reload their datasets.
func (h *ReportHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if h.broadcaster != nil {
		h.broadcaster.BroadcastRefresh()
	}

	h.logger.InfoContext(r.Context(), "report refresh requested")

	WriteAccepted(w, "Refresh requested")
}

// session resolves the filter session, echoes it on the response and tags
// the request context for logging.
func (h *ReportHandler) session(w http.ResponseWriter, r *http.Request) (string, *http.Request, bool) {
	sessionID, isNew, err := h.sessions.Resolve(r)
	if HandleError(w, r, err, h.errorHandler) {
		return "", r, false
	}

	if isNew {
		h.sessions.Attach(w.Header(), sessionID)
	} else {
		w.Header().Set(SessionHeader, sessionID)
	}

	r = r.WithContext(logging.WithSessionID(r.Context(), sessionID))
	return sessionID, r, true
}
