package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/holasaidlola/shop-analytics/internal/analytics"
	"github.com/holasaidlola/shop-analytics/internal/source"
	"github.com/holasaidlola/shop-analytics/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// dateLayout is the wire format for the metrics date-range filter.
const dateLayout = "2006-01-02"

// Handler wires the data source, snapshot storage, and analytics engine into
// HTTP handlers.
type Handler struct {
	source  source.DataSource
	storage storage.Storage
	engine  *analytics.Engine
	mode    string

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies. mode is the
// configured data source mode, reported on health and summary responses.
func NewHandler(src source.DataSource, store storage.Storage, engine *analytics.Engine, mode string, opts ...HandlerOption) *Handler {
	h := &Handler{
		source:  src,
		storage: store,
		engine:  engine,
		mode:    mode,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Source:    h.mode,
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	_ = r
	orders, err := h.storage.GetOrders()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := summaryResponse{
		Source:      h.mode,
		Summary:     analytics.Summarize(orders),
		RefreshedAt: h.storage.RefreshedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}

	orders, err := h.storage.GetOrders()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	start := time.Now()
	report := h.engine.Report(orders, filter)
	elapsed := time.Since(start)

	resp := metricsResponse{
		Report:            report,
		RefreshedAt:       h.storage.RefreshedAt(),
		AggregationTimeMs: elapsed.Milliseconds(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleLocations(w http.ResponseWriter, r *http.Request) {
	_ = r
	orders, err := h.storage.GetOrders()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, locationsResponse{Provinces: analytics.Provinces(orders)})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	orders, err := h.source.FetchOrders(r.Context())
	if err != nil {
		writeSourceError(w, err)
		return
	}

	if err := h.storage.SetOrders(orders); err != nil {
		writeInternalError(w, err)
		return
	}

	resp := refreshResponse{
		Message:     "Dataset refreshed successfully",
		Orders:      len(orders),
		RefreshedAt: h.storage.RefreshedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseFilter extracts the optional date-range and province filter from the
// request query.
func parseFilter(r *http.Request) (analytics.Filter, error) {
	var filter analytics.Filter
	query := r.URL.Query()

	if raw := query.Get("start"); raw != "" {
		start, err := time.Parse(dateLayout, raw)
		if err != nil {
			return analytics.Filter{}, fmt.Errorf("start must be a YYYY-MM-DD date")
		}
		filter.Start = start
	}
	if raw := query.Get("end"); raw != "" {
		end, err := time.Parse(dateLayout, raw)
		if err != nil {
			return analytics.Filter{}, fmt.Errorf("end must be a YYYY-MM-DD date")
		}
		filter.End = end
	}
	if !filter.Start.IsZero() && !filter.End.IsZero() && filter.End.Before(filter.Start) {
		return analytics.Filter{}, fmt.Errorf("end must not be before start")
	}

	filter.Province = query.Get("province")
	return filter, nil
}

// writeSourceError maps a failed fetch to an operator-facing response that
// distinguishes credential, connectivity, and remote API problems.
func writeSourceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, source.ErrAuthentication):
		writeError(w, http.StatusBadGateway, "Authentication failed", err.Error(),
			"Check the API key and password in your credentials file")
	case errors.Is(err, source.ErrNetwork):
		writeError(w, http.StatusGatewayTimeout, "Network failure", err.Error(),
			"Check connectivity to the configured shop host")
	case errors.Is(err, source.ErrProtocol):
		writeError(w, http.StatusBadGateway, "Unexpected remote API response", err.Error(),
			"The remote API may have changed; verify the configured API version")
	default:
		writeError(w, http.StatusInternalServerError, "Data source failure", err.Error())
	}
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type healthResponse struct {
	Status    string    `json:"status"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

type summaryResponse struct {
	Source      string            `json:"source"`
	Summary     analytics.Summary `json:"summary"`
	RefreshedAt time.Time         `json:"refreshedAt"`
}

type metricsResponse struct {
	analytics.Report
	RefreshedAt       time.Time `json:"refreshedAt"`
	AggregationTimeMs int64     `json:"aggregationTimeMs"`
}

type locationsResponse struct {
	Provinces []string `json:"provinces"`
}

type refreshResponse struct {
	Message     string    `json:"message"`
	Orders      int       `json:"orders"`
	RefreshedAt time.Time `json:"refreshedAt"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
