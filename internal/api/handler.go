package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dockstats/dockstats/internal/metrics"
	"github.com/dockstats/dockstats/internal/runtime"
	"github.com/dockstats/dockstats/internal/stats"
)

// Handler serves the stats API. It validates request shape, checks that
// the runtime is reachable, and hands the pair lists to the aggregator.
type Handler struct {
	agg         *stats.Aggregator
	rt          runtime.Runtime
	pingTimeout time.Duration
	reg         *metrics.Registry
	logger      *slog.Logger
	mux         *http.ServeMux
}

// New creates a Handler wired to the given aggregator and runtime and
// registers all routes.
func New(agg *stats.Aggregator, rt runtime.Runtime, pingTimeout time.Duration, reg *metrics.Registry, logger *slog.Logger) http.Handler {
	h := &Handler{
		agg:         agg,
		rt:          rt,
		pingTimeout: pingTimeout,
		reg:         reg,
		logger:      logger,
		mux:         http.NewServeMux(),
	}

	h.mux.HandleFunc("/stats", h.getStats)
	h.mux.HandleFunc("/health", h.health)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// getStats serves GET /stats?pipelines=<csv>&services=<csv>.
// The two lists are positionally paired and must be the same length.
func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	pipelines, okP := splitCSV(r.URL.Query().Get("pipelines"))
	services, okS := splitCSV(r.URL.Query().Get("services"))

	if !okP || !okS || len(pipelines) == 0 || len(services) == 0 || len(pipelines) != len(services) {
		h.reg.IncValidationErrors()
		jsonErr(w, http.StatusBadRequest,
			"pipelines and services must be non-empty comma-separated lists of equal length")
		return
	}

	h.reg.IncRequests()

	// A dead runtime endpoint fails the whole request before any unit runs.
	pingCtx, cancel := context.WithTimeout(r.Context(), h.pingTimeout)
	defer cancel()
	if err := h.rt.Ping(pingCtx); err != nil {
		h.logger.ErrorContext(r.Context(), "container runtime unreachable", "err", err)
		jsonErr(w, http.StatusServiceUnavailable, "container runtime unreachable")
		return
	}

	outcomes := h.agg.Aggregate(r.Context(), pipelines, services)
	for _, o := range outcomes {
		h.reg.IncOutcome(o.Code)
	}

	jsonResp(w, http.StatusOK, NewStatsResponse(outcomes))
}

// health serves GET /health — liveness plus runtime reachability.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.pingTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", RuntimeReachable: true}
	if err := h.rt.Ping(ctx); err != nil {
		resp.RuntimeReachable = false
	}
	jsonResp(w, http.StatusOK, resp)
}

// --- helpers ----------------------------------------------------------------

// splitCSV parses a comma-separated list, trimming whitespace per entry.
// Returns ok=false when any entry is empty ("a,,b"). An empty input is an
// empty list, not an error — length validation happens at the call site.
func splitCSV(s string) ([]string, bool) {
	if s == "" {
		return nil, true
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, false
		}
		out = append(out, p)
	}
	return out, true
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
