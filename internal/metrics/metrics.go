// Package metrics tracks service-level counters and exposes them at
// /metrics in the Prometheus text exposition format.
package metrics

import (
	"net/http"
	"sync/atomic"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Outcome label values for the fetch outcome counter.
const (
	OutcomeOK           = "ok"
	OutcomeNotFound     = "not_found"
	OutcomeRuntimeError = "runtime_error"
)

// Registry holds the service counters. All methods are safe for
// concurrent use. The zero value is not usable — call New.
type Registry struct {
	requests         atomic.Uint64
	validationErrors atomic.Uint64
	outcomesOK       atomic.Uint64
	outcomesNotFound atomic.Uint64
	outcomesRuntime  atomic.Uint64
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

// IncRequests counts one served stats request.
func (r *Registry) IncRequests() { r.requests.Add(1) }

// IncValidationErrors counts one request rejected before any fetch work.
func (r *Registry) IncValidationErrors() { r.validationErrors.Add(1) }

// IncOutcome counts one fetch outcome by its error code; an empty code
// counts as ok.
func (r *Registry) IncOutcome(code string) {
	switch code {
	case "":
		r.outcomesOK.Add(1)
	case OutcomeNotFound:
		r.outcomesNotFound.Add(1)
	default:
		r.outcomesRuntime.Add(1)
	}
}

// ServeHTTP renders all counters in the Prometheus text format.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range r.gather() {
		enc.Encode(mf) //nolint:errcheck
	}
}

// gather materialises the counters as metric families.
func (r *Registry) gather() []*dto.MetricFamily {
	return []*dto.MetricFamily{
		counterFamily("dockstats_requests_total",
			"Total stats requests served.",
			counter(nil, r.requests.Load())),
		counterFamily("dockstats_validation_errors_total",
			"Requests rejected for malformed shape before any fetch work.",
			counter(nil, r.validationErrors.Load())),
		counterFamily("dockstats_fetch_outcomes_total",
			"Per-pair fetch outcomes by result.",
			counter(map[string]string{"outcome": OutcomeOK}, r.outcomesOK.Load()),
			counter(map[string]string{"outcome": OutcomeNotFound}, r.outcomesNotFound.Load()),
			counter(map[string]string{"outcome": OutcomeRuntimeError}, r.outcomesRuntime.Load())),
	}
}

func counterFamily(name, help string, metrics ...*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   strPtr(name),
		Help:   strPtr(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: metrics,
	}
}

func counter(labels map[string]string, v uint64) *dto.Metric {
	m := &dto.Metric{
		Counter: &dto.Counter{Value: f64Ptr(float64(v))},
	}
	for k, val := range labels {
		m.Label = append(m.Label, &dto.LabelPair{
			Name:  strPtr(k),
			Value: strPtr(val),
		})
	}
	return m
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
