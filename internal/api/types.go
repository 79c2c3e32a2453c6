package api

import (
	"bytes"
	"encoding/json"

	"github.com/dockstats/dockstats/internal/stats"
)

// ServiceStats is the success record for one service.
type ServiceStats struct {
	CPUPercent       float64 `json:"cpu_percent"`
	MemoryUsageBytes uint64  `json:"memory_usage_bytes"`
	MemoryLimitBytes uint64  `json:"memory_limit_bytes"`
}

// ServiceError is the error marker for one service.
type ServiceError struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse is the payload for GET /health.
type HealthResponse struct {
	Status           string `json:"status"`
	RuntimeReachable bool   `json:"runtime_reachable"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

// StatsResponse marshals the aggregator's outcomes as a JSON object keyed
// by bare service name. Keys are emitted in request order — a plain map
// would marshal with sorted keys. When the same service name was requested
// under two pipelines, the later-positioned occurrence's result wins.
type StatsResponse struct {
	outcomes []stats.Outcome
}

// NewStatsResponse wraps the aggregator's ordered outcomes.
func NewStatsResponse(outcomes []stats.Outcome) StatsResponse {
	return StatsResponse{outcomes: outcomes}
}

// MarshalJSON implements json.Marshaler.
func (r StatsResponse) MarshalJSON() ([]byte, error) {
	order := make([]string, 0, len(r.outcomes))
	chosen := make(map[string]stats.Outcome, len(r.outcomes))
	for _, o := range r.outcomes {
		if _, seen := chosen[o.Service]; !seen {
			order = append(order, o.Service)
		}
		chosen[o.Service] = o
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, svc := range order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(svc)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		o := chosen[svc]
		var record any
		if o.OK() {
			record = ServiceStats{
				CPUPercent:       o.Snapshot.CPUPercent,
				MemoryUsageBytes: o.Snapshot.MemoryUsageBytes,
				MemoryLimitBytes: o.Snapshot.MemoryLimitBytes,
			}
		} else {
			record = ServiceError{Error: o.Code, Detail: o.Detail}
		}
		val, err := json.Marshal(record)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
