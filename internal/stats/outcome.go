package stats

// Outcome error codes surfaced in the HTTP response body.
const (
	// ErrNotFound — no matching container. Expected and common (service
	// not yet started, wrong name); never fatal to the request.
	ErrNotFound = "not_found"

	// ErrRuntime — the runtime query itself failed (socket error,
	// malformed payload, timeout). Non-fatal to the request.
	ErrRuntime = "runtime_error"
)

// Snapshot is one point-in-time resource measurement for a service.
// Immutable once constructed; not retained beyond the response.
type Snapshot struct {
	Service          string
	CPUPercent       float64 // may exceed 100 on multi-core hosts
	MemoryUsageBytes uint64
	MemoryLimitBytes uint64 // 0 when unlimited
}

// Outcome is the result of one (pipeline, service) fetch unit. Exactly one
// outcome is produced per requested pair, failure or not, so the aggregator
// never silently drops a requested service.
type Outcome struct {
	Pipeline string
	Service  string

	// Snapshot is set on success, nil otherwise.
	Snapshot *Snapshot

	// Code is empty on success, otherwise ErrNotFound or ErrRuntime.
	Code   string
	Detail string
}

// OK reports whether the fetch succeeded.
func (o Outcome) OK() bool { return o.Code == "" }
