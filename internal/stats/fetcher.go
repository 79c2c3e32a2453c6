package stats

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dockstats/dockstats/internal/compose"
	"github.com/dockstats/dockstats/internal/runtime"
)

// Fetcher retrieves one fresh stats snapshot per (pipeline, service) pair.
// No caching across requests — staleness is bounded only by the runtime's
// own reporting latency.
type Fetcher struct {
	rt          runtime.Runtime
	unitTimeout time.Duration
	logger      *slog.Logger
}

// NewFetcher wires a Fetcher to the given runtime collaborator.
// unitTimeout bounds each individual fetch.
func NewFetcher(rt runtime.Runtime, unitTimeout time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{rt: rt, unitTimeout: unitTimeout, logger: logger}
}

// Fetch resolves the pair to a container name, queries the runtime and
// returns an Outcome. It always returns — failures are carried in the
// outcome, never propagated.
func (f *Fetcher) Fetch(ctx context.Context, pipeline, service string) Outcome {
	out := Outcome{Pipeline: pipeline, Service: service}

	ctx, cancel := context.WithTimeout(ctx, f.unitTimeout)
	defer cancel()

	name := compose.Resolve(pipeline, service)

	containers, err := f.rt.ListContainers(ctx, name)
	if err != nil {
		return f.fail(ctx, out, name, err)
	}
	if len(containers) == 0 {
		out.Code = ErrNotFound
		return out
	}

	// A stopped container has no live usage to report — same outcome as
	// a service that has not started yet.
	c := containers[0]
	if !c.Running {
		out.Code = ErrNotFound
		out.Detail = "container not running"
		return out
	}

	sample, err := f.rt.StatsSample(ctx, c.ID)
	if err != nil {
		return f.fail(ctx, out, name, err)
	}

	out.Snapshot = &Snapshot{
		Service:          service,
		CPUPercent:       runtime.CPUPercent(sample.PreCPU, sample.CPU),
		MemoryUsageBytes: runtime.MemoryUsage(sample.Memory),
		MemoryLimitBytes: sample.Memory.Limit,
	}
	return out
}

// fail classifies a runtime error into the outcome. Deadline or
// cancellation becomes a plain "timeout" detail.
func (f *Fetcher) fail(ctx context.Context, out Outcome, name string, err error) Outcome {
	out.Code = ErrRuntime
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		out.Detail = "timeout"
	} else {
		out.Detail = err.Error()
	}

	f.logger.WarnContext(ctx, "fetch failed",
		"pipeline", out.Pipeline,
		"service", out.Service,
		"container", name,
		"err", err,
	)
	return out
}
