package stats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Aggregator fans fetch units out concurrently over the requested pairs.
//
// Duplicate (pipeline, service) pairs are fetched once and the outcome is
// shared across positions — snapshots are immutable per request, so a
// repeat runtime call is wasted latency.
type Aggregator struct {
	fetcher        *Fetcher
	maxInFlight    int64
	requestTimeout time.Duration
	logger         *slog.Logger
}

// NewAggregator builds an Aggregator. maxInFlight bounds concurrently
// in-flight runtime queries per request; requestTimeout bounds the whole
// request even when every unit is individually within its own timeout.
func NewAggregator(f *Fetcher, maxInFlight int, requestTimeout time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		fetcher:        f,
		maxInFlight:    int64(maxInFlight),
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

type pair struct {
	pipeline, service string
}

// Aggregate runs one fetch unit per unique pair and returns one Outcome
// per requested position, in request order. pipelines and services must be
// the same length — the HTTP handler rejects mismatches before this point.
//
// Each unique pair owns a distinct output slot, so the units share no
// mutable state. When the request deadline expires, units still waiting
// for a fan-out slot resolve to timeout outcomes and units in flight have
// their runtime I/O cancelled; completed siblings are returned as-is.
func (a *Aggregator) Aggregate(ctx context.Context, pipelines, services []string) []Outcome {
	ctx, cancel := context.WithTimeout(ctx, a.requestTimeout)
	defer cancel()

	order := make([]pair, 0, len(services))
	slots := make(map[pair]*Outcome, len(services))
	uniq := make([]pair, 0, len(services))
	for i := range services {
		p := pair{pipeline: pipelines[i], service: services[i]}
		order = append(order, p)
		if _, seen := slots[p]; !seen {
			slots[p] = &Outcome{}
			uniq = append(uniq, p)
		}
	}

	start := time.Now()
	sem := semaphore.NewWeighted(a.maxInFlight)
	var wg sync.WaitGroup
	for _, p := range uniq {
		out := slots[p]
		wg.Add(1)
		go func(p pair, out *Outcome) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				// Request deadline expired while queued for a slot.
				*out = Outcome{
					Pipeline: p.pipeline,
					Service:  p.service,
					Code:     ErrRuntime,
					Detail:   "timeout",
				}
				return
			}
			defer sem.Release(1)

			*out = a.fetcher.Fetch(ctx, p.pipeline, p.service)
		}(p, out)
	}
	wg.Wait()

	a.logger.DebugContext(ctx, "aggregation complete",
		"requested", len(order),
		"unique", len(uniq),
		"elapsed", time.Since(start),
	)

	results := make([]Outcome, len(order))
	for i, p := range order {
		results[i] = *slots[p]
	}
	return results
}
