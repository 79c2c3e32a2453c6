// Package stats is the resolution-and-aggregation core.
//
// fetcher.go turns one (pipeline, service) pair into an Outcome: it
// resolves the compose container name, asks the runtime for the matching
// container and a fresh stats sample, and derives the snapshot values.
// A missing or stopped container is a not_found outcome, a collaborator
// failure a runtime_error — never an error escaping to the caller.
//
// aggregator.go fans fetches out concurrently over the requested pairs
// with a bounded number in flight, deduplicates repeated pairs, applies
// per-unit and whole-request timeouts, and returns one outcome per
// requested position in request order.
package stats
