// Package api is the HTTP boundary. It parses and validates the parallel
// pipelines/services lists, invokes the aggregator, and serialises the
// per-service outcomes. Partial failures are carried in the 200 body;
// only malformed requests (400) and a completely unreachable runtime
// (503) fail the whole request.
package api
