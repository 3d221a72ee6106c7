// Package batch executes collections of heterogeneous health checks in
// parallel with bounded concurrency, per-check timeout isolation, and
// deterministic result aggregation.
//
// The Runner submits every request of a chunk to a bounded worker Pool,
// waits for each one to complete or exhaust its wait budget, and assembles a
// Result whose item order always matches submission order regardless of
// completion order. Per-check failures of any sort are data, not errors:
// nothing unexpected escapes Run.
//
// A per-check timeout stops the coordinator from waiting on a unit but does
// not interrupt the worker goroutine blocked inside the check's I/O call.
// The orphaned worker keeps its pool slot until the underlying I/O layer's
// own timeout fires, so callers should still set conservative timeouts in
// each check's configuration.
package batch
