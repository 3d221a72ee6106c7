// Package check defines the data model for health checks: requests,
// outcomes, the checker registry, and the invoker that executes a single
// check with full failure containment.
//
// Checkers are registered in an explicit Registry keyed by type tag and the
// Registry is passed to whatever runs the checks; there is no package-level
// mutable state.
package check
