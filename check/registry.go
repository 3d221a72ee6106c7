package check

import (
	"context"
	"sort"
	"sync"
)

// Checker executes one check against one target.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: implementations should honor cancellation where their I/O
//   layer allows it, and must bound their own I/O with conservative
//   timeouts since a blocked syscall cannot be interrupted from outside.
// - Errors: failures are reported through the Outcome, never by panicking;
//   a panic is still contained by the Invoker as a last resort.
type Checker interface {
	Check(ctx context.Context, config map[string]any) Outcome
}

// CheckerFunc is an adapter to allow ordinary functions to be used as
// Checkers.
type CheckerFunc func(ctx context.Context, config map[string]any) Outcome

// Check performs the check.
func (f CheckerFunc) Check(ctx context.Context, config map[string]any) Outcome {
	return f(ctx, config)
}

// Registry is an explicit, inspectable table of checkers keyed by type tag.
// It is safe for concurrent use. Construct one at startup and pass it to the
// batch runner.
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{checkers: make(map[string]Checker)}
}

// Register adds a checker under the given type tag.
// Returns ErrDuplicateType if the tag is already taken.
func (r *Registry) Register(checkType string, c Checker) error {
	if c == nil {
		return ErrNilChecker
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.checkers[checkType]; exists {
		return ErrDuplicateType
	}
	r.checkers[checkType] = c
	return nil
}

// MustRegister is like Register but panics on error. Intended for the
// static table built at process start.
func (r *Registry) MustRegister(checkType string, c Checker) {
	if err := r.Register(checkType, c); err != nil {
		panic(err)
	}
}

// Lookup returns the checker for the given type tag.
func (r *Registry) Lookup(checkType string) (Checker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.checkers[checkType]
	return c, ok
}

// Types returns the registered type tags in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.checkers))
	for t := range r.checkers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Ensure CheckerFunc implements Checker
var _ Checker = (CheckerFunc)(nil)
