package check

import (
	"context"
	"fmt"
	"time"
)

// Invoker resolves a type tag against a registry and executes the checker
// with full failure containment: unknown types, checker panics, and any
// other failure mode are converted into an error-kind Outcome. Invoke never
// panics and never returns an error to its caller, which is what keeps one
// broken check from aborting the rest of a batch.
type Invoker struct {
	registry *Registry
}

// NewInvoker creates an invoker backed by the given registry.
func NewInvoker(registry *Registry) *Invoker {
	return &Invoker{registry: registry}
}

// Invoke executes the checker registered for checkType. The returned
// outcome's Elapsed covers only the checker call itself.
func (inv *Invoker) Invoke(ctx context.Context, checkType string, config map[string]any) Outcome {
	c, ok := inv.registry.Lookup(checkType)
	if !ok {
		return Failuref("unknown check type %q", checkType).WithRaw(map[string]any{
			"check_type": checkType,
		})
	}

	start := time.Now()
	outcome := inv.invokeContained(ctx, c, config)
	elapsed := time.Since(start)
	if elapsed < 0 {
		elapsed = 0
	}
	return outcome.WithElapsed(elapsed)
}

// invokeContained runs the checker and converts a panic into an error
// outcome carrying the recovered value's type name and description.
func (inv *Invoker) invokeContained(ctx context.Context, c Checker, config map[string]any) (outcome Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			outcome = Failuref("check panicked: %v", rec).WithRaw(map[string]any{
				"panic_type":  fmt.Sprintf("%T", rec),
				"panic_value": fmt.Sprint(rec),
			})
		}
	}()

	return c.Check(ctx, config)
}
