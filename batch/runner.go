package batch

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/probeops/check"
	"github.com/jonwraymond/probeops/observe"
)

// DefaultMaxWorkers returns the default pool size: a moderate multiple of
// the available parallelism, capped to avoid connection exhaustion on the
// probed hosts.
func DefaultMaxWorkers() int {
	n := 4 * runtime.GOMAXPROCS(0)
	if n > 32 {
		n = 32
	}
	return n
}

// RunnerConfig configures the batch runner.
type RunnerConfig struct {
	// MaxWorkers is the number of checks that may execute concurrently.
	// Default: DefaultMaxWorkers()
	MaxWorkers int

	// ChunkSize partitions large batches into consecutive chunks processed
	// sequentially, each fully resolved before the next begins. This trades
	// total latency for bounded peak resource usage on very large batches.
	// Default: 0 (no chunking)
	ChunkSize int

	// PerCheckTimeout bounds the coordinator's wait on a single check
	// invocation, measured from invocation start so queueing delay is
	// excluded. On expiry an error outcome is synthesized; the worker is
	// not interrupted. Default: 0 (no per-check wait budget)
	PerCheckTimeout time.Duration

	// BatchTimeout bounds the whole run. On expiry every unresolved
	// request gets a synthesized error outcome and Run returns promptly.
	// Default: 0 (no batch budget)
	BatchTimeout time.Duration

	// Observer supplies tracing, metrics, and logging.
	// Default: nil (telemetry disabled)
	Observer observe.Observer
}

// Validate validates the configuration. Zero values mean "use the default";
// negative values are caller-contract violations.
func (c *RunnerConfig) Validate() error {
	if c.MaxWorkers < 0 {
		return ErrInvalidMaxWorkers
	}
	if c.ChunkSize < 0 {
		return ErrInvalidChunkSize
	}
	if c.PerCheckTimeout < 0 || c.BatchTimeout < 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// Runner executes batches of check requests. A Runner is reusable and safe
// for concurrent use; every Run gets its own pool.
type Runner struct {
	config  RunnerConfig
	invoker *check.Invoker
	tel     *telemetry
}

// NewRunner creates a runner over the given registry.
func NewRunner(registry *check.Registry, config RunnerConfig) (*Runner, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Apply defaults
	if config.MaxWorkers == 0 {
		config.MaxWorkers = DefaultMaxWorkers()
	}

	tel, err := newTelemetry(config.Observer)
	if err != nil {
		return nil, err
	}

	return &Runner{
		config:  config,
		invoker: check.NewInvoker(registry),
		tel:     tel,
	}, nil
}

// Config returns the runner configuration after defaulting.
func (r *Runner) Config() RunnerConfig {
	return r.config
}

// Run executes the batch and returns one result per request, ordered by
// submission order regardless of completion order. Per-check failures,
// unknown types, and timeouts are all reported as error-kind outcomes in
// the result stream; Run itself never fails once the runner is constructed.
func (r *Runner) Run(ctx context.Context, requests []check.Request) (*Result, error) {
	start := time.Now()
	batchID := uuid.NewString()
	logger := r.tel.logger.WithBatch(batchID)

	ctx, span := r.tel.tracer.Start(ctx, "batch.run", trace.WithAttributes(
		attribute.String("batch.id", batchID),
		attribute.Int("batch.size", len(requests)),
		attribute.Int("batch.max_workers", r.config.MaxWorkers),
	))
	defer span.End()

	runCtx := ctx
	if r.config.BatchTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.config.BatchTimeout)
		defer cancel()
	}

	// Identities are fixed up front so result order and identity are
	// independent of execution.
	items := make([]ItemResult, len(requests))
	for i := range requests {
		items[i].ID = requests[i].ID
		if items[i].ID == "" {
			items[i].ID = fmt.Sprintf("check-%04d", i+1)
		}
	}

	pool := NewPool(r.config.MaxWorkers)

	chunkSize := r.config.ChunkSize
	if chunkSize <= 0 {
		chunkSize = len(requests)
	}

	for lo := 0; lo < len(requests); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(requests) {
			hi = len(requests)
		}

		if runCtx.Err() != nil {
			// Batch budget exhausted: synthesize the remaining requests
			// without submitting them.
			for i := lo; i < len(requests); i++ {
				items[i].Outcome = batchTimeoutOutcome()
				r.tel.recordCheck(ctx, requests[i].Type, items[i].Outcome, true)
			}
			break
		}

		r.runChunk(runCtx, pool, requests[lo:hi], items[lo:hi], logger)
	}

	result := aggregate(batchID, items, time.Since(start))
	r.tel.recordBatch(ctx, result, result.Elapsed)
	span.SetAttributes(
		attribute.Int("batch.success", result.Summary.Success),
		attribute.Int("batch.warning", result.Summary.Warning),
		attribute.Int("batch.error", result.Summary.Error),
	)
	logger.Info(ctx, "batch complete",
		observe.Field{Key: "size", Value: len(result.Items)},
		observe.Field{Key: "success", Value: result.Summary.Success},
		observe.Field{Key: "warning", Value: result.Summary.Warning},
		observe.Field{Key: "error", Value: result.Summary.Error},
		observe.Field{Key: "elapsed_ms", Value: result.Elapsed.Milliseconds()},
	)
	return result, nil
}

// runChunk submits every request of the chunk essentially simultaneously
// and waits until each one is resolved, by completion or by synthesis.
// Every waiter writes only its own item slot.
func (r *Runner) runChunk(ctx context.Context, pool *Pool, reqs []check.Request, items []ItemResult, logger observe.Logger) {
	var wg sync.WaitGroup
	for i := range reqs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, timedOut := r.runOne(ctx, pool, reqs[i], items[i].ID)
			items[i].Outcome = out
			r.tel.recordCheck(ctx, reqs[i].Type, out, timedOut)
			logger.Debug(ctx, "check resolved",
				observe.Field{Key: "check.id", Value: items[i].ID},
				observe.Field{Key: "check.type", Value: reqs[i].Type},
				observe.Field{Key: "outcome", Value: out.Kind.String()},
			)
		}(i)
	}
	wg.Wait()
}

// runOne resolves a single request: it acquires a pool slot, runs the
// invocation in a worker goroutine, and waits up to the per-check budget.
// The worker owns its slot until the invocation returns, so an abandoned
// worker keeps running in the background with its result discarded.
// The second return value reports whether the outcome was synthesized for
// a timeout.
func (r *Runner) runOne(ctx context.Context, pool *Pool, req check.Request, id string) (check.Outcome, bool) {
	// Malformed requests fail fast before entering the pool.
	if strings.TrimSpace(req.Type) == "" {
		return check.Failure("rejected: missing check_type"), false
	}

	outcomeCh := make(chan check.Outcome, 1)
	started := make(chan struct{})

	err := pool.Go(ctx, func() {
		ictx := ctx
		if r.config.PerCheckTimeout > 0 {
			var cancel context.CancelFunc
			ictx, cancel = context.WithTimeout(ctx, r.config.PerCheckTimeout)
			defer cancel()
		}
		ictx, span := r.tel.tracer.Start(ictx, "batch.check", trace.WithAttributes(
			attribute.String("check.id", id),
			attribute.String("check.type", req.Type),
		))
		close(started)
		out := r.invoker.Invoke(ictx, req.Type, req.Config)
		span.SetAttributes(attribute.String("outcome.kind", out.Kind.String()))
		span.End()
		outcomeCh <- out
	})
	if err != nil {
		// The batch was cut off while this request was still queued.
		return batchTimeoutOutcome(), true
	}

	// The per-check budget starts when the invocation starts, so queueing
	// delay is excluded.
	select {
	case out := <-outcomeCh:
		return out, false
	case <-started:
	case <-ctx.Done():
		return batchTimeoutOutcome(), true
	}

	var timeoutC <-chan time.Time
	if r.config.PerCheckTimeout > 0 {
		timer := time.NewTimer(r.config.PerCheckTimeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case out := <-outcomeCh:
		return out, false
	case <-timeoutC:
		return check.Failuref("timed out after %s", r.config.PerCheckTimeout).WithRaw(map[string]any{
			"timeout_seconds": r.config.PerCheckTimeout.Seconds(),
			"synthesized":     true,
		}), true
	case <-ctx.Done():
		return batchTimeoutOutcome(), true
	}
}

func batchTimeoutOutcome() check.Outcome {
	return check.Failure("batch timed out before check completed").WithRaw(map[string]any{
		"synthesized": true,
	})
}
