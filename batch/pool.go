package batch

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of concurrently executing work units. Submissions
// beyond the pool size queue on the semaphore (unbounded queue, bounded
// concurrency) until a slot frees.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - A unit holds its slot until its function returns, even when the
//   submitter has stopped waiting for it.
// - Failure containment is the responsibility of the unit body (the check
//   invoker converts panics into error outcomes before they reach the pool).
type Pool struct {
	size int
	sem  *semaphore.Weighted
	wg   sync.WaitGroup

	mu        sync.Mutex
	active    int
	maxActive int
	completed int64
}

// NewPool creates a pool with the given number of slots.
// Sizes below one are clamped to one.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		size: size,
		sem:  semaphore.NewWeighted(int64(size)),
	}
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return p.size
}

// Go acquires a slot, blocking until one frees or ctx is done, then runs fn
// in its own goroutine. The slot is released when fn returns.
func (p *Pool) Go(ctx context.Context, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	p.mu.Lock()
	p.active++
	if p.active > p.maxActive {
		p.maxActive = p.active
	}
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer func() {
			p.mu.Lock()
			p.active--
			p.completed++
			p.mu.Unlock()
			p.sem.Release(1)
			p.wg.Done()
		}()
		fn()
	}()
	return nil
}

// Wait blocks until every submitted unit has finished, including units
// whose submitter abandoned them after a timeout.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Metrics returns current pool statistics.
func (p *Pool) Metrics() PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()

	return PoolMetrics{
		Size:      p.size,
		Active:    p.active,
		MaxActive: p.maxActive,
		Completed: p.completed,
	}
}

// PoolMetrics contains pool statistics.
type PoolMetrics struct {
	Size      int
	Active    int
	MaxActive int
	Completed int64
}
