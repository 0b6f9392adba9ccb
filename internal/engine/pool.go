package engine

import (
	"errors"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ErrTaskFailed wraps a panic recovered from a pool task.
var ErrTaskFailed = errors.New("engine task failed")

// Pool bounds the total concurrency of every parallel loop in a run, nested
// loops included. The calling goroutine always takes part in the work, so a
// pool of N workers holds N-1 helper tokens.
//
// A range that cannot get a token runs inline on the caller. Nested loops
// therefore never wait for a token held by their own parent and cannot
// deadlock, and they never oversubscribe past the pool size.
type Pool struct {
	workers int
	tokens  *semaphore.Weighted
}

// NewPool creates a pool for the given number of workers. Values below 1 are
// treated as 1, which runs every loop inline.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{workers: workers}
	if workers > 1 {
		p.tokens = semaphore.NewWeighted(int64(workers - 1))
	}
	return p
}

// Workers reports the pool size.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workers
}

// For runs body over [0, n) split into ranges of at most grain items and
// blocks until every range has finished (fork-join). The first error, or a
// recovered panic wrapped in ErrTaskFailed, is returned once all ranges are
// done.
func (p *Pool) For(n, grain int, body func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	if grain < 1 {
		grain = 1
	}
	if p == nil || p.tokens == nil || n <= grain {
		return runRange(body, 0, n)
	}

	var g errgroup.Group
	var inlineErr error
	for lo := 0; lo < n; lo += grain {
		hi := min(lo+grain, n)
		if p.tokens.TryAcquire(1) {
			g.Go(func() error {
				defer p.tokens.Release(1)
				return runRange(body, lo, hi)
			})
			continue
		}
		if err := runRange(body, lo, hi); err != nil && inlineErr == nil {
			inlineErr = err
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return inlineErr
}

// Sum is a fold-then-merge reduction over [0, n): each range folds into its
// own partial slot and the partials are merged in range order after the join.
func (p *Pool) Sum(n, grain int, fold func(lo, hi int) float32) (float32, error) {
	if n <= 0 {
		return 0, nil
	}
	if grain < 1 {
		grain = 1
	}
	partials := make([]float32, (n+grain-1)/grain)
	err := p.For(n, grain, func(lo, hi int) error {
		partials[lo/grain] = fold(lo, hi)
		return nil
	})
	if err != nil {
		return 0, err
	}
	var total float32
	for _, v := range partials {
		total += v
	}
	return total, nil
}

// runRange executes one range, turning a panic into an error so it travels
// back through the join instead of killing a helper goroutine.
func runRange(body func(lo, hi int) error, lo, hi int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("range [%d,%d): %v: %w\n%s", lo, hi, r, ErrTaskFailed, debug.Stack())
		}
	}()
	return body(lo, hi)
}
