package executor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flowgraph-io/flowgraph/internal/domain"
	"github.com/flowgraph-io/flowgraph/internal/domain/errors"
)

// waveResult carries one worker's outcome back to the driver.
type waveResult struct {
	op       *domain.Operation
	index    int
	inv      *invocation
	err      error
	duration time.Duration
}

// runParallel executes the plan wave by wave: every operation whose
// gating needs are present runs concurrently on a semaphore-bounded
// pool. User functions run outside the solution lock; the driver
// applies each wave's results in plan-index order, which resolves
// same-name write ties deterministically by plan order. Eviction runs
// only on the driver, between waves.
func (e *Engine) runParallel(ctx context.Context, plan *Plan, sol *Solution) error {
	runID := sol.ID().String()

	for {
		if sol.IsAborted() || ctx.Err() != nil {
			cancelled := e.cancelPending(sol)
			return errors.NewAborted(runID, cancelled)
		}

		// Settle doomed operations before picking the next wave, so
		// their dependents settle too on the following rounds.
		for settled := true; settled; {
			settled = false
			for _, op := range plan.ops {
				if sol.Status(op.Name()) != OpStatusPending {
					continue
				}
				if opDoomed(sol, plan, op) {
					sol.setStatus(op.Name(), OpStatusCancelled)
					e.observers.NotifyOpCancelled(runID, op.Name())
					settled = true
				}
			}
		}

		var wave []*domain.Operation
		pending := 0
		for _, op := range plan.ops {
			if sol.Status(op.Name()) != OpStatusPending {
				continue
			}
			pending++
			if opRunnable(sol, op) {
				sol.setStatus(op.Name(), OpStatusReady)
				wave = append(wave, op)
			}
		}
		if pending == 0 {
			return nil
		}
		if len(wave) == 0 {
			// The remaining operations can never become runnable.
			e.cancelPending(sol)
			return nil
		}

		results := make([]waveResult, len(wave))
		sem := make(chan struct{}, e.config.MaxParallelOps)
		var wg sync.WaitGroup
		for i, op := range wave {
			planIndex, _ := plan.Index(op.Name())
			sol.setStatus(op.Name(), OpStatusRunning)
			wg.Add(1)
			go func(i int, op *domain.Operation, planIndex int) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				inv, duration, err := e.dispatch(ctx, sol, op)
				results[i] = waveResult{op: op, index: planIndex, inv: inv, err: err, duration: duration}
			}(i, op, planIndex)
		}
		wg.Wait()

		// Apply in plan-index order: the wave is already plan-ordered.
		var fatal error
		for _, r := range results {
			if err := e.applyResult(sol, r.op, r.index, r.inv, r.err, r.duration); err != nil && fatal == nil {
				fatal = err
			}
		}
		if fatal != nil {
			e.cancelPending(sol)
			return fatal
		}

		if plan.outputs != nil {
			e.evictStale(plan, sol)
		}
	}
}

// evictStale drops, between waves, every present value that is not a
// requested output and that no unfinished operation still needs.
func (e *Engine) evictStale(plan *Plan, sol *Solution) {
	runID := sol.ID().String()
	outSet := make(map[string]bool, len(plan.outputs))
	for _, o := range plan.outputs {
		outSet[o] = true
	}

	stillNeeded := make(map[string]bool)
	for _, op := range plan.ops {
		if sol.Status(op.Name()).terminal() {
			continue
		}
		for _, key := range op.NeedKeys() {
			stillNeeded[key] = true
		}
	}

	var stale []string
	for _, key := range sol.Keys() {
		if !outSet[key] && !stillNeeded[key] {
			stale = append(stale, key)
		}
	}
	sort.Strings(stale)
	for _, key := range stale {
		if sol.evict(key) {
			e.observers.NotifyDataEvicted(runID, key)
			e.log.Debug().Str("run", runID).Str("key", key).Msg("evicted")
		}
	}
}
