package executor

import (
	"context"

	"github.com/flowgraph-io/flowgraph/internal/domain/errors"
)

// runSequential executes the plan's steps inline, in order. Evictions
// follow the plan's precomputed schedule; the abort flag is honoured
// between steps.
func (e *Engine) runSequential(ctx context.Context, plan *Plan, sol *Solution) error {
	runID := sol.ID().String()
	for _, step := range plan.steps {
		if step.IsEvict() {
			if sol.evict(step.Evict) {
				e.observers.NotifyDataEvicted(runID, step.Evict)
				e.log.Debug().Str("run", runID).Str("key", step.Evict).Msg("evicted")
			}
			continue
		}

		if sol.IsAborted() || ctx.Err() != nil {
			cancelled := e.cancelPending(sol)
			return errors.NewAborted(runID, cancelled)
		}

		op := step.Op
		if !opRunnable(sol, op) {
			// A gating need never materialised: its producer failed or
			// rescheduled it away.
			sol.setStatus(op.Name(), OpStatusCancelled)
			e.observers.NotifyOpCancelled(runID, op.Name())
			continue
		}

		planIndex, _ := plan.Index(op.Name())
		sol.setStatus(op.Name(), OpStatusReady)
		sol.setStatus(op.Name(), OpStatusRunning)
		inv, duration, err := e.dispatch(ctx, sol, op)
		if fatal := e.applyResult(sol, op, planIndex, inv, err, duration); fatal != nil {
			e.cancelPending(sol)
			return fatal
		}
	}
	return nil
}
