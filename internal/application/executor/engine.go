package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/flowgraph-io/flowgraph/internal/domain"
	"github.com/flowgraph-io/flowgraph/internal/domain/errors"
	"github.com/flowgraph-io/flowgraph/internal/infrastructure/monitoring"
)

// ExecMethod selects how a plan is driven.
type ExecMethod string

const (
	// MethodSequential executes operations inline, in plan order.
	MethodSequential ExecMethod = "sequential"
	// MethodParallel executes ready operations on a bounded worker pool.
	MethodParallel ExecMethod = "parallel"
)

// EngineConfig holds configuration for the execution engine.
type EngineConfig struct {
	// Method selects sequential or parallel execution.
	Method ExecMethod

	// MaxParallelOps bounds how many user functions run concurrently in
	// parallel mode.
	MaxParallelOps int

	// OpTimeout bounds one operation's function call; zero disables.
	OpTimeout time.Duration
	// RunTimeout bounds a whole execution; zero disables.
	RunTimeout time.Duration

	// AnnotateErrors wraps user-function failures with the diagnostic
	// payload (operation identity, plan steps, solution keys).
	AnnotateErrors bool

	// Logger receives engine debug/warn lines.
	Logger zerolog.Logger
}

// DefaultEngineConfig returns the default configuration: sequential,
// annotated errors, no timeouts.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Method:         MethodSequential,
		MaxParallelOps: 10,
		AnnotateErrors: true,
		Logger:         zerolog.Nop(),
	}
}

// Engine drives plans to solutions. It is stateless across runs and
// safe for concurrent use.
type Engine struct {
	config    EngineConfig
	observers *monitoring.ObserverManager
	log       zerolog.Logger
}

// NewEngine creates an engine with the given configuration.
func NewEngine(config EngineConfig) *Engine {
	if config.Method == "" {
		config.Method = MethodSequential
	}
	if config.MaxParallelOps <= 0 {
		config.MaxParallelOps = DefaultEngineConfig().MaxParallelOps
	}
	return &Engine{
		config:    config,
		observers: monitoring.NewObserverManager(),
		log:       config.Logger,
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig { return e.config }

// AddObserver attaches a run observer.
func (e *Engine) AddObserver(observer monitoring.RunObserver) {
	e.observers.AddObserver(observer)
}

// Compute compiles the network for the inputs' key-set and executes the
// resulting plan.
func (e *Engine) Compute(ctx context.Context, n *Network, inputs map[string]any, outputs []string, predicate *NodePredicate) (*Solution, error) {
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	plan, err := n.Compile(keys, outputs, predicate)
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, plan, inputs)
}

// Execute drives the plan against concrete inputs. Once execution has
// started the returned solution is non-nil even on fatal failures and
// aborts, carrying the partial results alongside the returned error.
func (e *Engine) Execute(ctx context.Context, plan *Plan, inputs map[string]any) (*Solution, error) {
	var missing []string
	for _, d := range plan.RequiredNeeds() {
		if _, ok := inputs[d.Key()]; !ok {
			missing = append(missing, d.Key())
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewInvalidValue(
			fmt.Sprintf("plan needs more inputs: [%s]", strings.Join(missing, ", ")), nil)
	}
	sol := NewSolution(plan, inputs)
	return sol, e.Run(ctx, sol)
}

// Run drives a freshly created solution to completion. Callers that
// need the abort handle before execution starts create the solution
// with NewSolution and pass it here.
func (e *Engine) Run(ctx context.Context, sol *Solution) error {
	plan := sol.Plan()
	if e.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.RunTimeout)
		defer cancel()
	}

	runID := sol.ID().String()
	e.observers.NotifyRunStarted(plan.networkName, runID)
	e.log.Debug().Str("network", plan.networkName).Str("run", runID).
		Int("ops", len(plan.ops)).Msg("executing plan")

	var err error
	switch e.config.Method {
	case MethodParallel:
		err = e.runParallel(ctx, plan, sol)
	default:
		err = e.runSequential(ctx, plan, sol)
	}

	sol.finish()
	if err != nil {
		e.observers.NotifyRunFailed(plan.networkName, runID, err, sol.Duration())
		return err
	}
	e.observers.NotifyRunCompleted(plan.networkName, runID, sol.Duration())
	return nil
}

// dispatch runs one operation's function, honouring the per-operation
// timeout, and reports the outcome with its duration.
func (e *Engine) dispatch(ctx context.Context, sol *Solution, op *domain.Operation) (*invocation, time.Duration, error) {
	e.observers.NotifyOpStarted(sol.ID().String(), op.Name())
	if e.config.OpTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.OpTimeout)
		defer cancel()
	}
	start := time.Now()
	inv, err := invokeOp(ctx, op, sol)
	return inv, time.Since(start), err
}

// applyResult publishes one operation's outcome to the solution. The
// returned error is non-nil only for fatal (non-endured) failures.
func (e *Engine) applyResult(sol *Solution, op *domain.Operation, planIndex int, inv *invocation, invErr error, duration time.Duration) error {
	runID := sol.ID().String()
	if invErr != nil {
		err := invErr
		if e.config.AnnotateErrors {
			err = errors.NewOpError(op.Name(), sol.plan.StepNames(), sol.Keys(), invErr)
		}
		sol.markFailed(op.Name(), err)
		e.observers.NotifyOpFailed(runID, op.Name(), err, duration, op.Endured())
		e.log.Warn().Str("run", runID).Str("op", op.Name()).Err(invErr).
			Bool("endured", op.Endured()).Msg("operation failed")
		if op.Endured() {
			return nil
		}
		return err
	}

	// Publish in declared provide order so provenance stays stable.
	for _, key := range op.ProvideKeys() {
		if v, ok := inv.produced[key]; ok {
			sol.writeValue(key, v, op.Name(), planIndex)
		}
	}
	if len(inv.missing) > 0 {
		sol.markRescheduled(op.Name(), inv.missing)
		e.observers.NotifyOpRescheduled(runID, op.Name(), inv.missing)
		return nil
	}
	sol.setStatus(op.Name(), OpStatusOK)
	e.observers.NotifyOpCompleted(runID, op.Name(), duration)
	return nil
}

// opRunnable reports whether every gating need of op is present.
func opRunnable(sol *Solution, op *domain.Operation) bool {
	for _, key := range op.RequiredNeedKeys() {
		if !sol.Has(key) {
			return false
		}
	}
	return true
}

// opDoomed reports whether some gating need of op can no longer appear:
// absent, never evicted, and every plan producer already terminal
// without having produced it.
func opDoomed(sol *Solution, plan *Plan, op *domain.Operation) bool {
	for _, key := range op.RequiredNeedKeys() {
		if sol.Has(key) || sol.wasEvicted(key) {
			continue
		}
		alive := false
		for _, producer := range plan.producers[key] {
			if !sol.Status(producer).terminal() {
				alive = true
				break
			}
		}
		if !alive {
			return true
		}
	}
	return false
}

// cancelPending transitions every non-terminal operation to cancelled
// and returns their names.
func (e *Engine) cancelPending(sol *Solution) []string {
	runID := sol.ID().String()
	var cancelled []string
	for _, op := range sol.plan.ops {
		name := op.Name()
		if sol.Status(name).terminal() {
			continue
		}
		sol.setStatus(name, OpStatusCancelled)
		e.observers.NotifyOpCancelled(runID, name)
		cancelled = append(cancelled, name)
	}
	return cancelled
}
