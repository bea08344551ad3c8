package flowgraph

import (
	"context"

	"github.com/flowgraph-io/flowgraph/internal/application/executor"
)

// Engine drives plans to solutions.
type Engine = executor.Engine

// EngineConfig holds execution configuration.
type EngineConfig = executor.EngineConfig

// ExecMethod selects sequential or parallel execution.
type ExecMethod = executor.ExecMethod

// Execution methods.
const (
	MethodSequential = executor.MethodSequential
	MethodParallel   = executor.MethodParallel
)

// NodePredicate filters operations during compilation.
type NodePredicate = executor.NodePredicate

// NewEngine creates an engine with the given configuration.
func NewEngine(config EngineConfig) *Engine { return executor.NewEngine(config) }

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() EngineConfig { return executor.DefaultEngineConfig() }

// NewSolution seeds a solution for a plan; use with Engine.Run when the
// abort handle is needed before execution starts.
func NewSolution(plan *Plan, inputs map[string]any) *Solution {
	return executor.NewSolution(plan, inputs)
}

// NewPredicate wraps a plain function as a named node predicate.
func NewPredicate(name string, fn func(op *Operation) bool) *NodePredicate {
	return executor.NewPredicate(name, fn)
}

// NewExprPredicate compiles a boolean expression over an operation's
// node properties (plus "name") into a node predicate.
func NewExprPredicate(src string) (*NodePredicate, error) {
	return executor.NewExprPredicate(src)
}

// Compute compiles the network against the inputs' key-set and executes
// the plan on a default engine, honouring the network's composed-in
// execution method. Outputs narrow the result; with none requested the
// network's WithOutputs defaults apply, and without those every
// derivable value is kept.
func Compute(ctx context.Context, net *Network, inputs map[string]any, outputs ...string) (*Solution, error) {
	cfg := DefaultEngineConfig()
	if net.Method() != "" {
		cfg.Method = net.Method()
	}
	return NewEngine(cfg).Compute(ctx, net, inputs, outputs, nil)
}

// ComputeParallel is Compute on a thread-pool engine.
func ComputeParallel(ctx context.Context, net *Network, inputs map[string]any, outputs ...string) (*Solution, error) {
	cfg := DefaultEngineConfig()
	cfg.Method = MethodParallel
	return NewEngine(cfg).Compute(ctx, net, inputs, outputs, nil)
}
