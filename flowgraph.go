// Package flowgraph is a computation-graph engine: declare named
// operations with labelled needs/provides dependencies, compose them
// into a network, then compute requested outputs from concrete inputs.
// The engine prunes the graph to an execution plan for the data
// actually present and requested, runs it sequentially or on a worker
// pool, and returns a solution with full per-operation provenance.
package flowgraph

import (
	"github.com/flowgraph-io/flowgraph/internal/application/executor"
	"github.com/flowgraph-io/flowgraph/internal/domain"
	"github.com/flowgraph-io/flowgraph/internal/domain/errors"
)

// Dep is a dependency name annotated with a modifier.
type Dep = domain.Dep

// DepKind discriminates dependency modifier semantics.
type DepKind = domain.DepKind

// Dependency modifier kinds.
const (
	DepRequired    = domain.DepRequired
	DepOptional    = domain.DepOptional
	DepMapped      = domain.DepMapped
	DepVararg      = domain.DepVararg
	DepVarargs     = domain.DepVarargs
	DepSideffect   = domain.DepSideffect
	DepSideffected = domain.DepSideffected
)

// Operation is an immutable descriptor of one computation step.
type Operation = domain.Operation

// OpFunc is the callable contract of an operation.
type OpFunc = domain.OpFunc

// Args carries the assembled arguments of one invocation.
type Args = domain.Args

// OpOption adjusts an operation at construction or WithSet time.
type OpOption = domain.OpOption

// Network is the composed DAG of operations.
type Network = executor.Network

// ComposeOption adjusts how Compose assembles a network.
type ComposeOption = executor.ComposeOption

// Plan is a pruned, topologically ordered execution description.
type Plan = executor.Plan

// Step is one plan entry: an operation or an eviction directive.
type Step = executor.Step

// Solution is the layered mapping produced by executing a plan.
type Solution = executor.Solution

// OpStatus is an operation's state-machine status inside a solution.
type OpStatus = executor.OpStatus

// Operation state-machine statuses.
const (
	OpStatusPending     = executor.OpStatusPending
	OpStatusReady       = executor.OpStatusReady
	OpStatusRunning     = executor.OpStatusRunning
	OpStatusOK          = executor.OpStatusOK
	OpStatusFailed      = executor.OpStatusFailed
	OpStatusCancelled   = executor.OpStatusCancelled
	OpStatusRescheduled = executor.OpStatusRescheduled
)

// NoResult is the sentinel an operation returns to declare it produced
// nothing.
var NoResult = domain.NoResult

// NullFn is an OpFunc that produces nothing.
var NullFn domain.OpFunc = domain.NullFn

// Required returns an unmodified dependency on name.
func Required(name string) Dep { return domain.Required(name) }

// Optional annotates name as an optional keyword dependency.
func Optional(name string) Dep { return domain.Optional(name) }

// OptionalAs annotates name as optional, passed under fnKey.
func OptionalAs(name, fnKey string) Dep { return domain.OptionalAs(name, fnKey) }

// Mapped annotates name as required but passed by keyword under fnKey.
func Mapped(name, fnKey string) Dep { return domain.Mapped(name, fnKey) }

// Vararg annotates name as an optional positional dependency.
func Vararg(name string) Dep { return domain.Vararg(name) }

// Varargs annotates name as an optional dependency whose iterable value
// is flattened positionally.
func Varargs(name string) Dep { return domain.Varargs(name) }

// Sideffect returns a pseudo-dependency that participates in scheduling
// only.
func Sideffect(token string) Dep { return domain.Sideffect(token) }

// Sideffected binds a real data name to side-effect tokens consumed and
// produced alongside it.
func Sideffected(real string, tokens ...string) Dep { return domain.Sideffected(real, tokens...) }

// ParseDep parses the canonical modifier syntax ("optional(b)",
// "sideffect(t)", ...) into a Dep.
func ParseDep(s string) (Dep, error) { return domain.ParseDep(s) }

// Deps converts a mixed list of canonical dependency strings and Dep
// values into a dependency list.
func Deps(items ...any) ([]Dep, error) {
	out := make([]Dep, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case Dep:
			out = append(out, v)
		case string:
			d, err := domain.ParseDep(v)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		default:
			return nil, errors.NewInvalidValue("dependency must be a string or a Dep", item)
		}
	}
	return out, nil
}

// MustDeps is Deps for static dependency lists; it panics on malformed
// input.
func MustDeps(items ...any) []Dep {
	out, err := Deps(items...)
	if err != nil {
		panic(err)
	}
	return out
}

// NewOperation validates and builds an operation descriptor.
func NewOperation(name string, fn OpFunc, needs, provides []Dep, opts ...OpOption) (*Operation, error) {
	return domain.NewOperation(name, fn, needs, provides, opts...)
}

// Endured lets downstream work proceed when the operation fails.
func Endured() OpOption { return domain.Endured() }

// Rescheduled lets the function declare at run time which provides it
// actually produced.
func Rescheduled() OpOption { return domain.Rescheduled() }

// WithNodeProps merges free-form properties consulted by predicates.
func WithNodeProps(props map[string]any) OpOption { return domain.WithNodeProps(props) }

// Compose assembles operations, sub-networks and compose options into a
// single network.
func Compose(name string, membersAndOptions ...any) (*Network, error) {
	var members []any
	var opts []ComposeOption
	for _, item := range membersAndOptions {
		switch v := item.(type) {
		case ComposeOption:
			opts = append(opts, v)
		case *Operation, *Network:
			members = append(members, v)
		default:
			return nil, errors.NewInvalidValue("compose accepts operations, networks and compose options", item)
		}
	}
	return executor.Compose(name, members, opts...)
}

// WithOutputs narrows the network to these outputs by default.
func WithOutputs(outputs ...string) ComposeOption { return executor.WithOutputs(outputs...) }

// WithPredicate installs a default node predicate.
func WithPredicate(p *NodePredicate) ComposeOption { return executor.WithPredicate(p) }

// WithMerge deduplicates identically-named operations.
func WithMerge() ComposeOption { return executor.WithMerge() }

// WithEndured applies endurance to all member operations.
func WithEndured() ComposeOption { return executor.WithEndured() }

// WithRescheduled applies rescheduling to all member operations.
func WithRescheduled() ComposeOption { return executor.WithRescheduled() }

// WithComposeNodeProps merges props into every member operation.
func WithComposeNodeProps(props map[string]any) ComposeOption {
	return executor.WithComposeNodeProps(props)
}

// WithMethod records the preferred execution method on the network,
// picked up by Compute when no engine is given.
func WithMethod(method ExecMethod) ComposeOption { return executor.WithMethod(method) }
