package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flowgraph-io/flowgraph/internal/domain"
)

// Step is one entry of an execution plan: either an operation to run or
// an eviction directive dropping a value that no later step reads.
type Step struct {
	// Op is the operation to execute; nil for evictions.
	Op *domain.Operation
	// Evict is the data key to drop; empty for operation steps.
	Evict string
}

// IsEvict reports whether the step is an eviction directive.
func (s Step) IsEvict() bool { return s.Evict != "" }

// String renders the step for logs and plan dumps.
func (s Step) String() string {
	if s.IsEvict() {
		return fmt.Sprintf("evict(%s)", s.Evict)
	}
	return s.Op.Name()
}

// Plan is an immutable, pruned, topologically ordered description of
// one execution: the operations to run for a concrete set of input keys
// and requested outputs, with eviction hints intercalated. Plans are
// created by Network.Compile and cached inside the network.
type Plan struct {
	networkName   string
	inputKeys     []string
	outputs       []string
	predicateName string

	steps []Step

	// ops are the operation steps in plan order; opIndex maps operation
	// name to its plan index (the parallel tie-break authority).
	ops     []*domain.Operation
	opIndex map[string]int
	// producers maps data key -> names of plan operations providing it.
	producers map[string][]string

	needs    []domain.Dep
	provides []domain.Dep
}

// NetworkName returns the name of the originating network.
func (p *Plan) NetworkName() string { return p.networkName }

// InputKeys returns the (sorted) input key-set the plan was compiled for.
func (p *Plan) InputKeys() []string { return append([]string(nil), p.inputKeys...) }

// Outputs returns the requested outputs; nil means all derivable values
// are kept.
func (p *Plan) Outputs() []string { return append([]string(nil), p.outputs...) }

// PredicateName returns the identity of the node predicate used, if any.
func (p *Plan) PredicateName() string { return p.predicateName }

// Steps returns the ordered steps.
func (p *Plan) Steps() []Step { return append([]Step(nil), p.steps...) }

// Ops returns the operation steps in plan order.
func (p *Plan) Ops() []*domain.Operation { return append([]*domain.Operation(nil), p.ops...) }

// OpNames returns the operation names in plan order.
func (p *Plan) OpNames() []string {
	names := make([]string, len(p.ops))
	for i, op := range p.ops {
		names[i] = op.Name()
	}
	return names
}

// StepNames returns every step rendered as a string, evictions included.
func (p *Plan) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.String()
	}
	return names
}

// Index returns the plan index of the named operation.
func (p *Plan) Index(op string) (int, bool) {
	i, ok := p.opIndex[op]
	return i, ok
}

// Needs returns the names the plan reads from inputs: required needs of
// retained operations not produced internally, plus any optional or
// variadic needs that could be consumed.
func (p *Plan) Needs() []domain.Dep { return append([]domain.Dep(nil), p.needs...) }

// RequiredNeeds returns only the needs that must be present in inputs.
func (p *Plan) RequiredNeeds() []domain.Dep {
	var req []domain.Dep
	for _, d := range p.needs {
		if !d.Optionalish() {
			req = append(req, d)
		}
	}
	return req
}

// Provides returns the union of provides of the retained operations.
func (p *Plan) Provides() []domain.Dep { return append([]domain.Dep(nil), p.provides...) }

// Execute drives the plan against concrete inputs, producing a
// Solution. A nil engine executes with the default configuration.
func (p *Plan) Execute(ctx context.Context, eng *Engine, inputs map[string]any) (*Solution, error) {
	if eng == nil {
		eng = NewEngine(DefaultEngineConfig())
	}
	return eng.Execute(ctx, p, inputs)
}

// String renders a compact plan summary.
func (p *Plan) String() string {
	return fmt.Sprintf("plan(network=%q, steps=[%s])", p.networkName, strings.Join(p.StepNames(), ", "))
}

type planJSON struct {
	Network   string     `json:"network"`
	Inputs    []string   `json:"inputs"`
	Outputs   []string   `json:"outputs,omitempty"`
	Predicate string     `json:"predicate,omitempty"`
	Steps     []stepJSON `json:"steps"`
	Needs     []string   `json:"needs"`
	Provides  []string   `json:"provides"`
}

type stepJSON struct {
	Op    string `json:"op,omitempty"`
	Evict string `json:"evict,omitempty"`
}

// MarshalJSON serialises the plan by name; functions are not encoded.
func (p *Plan) MarshalJSON() ([]byte, error) {
	out := planJSON{
		Network:   p.networkName,
		Inputs:    p.inputKeys,
		Outputs:   p.outputs,
		Predicate: p.predicateName,
	}
	for _, s := range p.steps {
		if s.IsEvict() {
			out.Steps = append(out.Steps, stepJSON{Evict: s.Evict})
		} else {
			out.Steps = append(out.Steps, stepJSON{Op: s.Op.Name()})
		}
	}
	for _, d := range p.needs {
		out.Needs = append(out.Needs, d.String())
	}
	for _, d := range p.provides {
		out.Provides = append(out.Provides, d.String())
	}
	return json.Marshal(out)
}
