package executor

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/flowgraph-io/flowgraph/internal/domain"
)

// NodePredicate filters operations during compilation. Name is the
// predicate's identity for plan caching; predicates with an empty name
// bypass the cache instead of risking collisions.
type NodePredicate struct {
	Name string
	Fn   func(op *domain.Operation) bool
}

// NewPredicate wraps a plain function as a named predicate.
func NewPredicate(name string, fn func(op *domain.Operation) bool) *NodePredicate {
	return &NodePredicate{Name: name, Fn: fn}
}

// NewExprPredicate compiles a boolean expression evaluated against an
// environment of the operation's node properties plus its "name". An
// operation whose evaluation errors (e.g. a property it does not carry)
// is excluded.
func NewExprPredicate(src string) (*NodePredicate, error) {
	program, err := expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("failed to compile predicate %q: %w", src, err)
	}
	return &NodePredicate{
		Name: src,
		Fn:   func(op *domain.Operation) bool { return runPredicate(program, op) },
	}, nil
}

func runPredicate(program *vm.Program, op *domain.Operation) bool {
	env := make(map[string]any, len(op.NodeProps())+1)
	for k, v := range op.NodeProps() {
		env[k] = v
	}
	env["name"] = op.Name()

	result, err := expr.Run(program, env)
	if err != nil {
		return false
	}
	b, ok := result.(bool)
	return ok && b
}

// accepts reports whether the predicate keeps the operation; a nil
// predicate keeps everything.
func (p *NodePredicate) accepts(op *domain.Operation) bool {
	return p == nil || p.Fn == nil || p.Fn(op)
}
