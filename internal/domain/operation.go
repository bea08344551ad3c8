package domain

import (
	"fmt"
	"strings"

	"github.com/flowgraph-io/flowgraph/internal/domain/errors"
)

// Operation is an immutable descriptor of one computation step: a named
// callable with ordered needs and provides plus behavioural flags.
// Construct with NewOperation and derive variants with WithSet.
type Operation struct {
	name       string
	needs      []Dep
	provides   []Dep
	fn         OpFunc
	endured    bool
	reschedule bool
	nodeProps  map[string]any
	parents    []string
}

// NewOperation validates and builds an operation descriptor.
func NewOperation(name string, fn OpFunc, needs, provides []Dep, opts ...OpOption) (*Operation, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewInvalidValue("operation name must not be empty", name)
	}
	if fn == nil {
		return nil, errors.NewInvalidValue(fmt.Sprintf("operation %q needs a function", name), nil)
	}
	if len(provides) == 0 {
		return nil, errors.NewInvalidValue(fmt.Sprintf("operation %q must provide at least one name", name), nil)
	}
	if err := checkDupes(name, "needs", needs); err != nil {
		return nil, err
	}
	if err := checkDupes(name, "provides", provides); err != nil {
		return nil, err
	}
	needKeys := make(map[string]bool, len(needs))
	for _, d := range needs {
		needKeys[d.Key()] = true
	}
	for _, d := range provides {
		if needKeys[d.Key()] {
			return nil, errors.NewInvalidValue(
				fmt.Sprintf("operation %q both needs and provides %q", name, d.Key()), nil)
		}
	}

	op := &Operation{
		name:     name,
		fn:       fn,
		needs:    append([]Dep(nil), needs...),
		provides: append([]Dep(nil), provides...),
	}
	for _, opt := range opts {
		opt(op)
	}
	return op, nil
}

func checkDupes(opName, list string, deps []Dep) error {
	seen := make(map[string]bool, len(deps))
	for _, d := range deps {
		key := d.Key()
		if seen[key] {
			return errors.NewInvalidValue(
				fmt.Sprintf("operation %q lists %q twice in %s", opName, key, list), nil)
		}
		seen[key] = true
	}
	return nil
}

// OpOption mutates an operation under construction or inside WithSet.
type OpOption func(*Operation)

// Endured lets downstream work proceed when this operation fails.
func Endured() OpOption { return func(op *Operation) { op.endured = true } }

// NotEndured clears the endurance flag on a WithSet copy.
func NotEndured() OpOption { return func(op *Operation) { op.endured = false } }

// Rescheduled lets the function declare at run time which of its
// provides it actually produced.
func Rescheduled() OpOption { return func(op *Operation) { op.reschedule = true } }

// NotRescheduled clears the reschedule flag on a WithSet copy.
func NotRescheduled() OpOption { return func(op *Operation) { op.reschedule = false } }

// WithNodeProps merges props into the operation's node properties.
func WithNodeProps(props map[string]any) OpOption {
	return func(op *Operation) {
		if len(props) == 0 {
			return
		}
		merged := make(map[string]any, len(op.nodeProps)+len(props))
		for k, v := range op.nodeProps {
			merged[k] = v
		}
		for k, v := range props {
			merged[k] = v
		}
		op.nodeProps = merged
	}
}

// WithParents prepends parent network names; the rendered name becomes
// "parent.op" when nesting without merging.
func WithParents(parents ...string) OpOption {
	return func(op *Operation) {
		op.parents = append(append([]string(nil), parents...), op.parents...)
	}
}

// WithName replaces the operation name on a WithSet copy.
func WithName(name string) OpOption { return func(op *Operation) { op.name = name } }

// WithSet returns a shallow copy with the given fields replaced.
func (op *Operation) WithSet(opts ...OpOption) *Operation {
	clone := *op
	clone.needs = append([]Dep(nil), op.needs...)
	clone.provides = append([]Dep(nil), op.provides...)
	clone.parents = append([]string(nil), op.parents...)
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// Name returns the operation name, prefixed by any parents.
func (op *Operation) Name() string {
	if len(op.parents) == 0 {
		return op.name
	}
	return strings.Join(append(append([]string(nil), op.parents...), op.name), ".")
}

// BaseName returns the name without parent prefixes.
func (op *Operation) BaseName() string { return op.name }

// Needs returns the declared needs in order.
func (op *Operation) Needs() []Dep { return op.needs }

// Provides returns the declared provides in order.
func (op *Operation) Provides() []Dep { return op.provides }

// Fn returns the underlying callable.
func (op *Operation) Fn() OpFunc { return op.fn }

// Endured reports whether downstream work proceeds despite failure.
func (op *Operation) Endured() bool { return op.endured }

// Reschedule reports whether partial results are allowed.
func (op *Operation) Reschedule() bool { return op.reschedule }

// NodeProps returns the free-form properties consulted by predicates.
func (op *Operation) NodeProps() map[string]any { return op.nodeProps }

// Parents returns the nesting lineage, outermost first.
func (op *Operation) Parents() []string { return op.parents }

// RequiredNeedKeys returns the graph keys that gate this operation's
// satisfiability: required and mapped data, side-effect tokens, and the
// real name plus token keys of sideffected needs. Optional-ish needs are
// excluded.
func (op *Operation) RequiredNeedKeys() []string {
	var keys []string
	for _, d := range op.needs {
		if d.Optionalish() {
			continue
		}
		keys = append(keys, d.Key())
		keys = append(keys, d.SideffectKeys()...)
	}
	return keys
}

// ProvideKeys returns the graph keys this operation produces, including
// side-effect keys.
func (op *Operation) ProvideKeys() []string {
	var keys []string
	for _, d := range op.provides {
		keys = append(keys, d.Key())
		keys = append(keys, d.SideffectKeys()...)
	}
	return keys
}

// NeedKeys returns every graph key referenced by needs, optional or not.
func (op *Operation) NeedKeys() []string {
	var keys []string
	for _, d := range op.needs {
		keys = append(keys, d.Key())
		keys = append(keys, d.SideffectKeys()...)
	}
	return keys
}

// SameSignature reports whether two operations have identical needs and
// provides, the compatibility requirement for merge deduplication.
func (op *Operation) SameSignature(o *Operation) bool {
	if len(op.needs) != len(o.needs) || len(op.provides) != len(o.provides) {
		return false
	}
	for i := range op.needs {
		if !op.needs[i].Equal(o.needs[i]) {
			return false
		}
	}
	for i := range op.provides {
		if !op.provides[i].Equal(o.provides[i]) {
			return false
		}
	}
	return true
}

// String renders a debugging summary.
func (op *Operation) String() string {
	needs := make([]string, len(op.needs))
	for i, d := range op.needs {
		needs[i] = d.String()
	}
	provides := make([]string, len(op.provides))
	for i, d := range op.provides {
		provides[i] = d.String()
	}
	return fmt.Sprintf("operation(name=%q, needs=[%s], provides=[%s])",
		op.Name(), strings.Join(needs, ", "), strings.Join(provides, ", "))
}
