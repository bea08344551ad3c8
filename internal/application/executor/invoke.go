package executor

import (
	"context"
	"fmt"
	"reflect"

	"github.com/flowgraph-io/flowgraph/internal/domain"
	"github.com/flowgraph-io/flowgraph/internal/domain/errors"
)

// invocation is the outcome of calling one operation's function,
// already mapped onto the operation's provide keys.
type invocation struct {
	// produced maps provide keys (side-effect keys included) to values.
	produced map[string]any
	// missing lists declared provides the function did not produce;
	// non-empty only for rescheduled operations.
	missing []string
}

// invokeOp assembles the arguments per the invocation contract, calls
// the function, and maps its return value onto the provides. A panic
// inside the user function surfaces as an ordinary failure.
func invokeOp(ctx context.Context, op *domain.Operation, sol *Solution) (inv *invocation, err error) {
	defer func() {
		if r := recover(); r != nil {
			inv = nil
			err = fmt.Errorf("operation %q panicked: %v", op.Name(), r)
		}
	}()

	args, err := assembleArgs(op, sol)
	if err != nil {
		return nil, err
	}
	ret, err := op.Fn()(ctx, args)
	if err != nil {
		return nil, err
	}
	return mapResult(op, ret)
}

// assembleArgs gathers required needs positionally in declared order,
// appends vararg values, flattens varargs values, and passes optional
// and mapped needs by keyword. Side-effect needs are never passed.
func assembleArgs(op *domain.Operation, sol *Solution) (*domain.Args, error) {
	args := &domain.Args{Keyword: make(map[string]any)}
	for _, d := range op.Needs() {
		switch d.Kind {
		case domain.DepRequired, domain.DepSideffected:
			v, _ := sol.Get(d.Key())
			args.Positional = append(args.Positional, v)
		case domain.DepVararg:
			if v, ok := sol.Get(d.Key()); ok {
				args.Positional = append(args.Positional, v)
			}
		case domain.DepVarargs:
			v, ok := sol.Get(d.Key())
			if !ok {
				continue
			}
			elems, err := iterableElems(v)
			if err != nil {
				return nil, errors.NewInvalidValue(
					fmt.Sprintf("Expected needs[varargs(%s)] to be non-str iterables", d.Name), v)
			}
			args.Positional = append(args.Positional, elems...)
		case domain.DepOptional:
			if v, ok := sol.Get(d.Key()); ok {
				args.Keyword[d.KeywordKey()] = v
			}
		case domain.DepMapped:
			v, _ := sol.Get(d.Key())
			args.Keyword[d.KeywordKey()] = v
		case domain.DepSideffect:
			// participates in scheduling only
		}
	}
	return args, nil
}

// iterableElems flattens a varargs value. Strings are rejected even
// though they are iterable, to catch the classic mistake.
func iterableElems(v any) ([]any, error) {
	if v == nil {
		return nil, fmt.Errorf("nil is not iterable")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		elems := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elems[i] = rv.Index(i).Interface()
		}
		return elems, nil
	default:
		return nil, fmt.Errorf("%T is not a non-string iterable", v)
	}
}

// mapResult maps the function's return value onto the operation's
// provides:
//
//   - one real provide, non-mapping return: that provide is the value;
//   - mapping return: keys must be a subset of the provides, missing
//     keys are "unproduced";
//   - sequence return with several provides: zipped positionally;
//   - NoResult (or nil): produced nothing.
//
// Side-effect provides are never expected from the function; they are
// synthesised as present, and for an operation with only side-effect
// provides the return value is discarded entirely. Unproduced provides
// are only legal for rescheduled operations.
func mapResult(op *domain.Operation, ret any) (*invocation, error) {
	var realKeys []string
	var sfxKeys []string
	for _, d := range op.Provides() {
		if d.Kind == domain.DepSideffect {
			sfxKeys = append(sfxKeys, d.Key())
			continue
		}
		realKeys = append(realKeys, d.Key())
		sfxKeys = append(sfxKeys, d.SideffectKeys()...)
	}

	inv := &invocation{produced: make(map[string]any)}

	noResult := ret == nil || ret == domain.NoResult
	switch {
	case noResult:
		if len(realKeys) > 0 {
			inv.missing = append(inv.missing, realKeys...)
			if op.Reschedule() {
				// Produced nothing at all, side-effects included.
				return inv, nil
			}
			return nil, errors.NewIncompleteExecution(op.Name(), inv.missing)
		}

	case len(realKeys) == 0:
		// Side-effect-only operation: whatever the function returned is
		// discarded without inspection, only the side-effect keys below
		// are recorded.

	default:
		if m, ok := ret.(map[string]any); ok && keysSubset(m, realKeys) {
			for k, v := range m {
				inv.produced[k] = v
			}
			for _, k := range realKeys {
				if _, ok := m[k]; !ok {
					inv.missing = append(inv.missing, k)
				}
			}
		} else if len(realKeys) == 1 {
			inv.produced[realKeys[0]] = ret
		} else if seq, ok := ret.([]any); ok {
			if len(seq) != len(realKeys) {
				return nil, errors.NewInvalidValue(
					fmt.Sprintf("operation %q returned %d values for %d provides",
						op.Name(), len(seq), len(realKeys)), nil)
			}
			for i, k := range realKeys {
				inv.produced[k] = seq[i]
			}
		} else {
			return nil, errors.NewInvalidValue(
				fmt.Sprintf("operation %q with %d provides returned neither a mapping nor a sequence",
					op.Name(), len(realKeys)), ret)
		}

		if len(inv.missing) > 0 && !op.Reschedule() {
			return nil, errors.NewIncompleteExecution(op.Name(), inv.missing)
		}
	}

	// Synthesise side-effect provides as present with no value.
	for _, k := range sfxKeys {
		inv.produced[k] = nil
	}
	return inv, nil
}

// keysSubset reports whether every key of m is a declared provide key.
// An empty map is vacuously a subset: a rescheduled operation may
// legitimately return one to declare it produced nothing this run.
func keysSubset(m map[string]any, keys []string) bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	for k := range m {
		if !set[k] {
			return false
		}
	}
	return true
}
