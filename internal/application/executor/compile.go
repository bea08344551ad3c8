package executor

import (
	"sort"
	"strings"

	"github.com/flowgraph-io/flowgraph/internal/domain"
	"github.com/flowgraph-io/flowgraph/internal/domain/errors"
)

// Compile prunes the network against the key-set actually present in
// the inputs and the requested outputs, returning a topologically
// ordered execution plan with eviction hints.
//
// A nil/empty outputs list falls back to the network's narrowed outputs
// and, failing that, means "keep every derivable value" (no eviction).
// A nil predicate falls back to the narrowed predicate. Plans are
// cached per (input key-set, outputs, predicate identity).
func (n *Network) Compile(inputKeys, outputs []string, predicate *NodePredicate) (*Plan, error) {
	if outputs = normalizeOutputs(outputs); outputs == nil {
		outputs = n.outputs
	}
	if predicate == nil {
		predicate = n.predicate
	}

	sortedInputs := append([]string(nil), inputKeys...)
	sort.Strings(sortedInputs)

	cacheKey, cacheable := planCacheKey(sortedInputs, outputs, predicate)
	if cacheable {
		n.mu.RLock()
		cached := n.planCache[cacheKey]
		n.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}
	}

	plan, err := n.compile(sortedInputs, outputs, predicate)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	if cacheable {
		n.planCache[cacheKey] = plan
	}
	n.lastPlan = plan
	n.mu.Unlock()
	return plan, nil
}

func planCacheKey(sortedInputs, outputs []string, predicate *NodePredicate) (string, bool) {
	predName := ""
	if predicate != nil {
		if predicate.Name == "" {
			// Anonymous predicates have no identity to key on.
			return "", false
		}
		predName = predicate.Name
	}
	outPart := "*"
	if outputs != nil {
		sorted := append([]string(nil), outputs...)
		sort.Strings(sorted)
		outPart = strings.Join(sorted, "\x00")
	}
	return strings.Join(sortedInputs, "\x00") + "\x01" + outPart + "\x01" + predName, true
}

func (n *Network) compile(inputKeys, outputs []string, predicate *NodePredicate) (*Plan, error) {
	inputSet := make(map[string]bool, len(inputKeys))
	for _, k := range inputKeys {
		inputSet[k] = true
	}

	// Requested outputs must at least be known nodes or given inputs.
	if outputs != nil {
		var unknown []string
		for _, o := range outputs {
			if !n.dataKeys[o] && !inputSet[o] {
				unknown = append(unknown, o)
			}
		}
		if len(unknown) > 0 {
			return nil, errors.NewUnknownOutputs(n.name, unknown)
		}
	}

	// Drop operations rejected by the predicate.
	candidates := make([]*domain.Operation, 0, len(n.ops))
	for _, op := range n.ops {
		if predicate.accepts(op) {
			candidates = append(candidates, op)
		}
	}

	// Forward reachability: an operation is satisfiable when every
	// gating need is either an input or produced by an already
	// satisfiable operation. Optional-ish needs never gate; side-effect
	// needs do. Iterated to fixpoint, preserving insertion order.
	available := make(map[string]bool, len(inputSet))
	for k := range inputSet {
		available[k] = true
	}
	satisfied := make(map[*domain.Operation]bool)
	var satisfiable []*domain.Operation
	for changed := true; changed; {
		changed = false
		for _, op := range candidates {
			if satisfied[op] {
				continue
			}
			ok := true
			for _, key := range op.RequiredNeedKeys() {
				if !available[key] {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			satisfied[op] = true
			satisfiable = append(satisfiable, op)
			for _, key := range op.ProvideKeys() {
				available[key] = true
			}
			changed = true
		}
	}

	// Backward reachability from the requested outputs. Walking the
	// satisfiable operations in reverse topological order visits every
	// consumer before its producers (optional needs included), so one
	// reverse pass reaches the fixpoint.
	retained := satisfiable
	if outputs != nil {
		needed := make(map[string]bool, len(outputs))
		for _, o := range outputs {
			// Outputs already supplied as inputs need no producer.
			if !inputSet[o] {
				needed[o] = true
			}
		}
		ordered := topoSort(satisfiable)
		keep := make(map[*domain.Operation]bool)
		for i := len(ordered) - 1; i >= 0; i-- {
			op := ordered[i]
			contributes := false
			for _, key := range op.ProvideKeys() {
				if needed[key] {
					contributes = true
					break
				}
			}
			if !contributes {
				continue
			}
			keep[op] = true
			for _, key := range op.NeedKeys() {
				needed[key] = true
			}
		}
		retained = make([]*domain.Operation, 0, len(keep))
		for _, op := range satisfiable {
			if keep[op] {
				retained = append(retained, op)
			}
		}

		produced := make(map[string]bool)
		for _, op := range retained {
			for _, key := range op.ProvideKeys() {
				produced[key] = true
			}
		}
		var missing []string
		for _, o := range outputs {
			if !inputSet[o] && !produced[o] {
				missing = append(missing, o)
			}
		}
		if len(missing) > 0 {
			if len(retained) == 0 {
				return nil, errors.NewUnsolvable(n.name, outputs, inputKeys)
			}
			return nil, errors.NewImpossibleOutputs(n.name, missing, inputKeys)
		}
	}

	order := topoSort(retained)
	plan := &Plan{
		networkName: n.name,
		inputKeys:   inputKeys,
		outputs:     normalizeOutputs(outputs),
		steps:       scheduleSteps(order, outputs, inputSet),
		ops:         order,
		opIndex:     make(map[string]int, len(order)),
		producers:   make(map[string][]string),
	}
	if predicate != nil {
		plan.predicateName = predicate.Name
	}
	for i, op := range order {
		plan.opIndex[op.Name()] = i
		for _, key := range op.ProvideKeys() {
			plan.producers[key] = append(plan.producers[key], op.Name())
		}
	}
	plan.needs, plan.provides = closePlanDeps(order)
	return plan, nil
}

// topoSort linearises the retained operations. Ties are broken by the
// insertion order of operations into the network, which keeps
// compilation deterministic.
func topoSort(retained []*domain.Operation) []*domain.Operation {
	producedBy := make(map[string][]int)
	for i, op := range retained {
		for _, key := range op.ProvideKeys() {
			producedBy[key] = append(producedBy[key], i)
		}
	}

	indegree := make([]int, len(retained))
	dependents := make([][]int, len(retained))
	for j, op := range retained {
		for _, key := range op.NeedKeys() {
			for _, i := range producedBy[key] {
				if i == j {
					continue
				}
				dependents[i] = append(dependents[i], j)
				indegree[j]++
			}
		}
	}

	scheduled := make([]bool, len(retained))
	order := make([]*domain.Operation, 0, len(retained))
	for len(order) < len(retained) {
		// Pick the first unscheduled ready operation in insertion order.
		next := -1
		for i := range retained {
			if !scheduled[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			// Unreachable: acyclicity is verified at construction.
			break
		}
		scheduled[next] = true
		order = append(order, retained[next])
		for _, j := range dependents[next] {
			indegree[j]--
		}
	}
	return order
}

// scheduleSteps intercalates eviction directives: after each operation,
// any data no longer referenced by later steps and not requested as an
// output is dropped. With nil outputs nothing is evicted.
func scheduleSteps(order []*domain.Operation, outputs []string, inputSet map[string]bool) []Step {
	steps := make([]Step, 0, len(order))
	if outputs == nil {
		for _, op := range order {
			steps = append(steps, Step{Op: op})
		}
		return steps
	}

	outSet := make(map[string]bool, len(outputs))
	for _, o := range outputs {
		outSet[o] = true
	}
	lastUse := make(map[string]int)
	produced := make(map[string]bool)
	for i, op := range order {
		for _, key := range op.NeedKeys() {
			lastUse[key] = i
		}
		for _, key := range op.ProvideKeys() {
			lastUse[key] = i
			produced[key] = true
		}
	}

	for i, op := range order {
		steps = append(steps, Step{Op: op})
		var evictions []string
		for key, last := range lastUse {
			if last != i || outSet[key] {
				continue
			}
			if produced[key] || inputSet[key] {
				evictions = append(evictions, key)
			}
		}
		sort.Strings(evictions)
		for _, key := range evictions {
			steps = append(steps, Step{Evict: key})
		}
	}
	return steps
}

// closePlanDeps computes the plan's needs/provides closure.
func closePlanDeps(order []*domain.Operation) (needs, provides []domain.Dep) {
	producedInternally := make(map[string]bool)
	for _, op := range order {
		for _, key := range op.ProvideKeys() {
			producedInternally[key] = true
		}
	}
	seenNeed := make(map[string]bool)
	seenProvide := make(map[string]bool)
	for _, op := range order {
		for _, d := range op.Needs() {
			key := d.Key()
			if producedInternally[key] || seenNeed[key] {
				continue
			}
			seenNeed[key] = true
			needs = append(needs, d)
		}
		for _, d := range op.Provides() {
			key := d.Key()
			if seenProvide[key] {
				continue
			}
			seenProvide[key] = true
			provides = append(provides, d)
		}
	}
	return needs, provides
}
