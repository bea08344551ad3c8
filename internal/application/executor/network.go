package executor

import (
	"fmt"
	"strings"
	"sync"

	"github.com/flowgraph-io/flowgraph/internal/domain"
	"github.com/flowgraph-io/flowgraph/internal/domain/errors"
)

// Network is a bipartite DAG over data names and operations, assembled
// by Compose. It is immutable after construction and safe to share;
// compiled plans are cached inside it.
type Network struct {
	name string

	// ops in insertion order; the order is the deterministic tie-break
	// for topological sorting.
	ops   []*domain.Operation
	opPos map[string]int

	// dataKeys holds every data-node key referenced by any operation.
	dataKeys map[string]bool
	// producers maps data key -> indices of operations providing it.
	producers map[string][]int
	// consumers maps data key -> indices of operations needing it.
	consumers map[string][]int

	needs    []domain.Dep
	provides []domain.Dep

	// narrowed compile defaults, applied when Compile is called without
	// explicit outputs/predicate.
	outputs   []string
	predicate *NodePredicate
	// method is the preferred execution method, consulted by the facade
	// when no engine is configured explicitly.
	method ExecMethod

	mu        sync.RWMutex
	planCache map[string]*Plan
	lastPlan  *Plan
}

type composeCfg struct {
	outputs    []string
	predicate  *NodePredicate
	merge      bool
	endured    *bool
	reschedule *bool
	nodeProps  map[string]any
	method     ExecMethod
}

// ComposeOption adjusts how Compose assembles a network.
type ComposeOption func(*composeCfg)

// WithOutputs narrows the network: subsequent Compile/Compute calls
// without explicit outputs prune against these.
func WithOutputs(outputs ...string) ComposeOption {
	return func(c *composeCfg) { c.outputs = outputs }
}

// WithPredicate installs a default node predicate for compilation.
func WithPredicate(p *NodePredicate) ComposeOption {
	return func(c *composeCfg) { c.predicate = p }
}

// WithMerge deduplicates identically-named operations instead of
// rejecting them; later occurrences win and must be structurally
// compatible.
func WithMerge() ComposeOption {
	return func(c *composeCfg) { c.merge = true }
}

// WithEndured applies endurance to all member operations.
func WithEndured() ComposeOption {
	return func(c *composeCfg) { v := true; c.endured = &v }
}

// WithRescheduled applies rescheduling to all member operations.
func WithRescheduled() ComposeOption {
	return func(c *composeCfg) { v := true; c.reschedule = &v }
}

// WithComposeNodeProps merges props into every member operation's node
// properties.
func WithComposeNodeProps(props map[string]any) ComposeOption {
	return func(c *composeCfg) { c.nodeProps = props }
}

// WithMethod records the preferred execution method on the network.
func WithMethod(method ExecMethod) ComposeOption {
	return func(c *composeCfg) { c.method = method }
}

// Compose assembles operations and sub-networks into a single Network.
// Sub-network operations are spliced in; without WithMerge they are
// renamed with the sub-network's name as a parent prefix, with WithMerge
// same-named operations collapse to the latest occurrence.
func Compose(name string, members []any, opts ...ComposeOption) (*Network, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.NewInvalidValue("network name must not be empty", name)
	}
	cfg := &composeCfg{}
	for _, opt := range opts {
		opt(cfg)
	}

	n := &Network{
		name:      name,
		opPos:     make(map[string]int),
		dataKeys:  make(map[string]bool),
		producers: make(map[string][]int),
		consumers: make(map[string][]int),
		outputs:   normalizeOutputs(cfg.outputs),
		predicate: cfg.predicate,
		method:    cfg.method,
		planCache: make(map[string]*Plan),
	}

	for _, member := range members {
		switch m := member.(type) {
		case *domain.Operation:
			if err := n.addOp(procOp(m, "", cfg), cfg.merge); err != nil {
				return nil, err
			}
		case *Network:
			for _, sub := range m.ops {
				if err := n.addOp(procOp(sub, m.name, cfg), cfg.merge); err != nil {
					return nil, err
				}
			}
		case nil:
			return nil, errors.NewInvalidValue("nil network member", nil)
		default:
			return nil, errors.NewInvalidValue(
				fmt.Sprintf("network member must be an operation or a network, got %T", member), member)
		}
	}
	if len(n.ops) == 0 {
		return nil, errors.NewInvalidValue(fmt.Sprintf("network %q has no operations", name), nil)
	}

	n.index()
	if err := n.verifyAcyclic(); err != nil {
		return nil, err
	}
	n.closeOverDeps()
	return n, nil
}

// procOp clones a member operation with the compose-level flags applied
// and, when not merging, with the parent network name prefixed.
func procOp(op *domain.Operation, parent string, cfg *composeCfg) *domain.Operation {
	var opts []domain.OpOption
	if cfg.endured != nil {
		if *cfg.endured {
			opts = append(opts, domain.Endured())
		} else {
			opts = append(opts, domain.NotEndured())
		}
	}
	if cfg.reschedule != nil {
		if *cfg.reschedule {
			opts = append(opts, domain.Rescheduled())
		} else {
			opts = append(opts, domain.NotRescheduled())
		}
	}
	if len(cfg.nodeProps) > 0 {
		opts = append(opts, domain.WithNodeProps(cfg.nodeProps))
	}
	if !cfg.merge && parent != "" {
		opts = append(opts, domain.WithParents(parent))
	}
	if len(opts) == 0 {
		return op
	}
	return op.WithSet(opts...)
}

func (n *Network) addOp(op *domain.Operation, merge bool) error {
	name := op.Name()
	if pos, ok := n.opPos[name]; ok {
		if !merge {
			return errors.NewInvalidValue(
				fmt.Sprintf("operations may only be added once; duplicate %q in network %q", name, n.name), nil)
		}
		if !n.ops[pos].SameSignature(op) {
			return errors.NewInvalidValue(
				fmt.Sprintf("cannot merge operation %q: incompatible needs/provides", name), nil)
		}
		// Later occurrence wins, keeping the original position.
		n.ops[pos] = op
		return nil
	}
	n.opPos[name] = len(n.ops)
	n.ops = append(n.ops, op)
	return nil
}

func (n *Network) index() {
	for i, op := range n.ops {
		for _, key := range op.NeedKeys() {
			n.dataKeys[key] = true
			n.consumers[key] = append(n.consumers[key], i)
		}
		for _, key := range op.ProvideKeys() {
			n.dataKeys[key] = true
			n.producers[key] = append(n.producers[key], i)
		}
	}
}

// verifyAcyclic runs a DFS over the operation graph (edges follow data
// from producer to consumer) and reports the first back-edge found.
func (n *Network) verifyAcyclic() error {
	visited := make([]bool, len(n.ops))
	onStack := make([]bool, len(n.ops))

	var visit func(i int) error
	visit = func(i int) error {
		visited[i] = true
		onStack[i] = true
		for _, key := range n.ops[i].ProvideKeys() {
			for _, j := range n.consumers[key] {
				if !visited[j] {
					if err := visit(j); err != nil {
						return err
					}
				} else if onStack[j] {
					return errors.NewCycle(n.name, n.ops[i].Name(), n.ops[j].Name())
				}
			}
		}
		onStack[i] = false
		return nil
	}

	for i := range n.ops {
		if !visited[i] {
			if err := visit(i); err != nil {
				return err
			}
		}
	}
	return nil
}

// closeOverDeps computes the network-level needs (required needs not
// produced by any member) and provides (union of member provides).
func (n *Network) closeOverDeps() {
	seenNeed := make(map[string]bool)
	seenProvide := make(map[string]bool)
	for _, op := range n.ops {
		for _, d := range op.Needs() {
			key := d.Key()
			if d.Optionalish() || seenNeed[key] || len(n.producers[key]) > 0 {
				continue
			}
			seenNeed[key] = true
			n.needs = append(n.needs, d)
		}
		for _, d := range op.Provides() {
			key := d.Key()
			if seenProvide[key] {
				continue
			}
			seenProvide[key] = true
			n.provides = append(n.provides, d)
		}
	}
}

// Name returns the network name.
func (n *Network) Name() string { return n.name }

// Operations returns the member operations in insertion order.
func (n *Network) Operations() []*domain.Operation {
	return append([]*domain.Operation(nil), n.ops...)
}

// Operation returns the member with the given name, if any.
func (n *Network) Operation(name string) (*domain.Operation, bool) {
	pos, ok := n.opPos[name]
	if !ok {
		return nil, false
	}
	return n.ops[pos], true
}

// Needs returns the names the network must read from inputs.
func (n *Network) Needs() []domain.Dep { return append([]domain.Dep(nil), n.needs...) }

// Provides returns the union of member provides.
func (n *Network) Provides() []domain.Dep { return append([]domain.Dep(nil), n.provides...) }

// HasData reports whether key names a data node of the network.
func (n *Network) HasData(key string) bool { return n.dataKeys[key] }

// Method returns the preferred execution method, if one was composed in.
func (n *Network) Method() ExecMethod { return n.method }

// Narrowed returns a clone bound to the given outputs and/or predicate,
// applied by default on subsequent Compile/Compute calls. The clone has
// its own plan cache.
func (n *Network) Narrowed(opts ...ComposeOption) *Network {
	cfg := &composeCfg{outputs: n.outputs, predicate: n.predicate}
	for _, opt := range opts {
		opt(cfg)
	}
	// The indices are immutable after construction and safe to share;
	// the clone gets its own lock and plan cache.
	return &Network{
		name:      n.name,
		ops:       n.ops,
		opPos:     n.opPos,
		dataKeys:  n.dataKeys,
		producers: n.producers,
		consumers: n.consumers,
		needs:     n.needs,
		provides:  n.provides,
		outputs:   normalizeOutputs(cfg.outputs),
		predicate: cfg.predicate,
		method:    n.method,
		planCache: make(map[string]*Plan),
	}
}

// LastPlan returns the most recently compiled plan, as a debugging aid.
func (n *Network) LastPlan() *Plan {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.lastPlan
}

// String renders a debugging summary.
func (n *Network) String() string {
	return fmt.Sprintf("network(%q, x%d ops)", n.name, len(n.ops))
}

// normalizeOutputs maps an empty outputs list to nil, the "keep all
// derivable values" request.
func normalizeOutputs(outputs []string) []string {
	if len(outputs) == 0 {
		return nil
	}
	return append([]string(nil), outputs...)
}
