package executor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph-io/flowgraph/internal/domain"
	gkerr "github.com/flowgraph-io/flowgraph/internal/domain/errors"
)

func chainNet(t *testing.T) *Network {
	t.Helper()
	op1 := mustOp(t, "ab", deps("a"), deps("b"), passFn)
	op2 := mustOp(t, "bc", deps("b"), deps("c"), passFn)
	net, err := Compose("chain", []any{op1, op2})
	require.NoError(t, err)
	return net
}

func TestCompileChainWithEvictions(t *testing.T) {
	net := chainNet(t)
	plan, err := net.Compile([]string{"a"}, []string{"c"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"ab", "evict(a)", "bc", "evict(b)"}, plan.StepNames())
	assert.Equal(t, []string{"a"}, depKeys(plan.Needs()))
	assert.ElementsMatch(t, []string{"b", "c"}, depKeys(plan.Provides()))
}

func TestCompileNilOutputsKeepsAllAndSkipsEviction(t *testing.T) {
	net := chainNet(t)
	plan, err := net.Compile([]string{"a"}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"ab", "bc"}, plan.StepNames())
	assert.Nil(t, plan.Outputs())
}

func TestCompilePrunesUnsatisfiableOps(t *testing.T) {
	// op2 requires x, which nothing supplies.
	op1 := mustOp(t, "op1", deps("a"), deps("b"), passFn)
	op2 := mustOp(t, "op2", deps("b", "x"), deps("c"), passFn)
	net, err := Compose("net", []any{op1, op2})
	require.NoError(t, err)

	plan, err := net.Compile([]string{"a"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"op1"}, plan.OpNames())
}

func TestCompileOptionalNeverGates(t *testing.T) {
	op := mustOp(t, "myadd",
		[]domain.Dep{domain.Required("a"), domain.Optional("b"), domain.Vararg("v"), domain.Varargs("vs")},
		deps("sum"), passFn)
	net, err := Compose("net", []any{op})
	require.NoError(t, err)

	plan, err := net.Compile([]string{"a"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"myadd"}, plan.OpNames())
}

func TestCompileSideffectNeedGates(t *testing.T) {
	op := mustOp(t, "addcolumns",
		[]domain.Dep{domain.Required("df"), domain.Sideffect("df.b")},
		[]domain.Dep{domain.Sideffect("df.sum")}, nil)
	net, err := Compose("net", []any{op})
	require.NoError(t, err)

	plan, err := net.Compile([]string{"df"}, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, plan.OpNames(), "missing sideffect input gates the op")

	plan, err = net.Compile([]string{"df", "sideffect(df.b)"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"addcolumns"}, plan.OpNames())
}

func TestCompileUnknownOutputs(t *testing.T) {
	net := chainNet(t)
	_, err := net.Compile([]string{"a"}, []string{"nope"}, nil)
	var uerr *gkerr.UnknownOutputsError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, []string{"nope"}, uerr.Outputs)
}

func TestCompileUnsolvable(t *testing.T) {
	net := chainNet(t)
	// Without a, nothing is satisfiable and c cannot come from inputs.
	_, err := net.Compile([]string{"b0"}, []string{"c"}, nil)
	var serr *gkerr.UnsolvableError
	require.ErrorAs(t, err, &serr)
}

func TestCompileImpossibleOutputs(t *testing.T) {
	op1 := mustOp(t, "op1", deps("a"), deps("b"), passFn)
	op2 := mustOp(t, "op2", deps("z"), deps("d"), passFn)
	net, err := Compose("net", []any{op1, op2})
	require.NoError(t, err)

	// b is derivable but d needs the missing z.
	_, err = net.Compile([]string{"a"}, []string{"b", "d"}, nil)
	var ierr *gkerr.ImpossibleOutputsError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, []string{"d"}, ierr.Outputs)
}

func TestCompileOutputsCoveredByInputs(t *testing.T) {
	net := chainNet(t)
	plan, err := net.Compile([]string{"a", "c"}, []string{"c"}, nil)
	require.NoError(t, err)
	assert.Empty(t, plan.OpNames(), "requested output already an input")
}

func TestCompileDeterministicTieBreak(t *testing.T) {
	src := mustOp(t, "src", deps("a"), deps("b"), passFn)
	left := mustOp(t, "left", deps("b"), deps("l"), passFn)
	right := mustOp(t, "right", deps("b"), deps("r"), passFn)
	sink := mustOp(t, "sink", deps("l", "r"), deps("out"), passFn)
	net, err := Compose("diamond", []any{src, left, right, sink})
	require.NoError(t, err)

	first, err := net.Compile([]string{"a"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"src", "left", "right", "sink"}, first.OpNames())

	for i := 0; i < 5; i++ {
		again, err := net.Compile([]string{"a"}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, first.OpNames(), again.OpNames())
	}
}

func TestCompilePlanCache(t *testing.T) {
	net := chainNet(t)
	p1, err := net.Compile([]string{"a"}, []string{"c"}, nil)
	require.NoError(t, err)
	p2, err := net.Compile([]string{"a"}, []string{"c"}, nil)
	require.NoError(t, err)
	assert.Same(t, p1, p2, "identical compile args hit the cache")

	p3, err := net.Compile([]string{"a", "b"}, []string{"c"}, nil)
	require.NoError(t, err)
	assert.NotSame(t, p1, p3, "different input key-set misses the cache")
}

func TestCompilePredicateFilters(t *testing.T) {
	op1 := mustOp(t, "cheap", deps("a"), deps("b"), passFn,
		domain.WithNodeProps(map[string]any{"tier": 1}))
	op2 := mustOp(t, "pricey", deps("a"), deps("c"), passFn,
		domain.WithNodeProps(map[string]any{"tier": 9}))
	net, err := Compose("net", []any{op1, op2})
	require.NoError(t, err)

	pred, err := NewExprPredicate("tier < 5")
	require.NoError(t, err)
	plan, err := net.Compile([]string{"a"}, nil, pred)
	require.NoError(t, err)
	assert.Equal(t, []string{"cheap"}, plan.OpNames())
}

func TestCompileAnonymousPredicateBypassesCache(t *testing.T) {
	net := chainNet(t)
	pred := NewPredicate("", func(op *domain.Operation) bool { return true })
	p1, err := net.Compile([]string{"a"}, nil, pred)
	require.NoError(t, err)
	p2, err := net.Compile([]string{"a"}, nil, pred)
	require.NoError(t, err)
	assert.NotSame(t, p1, p2)
}

func TestPlanMarshalJSON(t *testing.T) {
	net := chainNet(t)
	plan, err := net.Compile([]string{"a"}, []string{"c"}, nil)
	require.NoError(t, err)

	raw, err := json.Marshal(plan)
	require.NoError(t, err)

	var decoded struct {
		Network string `json:"network"`
		Steps   []struct {
			Op    string `json:"op"`
			Evict string `json:"evict"`
		} `json:"steps"`
		Needs    []string `json:"needs"`
		Provides []string `json:"provides"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "chain", decoded.Network)
	assert.Len(t, decoded.Steps, 4)
	assert.Equal(t, "ab", decoded.Steps[0].Op)
	assert.Equal(t, "a", decoded.Steps[1].Evict)
	assert.Equal(t, []string{"a"}, decoded.Needs)
}
