package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlan(t *testing.T) *Plan {
	t.Helper()
	op1 := mustOp(t, "ab", deps("a"), deps("b"), passFn)
	op2 := mustOp(t, "bc", deps("b"), deps("c"), passFn)
	net, err := Compose("chain", []any{op1, op2})
	require.NoError(t, err)
	plan, err := net.Compile([]string{"a"}, nil, nil)
	require.NoError(t, err)
	return plan
}

func TestSolutionSeedsInputs(t *testing.T) {
	sol := NewSolution(testPlan(t), map[string]any{"a": 1})

	v, ok := sol.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, []string{""}, sol.Provenance("a"), "inputs layer has an empty writer name")
	assert.Equal(t, OpStatusPending, sol.Status("ab"))
}

func TestSolutionFirstWriterWins(t *testing.T) {
	sol := NewSolution(testPlan(t), nil)

	sol.writeValue("x", 1, "ab", 0)
	sol.writeValue("x", 2, "bc", 1)

	v, _ := sol.Get("x")
	assert.Equal(t, 1, v)
	assert.Equal(t, []any{2}, sol.Overwrites()["x"])
	assert.Equal(t, []string{"ab", "bc"}, sol.Provenance("x"))
}

func TestSolutionLowerPlanIndexTakesOver(t *testing.T) {
	// In parallel mode a later-indexed writer may land first; the
	// lower-indexed write must still end up authoritative.
	sol := NewSolution(testPlan(t), nil)

	sol.writeValue("x", 2, "bc", 1)
	sol.writeValue("x", 1, "ab", 0)

	v, _ := sol.Get("x")
	assert.Equal(t, 1, v)
	assert.Equal(t, []any{2}, sol.Overwrites()["x"])
}

func TestSolutionInputBeatsOperations(t *testing.T) {
	sol := NewSolution(testPlan(t), map[string]any{"x": 0})

	sol.writeValue("x", 5, "ab", 0)

	v, _ := sol.Get("x")
	assert.Equal(t, 0, v, "the inputs layer is written first")
	assert.Equal(t, []any{5}, sol.Overwrites()["x"])
}

func TestSolutionEvict(t *testing.T) {
	sol := NewSolution(testPlan(t), map[string]any{"a": 1})
	sol.writeValue("b", 2, "ab", 0)

	assert.True(t, sol.evict("b"))
	assert.False(t, sol.Has("b"))
	assert.True(t, sol.wasEvicted("b"))
	assert.Equal(t, []string{"ab"}, sol.Provenance("b"), "provenance survives eviction")
	assert.False(t, sol.evict("b"), "double eviction reports absent")
}

func TestSolutionSideffectValue(t *testing.T) {
	sol := NewSolution(testPlan(t), nil)
	sol.writeValue("sideffect(df.sum)", nil, "ab", 0)

	assert.True(t, sol.Has("sideffect(df.sum)"))
	v, ok := sol.Get("sideffect(df.sum)")
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestSolutionAbortFlag(t *testing.T) {
	sol := NewSolution(testPlan(t), nil)
	assert.False(t, sol.IsAborted())
	sol.Abort()
	assert.True(t, sol.IsAborted())
}

func TestSolutionStatusTransitions(t *testing.T) {
	sol := NewSolution(testPlan(t), nil)

	sol.setStatus("ab", OpStatusRunning)
	assert.False(t, sol.Status("ab").terminal())
	sol.setStatus("ab", OpStatusOK)
	assert.True(t, sol.Status("ab").terminal())

	sol.markFailed("bc", assert.AnError)
	assert.Equal(t, OpStatusFailed, sol.Status("bc"))
	assert.ErrorIs(t, sol.Failed()["bc"], assert.AnError)
	assert.Equal(t, []string{"ab"}, sol.Executed())
}
