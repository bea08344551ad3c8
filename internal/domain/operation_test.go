package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gkerr "github.com/flowgraph-io/flowgraph/internal/domain/errors"
)

func identityFn(ctx context.Context, args *Args) (any, error) {
	return args.Positional[0], nil
}

func TestNewOperationValidation(t *testing.T) {
	tests := []struct {
		name     string
		opName   string
		fn       OpFunc
		needs    []Dep
		provides []Dep
	}{
		{"empty name", "", identityFn, []Dep{Required("a")}, []Dep{Required("b")}},
		{"blank name", "   ", identityFn, []Dep{Required("a")}, []Dep{Required("b")}},
		{"nil fn", "op", nil, []Dep{Required("a")}, []Dep{Required("b")}},
		{"no provides", "op", identityFn, []Dep{Required("a")}, nil},
		{"dupe need", "op", identityFn, []Dep{Required("a"), Required("a")}, []Dep{Required("b")}},
		{"dupe provide", "op", identityFn, []Dep{Required("a")}, []Dep{Required("b"), Required("b")}},
		{"need equals provide", "op", identityFn, []Dep{Required("x")}, []Dep{Required("x")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOperation(tt.opName, tt.fn, tt.needs, tt.provides)
			require.Error(t, err)
			var ive *gkerr.InvalidValueError
			assert.ErrorAs(t, err, &ive)
		})
	}
}

func TestSideffectProvideOnlyIsValid(t *testing.T) {
	op, err := NewOperation("touch", NullFn, []Dep{Required("df")}, []Dep{Sideffect("df.sum")})
	require.NoError(t, err)
	assert.Equal(t, []string{"sideffect(df.sum)"}, op.ProvideKeys())
}

func TestSideffectDoesNotCollideWithData(t *testing.T) {
	// The sideffect(price) output is a different node than the price input.
	op, err := NewOperation("upd_prices", NullFn,
		[]Dep{Required("sales_df"), Required("price")},
		[]Dep{Sideffect("price")})
	require.NoError(t, err)
	assert.Equal(t, []string{"sales_df", "price"}, op.RequiredNeedKeys())
	assert.Equal(t, []string{"sideffect(price)"}, op.ProvideKeys())
}

func TestWithSetCopies(t *testing.T) {
	op, err := NewOperation("base", identityFn, []Dep{Required("a")}, []Dep{Required("b")})
	require.NoError(t, err)

	clone := op.WithSet(Endured(), Rescheduled(), WithParents("net"))

	assert.False(t, op.Endured())
	assert.False(t, op.Reschedule())
	assert.Equal(t, "base", op.Name())
	assert.True(t, clone.Endured())
	assert.True(t, clone.Reschedule())
	assert.Equal(t, "net.base", clone.Name())
	assert.Equal(t, "base", clone.BaseName())
}

func TestWithSetNodePropsMergeDoesNotLeak(t *testing.T) {
	op, err := NewOperation("p", identityFn,
		[]Dep{Required("a")}, []Dep{Required("b")},
		WithNodeProps(map[string]any{"tier": 1}))
	require.NoError(t, err)

	clone := op.WithSet(WithNodeProps(map[string]any{"tier": 2, "zone": "eu"}))

	assert.Equal(t, 1, op.NodeProps()["tier"])
	assert.Equal(t, 2, clone.NodeProps()["tier"])
	assert.Equal(t, "eu", clone.NodeProps()["zone"])
	assert.NotContains(t, op.NodeProps(), "zone")
}

func TestRequiredNeedKeysSkipsOptionals(t *testing.T) {
	op, err := NewOperation("mix", identityFn,
		[]Dep{Required("a"), Optional("b"), Vararg("c"), Varargs("d"), Sideffect("t"), Sideffected("df", "x")},
		[]Dep{Required("out")})
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"a", "sideffect(t)", "df", "sideffect(df<--x)"},
		op.RequiredNeedKeys())
}

func TestSameSignature(t *testing.T) {
	a1, _ := NewOperation("a", identityFn, []Dep{Required("x"), Optional("y")}, []Dep{Required("z")})
	a2, _ := NewOperation("a", NullFn, []Dep{Required("x"), Optional("y")}, []Dep{Required("z")})
	b, _ := NewOperation("a", identityFn, []Dep{Required("x")}, []Dep{Required("z")})

	assert.True(t, a1.SameSignature(a2))
	assert.False(t, a1.SameSignature(b))
}
