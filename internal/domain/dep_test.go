package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSideffectKeyDistinctFromData(t *testing.T) {
	sfx := Sideffect("x")
	data := Required("x")

	assert.Equal(t, "sideffect(x)", sfx.Key())
	assert.Equal(t, "x", data.Key())
	assert.NotEqual(t, data.Key(), sfx.Key())
}

func TestSideffectRewrapIdempotent(t *testing.T) {
	once := Sideffect("x")
	twice := Sideffect(once.Key())

	assert.True(t, once.Equal(twice))
	assert.Equal(t, "sideffect(x)", twice.Key())
}

func TestOptionalKeywordKey(t *testing.T) {
	assert.Equal(t, "b", Optional("b").KeywordKey())
	assert.Equal(t, "fnarg", OptionalAs("quasi-real", "fnarg").KeywordKey())
	assert.Equal(t, "k", Mapped("a", "k").KeywordKey())
}

func TestOptionalishKinds(t *testing.T) {
	assert.True(t, Optional("a").Optionalish())
	assert.True(t, Vararg("a").Optionalish())
	assert.True(t, Varargs("a").Optionalish())
	assert.False(t, Required("a").Optionalish())
	assert.False(t, Mapped("a", "b").Optionalish())
	assert.False(t, Sideffect("a").Optionalish())
	assert.False(t, Sideffected("a", "t").Optionalish())
}

func TestSideffectedTokenKeys(t *testing.T) {
	d := Sideffected("df", "a", "b")

	assert.Equal(t, "df", d.Key())
	assert.Equal(t, []string{"sideffect(df<--a)", "sideffect(df<--b)"}, d.SideffectKeys())
}

func TestSideffectNotPassedToFn(t *testing.T) {
	assert.False(t, Sideffect("t").PassedToFn())
	assert.True(t, Required("a").PassedToFn())
	assert.True(t, Sideffected("df", "t").PassedToFn())
}

func TestParseDep(t *testing.T) {
	tests := []struct {
		in   string
		want Dep
	}{
		{"a", Required("a")},
		{"optional(b)", Optional("b")},
		{"optional(b, key)", OptionalAs("b", "key")},
		{"mapped(a, k)", Mapped("a", "k")},
		{"vararg(v)", Vararg("v")},
		{"varargs(vs)", Varargs("vs")},
		{"sideffect(df.b)", Sideffect("df.b")},
		{"sideffected(df, a, b)", Sideffected("df", "a", "b")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDep(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "parsed %v", got)
		})
	}
}

func TestParseDepRoundTrip(t *testing.T) {
	for _, d := range []Dep{
		Required("a"),
		Optional("b"),
		OptionalAs("b", "k"),
		Mapped("a", "k"),
		Vararg("v"),
		Varargs("vs"),
		Sideffect("token"),
		Sideffected("df", "a", "b"),
	} {
		got, err := ParseDep(d.String())
		require.NoError(t, err, d.String())
		assert.True(t, d.Equal(got), "round-trip of %s gave %v", d, got)
	}
}

func TestParseDepErrors(t *testing.T) {
	for _, in := range []string{"", "  ", "mapped(a)", "sideffected(df)", "optional(a, b, c)"} {
		_, err := ParseDep(in)
		assert.Error(t, err, "input %q", in)
	}
}
