package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cpplite-lang/cpplite/internal/types"
)

func TestZeroValues(t *testing.T) {
	for _, typ := range []types.Type{types.Int, types.Bool, types.Char, types.Float} {
		v := Zero(typ)
		require.True(t, v.IsUndefined(), "zero %s must be undefined", typ)
		require.Equal(t, typ, v.Type())
		require.Equal(t, Undef, v.String())
	}

	void := Zero(types.Void)
	require.False(t, void.IsUndefined())
	require.Equal(t, types.Void, void.Type())
	require.Equal(t, "", void.String())
}

func TestString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Int(7), "7"},
		{Int(-2147483648), "-2147483648"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Char('a'), "a"},
		{Float(5), "5.0"},
		{Float(2.5), "2.5"},
		{Float(-0.125), "-0.125"},
		{Float(0), "0.0"},
		{Float(1e10), "1.0E10"},
		{Float(1.5e-5), "1.5E-5"},
		{Float(float32(math.Inf(1))), "Infinity"},
		{Float(float32(math.NaN())), "NaN"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, tt.v.String())
	}
}

func TestLiteral(t *testing.T) {
	require.Equal(t, "'x'", Char('x').Literal())
	require.Equal(t, "3", Int(3).Literal())
	require.Equal(t, Undef, Zero(types.Char).Literal())
}

func TestValuesCompareByContent(t *testing.T) {
	require.Equal(t, Int(3), Int(3))
	require.NotEqual(t, Int(3), Zero(types.Int))
	require.NotEqual(t, Int(0), Zero(types.Int))
}
