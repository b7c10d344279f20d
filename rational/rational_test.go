package rational_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xDarkicex/deltasat/rational"
)

func TestArithmetic(t *testing.T) {
	a, err := rational.FromDecimal("3/2")
	require.NoError(t, err)
	b := rational.FromInt64(1)

	require.True(t, a.Add(b).Equal(mustParse(t, "5/2")))
	require.True(t, a.Sub(b).Equal(mustParse(t, "1/2")))
	require.True(t, a.Mul(b).Equal(a))
}

func TestInfinitySentinels(t *testing.T) {
	pos, neg := rational.PosInf(), rational.NegInf()
	require.True(t, pos.IsPosInf())
	require.True(t, neg.IsNegInf())
	require.False(t, pos.IsFinite())

	five := rational.FromInt64(5)
	require.Equal(t, -1, five.Cmp(pos))
	require.Equal(t, 1, five.Cmp(neg))
	require.Equal(t, 0, pos.Cmp(rational.PosInf()))

	require.True(t, pos.Add(five).IsPosInf())
	require.True(t, neg.Add(five).IsNegInf())
}

func TestActiveInfinityLifecycle(t *testing.T) {
	rational.InftyStart(rational.FromInt64(1_000_000))
	defer rational.InftyFinish()

	require.True(t, rational.WithinActiveInfinity(rational.FromInt64(999)))
	require.False(t, rational.WithinActiveInfinity(rational.FromInt64(1_000_000)))
	require.True(t, rational.WithinActiveInfinity(rational.PosInf()))
}

func TestDirectedFloatRounding(t *testing.T) {
	third, err := rational.FromDecimal("1/3")
	require.NoError(t, err)

	ceil := third.Float64Ceil()
	floor := third.Float64Floor()
	require.GreaterOrEqual(t, ceil, floor)
	require.GreaterOrEqual(t, ceil, 1.0/3.0-1e-15)
}

func mustParse(t *testing.T, s string) rational.Rational {
	t.Helper()
	q, err := rational.FromDecimal(s)
	require.NoError(t, err)
	return q
}
