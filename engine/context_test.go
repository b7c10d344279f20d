package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xDarkicex/deltasat/engine"
	"github.com/xDarkicex/deltasat/rational"
	"github.com/xDarkicex/deltasat/symbolic"
	"github.com/xDarkicex/deltasat/theory"
)

func decimal(t *testing.T, s string) rational.Rational {
	t.Helper()
	q, err := rational.FromDecimal(s)
	require.NoError(t, err)
	return q
}

func newContext(t *testing.T, precision rational.Rational) *engine.Context {
	t.Helper()
	c := engine.NewContext(engine.Config{
		Precision:        precision,
		ScopedAssertions: true,
	}, theory.NewSimplex())
	t.Cleanup(c.Close)
	return c
}

// spec.md §8 scenario: a single bounded variable with a satisfiable
// non-strict bound is plain SAT.
func TestCheckSatSimpleFeasibleSystem(t *testing.T) {
	c := newContext(t, rational.Zero())
	x, err := c.DeclareVariable("x", symbolic.Continuous)
	require.NoError(t, err)

	xID := c.Exprs().Var(x)
	three := c.Exprs().Constant(rational.FromInt64(3))
	ten := c.Exprs().Constant(rational.FromInt64(10))

	require.NoError(t, c.Assert(c.Forms().Atom(symbolic.OpGe, xID, three)))
	require.NoError(t, c.Assert(c.Forms().Atom(symbolic.OpLe, xID, ten)))

	verdict, model, err := c.CheckSat()
	require.NoError(t, err)
	require.Equal(t, engine.VerdictSat, verdict)
	require.NotNil(t, model)
	got := model.Get(x)
	require.True(t, got.Lo.Cmp(rational.FromInt64(3)) >= 0)
	require.True(t, got.Hi.Cmp(rational.FromInt64(10)) <= 0)
}

// A directly contradictory pair of bounds on one variable is UNSAT:
// the assertion filter empties the Box, so CheckSat answers before any
// SAT/theory round.
func TestCheckSatContradictorySystemIsUnsat(t *testing.T) {
	c := newContext(t, rational.Zero())
	x, err := c.DeclareVariable("x", symbolic.Continuous)
	require.NoError(t, err)

	xID := c.Exprs().Var(x)
	five := c.Exprs().Constant(rational.FromInt64(5))
	ten := c.Exprs().Constant(rational.FromInt64(10))

	require.NoError(t, c.Assert(c.Forms().Atom(symbolic.OpGe, xID, ten)))
	require.NoError(t, c.Assert(c.Forms().Atom(symbolic.OpLe, xID, five)))

	verdict, _, err := c.CheckSat()
	require.NoError(t, err)
	require.Equal(t, engine.VerdictUnsat, verdict)
}

// 2x + y = z with 0 <= x,y,z <= 5 is feasible only up to the
// configured precision once strict atoms are involved; here all atoms
// are non-strict, so an exact witness exists and the verdict is plain
// SAT, exercising the three-variable linear-equality path end to end.
func TestCheckSatLinearEqualityAcrossThreeVariables(t *testing.T) {
	c := newContext(t, decimal(t, "0.001"))
	x, _ := c.DeclareVariable("x", symbolic.Continuous)
	y, _ := c.DeclareVariable("y", symbolic.Continuous)
	z, _ := c.DeclareVariable("z", symbolic.Continuous)

	exprs := c.Exprs()
	xID, yID, zID := exprs.Var(x), exprs.Var(y), exprs.Var(z)
	zero, five := exprs.Constant(rational.Zero()), exprs.Constant(rational.FromInt64(5))

	for _, v := range []symbolic.ExprID{xID, yID, zID} {
		require.NoError(t, c.Assert(c.Forms().Atom(symbolic.OpGe, v, zero)))
		require.NoError(t, c.Assert(c.Forms().Atom(symbolic.OpLe, v, five)))
	}

	lhs := exprs.Add(rational.Zero(), []symbolic.Term{
		{Sub: xID, Coeff: rational.FromInt64(2)},
		{Sub: yID, Coeff: rational.FromInt64(1)},
	})
	require.NoError(t, c.Assert(c.Forms().Atom(symbolic.OpEq, lhs, zID)))

	verdict, model, err := c.CheckSat()
	require.NoError(t, err)
	require.Contains(t, []engine.Verdict{engine.VerdictSat, engine.VerdictDeltaSat}, verdict)
	require.NotNil(t, model)
}

func TestPushPopRestoresBoxAcrossScope(t *testing.T) {
	c := newContext(t, rational.Zero())
	x, _ := c.DeclareVariable("x", symbolic.Continuous)
	exprs := c.Exprs()
	xID := exprs.Var(x)
	three := exprs.Constant(rational.FromInt64(3))

	require.NoError(t, c.Assert(c.Forms().Atom(symbolic.OpGe, xID, three)))
	require.NoError(t, c.Push())

	require.NoError(t, c.Assert(c.Forms().Atom(symbolic.OpLe, xID, exprs.Constant(rational.FromInt64(1)))))

	verdict, _, err := c.CheckSat()
	require.NoError(t, err)
	require.Equal(t, engine.VerdictUnsat, verdict)

	require.NoError(t, c.Pop())
	verdict, _, err = c.CheckSat()
	require.NoError(t, err)
	require.Equal(t, engine.VerdictSat, verdict)
}

func TestPushFailsWithoutScopedAssertions(t *testing.T) {
	c := engine.NewContext(engine.Config{ScopedAssertions: false}, theory.NewSimplex())
	defer c.Close()
	require.Error(t, c.Push())
}

// spec.md §8 scenario 6: minimize x subject to 1 <= x <= 10 should
// bracket the optimum at the lower bound within the configured
// precision.
func TestMinimizeBracketsLowerBound(t *testing.T) {
	c := newContext(t, decimal(t, "0.01"))
	x, _ := c.DeclareVariable("x", symbolic.Continuous)
	exprs := c.Exprs()
	xID := exprs.Var(x)
	one, ten := exprs.Constant(rational.FromInt64(1)), exprs.Constant(rational.FromInt64(10))

	require.NoError(t, c.Assert(c.Forms().Atom(symbolic.OpGe, xID, one)))
	require.NoError(t, c.Assert(c.Forms().Atom(symbolic.OpLe, xID, ten)))

	require.NoError(t, c.Minimize(xID))
	status, lo, hi, err := c.CheckOptCore()
	require.NoError(t, err)
	require.Equal(t, engine.OptSat, status)
	require.True(t, lo.Cmp(rational.FromInt64(1)) >= 0)
	require.True(t, hi.Sub(lo).Cmp(decimal(t, "0.01")) <= 0)
}

func TestMinimizeRejectsMultiVariableObjective(t *testing.T) {
	c := newContext(t, rational.Zero())
	x, _ := c.DeclareVariable("x", symbolic.Continuous)
	y, _ := c.DeclareVariable("y", symbolic.Continuous)
	exprs := c.Exprs()
	sum := exprs.Add(rational.Zero(), []symbolic.Term{
		{Sub: exprs.Var(x), Coeff: rational.FromInt64(1)},
		{Sub: exprs.Var(y), Coeff: rational.FromInt64(1)},
	})
	require.Error(t, c.Minimize(sum))
}
