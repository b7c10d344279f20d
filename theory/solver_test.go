package theory_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xDarkicex/deltasat/box"
	"github.com/xDarkicex/deltasat/rational"
	"github.com/xDarkicex/deltasat/symbolic"
	"github.com/xDarkicex/deltasat/theory"
)

func setup(t *testing.T) (*symbolic.Store, *symbolic.FormulaStore, *symbolic.VarTable) {
	t.Helper()
	exprs := symbolic.NewStore()
	forms := symbolic.NewFormulaStore(exprs)
	vars := symbolic.NewVarTable()
	return exprs, forms, vars
}

func TestSolverFeasibleSingleAtom(t *testing.T) {
	exprs, forms, vars := setup(t)
	x, _ := vars.Declare("x", symbolic.Continuous)
	xID := exprs.Var(x)
	five := exprs.Constant(rational.FromInt64(5))
	atom := forms.Atom(symbolic.OpGe, xID, five) // x >= 5

	s := theory.NewSolver(forms, theory.NewSimplex())
	defer s.Close()

	require.NoError(t, s.AddLinearLiteral(atom, true))
	s.ResetLinearProblem()
	require.NoError(t, s.EnableLinearLiteral(atom, true))

	b := box.New()
	b.Declare(x)
	verdict, model, _ := s.CheckSat(b, vars.ByID)
	require.Equal(t, theory.VerdictSat, verdict)
	require.True(t, model.Get(x).Lo.Cmp(five) >= 0)
}

func TestSolverInfeasibleContradictoryAtoms(t *testing.T) {
	exprs, forms, vars := setup(t)
	x, _ := vars.Declare("x", symbolic.Continuous)
	xID := exprs.Var(x)
	one := exprs.Constant(rational.FromInt64(1))
	five := exprs.Constant(rational.FromInt64(5))

	upper := forms.Atom(symbolic.OpLe, xID, one)  // x <= 1
	lower := forms.Atom(symbolic.OpGe, xID, five) // x >= 5

	s := theory.NewSolver(forms, theory.NewSimplex())
	defer s.Close()

	require.NoError(t, s.AddLinearLiteral(upper, true))
	require.NoError(t, s.AddLinearLiteral(lower, true))
	s.ResetLinearProblem()
	require.NoError(t, s.EnableLinearLiteral(upper, true))
	require.NoError(t, s.EnableLinearLiteral(lower, true))

	b := box.New()
	b.Declare(x)
	verdict, _, explanation := s.CheckSat(b, vars.ByID)
	require.Equal(t, theory.VerdictUnsat, verdict)
	require.NotEmpty(t, explanation)
}

func TestSolverDisabledRowsAreVacuous(t *testing.T) {
	exprs, forms, vars := setup(t)
	x, _ := vars.Declare("x", symbolic.Continuous)
	xID := exprs.Var(x)
	one := exprs.Constant(rational.FromInt64(1))
	five := exprs.Constant(rational.FromInt64(5))

	upper := forms.Atom(symbolic.OpLe, xID, one)
	lower := forms.Atom(symbolic.OpGe, xID, five)

	s := theory.NewSolver(forms, theory.NewSimplex())
	defer s.Close()

	require.NoError(t, s.AddLinearLiteral(upper, true))
	require.NoError(t, s.AddLinearLiteral(lower, true))
	s.ResetLinearProblem()
	// Only the lower bound survives this candidate model.
	require.NoError(t, s.EnableLinearLiteral(lower, true))

	b := box.New()
	b.Declare(x)
	verdict, _, _ := s.CheckSat(b, vars.ByID)
	require.Equal(t, theory.VerdictSat, verdict)
}

func TestSolverEqualityAtomUnderFalsePolarityIsSkippedTrivially(t *testing.T) {
	exprs, forms, vars := setup(t)
	x, _ := vars.Declare("x", symbolic.Continuous)
	xID := exprs.Var(x)
	five := exprs.Constant(rational.FromInt64(5))
	atom := forms.Atom(symbolic.OpEq, xID, five)

	s := theory.NewSolver(forms, theory.NewSimplex())
	defer s.Close()

	// x == 5 under polarity false means x != 5, which is δ-trivial and
	// builds no row at all.
	require.NoError(t, s.AddLinearLiteral(atom, false))
	s.ResetLinearProblem()
	require.NoError(t, s.EnableLinearLiteral(atom, false))

	b := box.New()
	b.Declare(x)
	verdict, _, _ := s.CheckSat(b, vars.ByID)
	require.Equal(t, theory.VerdictSat, verdict)
}

func TestSolverRespectsBoxBounds(t *testing.T) {
	exprs, forms, vars := setup(t)
	x, _ := vars.Declare("x", symbolic.Continuous)
	xID := exprs.Var(x)
	hundred := exprs.Constant(rational.FromInt64(100))
	atom := forms.Atom(symbolic.OpGe, xID, hundred) // x >= 100

	s := theory.NewSolver(forms, theory.NewSimplex())
	defer s.Close()

	require.NoError(t, s.AddLinearLiteral(atom, true))
	s.ResetLinearProblem()
	require.NoError(t, s.EnableLinearLiteral(atom, true))

	b := box.New()
	b.Declare(x)
	b.Set(x, box.Interval{Lo: rational.FromInt64(0), Hi: rational.FromInt64(10)})

	verdict, _, _ := s.CheckSat(b, vars.ByID)
	require.Equal(t, theory.VerdictUnsat, verdict)
}
