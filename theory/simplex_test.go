package theory_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xDarkicex/deltasat/rational"
	"github.com/xDarkicex/deltasat/theory"
)

func TestSimplexFeasibleSingleInequality(t *testing.T) {
	s := theory.NewSimplex()
	x := s.NewCol("x", rational.NegInf(), rational.PosInf())
	row := s.NewRow(theory.SenseG, rational.FromInt64(2))
	s.ChangeCoef(row, x, rational.FromInt64(1))

	status := s.Optimize()
	require.Equal(t, theory.StatusOptimal, status)

	out := make(map[theory.ColIndex]rational.Rational)
	s.GetPrimalRational(out)
	require.True(t, out[x].Cmp(rational.FromInt64(2)) >= 0)
}

func TestSimplexInfeasibleContradictoryBounds(t *testing.T) {
	s := theory.NewSimplex()
	x := s.NewCol("x", rational.NegInf(), rational.PosInf())
	upper := s.NewRow(theory.SenseL, rational.FromInt64(1))
	s.ChangeCoef(upper, x, rational.FromInt64(1))
	lower := s.NewRow(theory.SenseG, rational.FromInt64(5))
	s.ChangeCoef(lower, x, rational.FromInt64(1))

	status := s.Optimize()
	require.Equal(t, theory.StatusInfeasible, status)

	out := make(map[theory.RowIndex]rational.Rational)
	s.GetDualRational(out)
	require.NotEmpty(t, out)
}

func TestSimplexRespectsColumnBoundsAsImplicitRows(t *testing.T) {
	s := theory.NewSimplex()
	x := s.NewCol("x", rational.FromInt64(0), rational.FromInt64(3))
	row := s.NewRow(theory.SenseG, rational.FromInt64(10))
	s.ChangeCoef(row, x, rational.FromInt64(1))

	status := s.Optimize()
	require.Equal(t, theory.StatusInfeasible, status)
}

func TestSimplexDisabledRowIsIgnored(t *testing.T) {
	s := theory.NewSimplex()
	x := s.NewCol("x", rational.NegInf(), rational.PosInf())
	row := s.NewRow(theory.SenseG, rational.FromInt64(100))
	s.ChangeCoef(row, x, rational.FromInt64(1))
	s.ChangeSense(row, theory.SenseDisabled)

	status := s.Optimize()
	require.Equal(t, theory.StatusOptimal, status)
}

func TestSimplexEqualityRow(t *testing.T) {
	s := theory.NewSimplex()
	x := s.NewCol("x", rational.NegInf(), rational.PosInf())
	row := s.NewRow(theory.SenseE, rational.FromInt64(7))
	s.ChangeCoef(row, x, rational.FromInt64(1))

	status := s.Optimize()
	require.Equal(t, theory.StatusOptimal, status)

	out := make(map[theory.ColIndex]rational.Rational)
	s.GetPrimalRational(out)
	require.True(t, out[x].Equal(rational.FromInt64(7)))
}

func TestSimplexTwoVariableSystem(t *testing.T) {
	s := theory.NewSimplex()
	x := s.NewCol("x", rational.NegInf(), rational.PosInf())
	y := s.NewCol("y", rational.NegInf(), rational.PosInf())

	sum := s.NewRow(theory.SenseE, rational.FromInt64(10))
	s.ChangeCoef(sum, x, rational.FromInt64(1))
	s.ChangeCoef(sum, y, rational.FromInt64(1))

	diff := s.NewRow(theory.SenseG, rational.FromInt64(2))
	s.ChangeCoef(diff, x, rational.FromInt64(1))
	s.ChangeCoef(diff, y, rational.FromInt64(-1))

	status := s.Optimize()
	require.Equal(t, theory.StatusOptimal, status)

	out := make(map[theory.ColIndex]rational.Rational)
	s.GetPrimalRational(out)
	require.True(t, out[x].Add(out[y]).Equal(rational.FromInt64(10)))
	require.True(t, out[x].Sub(out[y]).Cmp(rational.FromInt64(2)) >= 0)
}
