package assertfilter_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xDarkicex/deltasat/assertfilter"
	"github.com/xDarkicex/deltasat/box"
	"github.com/xDarkicex/deltasat/rational"
	"github.com/xDarkicex/deltasat/symbolic"
)

func newEnv(t *testing.T) (*symbolic.Store, *symbolic.FormulaStore, *box.Box) {
	t.Helper()
	exprs := symbolic.NewStore()
	forms := symbolic.NewFormulaStore(exprs)
	return exprs, forms, box.New()
}

func TestEqualityCollapsesInterval(t *testing.T) {
	exprs, forms, b := newEnv(t)
	vars := symbolic.NewVarTable()
	x, _ := vars.Declare("x", symbolic.Continuous)
	b.Declare(x)

	xID := exprs.Var(x)
	five := exprs.Constant(rational.FromInt64(5))
	atom := forms.Atom(symbolic.OpEq, xID, five)

	res := assertfilter.Filter(exprs, forms, b, atom)
	require.Equal(t, assertfilter.FilteredWithChange, res)
	require.True(t, b.Get(x).Lo.Equal(rational.FromInt64(5)))
	require.True(t, b.Get(x).Hi.Equal(rational.FromInt64(5)))
}

func TestEqualityOutsideIntervalEmptiesBox(t *testing.T) {
	exprs, forms, b := newEnv(t)
	vars := symbolic.NewVarTable()
	x, _ := vars.Declare("x", symbolic.Continuous)
	b.Declare(x)
	b.Set(x, box.Interval{Lo: rational.FromInt64(0), Hi: rational.FromInt64(3)})

	xID := exprs.Var(x)
	five := exprs.Constant(rational.FromInt64(5))
	atom := forms.Atom(symbolic.OpEq, xID, five)

	res := assertfilter.Filter(exprs, forms, b, atom)
	require.Equal(t, assertfilter.FilteredWithChange, res)
	require.True(t, b.IsEmpty())
}

func TestNonStrictBoundsTighten(t *testing.T) {
	exprs, forms, b := newEnv(t)
	vars := symbolic.NewVarTable()
	x, _ := vars.Declare("x", symbolic.Continuous)
	b.Declare(x)

	xID := exprs.Var(x)
	three := exprs.Constant(rational.FromInt64(3))
	five := exprs.Constant(rational.FromInt64(5))

	geAtom := forms.Atom(symbolic.OpGe, xID, three)
	require.Equal(t, assertfilter.FilteredWithChange, assertfilter.Filter(exprs, forms, b, geAtom))
	require.True(t, b.Get(x).Lo.Equal(rational.FromInt64(3)))

	leAtom := forms.Atom(symbolic.OpLe, xID, five)
	require.Equal(t, assertfilter.FilteredWithChange, assertfilter.Filter(exprs, forms, b, leAtom))
	require.True(t, b.Get(x).Hi.Equal(rational.FromInt64(5)))
}

func TestMirroredConstOnLeftAppliesSameTightening(t *testing.T) {
	exprs, forms, b := newEnv(t)
	vars := symbolic.NewVarTable()
	x, _ := vars.Declare("x", symbolic.Continuous)
	b.Declare(x)

	xID := exprs.Var(x)
	three := exprs.Constant(rational.FromInt64(3))
	// "3 < x" means x > 3, the mirror of "x > 3".
	atom := forms.Atom(symbolic.OpLt, three, xID)

	res := assertfilter.Filter(exprs, forms, b, atom)
	require.Equal(t, assertfilter.FilteredWithChange, res)
	require.True(t, b.Get(x).Lo.Cmp(rational.FromInt64(3)) > 0)
}

func TestIntegerStrictTighteningByOne(t *testing.T) {
	exprs, forms, b := newEnv(t)
	vars := symbolic.NewVarTable()
	n, _ := vars.Declare("n", symbolic.Integer)
	b.Declare(n)

	nID := exprs.Var(n)
	zero := exprs.Constant(rational.Zero())
	one := exprs.Constant(rational.FromInt64(1))

	gtAtom := forms.Atom(symbolic.OpGt, nID, zero)
	assertfilter.Filter(exprs, forms, b, gtAtom)
	require.True(t, b.Get(n).Lo.Equal(rational.FromInt64(1)))

	ltAtom := forms.Atom(symbolic.OpLt, nID, one)
	res := assertfilter.Filter(exprs, forms, b, ltAtom)
	require.Equal(t, assertfilter.FilteredWithChange, res)
	require.True(t, b.Get(n).Hi.Equal(rational.Zero()))
	// n >= 1 and n <= 0 is infeasible.
	require.True(t, b.IsEmpty())
}

func TestNotEqualIsNotFiltered(t *testing.T) {
	exprs, forms, b := newEnv(t)
	vars := symbolic.NewVarTable()
	x, _ := vars.Declare("x", symbolic.Continuous)
	b.Declare(x)

	xID := exprs.Var(x)
	five := exprs.Constant(rational.FromInt64(5))
	atom := forms.Atom(symbolic.OpNeq, xID, five)

	require.Equal(t, assertfilter.NotFiltered, assertfilter.Filter(exprs, forms, b, atom))
}

func TestNonBoundShapeIsNotFiltered(t *testing.T) {
	exprs, forms, b := newEnv(t)
	vars := symbolic.NewVarTable()
	x, _ := vars.Declare("x", symbolic.Continuous)
	y, _ := vars.Declare("y", symbolic.Continuous)
	b.Declare(x)
	b.Declare(y)

	xID, yID := exprs.Var(x), exprs.Var(y)
	atom := forms.Atom(symbolic.OpLe, xID, yID)

	require.Equal(t, assertfilter.NotFiltered, assertfilter.Filter(exprs, forms, b, atom))
}

func TestRepeatedFilterIsNoChangeSecondTime(t *testing.T) {
	exprs, forms, b := newEnv(t)
	vars := symbolic.NewVarTable()
	x, _ := vars.Declare("x", symbolic.Continuous)
	b.Declare(x)

	xID := exprs.Var(x)
	three := exprs.Constant(rational.FromInt64(3))
	atom := forms.Atom(symbolic.OpGe, xID, three)

	require.Equal(t, assertfilter.FilteredWithChange, assertfilter.Filter(exprs, forms, b, atom))
	require.Equal(t, assertfilter.FilteredWithoutChange, assertfilter.Filter(exprs, forms, b, atom))
}
