package predicate_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xDarkicex/deltasat/predicate"
	"github.com/xDarkicex/deltasat/rational"
	"github.com/xDarkicex/deltasat/symbolic"
)

func setup(t *testing.T) (*symbolic.Store, *symbolic.FormulaStore, *symbolic.VarTable) {
	t.Helper()
	exprs := symbolic.NewStore()
	forms := symbolic.NewFormulaStore(exprs)
	vars := symbolic.NewVarTable()
	return exprs, forms, vars
}

func TestProxyForIsStableAcrossOccurrences(t *testing.T) {
	exprs, forms, vars := setup(t)
	x, _ := vars.Declare("x", symbolic.Continuous)
	xID := exprs.Var(x)
	five := exprs.Constant(rational.FromInt64(5))

	atom := forms.Atom(symbolic.OpLe, xID, five)
	abs := predicate.New(forms, vars)

	p1 := abs.ProxyFor(atom)
	p2 := abs.ProxyFor(atom)
	require.Equal(t, p1.ID(), p2.ID())
}

func TestAbstractReplacesAtomsAndKeepsStructure(t *testing.T) {
	exprs, forms, vars := setup(t)
	x, _ := vars.Declare("x", symbolic.Continuous)
	b, _ := vars.Declare("b", symbolic.Boolean)
	xID := exprs.Var(x)
	five := exprs.Constant(rational.FromInt64(5))

	atom := forms.Atom(symbolic.OpLe, xID, five)
	bv := forms.BoolVar(b)
	conj := forms.And([]symbolic.FormulaID{atom, bv})

	abs := predicate.New(forms, vars)
	abstracted := abs.Abstract(conj)

	require.True(t, forms.IsAnd(abstracted))
	for _, operand := range forms.Node(abstracted).Operands() {
		require.False(t, forms.IsAtom(operand), "no atom should survive abstraction")
	}
}

func TestAtomForInverts(t *testing.T) {
	exprs, forms, vars := setup(t)
	x, _ := vars.Declare("x", symbolic.Continuous)
	xID := exprs.Var(x)
	five := exprs.Constant(rational.FromInt64(5))
	atom := forms.Atom(symbolic.OpGe, xID, five)

	abs := predicate.New(forms, vars)
	proxy := abs.ProxyFor(atom)

	got, ok := abs.AtomFor(proxy.ID())
	require.True(t, ok)
	require.Equal(t, atom, got)
}

func TestAtomsReturnsEveryAbstractedAtomOnce(t *testing.T) {
	exprs, forms, vars := setup(t)
	x, _ := vars.Declare("x", symbolic.Continuous)
	y, _ := vars.Declare("y", symbolic.Continuous)
	xID, yID := exprs.Var(x), exprs.Var(y)
	five := exprs.Constant(rational.FromInt64(5))

	a1 := forms.Atom(symbolic.OpLe, xID, five)
	a2 := forms.Atom(symbolic.OpGe, yID, five)
	conj := forms.And([]symbolic.FormulaID{a1, a2})

	abs := predicate.New(forms, vars)
	abs.Abstract(conj)

	require.ElementsMatch(t, []symbolic.FormulaID{a1, a2}, abs.Atoms())
}
