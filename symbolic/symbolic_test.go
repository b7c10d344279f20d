package symbolic_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xDarkicex/deltasat/rational"
	"github.com/xDarkicex/deltasat/symbolic"
)

func TestAddCanonicalizesAndHashConses(t *testing.T) {
	store := symbolic.NewStore()
	vars := symbolic.NewVarTable()
	x, err := vars.Declare("x", symbolic.Continuous)
	require.NoError(t, err)
	y, err := vars.Declare("y", symbolic.Continuous)
	require.NoError(t, err)

	xID := store.Var(x)
	yID := store.Var(y)

	e1 := store.Add(rational.FromInt64(3), []symbolic.Term{
		{Sub: xID, Coeff: rational.FromInt64(2)},
		{Sub: yID, Coeff: rational.FromInt64(1)},
	})
	// Same sum built with merged duplicate and a zero-coefficient term
	// that must drop out, still produces the identical node.
	e2 := store.Add(rational.FromInt64(3), []symbolic.Term{
		{Sub: xID, Coeff: rational.FromInt64(1)},
		{Sub: xID, Coeff: rational.FromInt64(1)},
		{Sub: yID, Coeff: rational.FromInt64(0)},
		{Sub: yID, Coeff: rational.FromInt64(1)},
		{Sub: xID, Coeff: rational.Zero()},
	})
	require.Equal(t, 2, len(store.Node(e2).Operands()))

	c0, terms := store.CoefficientMap(e1)
	require.True(t, c0.Equal(rational.FromInt64(3)))
	require.Len(t, terms, 2)

	require.Equal(t, e1, e2, "structurally equal sums must hash-cons to one node")
}

func TestMulCollapsesToConstant(t *testing.T) {
	store := symbolic.NewStore()
	id := store.Mul(rational.FromInt64(5), nil)
	require.True(t, store.IsConstant(id))
	require.True(t, store.AsConstant(id).Equal(rational.FromInt64(5)))
}

func TestPrefixRoundTrip(t *testing.T) {
	store := symbolic.NewStore()
	forms := symbolic.NewFormulaStore(store)
	vars := symbolic.NewVarTable()
	x, err := vars.Declare("x", symbolic.Continuous)
	require.NoError(t, err)

	xID := store.Var(x)
	sum := store.Add(rational.FromInt64(3), []symbolic.Term{{Sub: xID, Coeff: rational.FromInt64(2)}})
	five := store.Constant(rational.FromInt64(5))
	atom := forms.Atom(symbolic.OpLe, sum, five)
	formula := forms.And([]symbolic.FormulaID{atom, forms.Not(forms.False())})

	text := symbolic.PrintFormula(forms, formula)

	parser := symbolic.NewParser(store, forms, vars)
	reparsed, err := parser.ParseFormula(text)
	require.NoError(t, err)

	require.Equal(t, text, symbolic.PrintFormula(forms, reparsed))
}

func TestAndOrDeduplicateAndFlatten(t *testing.T) {
	store := symbolic.NewStore()
	forms := symbolic.NewFormulaStore(store)
	vars := symbolic.NewVarTable()
	a, _ := vars.Declare("a", symbolic.Boolean)
	b, _ := vars.Declare("b", symbolic.Boolean)

	av, bv := forms.BoolVar(a), forms.BoolVar(b)
	inner := forms.And([]symbolic.FormulaID{av, bv})
	flattened := forms.And([]symbolic.FormulaID{inner, av})
	direct := forms.And([]symbolic.FormulaID{av, bv})

	require.Equal(t, direct, flattened, "nested And of the same operands must flatten to one canonical node")
}
