package cnfize_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xDarkicex/deltasat/cnfize"
	"github.com/xDarkicex/deltasat/symbolic"
)

func TestBoolVarNeedsNoAuxiliary(t *testing.T) {
	exprs := symbolic.NewStore()
	forms := symbolic.NewFormulaStore(exprs)
	vars := symbolic.NewVarTable()
	a, _ := vars.Declare("a", symbolic.Boolean)

	c := cnfize.New(forms)
	clauses := c.AddFormula(forms.BoolVar(a))

	require.Len(t, clauses, 1)
	require.True(t, clauses[0].IsUnit())
}

func TestAndExpandsToLinearClauseCount(t *testing.T) {
	exprs := symbolic.NewStore()
	forms := symbolic.NewFormulaStore(exprs)
	vars := symbolic.NewVarTable()
	a, _ := vars.Declare("a", symbolic.Boolean)
	b, _ := vars.Declare("b", symbolic.Boolean)
	d, _ := vars.Declare("d", symbolic.Boolean)

	conj := forms.And([]symbolic.FormulaID{forms.BoolVar(a), forms.BoolVar(b), forms.BoolVar(d)})

	c := cnfize.New(forms)
	before := len(c.Clauses())
	c.AddFormula(conj)
	after := len(c.Clauses())

	// n+1 defining clauses for the And, plus 1 asserting unit clause.
	require.Equal(t, 3+1+1, after-before)
}

func TestNotPushesWithoutNewAuxiliary(t *testing.T) {
	exprs := symbolic.NewStore()
	forms := symbolic.NewFormulaStore(exprs)
	vars := symbolic.NewVarTable()
	a, _ := vars.Declare("a", symbolic.Boolean)

	c := cnfize.New(forms)
	auxBefore := len(c.Auxiliaries())
	c.AddFormula(forms.Not(forms.BoolVar(a)))
	require.Equal(t, auxBefore, len(c.Auxiliaries()))
}

func TestOrIntroducesAuxiliaryTrackedSeparatelyFromUserVars(t *testing.T) {
	exprs := symbolic.NewStore()
	forms := symbolic.NewFormulaStore(exprs)
	vars := symbolic.NewVarTable()
	a, _ := vars.Declare("a", symbolic.Boolean)
	b, _ := vars.Declare("b", symbolic.Boolean)

	disj := forms.Or([]symbolic.FormulaID{forms.BoolVar(a), forms.BoolVar(b)})

	c := cnfize.New(forms)
	c.AddFormula(disj)

	av := c.VarFor(a)
	require.False(t, c.IsAuxiliary(av))
	require.NotEmpty(t, c.Auxiliaries())
	for _, aux := range c.Auxiliaries() {
		require.True(t, c.IsAuxiliary(aux))
		_, isUserVar := c.VariableOf(aux)
		require.False(t, isUserVar)
	}
}

func TestIdempotentAddFormulaReusesCachedLiterals(t *testing.T) {
	exprs := symbolic.NewStore()
	forms := symbolic.NewFormulaStore(exprs)
	vars := symbolic.NewVarTable()
	a, _ := vars.Declare("a", symbolic.Boolean)
	b, _ := vars.Declare("b", symbolic.Boolean)
	conj := forms.And([]symbolic.FormulaID{forms.BoolVar(a), forms.BoolVar(b)})

	c := cnfize.New(forms)
	c.AddFormula(conj)
	firstCount := len(c.Clauses())
	c.AddFormula(conj)
	secondCount := len(c.Clauses())

	// Re-asserting the same formula reuses the memoized Tseitin
	// literal; only one more unit assertion clause is appended.
	require.Equal(t, firstCount+1, secondCount)
}
