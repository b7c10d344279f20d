package satengine_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xDarkicex/deltasat/cnfize"
	"github.com/xDarkicex/deltasat/satengine"
)

// noopTheory accepts every literal unconditionally, letting the pure
// Boolean search be tested independently of any LP backend.
type noopTheory struct{ resets, enables int }

func (n *noopTheory) ResetLinearProblem()                      { n.resets++ }
func (n *noopTheory) EnableLinearLiteral(cnfize.Literal) error { n.enables++; return nil }

// plainClassifier treats every variable as a user Boolean (no
// auxiliaries, no theory proxies), appropriate for pure-SAT tests.
type plainClassifier struct{}

func (plainClassifier) IsAuxiliary(cnfize.Var) bool   { return false }
func (plainClassifier) IsTheoryProxy(cnfize.Var) bool { return false }

func lit(v int, negated bool) cnfize.Literal { return cnfize.Literal{V: cnfize.Var(v), Negated: negated} }

func TestUnitPropagationSatisfiesSimpleClause(t *testing.T) {
	theory := &noopTheory{}
	e := satengine.New(satengine.Config{}, theory, plainClassifier{})
	e.AddClause([]cnfize.Literal{lit(1, false)})

	model, ok := e.CheckSat()
	require.True(t, ok)
	require.Contains(t, model.BooleanLiterals, lit(1, false))
}

func TestConflictingUnitClausesAreUnsat(t *testing.T) {
	theory := &noopTheory{}
	e := satengine.New(satengine.Config{}, theory, plainClassifier{})
	e.AddClause([]cnfize.Literal{lit(1, false)})
	e.AddClause([]cnfize.Literal{lit(1, true)})

	_, ok := e.CheckSat()
	require.False(t, ok)
}

func TestDecisionSatisfiesATwoLiteralClause(t *testing.T) {
	theory := &noopTheory{}
	e := satengine.New(satengine.Config{}, theory, plainClassifier{})
	e.AddClause([]cnfize.Literal{lit(1, false), lit(2, false)})

	model, ok := e.CheckSat()
	require.True(t, ok)
	require.True(t, len(model.BooleanLiterals) >= 1)
}

func TestLearnedClauseBlocksOffendingCombinationEventually(t *testing.T) {
	theory := &noopTheory{}
	e := satengine.New(satengine.Config{}, theory, plainClassifier{})
	e.AddClause([]cnfize.Literal{lit(1, false), lit(2, false)})
	e.AddClause([]cnfize.Literal{lit(1, true), lit(2, true)})

	// Exactly two satisfying assignments exist for this XOR-like pair
	// of clauses. Learning the negation of each model found must
	// eventually exhaust both, reaching UNSAT.
	seen := 0
	for i := 0; i < 4; i++ {
		model, ok := e.CheckSat()
		if !ok {
			return
		}
		seen++
		e.AddLearnedClause(model.BooleanLiterals)
	}
	t.Fatalf("expected UNSAT after exhausting both satisfying assignments, saw %d models", seen)
}

func TestPushPopRestoresClauseCount(t *testing.T) {
	theory := &noopTheory{}
	e := satengine.New(satengine.Config{}, theory, plainClassifier{})
	e.AddClause([]cnfize.Literal{lit(1, false)})

	require.NoError(t, e.Push())
	e.AddClause([]cnfize.Literal{lit(2, false)})
	require.NoError(t, e.Pop())

	model, ok := e.CheckSat()
	require.True(t, ok)
	require.Contains(t, model.BooleanLiterals, lit(1, false))
}

func TestPopWithoutPushFailsWithUnsupportedScope(t *testing.T) {
	theory := &noopTheory{}
	e := satengine.New(satengine.Config{}, theory, plainClassifier{})
	require.Error(t, e.Pop())
}

func TestTheoryResetCalledOnEverySatResult(t *testing.T) {
	theory := &noopTheory{}
	e := satengine.New(satengine.Config{}, theory, plainClassifier{})
	e.AddClause([]cnfize.Literal{lit(1, false)})

	_, ok := e.CheckSat()
	require.True(t, ok)
	require.Equal(t, 1, theory.resets)
}
