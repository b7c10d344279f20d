package engine

import (
	"github.com/xDarkicex/deltasat/cnfize"
	"github.com/xDarkicex/deltasat/predicate"
	"github.com/xDarkicex/deltasat/theory"
)

// classifier composes the CNF-izer's auxiliary tracking with the
// abstractor's atom bijection to answer satengine.Classifier's
// three-way question, without satengine itself depending on either
// package (design note 9).
type classifier struct {
	cnfizer *cnfize.CNFizer
	abs     *predicate.Abstractor
}

func (c classifier) IsAuxiliary(v cnfize.Var) bool { return c.cnfizer.IsAuxiliary(v) }

func (c classifier) IsTheoryProxy(v cnfize.Var) bool {
	vid, ok := c.cnfizer.VariableOf(v)
	if !ok {
		return false
	}
	_, isAtom := c.abs.AtomFor(vid)
	return isAtom
}

// theoryCallback adapts theory.Solver to satengine.TheoryCallback,
// translating a dense CNF literal back to the (atom, polarity) pair the
// theory solver's row table is keyed on.
type theoryCallback struct {
	cnfizer *cnfize.CNFizer
	abs     *predicate.Abstractor
	solver  *theory.Solver
}

func (t theoryCallback) ResetLinearProblem() { t.solver.ResetLinearProblem() }

func (t theoryCallback) EnableLinearLiteral(lit cnfize.Literal) error {
	vid, ok := t.cnfizer.VariableOf(lit.V)
	if !ok {
		return nil
	}
	atom, ok := t.abs.AtomFor(vid)
	if !ok {
		return nil
	}
	polarity := !lit.Negated
	// Row construction is lazy and idempotent: the first candidate
	// model to actually use (atom, polarity) is what builds its row.
	if err := t.solver.AddLinearLiteral(atom, polarity); err != nil {
		return err
	}
	return t.solver.EnableLinearLiteral(atom, polarity)
}
