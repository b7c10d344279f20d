// Package cnfize implements the Tseitin CNF-izer (spec.md §4.4): it
// rewrites a Boolean formula — already predicate-abstracted, so its
// only leaves are True/False/BoolVar — into an equisatisfiable set of
// clauses over integer Boolean variables, introducing a fresh
// auxiliary for every And/Or subformula (a negation reuses its
// operand's literal, negated) and tracking the auxiliary
// set so model extraction can tell them apart from user variables.
//
// The Literal/Clause shapes here are narrowed from the teacher
// package's string-keyed sat.Literal/sat.Clause to integer-keyed CNF
// variables, since the SAT engine driver this feeds works over a
// dense per-solve variable namespace rather than named atoms.
package cnfize

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"
	"github.com/xDarkicex/deltasat/symbolic"
)

// Var is a dense per-solve CNF variable index, 1-based (0 is never a
// valid variable, matching DIMACS convention and leaving room for a
// sentinel).
type Var int32

// Literal is a CNF variable or its negation.
type Literal struct {
	V       Var
	Negated bool
}

// Negate returns the complementary literal.
func (l Literal) Negate() Literal { return Literal{V: l.V, Negated: !l.Negated} }

func (l Literal) String() string {
	if l.Negated {
		return fmt.Sprintf("¬%d", l.V)
	}
	return fmt.Sprintf("%d", l.V)
}

// Clause is a disjunction of literals; the empty clause denotes false.
type Clause struct {
	Literals []Literal
}

// NewClause builds a clause from the given literals.
func NewClause(lits ...Literal) Clause { return Clause{Literals: lits} }

// IsUnit reports whether the clause has exactly one literal.
func (c Clause) IsUnit() bool { return len(c.Literals) == 1 }

// IsEmpty reports whether the clause is the empty (unsatisfiable) clause.
func (c Clause) IsEmpty() bool { return len(c.Literals) == 0 }

// Contains reports whether c contains lit.
func (c Clause) Contains(lit Literal) bool {
	for _, l := range c.Literals {
		if l == lit {
			return true
		}
	}
	return false
}

// CNFizer owns the user-variable <-> CNF-variable mapping and the
// auxiliary-variable bookkeeping for one solve's Tseitin expansion.
type CNFizer struct {
	forms *symbolic.FormulaStore

	varOf   map[symbolic.VarID]Var
	nameOf  map[Var]symbolic.VarID
	next    Var
	trueVar Var

	auxiliaries *set.Set[Var]
	cache       map[symbolic.FormulaID]Literal
	clauses     []Clause
}

// New creates a CNF-izer bound to forms.
func New(forms *symbolic.FormulaStore) *CNFizer {
	c := &CNFizer{
		forms:       forms,
		varOf:       make(map[symbolic.VarID]Var),
		nameOf:      make(map[Var]symbolic.VarID),
		next:        1,
		auxiliaries: set.New[Var](8),
		cache:       make(map[symbolic.FormulaID]Literal),
	}
	c.trueVar = c.freshAux()
	c.clauses = append(c.clauses, NewClause(Literal{V: c.trueVar}))
	return c
}

func (c *CNFizer) freshAux() Var {
	v := c.next
	c.next++
	c.auxiliaries.Insert(v)
	return v
}

// VarFor returns the dense CNF variable for a user Boolean variable,
// allocating one on first use.
func (c *CNFizer) VarFor(v symbolic.Variable) Var {
	if cv, ok := c.varOf[v.ID()]; ok {
		return cv
	}
	cv := c.next
	c.next++
	c.varOf[v.ID()] = cv
	c.nameOf[cv] = v.ID()
	return cv
}

// VariableOf is the inverse of VarFor: resolves a dense CNF variable
// back to the user Boolean VarID it represents, or ok=false if cv is a
// Tseitin auxiliary.
func (c *CNFizer) VariableOf(cv Var) (symbolic.VarID, bool) {
	id, ok := c.nameOf[cv]
	return id, ok
}

// IsAuxiliary reports whether cv was introduced by Tseitin expansion
// rather than naming a user variable (spec.md §4.4's cnf_variables set).
func (c *CNFizer) IsAuxiliary(cv Var) bool { return c.auxiliaries.Contains(cv) }

// Auxiliaries returns every Tseitin auxiliary variable minted so far.
func (c *CNFizer) Auxiliaries() []Var { return c.auxiliaries.Slice() }

// AddFormula Tseitin-expands id (which must contain only
// True/False/BoolVar/And/Or/Not nodes — a post-abstraction formula)
// and returns the clauses asserting it true, including every
// definitional clause for its subformulas. The returned slice also
// accumulates into Clauses().
func (c *CNFizer) AddFormula(id symbolic.FormulaID) []Clause {
	before := len(c.clauses)
	lit := c.literalFor(id)
	c.clauses = append(c.clauses, NewClause(lit))
	return c.clauses[before:]
}

// Clauses returns every clause emitted by this CNF-izer so far,
// including the definitional clauses of nested subformulas and the
// bootstrap unit clause pinning the internal "true" auxiliary.
func (c *CNFizer) Clauses() []Clause { return c.clauses }

func (c *CNFizer) literalFor(id symbolic.FormulaID) Literal {
	if lit, ok := c.cache[id]; ok {
		return lit
	}
	lit := c.build(id)
	c.cache[id] = lit
	return lit
}

func (c *CNFizer) build(id symbolic.FormulaID) Literal {
	return symbolic.DispatchFormula(c.forms, id, symbolic.FormulaVisitor[Literal]{
		False: func() Literal { return Literal{V: c.trueVar, Negated: true} },
		True:  func() Literal { return Literal{V: c.trueVar} },
		BoolVar: func(v symbolic.Variable) Literal {
			return Literal{V: c.VarFor(v)}
		},
		Atom: func(op symbolic.AtomOp, lhs, rhs symbolic.ExprID) Literal {
			panic("cnfize: unabstracted theory atom reached the CNF-izer")
		},
		And: func(operands []symbolic.FormulaID) Literal {
			lits := make([]Literal, len(operands))
			for i, o := range operands {
				lits[i] = c.literalFor(o)
			}
			return c.tseitinAnd(lits)
		},
		Or: func(operands []symbolic.FormulaID) Literal {
			lits := make([]Literal, len(operands))
			for i, o := range operands {
				lits[i] = c.literalFor(o)
			}
			return c.tseitinOr(lits)
		},
		Not: func(sub symbolic.FormulaID) Literal {
			return c.literalFor(sub).Negate()
		},
		Forall: func(bound []symbolic.Variable, body symbolic.FormulaID) Literal {
			panic("cnfize: quantified formula reached the CNF-izer")
		},
	})
}

// tseitinAnd introduces aux <-> (l1 ∧ l2 ∧ ... ∧ ln): n+1 clauses for n
// operands, matching the O(n) guarantee in spec.md §4.4.
func (c *CNFizer) tseitinAnd(lits []Literal) Literal {
	aux := c.freshAux()
	auxLit := Literal{V: aux}
	for _, l := range lits {
		c.clauses = append(c.clauses, NewClause(auxLit.Negate(), l))
	}
	whole := make([]Literal, 0, len(lits)+1)
	whole = append(whole, auxLit)
	for _, l := range lits {
		whole = append(whole, l.Negate())
	}
	c.clauses = append(c.clauses, NewClause(whole...))
	return auxLit
}

// tseitinOr introduces aux <-> (l1 ∨ l2 ∨ ... ∨ ln): n+1 clauses.
func (c *CNFizer) tseitinOr(lits []Literal) Literal {
	aux := c.freshAux()
	auxLit := Literal{V: aux}
	whole := make([]Literal, 0, len(lits)+1)
	whole = append(whole, auxLit.Negate())
	for _, l := range lits {
		whole = append(whole, l)
		c.clauses = append(c.clauses, NewClause(auxLit, l.Negate()))
	}
	c.clauses = append(c.clauses, NewClause(whole...))
	return auxLit
}
