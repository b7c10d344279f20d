// Package predicate implements the predicate abstraction layer
// (spec.md §4.3): a memoized bijection between theory atoms and fresh
// Boolean proxy variables, the boundary across which the SAT engine
// stops seeing arithmetic and starts seeing plain Boolean structure.
package predicate

import (
	"fmt"

	"github.com/xDarkicex/deltasat/symbolic"
)

// Abstractor owns the atom <-> proxy bijection for one solve. Every
// FAtom node it has ever seen gets exactly one proxy variable, reused
// on every later occurrence (including re-abstraction of syntactically
// distinct but hash-consed-identical atoms, which the FormulaStore
// already collapses to one FormulaID).
type Abstractor struct {
	forms *symbolic.FormulaStore
	vars  *symbolic.VarTable

	atomToProxy map[symbolic.FormulaID]symbolic.Variable
	proxyToAtom map[symbolic.VarID]symbolic.FormulaID
	order       []symbolic.FormulaID
	next        int
}

// New creates an abstractor bound to forms, interning fresh proxy
// Boolean variables into vars.
func New(forms *symbolic.FormulaStore, vars *symbolic.VarTable) *Abstractor {
	return &Abstractor{
		forms:       forms,
		vars:        vars,
		atomToProxy: make(map[symbolic.FormulaID]symbolic.Variable),
		proxyToAtom: make(map[symbolic.VarID]symbolic.FormulaID),
	}
}

// Abstract rewrites a formula bottom-up, replacing every theory atom
// with its proxy Boolean variable and leaving Boolean structure
// (And/Or/Not/BoolVar/True/False) untouched. The result is a formula
// over Boolean variables only, ready for the CNF-izer.
func (a *Abstractor) Abstract(id symbolic.FormulaID) symbolic.FormulaID {
	return symbolic.DispatchFormula(a.forms, id, symbolic.FormulaVisitor[symbolic.FormulaID]{
		False:   func() symbolic.FormulaID { return a.forms.False() },
		True:    func() symbolic.FormulaID { return a.forms.True() },
		BoolVar: func(v symbolic.Variable) symbolic.FormulaID { return a.forms.BoolVar(v) },
		Atom: func(op symbolic.AtomOp, lhs, rhs symbolic.ExprID) symbolic.FormulaID {
			proxy := a.ProxyFor(id)
			return a.forms.BoolVar(proxy)
		},
		And: func(operands []symbolic.FormulaID) symbolic.FormulaID {
			out := make([]symbolic.FormulaID, len(operands))
			for i, o := range operands {
				out[i] = a.Abstract(o)
			}
			return a.forms.And(out)
		},
		Or: func(operands []symbolic.FormulaID) symbolic.FormulaID {
			out := make([]symbolic.FormulaID, len(operands))
			for i, o := range operands {
				out[i] = a.Abstract(o)
			}
			return a.forms.Or(out)
		},
		Not: func(sub symbolic.FormulaID) symbolic.FormulaID {
			return a.forms.Not(a.Abstract(sub))
		},
		Forall: func(bound []symbolic.Variable, body symbolic.FormulaID) symbolic.FormulaID {
			return a.forms.Forall(bound, a.Abstract(body))
		},
	})
}

// ProxyFor returns the (possibly newly minted) Boolean proxy variable
// for the theory atom at id. Panics if id is not an FAtom node; callers
// only ever reach this from within Abstract's Atom branch or from a
// caller that has already checked forms.IsAtom(id).
func (a *Abstractor) ProxyFor(id symbolic.FormulaID) symbolic.Variable {
	if !a.forms.IsAtom(id) {
		panic(fmt.Sprintf("predicate: ProxyFor called on non-atom formula %d", id))
	}
	if v, ok := a.atomToProxy[id]; ok {
		return v
	}
	name := fmt.Sprintf("$atom%d", a.next)
	a.next++
	v, err := a.vars.Declare(name, symbolic.Boolean)
	if err != nil {
		// Declare fails only when the synthesized name is already
		// taken by a variable of another kind. Nothing upstream
		// reserves the "$atom" prefix, so a user declaration of such a
		// name reaches this panic (or, for a Bool, is shared with the
		// proxy).
		panic(err)
	}
	a.atomToProxy[id] = v
	a.proxyToAtom[v.ID()] = id
	a.order = append(a.order, id)
	return v
}

// AtomFor is the inverse of ProxyFor: given a proxy's VarID, return the
// theory atom it abstracts. Used by the engine's literal classifier
// and theory callback to translate a SAT literal back into a row
// enable action (spec.md §4.7), and by engine.Context when it builds
// learned clauses.
func (a *Abstractor) AtomFor(proxy symbolic.VarID) (symbolic.FormulaID, bool) {
	id, ok := a.proxyToAtom[proxy]
	return id, ok
}

// Atoms returns every atom this abstractor has assigned a proxy to, in
// assignment order, for callers that need to walk the full atom set
// once.
func (a *Abstractor) Atoms() []symbolic.FormulaID {
	return append([]symbolic.FormulaID(nil), a.order...)
}
