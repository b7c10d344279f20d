package symbolic

import "github.com/xDarkicex/deltasat/rational"

// ExprVisitor is a double-dispatch handler set parameterized by the
// return type T, one field per ExprKind (spec.md §4.2, design note 9:
// "tagged variant plus a dispatch function parameterised by the
// return type; avoid open polymorphism"). A nil field panics if its
// Kind is ever reached - callers should fill in every case a given
// solver configuration can actually encounter.
type ExprVisitor[T any] struct {
	Constant              func(q rational.Rational) T
	Var                   func(v Variable) T
	Add                   func(c0 rational.Rational, terms []Term) T
	Mul                   func(c0 rational.Rational, factors []Factor) T
	IfThenElse            func(cond, then, els ExprID) T
	UninterpretedFunction func(name string, args []ExprID) T
	Transcendental        func(name string, args []ExprID) T
}

// DispatchExpr applies v to the node id, selecting the handler by the
// node's Kind.
func DispatchExpr[T any](s *Store, id ExprID, v ExprVisitor[T]) T {
	e := s.nodes[id]
	switch e.kind {
	case KConstant:
		return v.Constant(e.constant)
	case KVar:
		return v.Var(e.v)
	case KAdd:
		return v.Add(e.addConst, e.terms)
	case KMul:
		return v.Mul(e.mulConst, e.factors)
	case KIfThenElse:
		return v.IfThenElse(e.cond, e.then, e.els)
	case KUninterpretedFunction:
		return v.UninterpretedFunction(e.fn, e.args)
	case KTranscendental:
		return v.Transcendental(e.fn, e.args)
	default:
		panic("symbolic: unreachable ExprKind in DispatchExpr")
	}
}

// FormulaVisitor is the Formula-layer counterpart of ExprVisitor.
type FormulaVisitor[T any] struct {
	False   func() T
	True    func() T
	BoolVar func(v Variable) T
	Atom    func(op AtomOp, lhs, rhs ExprID) T
	And     func(operands []FormulaID) T
	Or      func(operands []FormulaID) T
	Not     func(f FormulaID) T
	Forall  func(bound []Variable, body FormulaID) T
}

// DispatchFormula applies v to the node id.
func DispatchFormula[T any](s *FormulaStore, id FormulaID, v FormulaVisitor[T]) T {
	f := s.nodes[id]
	switch f.kind {
	case FFalse:
		return v.False()
	case FTrue:
		return v.True()
	case FBoolVar:
		return v.BoolVar(f.v)
	case FAtom:
		return v.Atom(f.op, f.lhs, f.rhs)
	case FAnd:
		return v.And(f.operands)
	case FOr:
		return v.Or(f.operands)
	case FNot:
		return v.Not(f.sub)
	case FForall:
		return v.Forall(f.bound, f.sub2)
	default:
		panic("symbolic: unreachable FormulaKind in DispatchFormula")
	}
}
