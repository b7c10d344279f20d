package symbolic

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-set/v3"
)

// FormulaKind tags the shape of a Formula node.
type FormulaKind int

const (
	FFalse FormulaKind = iota
	FTrue
	FBoolVar
	FAtom
	FAnd
	FOr
	FNot
	FForall
)

// AtomOp is the relational operator of a theory atom.
type AtomOp int

const (
	OpEq AtomOp = iota
	OpNeq
	OpGt
	OpGe
	OpLt
	OpLe
)

func (op AtomOp) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNeq:
		return "distinct"
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	default:
		return "?"
	}
}

// Negate returns the operator obtained by negating an atom with this
// operator (used by FormulaStore.Not, which negates an atom by flipping
// its operator).
func (op AtomOp) Negate() AtomOp {
	switch op {
	case OpEq:
		return OpNeq
	case OpNeq:
		return OpEq
	case OpGt:
		return OpLe
	case OpGe:
		return OpLt
	case OpLt:
		return OpGe
	case OpLe:
		return OpGt
	default:
		return op
	}
}

// FormulaID addresses a node in a FormulaStore's arena.
type FormulaID int32

// Formula is one hash-consed Boolean-combination node.
type Formula struct {
	id   FormulaID
	kind FormulaKind
	hash uint64

	v    Variable // FBoolVar
	op   AtomOp   // FAtom
	lhs  ExprID   // FAtom
	rhs  ExprID   // FAtom
	sub  FormulaID
	sub2 FormulaID // FForall body (kept distinct from sub for clarity)

	operands []FormulaID // FAnd / FOr: de-duplicated, sorted by id
	bound    []Variable  // FForall
}

func (f *Formula) ID() FormulaID     { return f.id }
func (f *Formula) Kind() FormulaKind { return f.kind }

// FormulaStore is the arena + hash-consing table for one solve's
// formulas. It is always paired with the Store that owns the
// expressions its atoms reference.
type FormulaStore struct {
	exprs   *Store
	nodes   []*Formula
	buckets map[uint64][]FormulaID
}

// NewFormulaStore creates an empty formula arena bound to exprs.
func NewFormulaStore(exprs *Store) *FormulaStore {
	return &FormulaStore{
		exprs:   exprs,
		nodes:   []*Formula{nil},
		buckets: make(map[uint64][]FormulaID),
	}
}

// Exprs returns the expression store backing this formula store's atoms.
func (s *FormulaStore) Exprs() *Store { return s.exprs }

// Node returns the node at id.
func (s *FormulaStore) Node(id FormulaID) *Formula { return s.nodes[id] }

func (s *FormulaStore) intern(f *Formula, eq func(*Formula) bool) FormulaID {
	for _, candidate := range s.buckets[f.hash] {
		if eq(s.nodes[candidate]) {
			return candidate
		}
	}
	id := FormulaID(len(s.nodes))
	f.id = id
	s.nodes = append(s.nodes, f)
	s.buckets[f.hash] = append(s.buckets[f.hash], id)
	return id
}

// False and True are the two Boolean constants, interned once per store.
func (s *FormulaStore) False() FormulaID {
	h := hashBytes(FFalse)
	return s.intern(&Formula{kind: FFalse, hash: h}, func(o *Formula) bool { return o.kind == FFalse })
}

func (s *FormulaStore) True() FormulaID {
	h := hashBytes(FTrue)
	return s.intern(&Formula{kind: FTrue, hash: h}, func(o *Formula) bool { return o.kind == FTrue })
}

// BoolVar builds (or reuses) the node for a user Boolean variable.
func (s *FormulaStore) BoolVar(v Variable) FormulaID {
	h := hashBytes(FBoolVar, v.id)
	return s.intern(&Formula{kind: FBoolVar, v: v, hash: h}, func(o *Formula) bool {
		return o.kind == FBoolVar && o.v.id == v.id
	})
}

// Atom builds (or reuses) a theory atom `lhs op rhs`.
func (s *FormulaStore) Atom(op AtomOp, lhs, rhs ExprID) FormulaID {
	h := hashBytes(FAtom, op, lhs, rhs)
	return s.intern(&Formula{kind: FAtom, op: op, lhs: lhs, rhs: rhs, hash: h}, func(o *Formula) bool {
		return o.kind == FAtom && o.op == op && o.lhs == lhs && o.rhs == rhs
	})
}

// And builds the canonical conjunction of operands: de-duplicated,
// order-irrelevant (spec.md §3). A bare False operand short-circuits
// to False; a bare True operand is dropped; zero operands is True.
func (s *FormulaStore) And(operands []FormulaID) FormulaID {
	return s.andOr(FAnd, operands, s.False(), s.True())
}

// Or builds the canonical disjunction, the dual of And.
func (s *FormulaStore) Or(operands []FormulaID) FormulaID {
	return s.andOr(FOr, operands, s.True(), s.False())
}

func (s *FormulaStore) andOr(kind FormulaKind, operands []FormulaID, annihilator, identity FormulaID) FormulaID {
	uniq := set.New[FormulaID](len(operands))
	for _, op := range operands {
		if s.nodes[op].kind == kind {
			for _, inner := range s.nodes[op].operands {
				if inner == annihilator {
					return annihilator
				}
				if inner != identity {
					uniq.Insert(inner)
				}
			}
			continue
		}
		if op == annihilator {
			return annihilator
		}
		if op != identity {
			uniq.Insert(op)
		}
	}
	canon := uniq.Slice()
	sort.Slice(canon, func(i, j int) bool { return canon[i] < canon[j] })
	if len(canon) == 0 {
		return identity
	}
	if len(canon) == 1 {
		return canon[0]
	}

	hashParts := []any{kind}
	for _, id := range canon {
		hashParts = append(hashParts, id)
	}
	h := hashBytes(hashParts...)
	return s.intern(&Formula{kind: kind, operands: canon, hash: h}, func(o *Formula) bool {
		if o.kind != kind || len(o.operands) != len(canon) {
			return false
		}
		for i := range canon {
			if o.operands[i] != canon[i] {
				return false
			}
		}
		return true
	})
}

// Not builds the negation of f, pushing through the constants and into
// theory atoms (by flipping the operator) and collapsing double
// negation; it is not pushed through And/Or via De Morgan's laws here
// (spec.md §3).
func (s *FormulaStore) Not(f FormulaID) FormulaID {
	switch s.nodes[f].kind {
	case FFalse:
		return s.True()
	case FTrue:
		return s.False()
	case FNot:
		return s.nodes[f].sub
	case FAtom:
		a := s.nodes[f]
		return s.Atom(a.op.Negate(), a.lhs, a.rhs)
	}
	h := hashBytes(FNot, f)
	return s.intern(&Formula{kind: FNot, sub: f, hash: h}, func(o *Formula) bool {
		return o.kind == FNot && o.sub == f
	})
}

// Forall builds a (syntactically accepted, never solved - quantifiers
// are a documented Non-goal) quantified formula node.
func (s *FormulaStore) Forall(bound []Variable, body FormulaID) FormulaID {
	hashParts := []any{FForall, body}
	for _, v := range bound {
		hashParts = append(hashParts, v.id)
	}
	h := hashBytes(hashParts...)
	return s.intern(&Formula{kind: FForall, bound: append([]Variable(nil), bound...), sub2: body, hash: h}, func(o *Formula) bool {
		return o.kind == FForall && o.sub2 == body && len(o.bound) == len(bound)
	})
}

// IsAtom, IsAnd, IsOr, IsNot are the structural predicates formula
// consumers (the predicate abstractor, the CNF-izer) branch on.
func (s *FormulaStore) IsAtom(id FormulaID) bool { return s.nodes[id].kind == FAtom }
func (s *FormulaStore) IsAnd(id FormulaID) bool  { return s.nodes[id].kind == FAnd }
func (s *FormulaStore) IsOr(id FormulaID) bool   { return s.nodes[id].kind == FOr }
func (s *FormulaStore) IsNot(id FormulaID) bool  { return s.nodes[id].kind == FNot }

// AtomParts returns a FAtom node's operator and operands.
func (s *FormulaStore) AtomParts(id FormulaID) (AtomOp, ExprID, ExprID) {
	f := s.nodes[id]
	if f.kind != FAtom {
		panic(fmt.Sprintf("symbolic: AtomParts called on non-atom formula %d", id))
	}
	return f.op, f.lhs, f.rhs
}

// Operands returns the And/Or operand ids, or the single Not operand.
func (f *Formula) Operands() []FormulaID {
	switch f.kind {
	case FAnd, FOr:
		return f.operands
	case FNot:
		return []FormulaID{f.sub}
	default:
		return nil
	}
}
