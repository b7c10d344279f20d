package symbolic

import (
	"fmt"
	"hash/fnv"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xDarkicex/deltasat/rational"
)

// ExprKind tags the shape of an Expr node.
type ExprKind int

const (
	KConstant ExprKind = iota
	KVar
	KAdd
	KMul
	KIfThenElse
	KUninterpretedFunction
	KTranscendental
)

// ExprID addresses a node in a Store's arena. The zero value is never
// a valid id (the arena reserves index 0).
type ExprID int32

// Term is one coefficient*subexpression summand of a canonical Add
// node.
type Term struct {
	Sub   ExprID
	Coeff rational.Rational
}

// Factor is one base^exponent multiplicand of a canonical Mul node.
type Factor struct {
	Base ExprID
	Exp  int64
}

// Expr is one hash-consed node of the expression DAG. Exactly one
// group of fields is meaningful, selected by Kind; this is the "tagged
// variant" the package's dispatch functions switch on.
type Expr struct {
	id   ExprID
	kind ExprKind
	hash uint64

	constant rational.Rational // KConstant
	v        Variable          // KVar

	addConst rational.Rational // KAdd: c0
	terms    []Term            // KAdd: canonical, sorted by Sub, no zero coeffs

	mulConst rational.Rational // KMul: c0
	factors  []Factor          // KMul: canonical, sorted by Base, no unit (exp==0) factors

	cond, then, els ExprID // KIfThenElse

	fn   string  // KUninterpretedFunction / KTranscendental name
	args []ExprID
}

// ID returns the node's arena identity. Structurally equal expressions
// built through the same Store always share one ID.
func (e *Expr) ID() ExprID { return e.id }

// Kind returns the node's tag.
func (e *Expr) Kind() ExprKind { return e.kind }

// Store is the arena + hash-consing table for one solve's expressions.
type Store struct {
	nodes   []*Expr
	buckets map[uint64][]ExprID
	recent  *lru.Cache[uint64, []ExprID]
}

// NewStore creates an empty expression arena.
func NewStore() *Store {
	recent, err := lru.New[uint64, []ExprID](4096)
	if err != nil {
		// Only returns an error for a non-positive size, which is a
		// fixed constant above; unreachable in practice.
		panic(err)
	}
	return &Store{
		nodes:   []*Expr{nil}, // reserve index 0
		buckets: make(map[uint64][]ExprID),
		recent:  recent,
	}
}

// Node returns the node at id.
func (s *Store) Node(id ExprID) *Expr { return s.nodes[id] }

// bucket returns the candidate ids sharing a structural hash, checking
// the bounded recent cache before falling back to the authoritative
// map (the cache is purely a shortcut: a miss here is resolved
// correctly by the map, never treated as "bucket empty").
func (s *Store) bucket(h uint64) []ExprID {
	if ids, ok := s.recent.Get(h); ok {
		return ids
	}
	ids := s.buckets[h]
	if ids != nil {
		s.recent.Add(h, ids)
	}
	return ids
}

func (s *Store) addToBucket(h uint64, id ExprID) {
	ids := append(s.buckets[h], id)
	s.buckets[h] = ids
	s.recent.Add(h, ids)
}

// intern hash-conses e: if a structurally equal node already exists it
// is returned; otherwise e is appended to the arena.
func (s *Store) intern(e *Expr, eq func(*Expr) bool) ExprID {
	for _, candidate := range s.bucket(e.hash) {
		if eq(s.nodes[candidate]) {
			return candidate
		}
	}
	id := ExprID(len(s.nodes))
	e.id = id
	s.nodes = append(s.nodes, e)
	s.addToBucket(e.hash, id)
	return id
}

func hashBytes(parts ...any) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		fmt.Fprintf(h, "%v|", p)
	}
	return h.Sum64()
}

// Constant builds (or reuses) the node for an exact rational literal.
func (s *Store) Constant(q rational.Rational) ExprID {
	h := hashBytes(KConstant, q.String())
	e := &Expr{kind: KConstant, constant: q, hash: h}
	return s.intern(e, func(o *Expr) bool {
		return o.kind == KConstant && o.constant.Equal(q)
	})
}

// Var builds (or reuses) the node referencing variable v.
func (s *Store) Var(v Variable) ExprID {
	h := hashBytes(KVar, v.id)
	e := &Expr{kind: KVar, v: v, hash: h}
	return s.intern(e, func(o *Expr) bool {
		return o.kind == KVar && o.v.id == v.id
	})
}

// Add builds the canonical sum c0 + Σ coeff_i * sub_i. Zero
// coefficients are dropped; Constant sub-expressions fold into c0;
// like sub-expressions are merged; a result with no terms collapses to
// a Constant node.
func (s *Store) Add(c0 rational.Rational, terms []Term) ExprID {
	merged := map[ExprID]rational.Rational{}
	order := []ExprID{}
	for _, t := range terms {
		if t.Coeff.IsZero() {
			continue
		}
		if sub := s.nodes[t.Sub]; sub.kind == KConstant {
			c0 = c0.Add(sub.constant.Mul(t.Coeff))
			continue
		}
		// Flatten nested Add nodes so the canonical map never nests.
		if sub := s.nodes[t.Sub]; sub.kind == KAdd {
			c0 = c0.Add(sub.addConst.Mul(t.Coeff))
			for _, inner := range sub.terms {
				k := inner.Sub
				combined := inner.Coeff.Mul(t.Coeff)
				if existing, ok := merged[k]; ok {
					combined = existing.Add(combined)
				} else {
					order = append(order, k)
				}
				merged[k] = combined
			}
			continue
		}
		if existing, ok := merged[t.Sub]; ok {
			merged[t.Sub] = existing.Add(t.Coeff)
		} else {
			order = append(order, t.Sub)
			merged[t.Sub] = t.Coeff
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	canon := make([]Term, 0, len(order))
	for _, id := range order {
		coeff := merged[id]
		if coeff.IsZero() {
			continue
		}
		canon = append(canon, Term{Sub: id, Coeff: coeff})
	}
	if len(canon) == 0 {
		return s.Constant(c0)
	}

	hashParts := []any{KAdd, c0.String()}
	for _, t := range canon {
		hashParts = append(hashParts, t.Sub, t.Coeff.String())
	}
	h := hashBytes(hashParts...)
	e := &Expr{kind: KAdd, addConst: c0, terms: canon, hash: h}
	return s.intern(e, func(o *Expr) bool {
		if o.kind != KAdd || !o.addConst.Equal(c0) || len(o.terms) != len(canon) {
			return false
		}
		for i := range canon {
			if o.terms[i].Sub != canon[i].Sub || !o.terms[i].Coeff.Equal(canon[i].Coeff) {
				return false
			}
		}
		return true
	})
}

// Mul builds the canonical product c0 * Π base_i^exp_i. Exponent-0
// factors are dropped; like bases are merged by summing exponents; a
// result with no factors collapses to a Constant node.
func (s *Store) Mul(c0 rational.Rational, factors []Factor) ExprID {
	merged := map[ExprID]int64{}
	order := []ExprID{}
	for _, f := range factors {
		if f.Exp == 0 {
			continue
		}
		if existing, ok := merged[f.Base]; ok {
			merged[f.Base] = existing + f.Exp
		} else {
			order = append(order, f.Base)
			merged[f.Base] = f.Exp
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	canon := make([]Factor, 0, len(order))
	for _, id := range order {
		exp := merged[id]
		if exp == 0 {
			continue
		}
		canon = append(canon, Factor{Base: id, Exp: exp})
	}
	if len(canon) == 0 {
		return s.Constant(c0)
	}

	hashParts := []any{KMul, c0.String()}
	for _, f := range canon {
		hashParts = append(hashParts, f.Base, f.Exp)
	}
	h := hashBytes(hashParts...)
	e := &Expr{kind: KMul, mulConst: c0, factors: canon, hash: h}
	return s.intern(e, func(o *Expr) bool {
		if o.kind != KMul || !o.mulConst.Equal(c0) || len(o.factors) != len(canon) {
			return false
		}
		for i := range canon {
			if o.factors[i] != canon[i] {
				return false
			}
		}
		return true
	})
}

// IfThenElse builds a conditional-value node. cond must be a formula
// id from this Store's companion FormulaStore, carried as an ExprID
// reference by convention of the engine layer that pairs the two.
func (s *Store) IfThenElse(cond, then, els ExprID) ExprID {
	h := hashBytes(KIfThenElse, cond, then, els)
	e := &Expr{kind: KIfThenElse, cond: cond, then: then, els: els, hash: h}
	return s.intern(e, func(o *Expr) bool {
		return o.kind == KIfThenElse && o.cond == cond && o.then == then && o.els == els
	})
}

// UninterpretedFunction builds an application node.
func (s *Store) UninterpretedFunction(name string, args []ExprID) ExprID {
	hashParts := []any{KUninterpretedFunction, name}
	for _, a := range args {
		hashParts = append(hashParts, a)
	}
	h := hashBytes(hashParts...)
	e := &Expr{kind: KUninterpretedFunction, fn: name, args: append([]ExprID(nil), args...), hash: h}
	return s.intern(e, func(o *Expr) bool {
		return o.kind == KUninterpretedFunction && o.fn == name && sameIDs(o.args, args)
	})
}

// Transcendental builds a unary/binary transcendental wrapper (sin,
// cos, exp, ...). The linear core never evaluates these; their mere
// presence in a formula reaching LP row construction is a hard error
// (spec.md §3).
func (s *Store) Transcendental(name string, args []ExprID) ExprID {
	hashParts := []any{KTranscendental, name}
	for _, a := range args {
		hashParts = append(hashParts, a)
	}
	h := hashBytes(hashParts...)
	e := &Expr{kind: KTranscendental, fn: name, args: append([]ExprID(nil), args...), hash: h}
	return s.intern(e, func(o *Expr) bool {
		return o.kind == KTranscendental && o.fn == name && sameIDs(o.args, args)
	})
}

func sameIDs(a, b []ExprID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Structural predicates (spec.md §4.2).

func (s *Store) IsVariable(id ExprID) bool    { return s.nodes[id].kind == KVar }
func (s *Store) IsConstant(id ExprID) bool    { return s.nodes[id].kind == KConstant }
func (s *Store) IsAddition(id ExprID) bool    { return s.nodes[id].kind == KAdd }
func (s *Store) IsMultiplication(id ExprID) bool {
	return s.nodes[id].kind == KMul
}

// AsVariable returns the variable of a KVar node.
func (s *Store) AsVariable(id ExprID) Variable { return s.nodes[id].v }

// AsConstant returns the value of a KConstant node.
func (s *Store) AsConstant(id ExprID) rational.Rational { return s.nodes[id].constant }

// CoefficientMap returns the canonical constant term and term map of a
// KAdd node, or (q, nil) if id is a Constant, matching spec.md §4.2's
// `coefficient_map` accessor used by LP row construction.
func (s *Store) CoefficientMap(id ExprID) (rational.Rational, []Term) {
	e := s.nodes[id]
	switch e.kind {
	case KAdd:
		return e.addConst, e.terms
	case KConstant:
		return e.constant, nil
	case KVar:
		return rational.Zero(), []Term{{Sub: id, Coeff: rational.FromInt64(1)}}
	case KMul:
		if len(e.factors) == 1 && e.factors[0].Exp == 1 {
			return rational.Zero(), []Term{{Sub: e.factors[0].Base, Coeff: e.mulConst}}
		}
	}
	return rational.Zero(), nil
}

// Operands returns the ids an Expr directly references (for the
// visitor's default traversal and for formula-level free-variable
// collection).
func (e *Expr) Operands() []ExprID {
	switch e.kind {
	case KAdd:
		out := make([]ExprID, len(e.terms))
		for i, t := range e.terms {
			out[i] = t.Sub
		}
		return out
	case KMul:
		out := make([]ExprID, len(e.factors))
		for i, f := range e.factors {
			out[i] = f.Base
		}
		return out
	case KIfThenElse:
		return []ExprID{e.cond, e.then, e.els}
	case KUninterpretedFunction, KTranscendental:
		return append([]ExprID(nil), e.args...)
	default:
		return nil
	}
}
