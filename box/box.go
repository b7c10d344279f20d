// Package box implements the per-variable interval domain (spec.md
// §3, §4.9): a product of closed rational intervals, one per numeric
// variable, plus an empty sentinel and the bisection operation the
// δ-optimization search uses.
package box

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/xDarkicex/deltasat/rational"
	"github.com/xDarkicex/deltasat/symbolic"
)

var half = rational.FromBigRat(big.NewRat(1, 2))

// Interval is a closed rational interval [Lo, Hi], with Lo/Hi allowed
// to be the ±infinity sentinels.
type Interval struct {
	Lo, Hi rational.Rational
}

// Unbounded is (-∞, +∞).
func Unbounded() Interval { return Interval{Lo: rational.NegInf(), Hi: rational.PosInf()} }

// IsEmpty reports whether the interval is inverted (Lo > Hi).
func (iv Interval) IsEmpty() bool { return iv.Lo.Cmp(iv.Hi) > 0 }

// Contains reports whether q falls within the interval.
func (iv Interval) Contains(q rational.Rational) bool {
	return iv.Lo.Cmp(q) <= 0 && q.Cmp(iv.Hi) <= 0
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s]", iv.Lo, iv.Hi)
}

// Box is the product of intervals over every declared numeric
// variable. The zero Box is empty-of-variables (not the empty
// sentinel); call New to start a solve.
type Box struct {
	intervals map[symbolic.VarID]Interval
	kinds     map[symbolic.VarID]symbolic.Kind
	order     []symbolic.VarID
	empty     bool
}

// New creates a fresh, non-empty Box with no variables declared yet.
func New() *Box {
	return &Box{
		intervals: make(map[symbolic.VarID]Interval),
		kinds:     make(map[symbolic.VarID]symbolic.Kind),
	}
}

// Declare registers v with an unbounded interval (or {0,1} for Binary,
// matching its finite domain). Declaring an already-present variable
// is a no-op.
func (b *Box) Declare(v symbolic.Variable) {
	id := v.ID()
	if _, ok := b.intervals[id]; ok {
		return
	}
	iv := Unbounded()
	if v.Kind() == symbolic.Binary {
		iv = Interval{Lo: rational.Zero(), Hi: rational.FromInt64(1)}
	}
	b.intervals[id] = iv
	b.kinds[id] = v.Kind()
	b.order = append(b.order, id)
}

// Get returns the current interval for v.
func (b *Box) Get(v symbolic.Variable) Interval {
	return b.intervals[v.ID()]
}

// Set replaces the interval for v. Callers are responsible for
// maintaining the invariant that a Set never widens the box except
// through explicit reset (invariant 2, spec.md §8): the assertion
// filter and theory solver only ever call this with a narrower or
// equal interval.
func (b *Box) Set(v symbolic.Variable, iv Interval) {
	b.intervals[v.ID()] = iv
	if iv.IsEmpty() {
		b.empty = true
	}
}

// IsEmpty reports whether the box as a whole has been emptied, either
// because some variable's interval inverted or SetEmpty was called
// directly.
func (b *Box) IsEmpty() bool { return b.empty }

// SetEmpty marks the whole box infeasible.
func (b *Box) SetEmpty() { b.empty = true }

// Contains reports whether point assigns every declared variable a
// value within its interval. An empty box contains nothing.
func (b *Box) Contains(point map[symbolic.VarID]rational.Rational) bool {
	if b.empty {
		return false
	}
	for id, iv := range b.intervals {
		q, ok := point[id]
		if !ok || !iv.Contains(q) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy, used when the theory solver needs to
// branch without disturbing the caller's box.
func (b *Box) Clone() *Box {
	clone := New()
	clone.empty = b.empty
	clone.order = append([]symbolic.VarID(nil), b.order...)
	for id, iv := range b.intervals {
		clone.intervals[id] = iv
	}
	for id, k := range b.kinds {
		clone.kinds[id] = k
	}
	return clone
}

// Bisect splits the interval of dim at its midpoint into two boxes
// identical to b except for dim's interval, preserving integrality:
// for Integer/Binary dimensions the split points are adjacent integers
// rather than a fractional midpoint. Neither the linear core nor the
// optimization search (spec.md §4.9) calls it; engine.CheckOptCore
// halves the objective variable's interval itself.
func (b *Box) Bisect(dim symbolic.Variable) (left, right *Box) {
	iv := b.Get(dim)
	mid := iv.Lo.Add(iv.Hi).Mul(half)

	kind := b.kinds[dim.ID()]
	if kind == symbolic.Integer || kind == symbolic.Binary {
		mid = floorRational(mid)
		left, right = b.Clone(), b.Clone()
		left.Set(dim, Interval{Lo: iv.Lo, Hi: mid})
		right.Set(dim, Interval{Lo: mid.Add(rational.FromInt64(1)), Hi: iv.Hi})
		return left, right
	}

	left, right = b.Clone(), b.Clone()
	left.Set(dim, Interval{Lo: iv.Lo, Hi: mid})
	right.Set(dim, Interval{Lo: mid, Hi: iv.Hi})
	return left, right
}

func floorRational(q rational.Rational) rational.Rational {
	f := q.Float64Floor()
	return rational.FromFloat64(float64(int64(f)))
}

// String renders the box in SMT-LIB2 model form:
// "(model (define-fun v () Real <rational>) ...)" (spec.md §6),
// sorted by variable id for a stable, diffable rendering. It has no
// id->Variable resolver, so variables print as v<id>; see Render.
func (b *Box) String() string {
	return b.Render(nil)
}

// Render is String with an explicit id->Variable resolver, for callers
// that can supply the owning VarTable's lookup; a nil resolve prints
// v<id> names.
func (b *Box) Render(resolve func(symbolic.VarID) symbolic.Variable) string {
	if b.empty {
		return "(model)"
	}
	ids := append([]symbolic.VarID(nil), b.order...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var sb strings.Builder
	sb.WriteString("(model")
	for _, id := range ids {
		iv := b.intervals[id]
		name := fmt.Sprintf("v%d", id)
		if resolve != nil {
			name = resolve(id).Name()
		}
		sort := "Real"
		if b.kinds[id] == symbolic.Integer {
			sort = "Int"
		}
		val := iv.Lo
		if !val.IsFinite() {
			val = iv.Hi
		}
		sb.WriteString(fmt.Sprintf(" (define-fun %s () %s %s)", name, sort, val))
	}
	sb.WriteString(")")
	return sb.String()
}
