// Package assertfilter implements the bound-box tightener (spec.md
// §4.5): it recognizes the simple syntactic pattern `var op const` (in
// either argument order) in a theory atom and tightens the current
// box.Box directly, short-circuiting the LP for the common case of a
// literal numeric bound.
package assertfilter

import (
	"math"

	"github.com/xDarkicex/deltasat/box"
	"github.com/xDarkicex/deltasat/rational"
	"github.com/xDarkicex/deltasat/symbolic"
)

// Result is the three-way outcome of filtering one formula.
type Result int

const (
	// NotFiltered means the formula was not a recognized bound pattern;
	// the caller must still hand it to the predicate abstractor / SAT
	// engine.
	NotFiltered Result = iota
	// FilteredWithoutChange means the pattern matched but the box was
	// already at least as tight as the atom demands.
	FilteredWithoutChange
	// FilteredWithChange means the box was narrowed (or emptied).
	FilteredWithChange
)

// Filter recognizes and applies simple bound atoms against b. id must
// be a formula in forms; exprs is forms' companion expression store.
func Filter(exprs *symbolic.Store, forms *symbolic.FormulaStore, b *box.Box, id symbolic.FormulaID) Result {
	if !forms.IsAtom(id) {
		return NotFiltered
	}
	op, lhs, rhs := forms.AtomParts(id)

	v, c, ok := boundShape(exprs, lhs, rhs)
	if !ok {
		v, c, ok = boundShape(exprs, rhs, lhs)
		if !ok {
			return NotFiltered
		}
		op = mirror(op)
	}

	return tighten(b, v, op, c)
}

// boundShape reports whether lhs is a bare variable and rhs a bare
// constant, returning that variable and constant.
func boundShape(exprs *symbolic.Store, lhs, rhs symbolic.ExprID) (symbolic.Variable, rational.Rational, bool) {
	if !exprs.IsVariable(lhs) || !exprs.IsConstant(rhs) {
		return symbolic.Variable{}, rational.Zero(), false
	}
	return exprs.AsVariable(lhs), exprs.AsConstant(rhs), true
}

// mirror flips an operator for the case `const op var`, since the
// atom's syntactic form is `const op var` but tighten expects
// `var op' const` with the operands swapped: a < x reads as x > a.
func mirror(op symbolic.AtomOp) symbolic.AtomOp {
	switch op {
	case symbolic.OpGt:
		return symbolic.OpLt
	case symbolic.OpGe:
		return symbolic.OpLe
	case symbolic.OpLt:
		return symbolic.OpGt
	case symbolic.OpLe:
		return symbolic.OpGe
	default:
		return op
	}
}

func tighten(b *box.Box, v symbolic.Variable, op symbolic.AtomOp, c rational.Rational) Result {
	before := b.Get(v)
	after := before

	switch op {
	case symbolic.OpEq:
		if !before.Contains(c) {
			b.SetEmpty()
			return FilteredWithChange
		}
		after = box.Interval{Lo: c, Hi: c}
	case symbolic.OpGt:
		after.Lo = maxBound(before.Lo, strictLowerBound(v, c))
	case symbolic.OpGe:
		after.Lo = maxBound(before.Lo, c)
	case symbolic.OpLt:
		after.Hi = minBound(before.Hi, strictUpperBound(v, c))
	case symbolic.OpLe:
		after.Hi = minBound(before.Hi, c)
	default:
		// OpNeq ("!=") is δ-trivial (spec.md §9: any δ>0 satisfies one
		// side) and is never tightened here; it is left for the SAT/
		// theory loop to handle via predicate abstraction.
		return NotFiltered
	}

	if after.Lo.Equal(before.Lo) && after.Hi.Equal(before.Hi) {
		return FilteredWithoutChange
	}
	b.Set(v, after)
	return FilteredWithChange
}

// strictLowerBound returns the tightest value still satisfying `x > c`:
// the next representable double towards +infinity for Continuous
// variables (design note 9(b): strict lower bounds move toward +∞),
// or c+1 for Integer/Binary.
func strictLowerBound(v symbolic.Variable, c rational.Rational) rational.Rational {
	if v.Kind() == symbolic.Integer || v.Kind() == symbolic.Binary {
		return c.Add(rational.FromInt64(1))
	}
	return nextAfter(c, math.Inf(1))
}

// strictUpperBound returns the tightest value still satisfying `x < c`:
// the next representable double towards -infinity for Continuous
// variables, or c-1 for Integer/Binary.
func strictUpperBound(v symbolic.Variable, c rational.Rational) rational.Rational {
	if v.Kind() == symbolic.Integer || v.Kind() == symbolic.Binary {
		return c.Sub(rational.FromInt64(1))
	}
	return nextAfter(c, math.Inf(-1))
}

func nextAfter(c rational.Rational, target float64) rational.Rational {
	f := c.Float64Ceil()
	if target < 0 {
		f = c.Float64Floor()
	}
	return rational.FromFloat64(math.Nextafter(f, target))
}

func maxBound(a, b rational.Rational) rational.Rational {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

func minBound(a, b rational.Rational) rational.Rational {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}
