package engine

import (
	"github.com/xDarkicex/deltasat/box"
	"github.com/xDarkicex/deltasat/dlerr"
	"github.com/xDarkicex/deltasat/rational"
	"github.com/xDarkicex/deltasat/symbolic"
)

// OptStatus is check_opt_core's three-valued result (spec.md §4.8).
type OptStatus int

const (
	OptSat OptStatus = iota
	OptUnbounded
	OptUnsat
)

func (s OptStatus) String() string {
	switch s {
	case OptUnbounded:
		return "unbounded"
	case OptUnsat:
		return "unsat"
	default:
		return "sat"
	}
}

// objectiveSpec is the affine-in-one-variable objective this context's
// bisection-based optimizer supports: obj = c0 + coeff*v. Every
// worked example in spec.md §8 minimizes a bare variable (coeff=1,
// c0=0); the affine generalization costs nothing extra to support.
type objectiveSpec struct {
	v     symbolic.Variable
	coeff rational.Rational
	c0    rational.Rational
}

var half = rational.FromInt64(1).Quo(rational.FromInt64(2))

// Minimize installs obj as the context's objective for CheckOptCore.
// obj must reduce to a constant plus one coefficient on one variable
// (spec.md §4.9: bisect is a one-dimensional search); any richer shape
// is a hard UnsupportedExpression error, since a multi-variable optimum
// cannot be bracketed by bisecting a single Box dimension.
func (c *Context) Minimize(obj symbolic.ExprID) error {
	c0, terms := c.exprs.CoefficientMap(obj)
	switch len(terms) {
	case 0:
		return dlerr.New(dlerr.KindUnsupportedExpression, "engine.Minimize", "objective has no free variable to optimize over")
	case 1:
		if !c.exprs.IsVariable(terms[0].Sub) {
			return dlerr.New(dlerr.KindUnsupportedExpression, "engine.Minimize", "objective term is not linear in a single variable")
		}
		c.objective = &objectiveSpec{v: c.exprs.AsVariable(terms[0].Sub), coeff: terms[0].Coeff, c0: c0}
		return nil
	default:
		return dlerr.New(dlerr.KindUnsupportedExpression, "engine.Minimize", "multi-variable objectives are outside this context's bisection search")
	}
}

// CheckOptCore brackets the objective's optimum within the context's
// configured precision by repeatedly tightening the objective
// variable's Box interval and probing feasibility with CheckSat,
// narrowing toward the minimizing side at each step (spec.md §4.8's
// `check_opt_core`). Requires scoped assertions, since each probe must
// be reversible.
func (c *Context) CheckOptCore() (OptStatus, rational.Rational, rational.Rational, error) {
	var zero rational.Rational
	if c.objective == nil {
		return OptUnsat, zero, zero, dlerr.New(dlerr.KindUnsupportedExpression, "engine.CheckOptCore", "no objective installed; call Minimize first")
	}
	if !c.cfg.ScopedAssertions {
		return OptUnsat, zero, zero, dlerr.New(dlerr.KindUnsupportedScope, "engine.CheckOptCore", "bisection search requires scoped assertions")
	}

	verdict, model, err := c.CheckSat()
	if err != nil {
		return OptUnsat, zero, zero, err
	}
	if verdict == VerdictUnsat {
		return OptUnsat, zero, zero, nil
	}

	v := c.objective.v
	coeff := c.objective.coeff
	lo, hi := c.b.Get(v).Lo, c.b.Get(v).Hi

	minimizing := coeff.Sign() >= 0
	if minimizing && lo.IsNegInf() {
		return OptUnbounded, zero, zero, nil
	}
	if !minimizing && hi.IsPosInf() {
		return OptUnbounded, zero, zero, nil
	}
	// The non-restrictive side may still be infinite. The model's value
	// for v is a feasible point, so it bounds the optimum on that side;
	// when v is in no LP row the model keeps v's Box interval, and then
	// the restrictive side's bound is itself attained.
	if lo.IsNegInf() {
		lo = model.Get(v).Lo
		if lo.IsNegInf() {
			lo = hi
		}
	}
	if hi.IsPosInf() {
		hi = model.Get(v).Hi
		if hi.IsPosInf() {
			hi = lo
		}
	}

	const maxIters = 200
	for i := 0; i < maxIters && hi.Sub(lo).Abs().Cmp(c.cfg.Precision) > 0; i++ {
		mid := lo.Add(hi).Mul(half)

		var probeLo, probeHi rational.Rational
		if minimizing {
			probeLo, probeHi = lo, mid
		} else {
			probeLo, probeHi = mid, hi
		}

		feasible, err := c.probeInterval(v, probeLo, probeHi)
		if err != nil {
			return OptUnsat, zero, zero, err
		}
		if feasible == minimizing {
			if minimizing {
				hi = mid
			} else {
				lo = mid
			}
		} else {
			if minimizing {
				lo = mid
			} else {
				hi = mid
			}
		}
	}

	objLo := coeff.Mul(lo).Add(c.objective.c0)
	objHi := coeff.Mul(hi).Add(c.objective.c0)
	if objLo.Cmp(objHi) > 0 {
		objLo, objHi = objHi, objLo
	}
	c.actualPrecision = hi.Sub(lo).Abs()
	return OptSat, objLo, objHi, nil
}

// probeInterval asks whether the current assertions remain feasible
// once v's Box interval is tightened to [lo, hi], without committing
// the change.
func (c *Context) probeInterval(v symbolic.Variable, lo, hi rational.Rational) (bool, error) {
	if err := c.Push(); err != nil {
		return false, err
	}
	defer func() { _ = c.Pop() }()

	c.b.Set(v, box.Interval{Lo: lo, Hi: hi})
	verdict, _, err := c.CheckSat()
	if err != nil {
		return false, err
	}
	return verdict != VerdictUnsat, nil
}
