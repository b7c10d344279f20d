// Package rational provides the arbitrary-precision exact numerics that
// every other deltasat component builds on: a Rational wrapping
// math/big.Rat, plus the signed-infinity sentinels and the "active
// infinity" publication lifecycle the LP backend trait depends on.
//
// No example in the retrieved pack implements exact rational
// arithmetic (the closest is field arithmetic in gnark's R1CS backends,
// which is modular, not ordered, and therefore the wrong model for LP
// bound reasoning). math/big.Rat is the only correct building block
// here; see DESIGN.md for the full justification.
package rational

import (
	"fmt"
	"math"
	"math/big"
)

// sign distinguishes the two infinity sentinels from any finite value.
type sign int

const (
	signFinite sign = iota
	signPos
	signNeg
)

// Rational is an exact rational number, or one of the two signed
// infinities. Finite values are backed by a normalized big.Rat; the
// zero Rational is the exact value 0.
type Rational struct {
	sign sign
	val  *big.Rat
}

// Zero is the exact rational 0.
func Zero() Rational { return FromInt64(0) }

// PosInf is the sentinel denoting +infinity. It compares greater than
// every finite Rational and is distinguishable from any finite value
// regardless of magnitude.
func PosInf() Rational { return Rational{sign: signPos} }

// NegInf is the sentinel denoting -infinity.
func NegInf() Rational { return Rational{sign: signNeg} }

// FromInt64 builds an exact Rational from an integer.
func FromInt64(n int64) Rational {
	return Rational{val: new(big.Rat).SetInt64(n)}
}

// FromBigRat builds a Rational from an existing big.Rat, taking
// ownership of a defensive copy.
func FromBigRat(r *big.Rat) Rational {
	return Rational{val: new(big.Rat).Set(r)}
}

// FromDecimal parses a decimal or fractional literal exactly (e.g.
// "3.14", "-7/2", "42"). It never rounds.
func FromDecimal(s string) (Rational, error) {
	r := new(big.Rat)
	if _, ok := r.SetString(s); !ok {
		return Rational{}, fmt.Errorf("rational: cannot parse %q as an exact decimal or fraction", s)
	}
	return Rational{val: r}, nil
}

// FromFloat64 converts a float64 to its exact rational value (not a
// rounded approximation: every finite float64 is itself a dyadic
// rational, and that is what is returned).
func FromFloat64(f float64) Rational {
	r := new(big.Rat)
	r.SetFloat64(f)
	return Rational{val: r}
}

// IsPosInf reports whether q is the +infinity sentinel.
func (q Rational) IsPosInf() bool { return q.sign == signPos }

// IsNegInf reports whether q is the -infinity sentinel.
func (q Rational) IsNegInf() bool { return q.sign == signNeg }

// IsInfinite reports whether q is either infinity sentinel.
func (q Rational) IsInfinite() bool { return q.sign != signFinite }

// IsFinite reports whether q is a genuine rational value.
func (q Rational) IsFinite() bool { return q.sign == signFinite }

func (q Rational) bigRat() *big.Rat {
	if q.val == nil {
		return new(big.Rat)
	}
	return q.val
}

// Cmp returns -1, 0, +1 as q is less than, equal to, or greater than r,
// with the infinities ordered as expected (-inf < everything < +inf,
// and the two infinities equal only to themselves).
func (q Rational) Cmp(r Rational) int {
	if q.sign != signFinite || r.sign != signFinite {
		rank := func(s sign) int {
			switch s {
			case signNeg:
				return -1
			case signPos:
				return 1
			default:
				return 0
			}
		}
		qr, rr := rank(q.sign), rank(r.sign)
		if qr != rr {
			if qr < rr {
				return -1
			}
			return 1
		}
		if qr == 0 {
			return q.bigRat().Cmp(r.bigRat())
		}
		return 0 // both +inf or both -inf
	}
	return q.bigRat().Cmp(r.bigRat())
}

// Equal reports whether q and r denote the same value.
func (q Rational) Equal(r Rational) bool { return q.Cmp(r) == 0 }

// Add returns q+r. Adding a finite value to an infinity returns that
// infinity; adding the two opposite infinities is undefined for this
// solver's use (rows/bounds never combine opposite infinities) and
// panics defensively.
func (q Rational) Add(r Rational) Rational {
	if q.sign != signFinite || r.sign != signFinite {
		if q.sign != signFinite && r.sign != signFinite && q.sign != r.sign {
			panic("rational: cannot add +infinity and -infinity")
		}
		if q.sign != signFinite {
			return q
		}
		return r
	}
	return Rational{val: new(big.Rat).Add(q.bigRat(), r.bigRat())}
}

// Sub returns q-r.
func (q Rational) Sub(r Rational) Rational { return q.Add(r.Neg()) }

// Mul returns q*r. A finite zero times an infinity is treated as zero
// (the LP layer never forms this product; kept total for safety).
func (q Rational) Mul(r Rational) Rational {
	if q.sign != signFinite || r.sign != signFinite {
		aSign, bSign := q.signOf(), r.signOf()
		if aSign == 0 || bSign == 0 {
			return Zero()
		}
		if aSign*bSign > 0 {
			return PosInf()
		}
		return NegInf()
	}
	return Rational{val: new(big.Rat).Mul(q.bigRat(), r.bigRat())}
}

// Inv returns 1/q. Panics on a zero or infinite q; callers (the
// simplex pivot step) only ever invert a nonzero finite pivot element.
func (q Rational) Inv() Rational {
	if q.sign != signFinite {
		panic("rational: cannot invert an infinity")
	}
	if q.IsZero() {
		panic("rational: division by zero")
	}
	return Rational{val: new(big.Rat).Inv(q.bigRat())}
}

// Quo returns q/r. Panics if r is zero or infinite, matching Inv.
func (q Rational) Quo(r Rational) Rational { return q.Mul(r.Inv()) }

// signOf returns -1, 0, +1 for the value's sign, treating infinities as
// their respective signs.
func (q Rational) signOf() int {
	switch q.sign {
	case signPos:
		return 1
	case signNeg:
		return -1
	default:
		return q.bigRat().Sign()
	}
}

// Neg returns -q, flipping the infinity sentinel if q is infinite.
func (q Rational) Neg() Rational {
	switch q.sign {
	case signPos:
		return NegInf()
	case signNeg:
		return PosInf()
	default:
		return Rational{val: new(big.Rat).Neg(q.bigRat())}
	}
}

// Abs returns |q|.
func (q Rational) Abs() Rational {
	if q.sign != signFinite {
		return PosInf()
	}
	return Rational{val: new(big.Rat).Abs(q.bigRat())}
}

// Sign returns -1, 0 or 1.
func (q Rational) Sign() int { return q.signOf() }

// IsZero reports whether q is the exact value 0.
func (q Rational) IsZero() bool { return q.sign == signFinite && q.bigRat().Sign() == 0 }

// String renders q in "num/den" form (or an integer when the
// denominator is 1), or "+oo" / "-oo" for the sentinels.
func (q Rational) String() string {
	switch q.sign {
	case signPos:
		return "+oo"
	case signNeg:
		return "-oo"
	default:
		return q.bigRat().RatString()
	}
}

// Float64Ceil converts q to the smallest double >= q (rounding towards
// +infinity), for externalizing a Box lower bound that must not
// overstate feasibility.
func (q Rational) Float64Ceil() float64 {
	if q.sign == signPos {
		return posInfFloat
	}
	if q.sign == signNeg {
		return negInfFloat
	}
	f, exact := new(big.Float).SetRat(q.bigRat()).Float64()
	if exact || f == 0 {
		return f
	}
	// big.Float.Float64 rounds to nearest; nudge towards +inf if it
	// rounded down from the true value.
	back := new(big.Rat).SetFloat64(f)
	if back.Cmp(q.bigRat()) < 0 {
		return nextFloat64(f, posInfFloat)
	}
	return f
}

// Float64Floor converts q to the largest double <= q (rounding towards
// -infinity).
func (q Rational) Float64Floor() float64 {
	if q.sign == signPos {
		return posInfFloat
	}
	if q.sign == signNeg {
		return negInfFloat
	}
	f, exact := new(big.Float).SetRat(q.bigRat()).Float64()
	if exact || f == 0 {
		return f
	}
	back := new(big.Rat).SetFloat64(f)
	if back.Cmp(q.bigRat()) > 0 {
		return nextFloat64(f, negInfFloat)
	}
	return f
}

var (
	posInfFloat = math.Inf(1)
	negInfFloat = math.Inf(-1)
)

// nextFloat64 nudges f one representable step towards target.
func nextFloat64(f, target float64) float64 {
	return math.Nextafter(f, target)
}
