// Package theory implements the exact-rational LP theory solver of
// spec.md §4.7: it builds rows and columns from predicate-abstracted
// theory atoms, enables/disables rows per the Boolean model the SAT
// engine hands it, and reports SAT/UNSAT/UNKNOWN with a model Box or
// an unsat explanation (whether a SAT result counts as DELTA_SAT is
// decided by the engine).
//
// The two backends named in spec.md §6 (QSopt_ex, SoPlex) are external
// collaborators behind a narrow trait; this package both defines that
// trait (LPBackend) and supplies one concrete implementation — an
// exact-rational phase-1 simplex — so the trait actually gets
// exercised rather than left abstract.
package theory

import (
	"github.com/xDarkicex/deltasat/rational"
	"github.com/xDarkicex/deltasat/symbolic"
)

// Sense is a row's relational sense.
type Sense int

const (
	SenseG Sense = iota // lhs >= rhs
	SenseL              // lhs <= rhs
	SenseE              // lhs == rhs
	SenseDisabled
)

// ColIndex is a stable column identity, one per numeric variable ever
// registered with the LP (spec.md §3: "column order stable for the
// lifetime of the solver").
type ColIndex int

// RowIndex is a stable row identity, one per theory atom ever enabled.
type RowIndex int

// LPBackend is the trait spec.md §6 describes: any implementation
// (QSopt_ex, SoPlex, or — here — the built-in exact simplex) must
// supply these operations over exact rationals.
type LPBackend interface {
	Init()
	Finish()
	NewCol(name string, lb, ub rational.Rational) ColIndex
	NewRow(sense Sense, rhs rational.Rational) RowIndex
	ChangeCoef(row RowIndex, col ColIndex, q rational.Rational)
	ChangeSense(row RowIndex, s Sense)
	ChangeRHS(row RowIndex, q rational.Rational)
	ChangeColBounds(col ColIndex, lb, ub rational.Rational)
	GetRowCount() int
	GetColCount() int
	Optimize() Status
	GetPrimalRational(out map[ColIndex]rational.Rational)
	// GetDualRational fills out with a certificate of infeasibility
	// (a Farkas-style dual vector) when the last Optimize returned
	// StatusInfeasible; used to narrow the unsat explanation.
	GetDualRational(out map[RowIndex]rational.Rational)
}

// Status is the three-valued result of one Optimize call.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnknown
)

// row mirrors spec.md §3's LP row record: current sense/RHS plus the
// "intended" sense/RHS restored on enable.
type row struct {
	atom     symbolic.FormulaID
	polarity bool
	coeffs   map[symbolic.VarID]rational.Rational
	constant rational.Rational // contributes to RHS alongside coeffs

	sense Sense
	rhs   rational.Rational

	intendedSense Sense
	intendedRHS   rational.Rational

	backendRow RowIndex
}
