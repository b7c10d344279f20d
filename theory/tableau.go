package theory

import "github.com/xDarkicex/deltasat/rational"

// tableau is a dense two-phase-free simplex tableau: every structural
// variable x_j is split into x_j+ - x_j- (both nonnegative) so the
// whole problem is standard-form nonnegative, sidestepping the
// separate bookkeeping a bounded/free-variable simplex would need.
// Box bounds on a column are folded in as ordinary G/L rows alongside
// the theory-atom rows, so one code path (addRow) builds the entire
// system.
type tableau struct {
	nStruct int // number of original structural columns
	rows    int
	cols    int

	a   [][]rational.Rational // rows x cols
	rhs []rational.Rational   // rows

	basis   []int // basis[i] = column index basic in row i
	isArt   []bool
	cost    []rational.Rational // phase-1 cost: 1 for artificial columns, else 0

	// pending row specs collected before finalize, since slack column
	// count (and therefore total column count) isn't known until every
	// row has been seen.
	pending []rowSpec
}

type rowSpec struct {
	coeffs map[int]rational.Rational // structural column -> coefficient
	sense  Sense
	rhs    rational.Rational
}

func newTableau(nStruct int) *tableau {
	return &tableau{nStruct: nStruct}
}

func (t *tableau) addRow(coeffs map[int]rational.Rational, sense Sense, rhs rational.Rational) {
	t.pending = append(t.pending, rowSpec{coeffs: coeffs, sense: sense, rhs: rhs})
}

// finalize assigns column layout (x+, x-, slacks, artificials) and
// builds the dense matrix with artificials initially basic.
func (t *tableau) finalize() {
	m := len(t.pending)
	nSlack := 0
	for _, r := range t.pending {
		if r.sense != SenseE {
			nSlack++
		}
	}
	n := 2*t.nStruct + nSlack + m
	t.rows, t.cols = m, n
	t.a = make([][]rational.Rational, m)
	t.rhs = make([]rational.Rational, m)
	t.basis = make([]int, m)
	t.isArt = make([]bool, n)
	t.cost = make([]rational.Rational, n)

	slackCol := 2 * t.nStruct
	artCol := 2*t.nStruct + nSlack

	for i, spec := range t.pending {
		row := make([]rational.Rational, n)
		for j := range row {
			row[j] = rational.Zero()
		}
		for j, coeff := range spec.coeffs {
			row[j] = row[j].Add(coeff)          // x_j+
			row[t.nStruct+j] = row[t.nStruct+j].Sub(coeff) // x_j-
		}
		rhsVal := spec.rhs
		mySlack := -1
		switch spec.sense {
		case SenseG:
			mySlack = slackCol
			row[mySlack] = rational.FromInt64(-1)
			slackCol++
		case SenseL:
			mySlack = slackCol
			row[mySlack] = rational.FromInt64(1)
			slackCol++
		case SenseE:
			// no slack
		}
		if rhsVal.Sign() < 0 {
			for j := range row {
				row[j] = row[j].Neg()
			}
			rhsVal = rhsVal.Neg()
		}
		myArt := artCol
		artCol++
		row[myArt] = rational.FromInt64(1)
		t.isArt[myArt] = true
		t.cost[myArt] = rational.FromInt64(1)

		t.a[i] = row
		t.rhs[i] = rhsVal
		t.basis[i] = myArt
	}
}

// solvePhase1 drives the tableau to minimize the sum of artificial
// variables using Bland's rule (smallest-index pivoting) for
// guaranteed termination under exact arithmetic. Returns true if a
// zero-artificial (feasible) basis was reached.
func (t *tableau) solvePhase1() bool {
	t.finalize()
	if t.rows == 0 {
		return true
	}

	const maxIters = 100000
	for iter := 0; iter < maxIters; iter++ {
		reduced := t.reducedCosts()
		enter := -1
		for j := 0; j < t.cols; j++ {
			if reduced[j].Sign() < 0 {
				enter = j
				break // Bland's rule: smallest index with negative reduced cost
			}
		}
		if enter == -1 {
			return t.objectiveValue().IsZero()
		}

		leave := -1
		var bestRatio rational.Rational
		for i := 0; i < t.rows; i++ {
			coeff := t.a[i][enter]
			if coeff.Sign() <= 0 {
				continue
			}
			ratio := t.rhs[i].Quo(coeff)
			if leave == -1 || ratio.Cmp(bestRatio) < 0 ||
				(ratio.Cmp(bestRatio) == 0 && t.basis[i] < t.basis[leave]) {
				leave = i
				bestRatio = ratio
			}
		}
		if leave == -1 {
			// Unbounded growth of an artificial-minimizing direction
			// cannot happen with a correctly built phase-1 tableau;
			// treat defensively as infeasible rather than looping.
			return false
		}
		t.pivot(leave, enter)
	}
	return t.objectiveValue().IsZero()
}

func (t *tableau) pivot(leave, enter int) {
	pivotVal := t.a[leave][enter]
	inv := pivotVal.Inv()
	for j := 0; j < t.cols; j++ {
		t.a[leave][j] = t.a[leave][j].Mul(inv)
	}
	t.rhs[leave] = t.rhs[leave].Mul(inv)

	for i := 0; i < t.rows; i++ {
		if i == leave {
			continue
		}
		factor := t.a[i][enter]
		if factor.IsZero() {
			continue
		}
		for j := 0; j < t.cols; j++ {
			t.a[i][j] = t.a[i][j].Sub(factor.Mul(t.a[leave][j]))
		}
		t.rhs[i] = t.rhs[i].Sub(factor.Mul(t.rhs[leave]))
	}
	t.basis[leave] = enter
}

// reducedCosts computes c_j - c_B^T A_j for every column under the
// current basis.
func (t *tableau) reducedCosts() []rational.Rational {
	cb := make([]rational.Rational, t.rows)
	for i, b := range t.basis {
		cb[i] = t.cost[b]
	}
	out := make([]rational.Rational, t.cols)
	for j := 0; j < t.cols; j++ {
		zj := rational.Zero()
		for i := 0; i < t.rows; i++ {
			if !cb[i].IsZero() {
				zj = zj.Add(cb[i].Mul(t.a[i][j]))
			}
		}
		out[j] = t.cost[j].Sub(zj)
	}
	return out
}

func (t *tableau) objectiveValue() rational.Rational {
	sum := rational.Zero()
	for i, b := range t.basis {
		if t.isArt[b] {
			sum = sum.Add(t.rhs[i])
		}
	}
	return sum
}

// extractPrimal reconstructs the original structural variables'
// values (x_j = x_j+ - x_j-) from the final basis.
func (t *tableau) extractPrimal() map[ColIndex]rational.Rational {
	x := make([]rational.Rational, 2*t.nStruct)
	for i := range x {
		x[i] = rational.Zero()
	}
	for i, b := range t.basis {
		if b < 2*t.nStruct {
			x[b] = t.rhs[i]
		}
	}
	out := make(map[ColIndex]rational.Rational, t.nStruct)
	for j := 0; j < t.nStruct; j++ {
		out[ColIndex(j)] = x[j].Sub(x[t.nStruct+j])
	}
	return out
}

// infeasibilityCertificate returns the phase-1 dual multipliers
// y_i = 1 - (reduced cost of row i's artificial) of every row with a
// nonzero multiplier. At a phase-1 optimum with positive objective, y
// is a Farkas certificate: the rows it names are infeasible together
// (a sound, but in general non-minimal, set).
func (t *tableau) infeasibilityCertificate() map[RowIndex]rational.Rational {
	reduced := t.reducedCosts()
	firstArt := t.cols - t.rows
	out := make(map[RowIndex]rational.Rational)
	for i := 0; i < t.rows; i++ {
		if y := rational.FromInt64(1).Sub(reduced[firstArt+i]); !y.IsZero() {
			out[RowIndex(i)] = y
		}
	}
	return out
}
