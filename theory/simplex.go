package theory

import "github.com/xDarkicex/deltasat/rational"

// Simplex is the built-in exact-rational LP backend: a primal simplex
// that runs phase 1 only (minimize the sum of artificial
// variables to find feasibility, since spec.md §4.7 only asks the
// theory solver for a feasibility verdict, not an optimized objective —
// objective bracketing for `minimize` is done above this layer by
// bisecting the Box, per spec.md §4.9). Bland's rule is used
// throughout for the pivot/leaving-variable choice, which guarantees
// termination without floating-point tolerances since every quantity
// is an exact rational.
type Simplex struct {
	colNames   []string
	colLB      []rational.Rational
	colUB      []rational.Rational
	rowSense   []Sense
	rowRHS     []rational.Rational
	// coef[row][col]
	coef map[int]map[int]rational.Rational

	lastPrimal map[ColIndex]rational.Rational
	lastDual   map[RowIndex]rational.Rational
}

// NewSimplex creates an empty backend instance.
func NewSimplex() *Simplex {
	return &Simplex{coef: make(map[int]map[int]rational.Rational)}
}

func (s *Simplex) Init()   {}
func (s *Simplex) Finish() {}

func (s *Simplex) NewCol(name string, lb, ub rational.Rational) ColIndex {
	s.colNames = append(s.colNames, name)
	s.colLB = append(s.colLB, lb)
	s.colUB = append(s.colUB, ub)
	return ColIndex(len(s.colNames) - 1)
}

func (s *Simplex) NewRow(sense Sense, rhs rational.Rational) RowIndex {
	s.rowSense = append(s.rowSense, sense)
	s.rowRHS = append(s.rowRHS, rhs)
	idx := len(s.rowSense) - 1
	s.coef[idx] = make(map[int]rational.Rational)
	return RowIndex(idx)
}

func (s *Simplex) ChangeCoef(row RowIndex, col ColIndex, q rational.Rational) {
	s.coef[int(row)][int(col)] = q
}

func (s *Simplex) ChangeSense(row RowIndex, sense Sense) { s.rowSense[row] = sense }
func (s *Simplex) ChangeRHS(row RowIndex, q rational.Rational) { s.rowRHS[row] = q }

func (s *Simplex) ChangeColBounds(col ColIndex, lb, ub rational.Rational) {
	s.colLB[col] = lb
	s.colUB[col] = ub
}

func (s *Simplex) GetRowCount() int { return len(s.rowSense) }
func (s *Simplex) GetColCount() int { return len(s.colNames) }

// Optimize runs phase-1 simplex (minimize total artificial mass) over
// every non-disabled row and returns whether a feasible point exists.
func (s *Simplex) Optimize() Status {
	t := s.buildTableau()
	if t == nil {
		// No rows at all (not even a bound row): every column sits at
		// its lower bound (or 0), trivially feasible.
		s.lastPrimal = s.boundsOnlyPoint()
		return StatusOptimal
	}
	feasible := t.solvePhase1()
	if !feasible {
		s.lastDual = t.infeasibilityCertificate()
		return StatusInfeasible
	}
	s.lastPrimal = t.extractPrimal()
	return StatusOptimal
}

// buildTableau translates every enabled atom row plus one synthetic
// row per finite column bound into the tableau's uniform (coeffs,
// sense, rhs) row shape, so bound-checking and atom-checking share the
// same phase-1 feasibility machinery. Returns nil if there is nothing
// to check (no atom rows and no finite bounds).
func (s *Simplex) buildTableau() *tableau {
	t := newTableau(len(s.colNames))
	any := false

	for row := range s.rowSense {
		sense, rhs := s.rowSense[row], s.rowRHS[row]
		if sense == SenseDisabled || (sense == SenseG && rhs.IsNegInf()) || (sense == SenseL && rhs.IsPosInf()) {
			// A disabled or reset row (G with RHS −∞, L with +∞)
			// constrains nothing. A 0 >= 0 row stands in for it, so no
			// infinite RHS reaches pivot arithmetic and every row keeps
			// its backend index in the tableau, which is how the
			// infeasibility certificate is keyed.
			t.addRow(map[int]rational.Rational{}, SenseG, rational.Zero())
			continue
		}
		t.addRow(s.coef[row], sense, rhs)
		any = true
	}

	for col := 0; col < len(s.colNames); col++ {
		if s.colLB[col].IsFinite() {
			t.addRow(map[int]rational.Rational{col: rational.FromInt64(1)}, SenseG, s.colLB[col])
			any = true
		}
		if s.colUB[col].IsFinite() {
			t.addRow(map[int]rational.Rational{col: rational.FromInt64(1)}, SenseL, s.colUB[col])
			any = true
		}
	}

	if !any {
		return nil
	}
	return t
}

func (s *Simplex) boundsOnlyPoint() map[ColIndex]rational.Rational {
	out := make(map[ColIndex]rational.Rational, len(s.colNames))
	for i := range s.colNames {
		v := s.colLB[i]
		if v.IsNegInf() {
			if !s.colUB[i].IsPosInf() {
				v = s.colUB[i]
			} else {
				v = rational.Zero()
			}
		}
		out[ColIndex(i)] = v
	}
	return out
}

func (s *Simplex) GetPrimalRational(out map[ColIndex]rational.Rational) {
	for k, v := range s.lastPrimal {
		out[k] = v
	}
}

func (s *Simplex) GetDualRational(out map[RowIndex]rational.Rational) {
	for k, v := range s.lastDual {
		out[k] = v
	}
}
