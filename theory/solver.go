package theory

import (
	"github.com/xDarkicex/deltasat/box"
	"github.com/xDarkicex/deltasat/dlerr"
	"github.com/xDarkicex/deltasat/rational"
	"github.com/xDarkicex/deltasat/symbolic"
)

// Verdict is the four-valued result of one CheckSat call (spec.md §4.7).
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictUnsat
	VerdictSat
	VerdictDeltaSat
)

func (v Verdict) String() string {
	switch v {
	case VerdictUnsat:
		return "unsat"
	case VerdictSat:
		return "sat"
	case VerdictDeltaSat:
		return "delta-sat"
	default:
		return "unknown"
	}
}

// literalKey identifies one (atom, polarity) row: an atom asserted with
// both polarities over the life of a solve (unusual, but not excluded
// by the grammar) gets two independent rows.
type literalKey struct {
	atom     symbolic.FormulaID
	polarity bool
}

// Solver is the exact-rational LP theory solver of spec.md §4.7: it
// turns predicate-abstracted linear atoms into LPBackend rows, flips
// rows on/off per the SAT driver's candidate model, and reports
// feasibility with an explanation on UNSAT.
type Solver struct {
	exprs   *symbolic.Store
	forms   *symbolic.FormulaStore
	backend LPBackend

	cols map[symbolic.VarID]ColIndex

	rows    map[literalKey]*row
	enabled map[literalKey]bool

	explanation []literalKey
}

// NewSolver creates a theory solver over forms's atoms, driving backend.
func NewSolver(forms *symbolic.FormulaStore, backend LPBackend) *Solver {
	backend.Init()
	return &Solver{
		exprs:   forms.Exprs(),
		forms:   forms,
		backend: backend,
		cols:    make(map[symbolic.VarID]ColIndex),
		rows:    make(map[literalKey]*row),
		enabled: make(map[literalKey]bool),
	}
}

// Close tears down the backend, matching the Init/Finish lifecycle
// spec.md §4.1/§5 requires of any LP backend.
func (s *Solver) Close() { s.backend.Finish() }

func senseFor(op symbolic.AtomOp, polarity bool) (sense Sense, skip bool) {
	switch op {
	case symbolic.OpEq:
		if polarity {
			return SenseE, false
		}
		return SenseDisabled, true
	case symbolic.OpNeq:
		if !polarity {
			return SenseE, false
		}
		return SenseDisabled, true
	case symbolic.OpGt, symbolic.OpGe:
		if polarity {
			return SenseG, false
		}
		return SenseL, false
	case symbolic.OpLt, symbolic.OpLe:
		if polarity {
			return SenseL, false
		}
		return SenseG, false
	default:
		return SenseDisabled, true
	}
}

// columnFor returns v's stable LP column, registering a fresh unbounded
// one on first use.
func (s *Solver) columnFor(v symbolic.Variable) ColIndex {
	if col, ok := s.cols[v.ID()]; ok {
		return col
	}
	col := s.backend.NewCol(v.Name(), rational.NegInf(), rational.PosInf())
	s.cols[v.ID()] = col
	return col
}

// expand reduces an expression to its linear canonical form (c0, terms
// over Var nodes only), matching the shapes spec.md §4.7 names; any
// other shape is a hard UnsupportedExpression error.
func (s *Solver) expand(id symbolic.ExprID) (rational.Rational, []symbolic.Term, error) {
	switch {
	case s.exprs.IsConstant(id):
		return s.exprs.AsConstant(id), nil, nil
	case s.exprs.IsVariable(id):
		return rational.Zero(), []symbolic.Term{{Sub: id, Coeff: rational.FromInt64(1)}}, nil
	case s.exprs.IsMultiplication(id):
		c0, terms := s.exprs.CoefficientMap(id)
		if terms == nil {
			return rational.Rational{}, nil, dlerr.New(dlerr.KindUnsupportedExpression,
				"theory.AddLinearLiteral", "multiplication is not a single variable raised to the first power")
		}
		return c0, terms, nil
	case s.exprs.IsAddition(id):
		c0, terms := s.exprs.CoefficientMap(id)
		for _, t := range terms {
			if !s.exprs.IsVariable(t.Sub) {
				return rational.Rational{}, nil, dlerr.New(dlerr.KindUnsupportedExpression,
					"theory.AddLinearLiteral", "addition term is not linear in a single variable")
			}
		}
		return c0, terms, nil
	default:
		return rational.Rational{}, nil, dlerr.New(dlerr.KindUnsupportedExpression,
			"theory.AddLinearLiteral", "expression is outside the linear fragment")
	}
}

// AddLinearLiteral registers (or reuses) the row for atom under
// polarity, per the sense table of spec.md §4.7. Purely Boolean atoms
// and the δ-trivial skipped directions (== under false, != under true)
// build no row. The row starts disabled (sense G, RHS −∞); enabling it
// is a separate step so reset/enable can be driven independently by
// the SAT engine on every candidate model.
func (s *Solver) AddLinearLiteral(atom symbolic.FormulaID, polarity bool) error {
	key := literalKey{atom, polarity}
	if _, ok := s.rows[key]; ok {
		return nil
	}

	op, lhs, rhs := s.forms.AtomParts(atom)
	sense, skip := senseFor(op, polarity)
	if skip {
		return nil
	}

	diff := s.exprs.Add(rational.Zero(), []symbolic.Term{
		{Sub: lhs, Coeff: rational.FromInt64(1)},
		{Sub: rhs, Coeff: rational.FromInt64(-1)},
	})
	c0, terms, err := s.expand(diff)
	if err != nil {
		return err
	}

	rhsVal := c0.Neg()
	if !rational.WithinActiveInfinity(rhsVal) {
		return dlerr.New(dlerr.KindNumericOverflow, "theory.AddLinearLiteral", "row RHS exceeds the active infinity")
	}

	coeffs := make(map[symbolic.VarID]rational.Rational, len(terms))
	for _, t := range terms {
		if !rational.WithinActiveInfinity(t.Coeff) {
			return dlerr.New(dlerr.KindNumericOverflow, "theory.AddLinearLiteral", "row coefficient exceeds the active infinity")
		}
		v := s.exprs.AsVariable(t.Sub)
		s.columnFor(v)
		coeffs[v.ID()] = t.Coeff
	}

	backendRow := s.backend.NewRow(SenseG, rational.NegInf())
	for vid, coeff := range coeffs {
		s.backend.ChangeCoef(backendRow, s.cols[vid], coeff)
	}

	r := &row{
		atom:          atom,
		polarity:      polarity,
		coeffs:        coeffs,
		constant:      c0,
		sense:         SenseG,
		rhs:           rational.NegInf(),
		intendedSense: sense,
		intendedRHS:   rhsVal,
		backendRow:    backendRow,
	}
	s.rows[key] = r
	return nil
}

// ResetLinearProblem disables every row, per spec.md §4.7: sense G,
// RHS −∞, vacuously true. Called once before each theory check.
func (s *Solver) ResetLinearProblem() {
	for key := range s.enabled {
		delete(s.enabled, key)
	}
	for _, r := range s.rows {
		r.sense = SenseG
		r.rhs = rational.NegInf()
		s.backend.ChangeSense(r.backendRow, SenseG)
		s.backend.ChangeRHS(r.backendRow, rational.NegInf())
	}
}

// EnableLinearLiteral restores (atom, polarity)'s intended sense/RHS.
// A literal with no row (Boolean, or a skipped δ-trivial direction) is
// silently ignored, matching the SAT engine's narrow TheoryCallback
// contract used in satengine.
func (s *Solver) EnableLinearLiteral(atom symbolic.FormulaID, polarity bool) error {
	key := literalKey{atom, polarity}
	r, ok := s.rows[key]
	if !ok {
		return nil
	}
	r.sense = r.intendedSense
	r.rhs = r.intendedRHS
	s.backend.ChangeSense(r.backendRow, r.sense)
	s.backend.ChangeRHS(r.backendRow, r.rhs)
	s.enabled[key] = true
	return nil
}

// CheckSat asks the backend to optimize over every enabled row plus
// the Box's current bounds, and reports VerdictSat, VerdictUnsat or
// VerdictUnknown (whether a SAT result counts as δ-SAT is decided by
// the engine). On StatusOptimal it clamps the backend's primal point
// into b's intervals and returns it as the model; on infeasibility it
// collects an explanation (the enabled literals whose rows the backend
// implicated, or every enabled literal if the backend's certificate is
// empty) for the context to turn into a learned clause.
func (s *Solver) CheckSat(b *box.Box, resolve func(symbolic.VarID) symbolic.Variable) (Verdict, *box.Box, []symbolic.FormulaID) {
	for vid, col := range s.cols {
		v := resolve(vid)
		iv := b.Get(v)
		s.backend.ChangeColBounds(col, iv.Lo, iv.Hi)
	}

	switch s.backend.Optimize() {
	case StatusOptimal:
		primal := make(map[ColIndex]rational.Rational)
		s.backend.GetPrimalRational(primal)
		model := b.Clone()
		for vid, col := range s.cols {
			v := resolve(vid)
			q, ok := primal[col]
			if !ok {
				continue
			}
			iv := model.Get(v)
			if q.Cmp(iv.Lo) < 0 {
				q = iv.Lo
			}
			if q.Cmp(iv.Hi) > 0 {
				q = iv.Hi
			}
			model.Set(v, box.Interval{Lo: q, Hi: q})
		}
		return VerdictSat, model, nil

	case StatusInfeasible:
		dual := make(map[RowIndex]rational.Rational)
		s.backend.GetDualRational(dual)
		s.explanation = s.explanation[:0]
		for key := range s.enabled {
			r := s.rows[key]
			if len(dual) == 0 || dual[r.backendRow].Sign() != 0 {
				s.explanation = append(s.explanation, key)
			}
		}
		out := make([]symbolic.FormulaID, len(s.explanation))
		for i, key := range s.explanation {
			out[i] = key.atom
		}
		return VerdictUnsat, nil, out

	default:
		return VerdictUnknown, nil, nil
	}
}
