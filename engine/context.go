// Package engine implements the context / driver loop of spec.md §4.8:
// it owns the assertion stack and wires the predicate abstractor, the
// CNF-izer, the SAT engine and the theory solver into the
// assert-filter / abstract / CNFize / SAT / theory / learn cycle, the
// one place in the module where every other package's contract is
// actually exercised together.
package engine

import (
	"github.com/hashicorp/go-hclog"
	"github.com/xDarkicex/deltasat/assertfilter"
	"github.com/xDarkicex/deltasat/box"
	"github.com/xDarkicex/deltasat/cnfize"
	"github.com/xDarkicex/deltasat/dlerr"
	"github.com/xDarkicex/deltasat/predicate"
	"github.com/xDarkicex/deltasat/rational"
	"github.com/xDarkicex/deltasat/satengine"
	"github.com/xDarkicex/deltasat/symbolic"
	"github.com/xDarkicex/deltasat/theory"
)

// Config mirrors the CLI-exposed knobs of spec.md §6 that shape one
// context's search.
type Config struct {
	Precision        rational.Rational // δ > 0; zero means exhaustive (--exhaustive / --precision 0)
	Exhaustive       bool
	RandomSeed       int64
	SATDefaultPhase  satengine.Phase
	ScopedAssertions bool         // if false, Push/Pop return UnsupportedScope (spec.md §1: "push/pop scoping is optional")
	Log              hclog.Logger // defaults to hclog.NewNullLogger() if nil
}

// Verdict is the context-level result of one CheckSat call.
type Verdict int

const (
	VerdictUnsat Verdict = iota
	VerdictSat
	VerdictDeltaSat
)

func (v Verdict) String() string {
	switch v {
	case VerdictSat:
		return "sat"
	case VerdictDeltaSat:
		return "delta-sat"
	default:
		return "unsat"
	}
}

type scopeSnapshot struct {
	box *box.Box
}

// lpInfinityMagnitude is the finite bound published via
// rational.InftyStart before any row is built, matching the convention
// of the SoPlex/QSopt-ex backends this module is modeled on (their
// mpq_INFTY / realParam(SoPlex::INFTY) sentinels carry a large finite
// magnitude, not an unrepresentable one).
var lpInfinityMagnitude = rational.FromFloat64(1e100)

// Context is one solve: the symbolic stores, the Box, and every
// component of the coordination loop, wired together per spec.md §4.8.
type Context struct {
	cfg Config

	exprs *symbolic.Store
	forms *symbolic.FormulaStore
	vars  *symbolic.VarTable
	b     *box.Box

	abs          *predicate.Abstractor
	cnfizer      *cnfize.CNFizer
	theorySolver *theory.Solver
	sat          *satengine.Engine

	actualPrecision rational.Rational
	scopes          []scopeSnapshot
	objective       *objectiveSpec

	log hclog.Logger
}

// NewContext creates an empty solve context. backend is the LP driver
// to run underneath (theory.NewSimplex() for the built-in exact
// simplex, or any other theory.LPBackend implementation).
func NewContext(cfg Config, backend theory.LPBackend) *Context {
	log := cfg.Log
	if log == nil {
		log = hclog.NewNullLogger()
	}

	rational.InftyStart(lpInfinityMagnitude)
	log.Debug("infty: published", "magnitude", lpInfinityMagnitude.String())

	exprs := symbolic.NewStore()
	forms := symbolic.NewFormulaStore(exprs)
	vars := symbolic.NewVarTable()
	abs := predicate.New(forms, vars)
	cnfizer := cnfize.New(forms)
	solver := theory.NewSolver(forms, backend)

	c := &Context{
		cfg:          cfg,
		exprs:        exprs,
		forms:        forms,
		vars:         vars,
		b:            box.New(),
		abs:          abs,
		cnfizer:      cnfizer,
		theorySolver: solver,
		log:          log,
	}
	c.sat = satengine.New(satengine.Config{
		RandomSeed:   cfg.RandomSeed,
		DefaultPhase: cfg.SATDefaultPhase,
		Log:          log.Named("satengine"),
	}, theoryCallback{cnfizer: cnfizer, abs: abs, solver: solver}, classifier{cnfizer: cnfizer, abs: abs})
	return c
}

// Close releases the underlying LP backend and retracts the active
// infinity magnitude this context published in NewContext.
func (c *Context) Close() {
	c.theorySolver.Close()
	rational.InftyFinish()
}

// Exprs, Forms and Vars expose the symbolic layer this context owns,
// for callers (the SMT-LIB2 command interpreter) building formulas to
// hand to Assert.
func (c *Context) Exprs() *symbolic.Store        { return c.exprs }
func (c *Context) Forms() *symbolic.FormulaStore { return c.forms }
func (c *Context) Vars() *symbolic.VarTable      { return c.vars }

// DeclareVariable interns a variable and gives it a Box entry.
func (c *Context) DeclareVariable(name string, kind symbolic.Kind) (symbolic.Variable, error) {
	v, err := c.vars.Declare(name, kind)
	if err != nil {
		return symbolic.Variable{}, err
	}
	if v.IsNumeric() {
		c.b.Declare(v)
	}
	return v, nil
}

// Assert folds one formula into the context: the assertion filter gets
// first look (it may tighten the Box directly and never touch the SAT
// engine), and anything it doesn't recognize is abstracted, CNF-ized
// and pushed into the SAT engine's clause database.
func (c *Context) Assert(f symbolic.FormulaID) error {
	if c.b.IsEmpty() {
		c.log.Trace("assert: skipped, already unsat")
		return nil // already proven unsat; further assertions are moot
	}
	if assertfilter.Filter(c.exprs, c.forms, c.b, f) != assertfilter.NotFiltered {
		c.log.Trace("assert: handled by assertion filter", "formula", f)
		return nil
	}
	abstracted := c.abs.Abstract(f)
	clauses := c.cnfizer.AddFormula(abstracted)
	c.log.Debug("assert: abstracted and cnfized", "formula", f, "clauses", len(clauses))
	c.sat.AddClauses(clauses)
	return nil
}

// Push opens a new scope, snapshotting the Box (the SAT engine keeps
// its own clause-count snapshot internally). Fails with
// UnsupportedScope if the context was configured without scoped
// assertions (spec.md §1).
func (c *Context) Push() error {
	if !c.cfg.ScopedAssertions {
		c.log.Warn("push: rejected, context not configured for scoped assertions")
		return dlerr.New(dlerr.KindUnsupportedScope, "engine.Push", "this context was not configured for scoped assertions")
	}
	if err := c.sat.Push(); err != nil {
		return err
	}
	c.scopes = append(c.scopes, scopeSnapshot{box: c.b.Clone()})
	c.log.Debug("push", "depth", len(c.scopes))
	return nil
}

// Pop restores the most recent Push's Box snapshot and rolls the SAT
// engine's clause database back to match.
func (c *Context) Pop() error {
	if !c.cfg.ScopedAssertions {
		c.log.Warn("pop: rejected, context not configured for scoped assertions")
		return dlerr.New(dlerr.KindUnsupportedScope, "engine.Pop", "this context was not configured for scoped assertions")
	}
	if len(c.scopes) == 0 {
		c.log.Warn("pop: rejected, no open scope")
		return dlerr.New(dlerr.KindUnsupportedScope, "engine.Pop", "no open scope to pop")
	}
	if err := c.sat.Pop(); err != nil {
		return err
	}
	mark := c.scopes[len(c.scopes)-1]
	c.scopes = c.scopes[:len(c.scopes)-1]
	c.b = mark.box
	c.log.Debug("pop", "depth", len(c.scopes))
	return nil
}

// CheckSat runs the spec.md §4.8 loop: fold assertions (already done
// incrementally by Assert), drive the SAT engine for a candidate
// model, hand the surviving theory literals to the LP solver, and
// either return a model or learn a blocking clause and retry.
func (c *Context) CheckSat() (Verdict, *box.Box, error) {
	if c.b.IsEmpty() {
		c.log.Debug("checksat: unsat, box already empty")
		return VerdictUnsat, nil, nil
	}

	for round := 0; ; round++ {
		c.log.Trace("checksat: boolean search", "round", round)
		model, ok := c.sat.CheckSat()
		if !ok {
			c.log.Debug("checksat: unsat, boolean search exhausted", "rounds", round)
			return VerdictUnsat, nil, nil
		}

		verdict, resultBox, explanation := c.theorySolver.CheckSat(c.b, c.vars.ByID)
		switch verdict {
		case theory.VerdictSat, theory.VerdictDeltaSat:
			c.actualPrecision = c.relaxationFor(model.TheoryLiterals)
			c.log.Debug("checksat: theory accepted candidate", "rounds", round, "precision", c.actualPrecision.String())
			if c.actualPrecision.IsZero() {
				return VerdictSat, resultBox, nil
			}
			return VerdictDeltaSat, resultBox, nil

		case theory.VerdictUnsat:
			blocking := c.blockingLiterals(model.TheoryLiterals, explanation)
			c.log.Warn("checksat: theory rejected candidate, learning clause and retrying", "round", round, "rows", len(model.TheoryLiterals), "blocking", len(blocking))
			c.sat.AddLearnedClause(blocking)
			continue

		default:
			return VerdictUnsat, nil, dlerr.New(dlerr.KindTheoryUnknown, "engine.CheckSat", "theory solver returned an unknown verdict")
		}
	}
}

// ActualPrecision returns the δ actually certified by the last
// DELTA_SAT result (zero for an exact SAT result).
func (c *Context) ActualPrecision() rational.Rational { return c.actualPrecision }

// relaxationFor reports the configured precision if any enabled theory
// literal came from a strict atom (`>`/`<`), since those are the ones
// the LP relaxed to their non-strict counterpart (spec.md §9: "treat
// `<`/`>` as their non-strict counterparts in the LP"); zero otherwise.
func (c *Context) relaxationFor(theoryLits []cnfize.Literal) rational.Rational {
	for _, lit := range theoryLits {
		vid, ok := c.cnfizer.VariableOf(lit.V)
		if !ok {
			continue
		}
		atom, ok := c.abs.AtomFor(vid)
		if !ok {
			continue
		}
		op, _, _ := c.forms.AtomParts(atom)
		if op == symbolic.OpGt || op == symbolic.OpLt {
			return c.cfg.Precision
		}
	}
	return rational.Zero()
}

// blockingLiterals narrows the enabled theory literals down to the
// ones the LP's explanation implicated, for a tighter learned clause;
// falls back to blocking the whole enabled set if nothing narrower was
// reported.
func (c *Context) blockingLiterals(theoryLits []cnfize.Literal, explanation []symbolic.FormulaID) []cnfize.Literal {
	if len(explanation) == 0 {
		return theoryLits
	}
	implicated := make(map[symbolic.FormulaID]bool, len(explanation))
	for _, a := range explanation {
		implicated[a] = true
	}
	out := make([]cnfize.Literal, 0, len(theoryLits))
	for _, lit := range theoryLits {
		vid, ok := c.cnfizer.VariableOf(lit.V)
		if !ok {
			continue
		}
		atom, ok := c.abs.AtomFor(vid)
		if !ok || !implicated[atom] {
			continue
		}
		out = append(out, lit)
	}
	if len(out) == 0 {
		return theoryLits
	}
	return out
}
