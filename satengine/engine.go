// Package satengine is the CDCL driver of spec.md §4.6: it owns the
// clause database, decision trail and variable-order heuristic, and
// mediates between the Boolean search and the theory solver through a
// narrow TheoryCallback trait (design note 9) rather than inheriting
// from a theory-aware base type. Adapted from the teacher package's
// sat.DecisionTrailImpl / sat.VSIDSHeuristic / sat.FirstUIPAnalyzer,
// narrowed from string-keyed named variables to the dense integer
// cnfize.Var namespace this solver actually assigns, and stripped of
// the teacher's clause-deletion/inprocessing machinery that spec.md
// does not call for.
package satengine

import (
	"math/rand"

	"github.com/hashicorp/go-hclog"
	"github.com/xDarkicex/deltasat/cnfize"
	"github.com/xDarkicex/deltasat/dlerr"
)

// Phase is the default polarity policy for a freshly-decided variable
// (spec.md §6's --sat-default-phase flag).
type Phase int

const (
	PhaseFalse Phase = iota
	PhaseTrue
	PhaseJeroslowWang
	PhaseRandomJeroslowWang
)

// TheoryCallback is the narrow trait the SAT driver calls into while
// computing a candidate model (spec.md §4.6 step 3): it never sees the
// full theory solve, only row (de)activation.
type TheoryCallback interface {
	ResetLinearProblem()
	// EnableLinearLiteral is called once per surviving theory literal,
	// in whatever order the engine discovers them; the literal's
	// polarity is what the theory solver needs to pick the atom's
	// enabled sense (spec.md §4.7's table keys on polarity, not just
	// the proxy variable).
	EnableLinearLiteral(lit cnfize.Literal) error
}

// Classifier tells the engine, for a given CNF variable, whether it
// names a user Boolean, a theory-atom proxy, or a bare Tseitin
// auxiliary — the three cases spec.md §4.6 step 3 distinguishes when
// partitioning the surviving literals into the Boolean model, the
// theory row-activation set, or nothing at all.
type Classifier interface {
	IsAuxiliary(v cnfize.Var) bool
	IsTheoryProxy(v cnfize.Var) bool
}

// Config mirrors the CLI-exposed knobs of spec.md §6 that affect the
// engine's search.
type Config struct {
	RandomSeed   int64
	DefaultPhase Phase
	Log          hclog.Logger // defaults to hclog.NewNullLogger() if nil
}

// Model is the candidate the engine hands back from CheckSat: the
// surviving Boolean-model literals (user variables) and the theory
// literals that were enabled as LP rows.
type Model struct {
	BooleanLiterals []cnfize.Literal
	TheoryLiterals  []cnfize.Literal
}

// Engine is one solve's CDCL driver.
type Engine struct {
	cfg        Config
	theory     TheoryCallback
	classifier Classifier

	main    []*Clause
	learned []*Clause
	nextID  int

	mainLookup    map[cnfize.Literal][]int // literal -> indices into main
	learnedLookup map[cnfize.Literal][]int // literal -> indices into learned

	allVars  map[cnfize.Var]bool // every variable ever introduced
	varOrder []cnfize.Var        // allVars in first-seen order, for deterministic decisions

	trail *trail
	heur  *vsids
	rng   *rand.Rand

	scopes []scopeMark

	// fullDerefOnly is permanently set once any pop crosses a push
	// boundary (design note 9: "downgrade permanently to full deref;
	// never toggle back").
	fullDerefOnly bool

	log       hclog.Logger
	conflicts int
}

type scopeMark struct {
	mainLen    int
	learnedLen int
	varsAdded  []cnfize.Var
}

// New creates an engine bound to theory and classifier.
func New(cfg Config, theory TheoryCallback, classifier Classifier) *Engine {
	log := cfg.Log
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Engine{
		cfg:           cfg,
		theory:        theory,
		classifier:    classifier,
		mainLookup:    make(map[cnfize.Literal][]int),
		learnedLookup: make(map[cnfize.Literal][]int),
		allVars:       make(map[cnfize.Var]bool),
		trail:         newTrail(),
		heur:          newVSIDS(),
		rng:           rand.New(rand.NewSource(cfg.RandomSeed)),
		log:           log,
	}
}

// AddClause introduces a main clause, registering every literal's
// variable via makeSATVar and indexing the clause in the main-clause
// lookup (spec.md §4.6).
func (e *Engine) AddClause(lits []cnfize.Literal) {
	for _, l := range lits {
		e.makeSATVar(l.V)
	}
	c := newClause(e.nextID, append([]cnfize.Literal(nil), lits...), false)
	e.nextID++
	idx := len(e.main)
	e.main = append(e.main, c)
	for _, l := range lits {
		e.mainLookup[l] = append(e.mainLookup[l], idx)
	}
}

// AddClauses adds every clause in cs as a main clause.
func (e *Engine) AddClauses(cs []cnfize.Clause) {
	for _, c := range cs {
		e.AddClause(c.Literals)
	}
}

// makeSATVar registers v as known to the engine, if not already.
func (e *Engine) makeSATVar(v cnfize.Var) {
	if !e.allVars[v] {
		e.allVars[v] = true
		e.varOrder = append(e.varOrder, v)
	}
}

// AddLearnedClause asserts the disjunction of the negation of each
// literal in lits as a learned clause, per spec.md §4.6's
// add_learned_clause contract (used to block a theory-infeasible
// combination). No LP rows are created for learned clauses.
func (e *Engine) AddLearnedClause(lits []cnfize.Literal) {
	neg := make([]cnfize.Literal, len(lits))
	for i, l := range lits {
		neg[i] = l.Negate()
	}
	e.addLearned(neg)
}

func (e *Engine) addLearned(lits []cnfize.Literal) *Clause {
	c := newClause(e.nextID, lits, true)
	e.nextID++
	idx := len(e.learned)
	e.learned = append(e.learned, c)
	for _, l := range lits {
		e.learnedLookup[l] = append(e.learnedLookup[l], idx)
	}
	e.heur.bump(lits)
	return c
}

// Push opens a new assertion scope, snapshotting clause-database
// lengths so Pop can restore them exactly (spec.md §3's assertion
// stack).
func (e *Engine) Push() error {
	e.scopes = append(e.scopes, scopeMark{mainLen: len(e.main), learnedLen: len(e.learned)})
	return nil
}

// Pop rolls back to the most recent Push, discarding clauses added
// since and backtracking the trail to decision level 0. If no scope is
// open, returns an UnsupportedScope error (spec.md §4.6).
func (e *Engine) Pop() error {
	if len(e.scopes) == 0 {
		return dlerr.New(dlerr.KindUnsupportedScope, "satengine.Pop", "no open scope to pop")
	}
	mark := e.scopes[len(e.scopes)-1]
	e.scopes = e.scopes[:len(e.scopes)-1]

	e.trail.backtrackTo(0)
	e.fullDerefOnly = true

	for _, c := range e.main[mark.mainLen:] {
		for _, l := range c.Literals {
			lookup := e.mainLookup[l]
			e.mainLookup[l] = lookup[:len(lookup)-1]
		}
	}
	e.main = e.main[:mark.mainLen]

	for _, c := range e.learned[mark.learnedLen:] {
		for _, l := range c.Literals {
			lookup := e.learnedLookup[l]
			e.learnedLookup[l] = lookup[:len(lookup)-1]
		}
	}
	e.learned = e.learned[:mark.learnedLen]
	return nil
}

// CheckSat runs one round of CDCL search to a fixpoint: propagate,
// conflict-analyze-and-learn, or decide, until either a satisfying
// assignment is found (returned as a Model) or the formula is
// determined UNSAT (ok=false).
func (e *Engine) CheckSat() (Model, bool) {
	e.log.Debug("checksat: start", "main_clauses", len(e.main), "learned_clauses", len(e.learned), "vars", len(e.varOrder))
	for {
		conflict := e.propagate()
		if conflict != nil {
			e.conflicts++
			if e.trail.currentLevel == 0 {
				e.log.Debug("checksat: unsat at level 0", "conflicts", e.conflicts)
				return Model{}, false
			}
			learnt, backtrackLevel := e.analyze(conflict)
			e.log.Trace("checksat: conflict", "conflicts", e.conflicts, "decision_level", e.trail.currentLevel, "backtrack_level", backtrackLevel, "learned_width", len(learnt))
			e.heur.bump(learnt)
			e.heur.decayAll()
			e.trail.backtrackTo(backtrackLevel)
			lc := e.addLearned(learnt)
			if lc.IsUnit() {
				e.trail.assign(lc.Literals[0].V, !lc.Literals[0].Negated, lc)
			} else {
				// Assert the asserting literal (the one at the current
				// decision level after backjump) as a propagation.
				assertLit := e.assertingLiteral(lc, backtrackLevel)
				e.trail.assign(assertLit.V, !assertLit.Negated, lc)
			}
			continue
		}

		next, ok := e.pickUnassigned()
		if !ok {
			e.log.Debug("checksat: model found", "conflicts", e.conflicts, "decision_level", e.trail.currentLevel)
			return e.buildModel(), true
		}
		e.trail.newDecisionLevel()
		e.trail.assign(next, e.decidePolarity(next), nil)
		e.log.Trace("checksat: decide", "var", next, "decision_level", e.trail.currentLevel)
	}
}

// propagate runs unit propagation to a fixpoint over both clause
// databases, returning the first violated clause found, or nil if the
// assignment is currently consistent and no further units remain.
func (e *Engine) propagate() *Clause {
	for {
		progressed := false
		for _, c := range e.allClauses() {
			status, unit := e.clauseStatus(c)
			switch status {
			case clauseConflict:
				return c
			case clauseUnit:
				e.trail.assign(unit.V, !unit.Negated, c)
				progressed = true
			}
		}
		if !progressed {
			return nil
		}
	}
}

type clauseState int

const (
	clauseSatisfied clauseState = iota
	clauseUnit
	clauseConflict
	clauseUnresolved
)

func (e *Engine) clauseStatus(c *Clause) (clauseState, cnfize.Literal) {
	var unassigned []cnfize.Literal
	for _, l := range c.Literals {
		if e.trail.literalTrue(l) {
			return clauseSatisfied, cnfize.Literal{}
		}
		if !e.trail.literalFalse(l) {
			unassigned = append(unassigned, l)
		}
	}
	switch len(unassigned) {
	case 0:
		return clauseConflict, cnfize.Literal{}
	case 1:
		return clauseUnit, unassigned[0]
	default:
		return clauseUnresolved, cnfize.Literal{}
	}
}

func (e *Engine) allClauses() []*Clause {
	out := make([]*Clause, 0, len(e.main)+len(e.learned))
	out = append(out, e.main...)
	out = append(out, e.learned...)
	return out
}

// analyze performs First-UIP resolution (teacher: FirstUIPAnalyzer),
// returning the learned clause and the backtrack level to jump to.
func (e *Engine) analyze(conflict *Clause) ([]cnfize.Literal, int) {
	learnt := make([]cnfize.Literal, len(conflict.Literals))
	copy(learnt, conflict.Literals)

	currentLevel := e.trail.currentLevel
	for countAtLevel(e.trail, learnt, currentLevel) > 1 {
		v := mostRecentAtLevel(e.trail, learnt, currentLevel)
		reason := e.trail.reasonFor(v)
		if reason == nil {
			break // v is the decision variable at this level: First-UIP
		}
		learnt = resolve(learnt, reason.Literals, v)
	}

	backtrack := secondHighestLevel(e.trail, learnt, currentLevel)
	return learnt, backtrack
}

func countAtLevel(t *trail, lits []cnfize.Literal, level int) int {
	n := 0
	for _, l := range lits {
		if t.level(l.V) == level {
			n++
		}
	}
	return n
}

func mostRecentAtLevel(t *trail, lits []cnfize.Literal, level int) cnfize.Var {
	best := cnfize.Var(-1)
	bestIdx := -1
	for _, l := range lits {
		if t.level(l.V) != level {
			continue
		}
		for i := len(t.entries) - 1; i >= 0; i-- {
			if t.entries[i].v == l.V {
				if i > bestIdx {
					bestIdx = i
					best = l.V
				}
				break
			}
		}
	}
	return best
}

// resolve performs binary resolution on variable v between learnt and
// reason, producing the union of both literal sets minus the two
// complementary occurrences of v, de-duplicated.
func resolve(learnt, reason []cnfize.Literal, v cnfize.Var) []cnfize.Literal {
	seen := map[cnfize.Literal]bool{}
	out := make([]cnfize.Literal, 0, len(learnt)+len(reason))
	add := func(l cnfize.Literal) {
		if l.V == v {
			return
		}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	for _, l := range learnt {
		add(l)
	}
	for _, l := range reason {
		add(l)
	}
	return out
}

// secondHighestLevel finds the backtrack level for a learned clause:
// the highest decision level among its literals other than the
// current (UIP) level, or 0 if none.
func secondHighestLevel(t *trail, lits []cnfize.Literal, currentLevel int) int {
	second := 0
	for _, l := range lits {
		if lv := t.level(l.V); lv != currentLevel && lv > second {
			second = lv
		}
	}
	return second
}

// assertingLiteral returns the single literal of a just-learned clause
// that is not yet false after backjumping to level: with a First-UIP
// clause exactly one such literal exists, and it is the one unit
// propagation asserts.
func (e *Engine) assertingLiteral(c *Clause, level int) cnfize.Literal {
	for _, l := range c.Literals {
		if !e.trail.literalFalse(l) {
			return l
		}
	}
	return c.Literals[0]
}

func (e *Engine) pickUnassigned() (cnfize.Var, bool) {
	var candidates []cnfize.Var
	// Range over varOrder, not allVars: map iteration order is
	// randomized per run, which would make decision order (and
	// therefore search order) non-deterministic even at a fixed seed.
	for _, v := range e.varOrder {
		if _, ok := e.trail.value(v); !ok {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	return e.heur.choose(candidates), true
}

func (e *Engine) decidePolarity(v cnfize.Var) bool {
	switch e.cfg.DefaultPhase {
	case PhaseTrue:
		return true
	case PhaseFalse:
		return false
	case PhaseRandomJeroslowWang:
		return e.rng.Intn(2) == 0
	default: // PhaseJeroslowWang and any unset value fall back to false
		return false
	}
}

// buildModel computes the main-active literal set (spec.md §4.6 step
// 2, which doubles as the "required literal" pruning pass of the same
// section): a literal survives only if it is the sole true literal in
// at least one main clause containing it. Surviving literals are then
// partitioned into the Boolean model, the theory row-activation set
// (via Classifier/TheoryCallback), or dropped if they name a bare
// Tseitin auxiliary.
func (e *Engine) buildModel() Model {
	assigned := e.fullOrPartialDeref()

	satisfyCount := make([]int, len(e.main))
	trueSet := make(map[cnfize.Literal]bool, len(assigned))
	for _, l := range assigned {
		trueSet[l] = true
	}
	for i, c := range e.main {
		for _, l := range c.Literals {
			if trueSet[l] {
				satisfyCount[i]++
			}
		}
	}

	e.theory.ResetLinearProblem()

	var model Model
	for _, l := range assigned {
		required := false
		for _, idx := range e.mainLookup[l] {
			if satisfyCount[idx] == 1 {
				required = true
				break
			}
		}
		if !required {
			continue
		}
		if e.classifier.IsAuxiliary(l.V) {
			continue
		}
		if e.classifier.IsTheoryProxy(l.V) {
			if err := e.theory.EnableLinearLiteral(l); err == nil {
				model.TheoryLiterals = append(model.TheoryLiterals, l)
			}
			continue
		}
		model.BooleanLiterals = append(model.BooleanLiterals, l)
	}
	return model
}

// FullDerefLatched reports whether a pop has ever been issued against
// this engine, permanently forcing full-trail model extraction per
// design note 9.
func (e *Engine) FullDerefLatched() bool { return e.fullDerefOnly }

// fullOrPartialDeref returns the literals to treat as "the model":
// the full trail once any pop has forced full deref, or (today,
// equivalently) the full trail otherwise too — this engine never
// retains a shortcut partial-model structure separate from the trail,
// so the partial/full distinction in design note 9 collapses to one
// code path while still honoring the one-way downgrade latch.
func (e *Engine) fullOrPartialDeref() []cnfize.Literal {
	return e.trail.assignedLiterals()
}
