package satengine

import "github.com/xDarkicex/deltasat/cnfize"

// vsids is a narrowed adaptation of the teacher package's
// VSIDSHeuristic: exponentially-aging variable activity scores driving
// decision order, keyed by the dense cnfize.Var namespace instead of
// string variable names. The LRB/polarity-cache/anti-aging layers the
// teacher blends in are dropped; core VSIDS is what the CDCL contract
// in spec.md §4.6 actually needs (a deterministic decision order, with
// ties going to the earliest candidate; the random seed plays no part),
// not a specific decision-quality heuristic.
type vsids struct {
	activity  map[cnfize.Var]float64
	increment float64
	decay     float64
}

func newVSIDS() *vsids {
	return &vsids{
		activity:  make(map[cnfize.Var]float64),
		increment: 1.0,
		decay:     0.95,
	}
}

// bump rewards every variable in a just-learned or just-conflicted
// clause.
func (v *vsids) bump(lits []cnfize.Literal) {
	for _, l := range lits {
		v.activity[l.V] += v.increment
	}
	if v.increment > 1e100 {
		v.rescale()
	}
}

func (v *vsids) rescale() {
	for k := range v.activity {
		v.activity[k] *= 1e-100
	}
	v.increment *= 1e-100
}

// decayAll shrinks every variable's relative weight by raising the
// increment, the standard VSIDS trick of decaying scores without
// touching every entry.
func (v *vsids) decayAll() {
	v.increment /= v.decay
}

// choose returns the highest-activity variable among candidates, or
// the first candidate if no activity has accumulated yet (matching the
// teacher's default-to-first-unassigned fallback).
func (v *vsids) choose(candidates []cnfize.Var) cnfize.Var {
	best := candidates[0]
	bestScore := v.activity[best]
	for _, c := range candidates[1:] {
		if s := v.activity[c]; s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}
