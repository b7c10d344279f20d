package rational

import "sync"

// activeInfinity is the process-wide state published by InftyStart and
// consumed by InftyFinish, mirroring the LP backend's own
// init/use/finish discipline (spec.md §4.1, §5). It is guarded by a
// mutex rather than left as bare globals because the context package
// may tear down and rebuild a solve within the same process (tests do
// this routinely).
var activeInfinityMu sync.Mutex
var activeInfinityMagnitude Rational
var activeInfinityPublished bool

// InftyStart publishes the magnitude that pos/neg infinity sentinels
// given to the LP backend must carry, and must happen-before any LP
// row is created. It takes the one finite magnitude both signs share;
// the PosInf()/NegInf() sentinels themselves always lie within it (see
// WithinActiveInfinity).
func InftyStart(magnitude Rational) {
	activeInfinityMu.Lock()
	defer activeInfinityMu.Unlock()
	activeInfinityMagnitude = magnitude.Abs()
	activeInfinityPublished = true
}

// InftyFinish releases the published infinity magnitude. Callers
// should defer this immediately after a successful InftyStart so the
// lifecycle is honored on every exit path, including panics.
func InftyFinish() {
	activeInfinityMu.Lock()
	defer activeInfinityMu.Unlock()
	activeInfinityPublished = false
	activeInfinityMagnitude = Rational{}
}

// ActiveInfinity returns the currently published infinity magnitude and
// whether one has been published at all.
func ActiveInfinity() (Rational, bool) {
	activeInfinityMu.Lock()
	defer activeInfinityMu.Unlock()
	return activeInfinityMagnitude, activeInfinityPublished
}

// WithinActiveInfinity reports whether q's magnitude is strictly below
// the currently published active infinity. A q that is itself one of
// the sentinels is always within bounds (it is the bound, not a
// coefficient/RHS value subject to it). If no active infinity has been
// published, every finite value passes.
func WithinActiveInfinity(q Rational) bool {
	if q.IsInfinite() {
		return true
	}
	magnitude, ok := ActiveInfinity()
	if !ok {
		return true
	}
	return q.Abs().Cmp(magnitude) < 0
}
