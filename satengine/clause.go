package satengine

import "github.com/xDarkicex/deltasat/cnfize"

// Clause is a CDCL clause: the teacher package's sat.Clause narrowed
// to integer literals and to the fields this engine's learning loop
// actually consults (LBD/activity/tier bookkeeping is a clause-deletion
// policy the teacher implements that spec.md does not require; it is
// left for a future inprocessor rather than carried unused).
type Clause struct {
	ID       int
	Literals []cnfize.Literal
	Learned  bool
}

func newClause(id int, lits []cnfize.Literal, learned bool) *Clause {
	return &Clause{ID: id, Literals: lits, Learned: learned}
}

// IsUnit reports whether the clause has exactly one literal.
func (c *Clause) IsUnit() bool { return len(c.Literals) == 1 }

// IsEmpty reports whether the clause is the empty clause.
func (c *Clause) IsEmpty() bool { return len(c.Literals) == 0 }
