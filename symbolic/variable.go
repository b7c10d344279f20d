// Package symbolic implements the hash-consed expression and formula
// layer (spec.md §3, §4.2): variables, algebraic expression trees over
// exact rationals, Boolean-combination formulas, a generic visitor
// dispatch, and the canonical prefix printer used both for diagnostics
// and as the round-trip test oracle.
//
// Expressions and formulas form a DAG, never a cycle (formulas over
// expressions are strictly layered), so both are modeled as an arena
// of nodes addressed by a small integer id, with a hash-consing table
// keyed by structural hash ensuring equal expressions share one node -
// the same "tagged variant + dispatch function" shape the teacher
// package used for its AST, generalized from Boolean-only nodes to
// arithmetic ones.
package symbolic

import "fmt"

// Kind is the type of a numeric or Boolean variable.
type Kind int

const (
	Continuous Kind = iota
	Integer
	Binary
	Boolean
)

func (k Kind) String() string {
	switch k {
	case Continuous:
		return "Real"
	case Integer:
		return "Int"
	case Binary:
		return "Binary"
	case Boolean:
		return "Bool"
	default:
		return "?"
	}
}

// VarID is a stable identity for a Variable within the VarTable that
// created it. Two Variable values with the same ID denote the same
// variable.
type VarID uint32

// Variable is a printable, typed handle interned by a VarTable. It is
// a small value type: copying a Variable never copies identity, only
// the handle.
type Variable struct {
	id   VarID
	name string
	kind Kind
}

// ID returns the variable's stable identity.
func (v Variable) ID() VarID { return v.id }

// Name returns the variable's printable name.
func (v Variable) Name() string { return v.name }

// Kind returns the variable's declared type.
func (v Variable) Kind() Kind { return v.kind }

// IsNumeric reports whether v ranges over a numeric domain (Continuous
// or Integer/Binary), as opposed to Boolean.
func (v Variable) IsNumeric() bool { return v.kind != Boolean }

func (v Variable) String() string { return v.name }

// VarTable interns variables for the lifetime of one solve. A fresh
// table is owned by each engine.Context; spec.md's "process-wide
// table" is realized per-context here so that independent contexts
// (spec.md §5: "distinct contexts are independent") never alias ids -
// a single literal process-wide global would make tests that run
// multiple solves concurrently share identities by accident.
type VarTable struct {
	byName map[string]VarID
	vars   []Variable
}

// NewVarTable creates an empty interning table.
func NewVarTable() *VarTable {
	return &VarTable{byName: make(map[string]VarID)}
}

// Declare interns a variable by name, returning the existing handle if
// the name was already declared with the same Kind, or an error if the
// name is reused with a different Kind.
func (t *VarTable) Declare(name string, kind Kind) (Variable, error) {
	if id, ok := t.byName[name]; ok {
		existing := t.vars[id]
		if existing.kind != kind {
			return Variable{}, fmt.Errorf("symbolic: %q already declared as %s, cannot redeclare as %s", name, existing.kind, kind)
		}
		return existing, nil
	}
	id := VarID(len(t.vars))
	v := Variable{id: id, name: name, kind: kind}
	t.vars = append(t.vars, v)
	t.byName[name] = id
	return v, nil
}

// Lookup returns the variable with the given name, if declared.
func (t *VarTable) Lookup(name string) (Variable, bool) {
	id, ok := t.byName[name]
	if !ok {
		return Variable{}, false
	}
	return t.vars[id], true
}

// ByID returns the variable with the given id. Panics on an id never
// returned by this table (a programmer error, not a user-facing one).
func (t *VarTable) ByID(id VarID) Variable { return t.vars[id] }

// Len returns the number of interned variables.
func (t *VarTable) Len() int { return len(t.vars) }

// All returns every declared variable in declaration order.
func (t *VarTable) All() []Variable {
	out := make([]Variable, len(t.vars))
	copy(out, t.vars)
	return out
}
