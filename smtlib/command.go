// Package smtlib defines the SMT-LIB2 command surface named in
// spec.md §6: the command stream a front-end parser turns script text
// into, and the contract a parser must satisfy to be driven by this
// module's engine. No production SMT-LIB2 grammar ships here — the
// corpus carries no retrieved SMT-LIB2 front end to learn from, so
// this package only fixes the shape a real parser plugs into, plus a
// minimal fallback (sexpr.go) sufficient to drive the solver from the
// command line.
package smtlib

import "io"

// Kind discriminates the command subset spec.md §6 names: set-logic,
// declare-const, declare-fun (arity 0), assert, check-sat, get-model,
// minimize, push, pop, exit.
type Kind int

const (
	SetLogic Kind = iota
	DeclareConst
	DeclareFun
	Assert
	CheckSat
	GetModel
	Minimize
	Push
	Pop
	Exit
)

func (k Kind) String() string {
	switch k {
	case SetLogic:
		return "set-logic"
	case DeclareConst:
		return "declare-const"
	case DeclareFun:
		return "declare-fun"
	case Assert:
		return "assert"
	case CheckSat:
		return "check-sat"
	case GetModel:
		return "get-model"
	case Minimize:
		return "minimize"
	case Push:
		return "push"
	case Pop:
		return "pop"
	case Exit:
		return "exit"
	default:
		return "unknown"
	}
}

// SortName is the subset of SMT-LIB2 sorts spec.md §6 supports, for
// arity-0 declarations only: Real and Int, plus Bool.
type SortName string

const (
	SortReal SortName = "Real"
	SortInt  SortName = "Int"
	SortBool SortName = "Bool"
)

// Command is one parsed top-level SMT-LIB2 form. Only the fields
// relevant to Kind are populated; this is the same "tagged struct"
// shape the symbolic package's Expr/Formula nodes use.
type Command struct {
	Kind Kind

	// SetLogic
	Logic string

	// DeclareConst / DeclareFun
	Name string
	Sort SortName

	// Assert / Minimize: an S-expression in the minimal surface syntax
	// a Parser's Interpret-adjacent caller understands. The concrete
	// shape is parser-defined; the built-in sexpr.go parser produces
	// *SExpr trees (see sexpr.go).
	Expr any
}

// Parser turns SMT-LIB2 script text into a Command stream. Real
// SMT-LIB2 parsing (full grammar, let/quantifiers, attributes) is
// expected to be supplied externally; Interpreter only depends on
// this narrow contract so any conforming parser can drive the solver.
type Parser interface {
	Parse(r io.Reader) ([]Command, error)
}
