package symbolic

import (
	"fmt"
	"strings"

	"github.com/xDarkicex/deltasat/rational"
)

// PrintExpr renders id in canonical parenthesized prefix form, e.g.
// "(+ 3 (* 2 x) (* 1 y))". It is implemented as one ExprVisitor instance
// (spec.md §4.2: "the prefix printer is one such visitor"), used both
// for diagnostics and as the round-trip test oracle.
func PrintExpr(s *Store, id ExprID) string {
	return DispatchExpr(s, id, ExprVisitor[string]{
		Constant: func(q rational.Rational) string { return q.String() },
		Var:      func(v Variable) string { return v.Name() },
		Add: func(c0 rational.Rational, terms []Term) string {
			parts := []string{}
			if !c0.IsZero() {
				parts = append(parts, c0.String())
			}
			for _, t := range terms {
				parts = append(parts, fmt.Sprintf("(* %s %s)", t.Coeff.String(), PrintExpr(s, t.Sub)))
			}
			if len(parts) == 0 {
				return "0"
			}
			return "(+ " + strings.Join(parts, " ") + ")"
		},
		Mul: func(c0 rational.Rational, factors []Factor) string {
			parts := []string{}
			cs := c0.String()
			if cs != "1" {
				parts = append(parts, cs)
			}
			for _, f := range factors {
				if f.Exp == 1 {
					parts = append(parts, PrintExpr(s, f.Base))
				} else {
					parts = append(parts, fmt.Sprintf("(^ %s %d)", PrintExpr(s, f.Base), f.Exp))
				}
			}
			return "(* " + strings.Join(parts, " ") + ")"
		},
		IfThenElse: func(cond, then, els ExprID) string {
			return fmt.Sprintf("(ite %d %s %s)", cond, PrintExpr(s, then), PrintExpr(s, els))
		},
		UninterpretedFunction: func(name string, args []ExprID) string {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = PrintExpr(s, a)
			}
			return "(" + name + " " + strings.Join(parts, " ") + ")"
		},
		Transcendental: func(name string, args []ExprID) string {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = PrintExpr(s, a)
			}
			return "(" + name + " " + strings.Join(parts, " ") + ")"
		},
	})
}

// PrintFormula renders id in canonical parenthesized prefix form.
func PrintFormula(s *FormulaStore, id FormulaID) string {
	return DispatchFormula(s, id, FormulaVisitor[string]{
		False:   func() string { return "false" },
		True:    func() string { return "true" },
		BoolVar: func(v Variable) string { return v.Name() },
		Atom: func(op AtomOp, lhs, rhs ExprID) string {
			return fmt.Sprintf("(%s %s %s)", op, PrintExpr(s.Exprs(), lhs), PrintExpr(s.Exprs(), rhs))
		},
		And: func(operands []FormulaID) string { return joinFormulas(s, "and", operands) },
		Or:  func(operands []FormulaID) string { return joinFormulas(s, "or", operands) },
		Not: func(f FormulaID) string { return fmt.Sprintf("(not %s)", PrintFormula(s, f)) },
		Forall: func(bound []Variable, body FormulaID) string {
			names := make([]string, len(bound))
			for i, v := range bound {
				names[i] = v.Name()
			}
			return fmt.Sprintf("(forall (%s) %s)", strings.Join(names, " "), PrintFormula(s, body))
		},
	})
}

func joinFormulas(s *FormulaStore, op string, operands []FormulaID) string {
	parts := make([]string, len(operands))
	for i, o := range operands {
		parts[i] = PrintFormula(s, o)
	}
	return "(" + op + " " + strings.Join(parts, " ") + ")"
}
