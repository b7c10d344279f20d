package smtlib

import (
	"fmt"

	"github.com/xDarkicex/deltasat/box"
	"github.com/xDarkicex/deltasat/dlerr"
	"github.com/xDarkicex/deltasat/engine"
	"github.com/xDarkicex/deltasat/rational"
	"github.com/xDarkicex/deltasat/symbolic"
)

// Result is the observable output of one check-sat/get-model command,
// the shape cmd/deltasat renders to standard output (spec.md §6).
type Result struct {
	Verdict   engine.Verdict
	Model     *box.Box // nil for unsat, or when no (get-model) followed
	Precision rational.Rational
}

// Interpreter drives an engine.Context from a Command stream. It owns
// no parser: Run is handed an already-parsed []Command, so any Parser
// implementation (the built-in SExprParser or an external one) can
// feed it.
type Interpreter struct {
	ctx     *engine.Context
	results []Result
	lastBox *box.Box
	done    bool
}

// NewInterpreter wraps ctx; the caller owns ctx's lifetime (Close it
// when done).
func NewInterpreter(ctx *engine.Context) *Interpreter {
	return &Interpreter{ctx: ctx}
}

// Results returns every check-sat result observed so far, in order.
func (in *Interpreter) Results() []Result { return in.results }

// Run executes cmds in order, stopping early on `exit` or the first
// error.
func (in *Interpreter) Run(cmds []Command) error {
	for _, cmd := range cmds {
		if in.done {
			return nil
		}
		if err := in.exec(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) exec(cmd Command) error {
	switch cmd.Kind {
	case SetLogic:
		return nil // QF_LRA/QF_LIA only; nothing to configure per-logic
	case DeclareConst, DeclareFun:
		kind, err := kindFor(cmd.Sort)
		if err != nil {
			return err
		}
		_, err = in.ctx.DeclareVariable(cmd.Name, kind)
		return err
	case Assert:
		f, err := in.formula(cmd.Expr)
		if err != nil {
			return err
		}
		return in.ctx.Assert(f)
	case Minimize:
		e, err := in.expr(cmd.Expr)
		if err != nil {
			return err
		}
		return in.ctx.Minimize(e)
	case CheckSat:
		verdict, model, err := in.ctx.CheckSat()
		if err != nil {
			return err
		}
		in.lastBox = model
		in.results = append(in.results, Result{Verdict: verdict, Precision: in.ctx.ActualPrecision()})
		return nil
	case GetModel:
		if n := len(in.results); n > 0 {
			in.results[n-1].Model = in.lastBox
		}
		return nil
	case Push:
		return in.ctx.Push()
	case Pop:
		return in.ctx.Pop()
	case Exit:
		in.done = true
		return nil
	default:
		return dlerr.New(dlerr.KindParse, "smtlib.exec", fmt.Sprintf("unhandled command kind %v", cmd.Kind))
	}
}

func kindFor(s SortName) (symbolic.Kind, error) {
	switch s {
	case SortReal:
		return symbolic.Continuous, nil
	case SortInt:
		return symbolic.Integer, nil
	case SortBool:
		return symbolic.Boolean, nil
	default:
		return 0, dlerr.New(dlerr.KindParse, "smtlib.kindFor", fmt.Sprintf("unsupported sort %q", s))
	}
}

// formula lowers a parsed S-expression into a FormulaID: Boolean
// connectives (and/or/not), relational atoms (=, <=, >=, <, >), or a
// bare declared Boolean variable.
func (in *Interpreter) formula(raw any) (symbolic.FormulaID, error) {
	e, ok := raw.(*SExpr)
	if !ok {
		return 0, dlerr.New(dlerr.KindParse, "smtlib.formula", "assert/minimize expect an s-expression")
	}
	forms := in.ctx.Forms()

	if e.IsAtom() {
		v, ok := in.ctx.Vars().Lookup(e.Atom)
		if !ok || v.Kind() != symbolic.Boolean {
			return 0, dlerr.New(dlerr.KindUnknownVariable, "smtlib.formula", fmt.Sprintf("%q is not a declared Bool variable", e.Atom))
		}
		return forms.BoolVar(v), nil
	}
	if len(e.List) == 0 {
		return 0, dlerr.New(dlerr.KindParse, "smtlib.formula", "empty form")
	}
	head := e.List[0].Atom
	args := e.List[1:]

	switch head {
	case "and":
		ops, err := in.formulas(args)
		if err != nil {
			return 0, err
		}
		return forms.And(ops), nil
	case "or":
		ops, err := in.formulas(args)
		if err != nil {
			return 0, err
		}
		return forms.Or(ops), nil
	case "not":
		if len(args) != 1 {
			return 0, argError("not", 1, len(args))
		}
		inner, err := in.formula(args[0])
		if err != nil {
			return 0, err
		}
		return forms.Not(inner), nil
	case "=", "<=", ">=", "<", ">":
		if len(args) != 2 {
			return 0, argError(head, 2, len(args))
		}
		lhs, err := in.expr(args[0])
		if err != nil {
			return 0, err
		}
		rhs, err := in.expr(args[1])
		if err != nil {
			return 0, err
		}
		return forms.Atom(opFor(head), lhs, rhs), nil
	default:
		return 0, dlerr.New(dlerr.KindParse, "smtlib.formula", fmt.Sprintf("unsupported boolean form %q", head))
	}
}

func (in *Interpreter) formulas(args []*SExpr) ([]symbolic.FormulaID, error) {
	out := make([]symbolic.FormulaID, 0, len(args))
	for _, a := range args {
		f, err := in.formula(a)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func opFor(tok string) symbolic.AtomOp {
	switch tok {
	case "=":
		return symbolic.OpEq
	case "<=":
		return symbolic.OpLe
	case ">=":
		return symbolic.OpGe
	case "<":
		return symbolic.OpLt
	default:
		return symbolic.OpGt
	}
}

// expr lowers a parsed S-expression into an ExprID over the linear
// fragment: numeric literals, declared numeric variables, n-ary `+`,
// unary/binary `-`, and `*` where one side is a constant.
func (in *Interpreter) expr(raw any) (symbolic.ExprID, error) {
	e, ok := raw.(*SExpr)
	if !ok {
		return 0, dlerr.New(dlerr.KindParse, "smtlib.expr", "expected an s-expression")
	}
	exprs := in.ctx.Exprs()

	if e.IsAtom() {
		if q, err := rational.FromDecimal(e.Atom); err == nil {
			return exprs.Constant(q), nil
		}
		v, ok := in.ctx.Vars().Lookup(e.Atom)
		if !ok {
			return 0, dlerr.New(dlerr.KindUnknownVariable, "smtlib.expr", fmt.Sprintf("%q is not a declared numeric variable", e.Atom))
		}
		return exprs.Var(v), nil
	}
	if len(e.List) == 0 {
		return 0, dlerr.New(dlerr.KindParse, "smtlib.expr", "empty form")
	}
	head := e.List[0].Atom
	args := e.List[1:]

	switch head {
	case "+":
		c0 := rational.Zero()
		var terms []symbolic.Term
		for _, a := range args {
			sub, err := in.expr(a)
			if err != nil {
				return 0, err
			}
			if exprs.IsConstant(sub) {
				c0 = c0.Add(exprs.AsConstant(sub))
				continue
			}
			terms = append(terms, symbolic.Term{Sub: sub, Coeff: rational.FromInt64(1)})
		}
		return exprs.Add(c0, terms), nil
	case "-":
		if len(args) == 1 {
			sub, err := in.expr(args[0])
			if err != nil {
				return 0, err
			}
			return exprs.Add(rational.Zero(), []symbolic.Term{{Sub: sub, Coeff: rational.FromInt64(-1)}}), nil
		}
		if len(args) != 2 {
			return 0, argError("-", 2, len(args))
		}
		lhs, err := in.expr(args[0])
		if err != nil {
			return 0, err
		}
		rhs, err := in.expr(args[1])
		if err != nil {
			return 0, err
		}
		return exprs.Add(rational.Zero(), []symbolic.Term{
			{Sub: lhs, Coeff: rational.FromInt64(1)},
			{Sub: rhs, Coeff: rational.FromInt64(-1)},
		}), nil
	case "*":
		if len(args) != 2 {
			return 0, argError("*", 2, len(args))
		}
		lhs, err := in.expr(args[0])
		if err != nil {
			return 0, err
		}
		rhs, err := in.expr(args[1])
		if err != nil {
			return 0, err
		}
		switch {
		case exprs.IsConstant(lhs):
			return exprs.Add(rational.Zero(), []symbolic.Term{{Sub: rhs, Coeff: exprs.AsConstant(lhs)}}), nil
		case exprs.IsConstant(rhs):
			return exprs.Add(rational.Zero(), []symbolic.Term{{Sub: lhs, Coeff: exprs.AsConstant(rhs)}}), nil
		default:
			return 0, dlerr.New(dlerr.KindUnsupportedExpression, "smtlib.expr", "product of two non-constant terms is nonlinear")
		}
	default:
		return 0, dlerr.New(dlerr.KindParse, "smtlib.expr", fmt.Sprintf("unsupported arithmetic form %q", head))
	}
}
