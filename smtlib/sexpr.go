package smtlib

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/xDarkicex/deltasat/dlerr"
)

// SExpr is a parenthesized-list or atom node, the universal shape of
// SMT-LIB2 syntax. Assert/Minimize commands carry one of these in
// Command.Expr.
type SExpr struct {
	Atom string   // set for a leaf; List is nil
	List []*SExpr // set for a parenthesized form; Atom is ""
}

func (e *SExpr) IsAtom() bool { return e.List == nil }

// SExprParser is the stdlib-only fallback Parser. No SMT-LIB2 grammar
// was retrieved anywhere in the corpus (it is not the kind of thing a
// Go production service implements — SMT-LIB2 front ends are
// generated from flex/bison grammars in the systems this module is
// modeled on), so this tokenizer is hand-written against the
// standard library rather than grounded in a pack example; it covers
// only the command subset spec.md §6 names and nothing of the full
// SMT-LIB2 language (no let, no quantifiers, no attributes).
type SExprParser struct{}

func (SExprParser) Parse(r io.Reader) ([]Command, error) {
	toks, err := tokenize(r)
	if err != nil {
		return nil, err
	}
	var cmds []Command
	for len(toks) > 0 {
		expr, rest, err := readSExpr(toks)
		if err != nil {
			return nil, err
		}
		toks = rest
		cmd, err := toCommand(expr)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func tokenize(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var toks []string
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, ";"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.ReplaceAll(line, "(", " ( ")
		line = strings.ReplaceAll(line, ")", " ) ")
		toks = append(toks, strings.Fields(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, dlerr.Wrap(dlerr.KindParse, "smtlib.Parse", "scanning script", err)
	}
	return toks, nil
}

func readSExpr(toks []string) (*SExpr, []string, error) {
	if len(toks) == 0 {
		return nil, nil, dlerr.New(dlerr.KindParse, "smtlib.Parse", "unexpected end of input")
	}
	head, rest := toks[0], toks[1:]
	if head == "(" {
		var list []*SExpr
		for {
			if len(rest) == 0 {
				return nil, nil, dlerr.New(dlerr.KindParse, "smtlib.Parse", "unterminated list")
			}
			if rest[0] == ")" {
				return &SExpr{List: list}, rest[1:], nil
			}
			var child *SExpr
			var err error
			child, rest, err = readSExpr(rest)
			if err != nil {
				return nil, nil, err
			}
			list = append(list, child)
		}
	}
	if head == ")" {
		return nil, nil, dlerr.New(dlerr.KindParse, "smtlib.Parse", "unexpected ')'")
	}
	return &SExpr{Atom: head}, rest, nil
}

func toCommand(e *SExpr) (Command, error) {
	if e.IsAtom() || len(e.List) == 0 {
		return Command{}, dlerr.New(dlerr.KindParse, "smtlib.Parse", "expected a top-level form")
	}
	head := e.List[0]
	if !head.IsAtom() {
		return Command{}, dlerr.New(dlerr.KindParse, "smtlib.Parse", "command head must be an atom")
	}
	args := e.List[1:]

	switch head.Atom {
	case "set-logic":
		if len(args) != 1 {
			return Command{}, argError("set-logic", 1, len(args))
		}
		return Command{Kind: SetLogic, Logic: args[0].Atom}, nil
	case "declare-const":
		if len(args) != 2 {
			return Command{}, argError("declare-const", 2, len(args))
		}
		return Command{Kind: DeclareConst, Name: args[0].Atom, Sort: SortName(args[1].Atom)}, nil
	case "declare-fun":
		if len(args) != 3 {
			return Command{}, argError("declare-fun", 3, len(args))
		}
		if len(args[1].List) != 0 {
			return Command{}, dlerr.New(dlerr.KindUnsupportedExpression, "smtlib.Parse", "declare-fun only supports arity-0 numeric declarations")
		}
		return Command{Kind: DeclareFun, Name: args[0].Atom, Sort: SortName(args[2].Atom)}, nil
	case "assert":
		if len(args) != 1 {
			return Command{}, argError("assert", 1, len(args))
		}
		return Command{Kind: Assert, Expr: args[0]}, nil
	case "minimize":
		if len(args) != 1 {
			return Command{}, argError("minimize", 1, len(args))
		}
		return Command{Kind: Minimize, Expr: args[0]}, nil
	case "check-sat":
		return Command{Kind: CheckSat}, nil
	case "get-model":
		return Command{Kind: GetModel}, nil
	case "push":
		return Command{Kind: Push}, nil
	case "pop":
		return Command{Kind: Pop}, nil
	case "exit":
		return Command{Kind: Exit}, nil
	default:
		return Command{}, dlerr.New(dlerr.KindParse, "smtlib.Parse", fmt.Sprintf("unsupported command %q", head.Atom))
	}
}

func argError(cmd string, want, got int) error {
	return dlerr.New(dlerr.KindParse, "smtlib.Parse", fmt.Sprintf("%s expects %d argument(s), got %d", cmd, want, got))
}
