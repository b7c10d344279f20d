package symbolic

import (
	"fmt"
	"strings"

	"github.com/xDarkicex/deltasat/dlerr"
	"github.com/xDarkicex/deltasat/rational"
)

// Parser reads the canonical prefix form PrintExpr/PrintFormula
// produce back into the DAG, resolving variable names against vars.
// It is a small recursive-descent reader in the style of the teacher
// package's lexer/parser pair, narrowed from infix Boolean syntax to
// the prefix arithmetic grammar this package actually emits; it exists
// to support the round-trip testable property in spec.md §8, not as a
// substitute for the SMT-LIB2 front end (an external collaborator per
// spec.md §1).
type Parser struct {
	exprs *Store
	forms *FormulaStore
	vars  *VarTable
	toks  []token
	pos   int
}

type tokenKind int

const (
	tokLParen tokenKind = iota
	tokRParen
	tokAtom
	tokEOF
)

type token struct {
	kind tokenKind
	text string
}

// NewParser creates a parser that resolves identifiers against vars
// and builds nodes in exprs/forms.
func NewParser(exprs *Store, forms *FormulaStore, vars *VarTable) *Parser {
	return &Parser{exprs: exprs, forms: forms, vars: vars}
}

func tokenize(src string) []token {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen})
			i++
		default:
			start := i
			for i < len(src) && !strings.ContainsRune(" \t\n\r()", rune(src[i])) {
				i++
			}
			toks = append(toks, token{kind: tokAtom, text: src[start:i]})
		}
	}
	toks = append(toks, token{kind: tokEOF})
	return toks
}

func (p *Parser) peek() token { return p.toks[p.pos] }
func (p *Parser) next() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// ParseExpr parses one prefix expression from src.
func (p *Parser) ParseExpr(src string) (ExprID, error) {
	p.toks = tokenize(src)
	p.pos = 0
	id, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.peek().kind != tokEOF {
		return 0, dlerr.New(dlerr.KindParse, "symbolic.ParseExpr", "trailing tokens after expression")
	}
	return id, nil
}

// ParseFormula parses one prefix formula from src.
func (p *Parser) ParseFormula(src string) (FormulaID, error) {
	p.toks = tokenize(src)
	p.pos = 0
	id, err := p.parseFormula()
	if err != nil {
		return 0, err
	}
	if p.peek().kind != tokEOF {
		return 0, dlerr.New(dlerr.KindParse, "symbolic.ParseFormula", "trailing tokens after formula")
	}
	return id, nil
}

func (p *Parser) parseExpr() (ExprID, error) {
	t := p.next()
	switch t.kind {
	case tokAtom:
		if q, err := rational.FromDecimal(t.text); err == nil {
			return p.exprs.Constant(q), nil
		}
		v, ok := p.vars.Lookup(t.text)
		if !ok {
			return 0, dlerr.WithDetail(dlerr.KindParse, "symbolic.parseExpr", "undeclared variable", t.text)
		}
		return p.exprs.Var(v), nil
	case tokLParen:
		head := p.next()
		if head.kind != tokAtom {
			return 0, dlerr.New(dlerr.KindParse, "symbolic.parseExpr", "expected operator after '('")
		}
		switch head.text {
		case "+":
			// PrintExpr writes an Add as its constant followed by one
			// "(* coeff sub)" per term; fold both back into c0 and the
			// coefficient map so the rebuilt node is the printed one.
			c0 := rational.Zero()
			var terms []Term
			for p.peek().kind != tokRParen {
				sub, err := p.parseExpr()
				if err != nil {
					return 0, err
				}
				k, ts := p.exprs.CoefficientMap(sub)
				if p.exprs.IsConstant(sub) || (p.exprs.IsMultiplication(sub) && ts != nil) {
					c0 = c0.Add(k)
					terms = append(terms, ts...)
					continue
				}
				terms = append(terms, Term{Sub: sub, Coeff: rational.FromInt64(1)})
			}
			p.next() // ')'
			return p.exprs.Add(c0, terms), nil
		case "*":
			var operands []ExprID
			for p.peek().kind != tokRParen {
				sub, err := p.parseExpr()
				if err != nil {
					return 0, err
				}
				operands = append(operands, sub)
			}
			p.next()
			return p.buildProduct(operands)
		default:
			return 0, dlerr.WithDetail(dlerr.KindParse, "symbolic.parseExpr", "unsupported operator", head.text)
		}
	default:
		return 0, dlerr.New(dlerr.KindParse, "symbolic.parseExpr", "unexpected token")
	}
}

// buildProduct folds a flat list of parsed factors into the canonical
// c0 * Π base^1 shape PrintExpr emits: at most one leading constant,
// the rest are plain variables/sub-expressions with exponent 1.
func (p *Parser) buildProduct(operands []ExprID) (ExprID, error) {
	c0 := rational.FromInt64(1)
	var factors []Factor
	for _, o := range operands {
		if p.exprs.IsConstant(o) {
			c0 = c0.Mul(p.exprs.AsConstant(o))
			continue
		}
		factors = append(factors, Factor{Base: o, Exp: 1})
	}
	return p.exprs.Mul(c0, factors), nil
}

func (p *Parser) parseFormula() (FormulaID, error) {
	t := p.next()
	switch t.kind {
	case tokAtom:
		switch t.text {
		case "true":
			return p.forms.True(), nil
		case "false":
			return p.forms.False(), nil
		}
		v, ok := p.vars.Lookup(t.text)
		if !ok {
			return 0, dlerr.WithDetail(dlerr.KindParse, "symbolic.parseFormula", "undeclared boolean variable", t.text)
		}
		return p.forms.BoolVar(v), nil
	case tokLParen:
		head := p.next()
		if head.kind != tokAtom {
			return 0, dlerr.New(dlerr.KindParse, "symbolic.parseFormula", "expected operator after '('")
		}
		switch head.text {
		case "and", "or":
			var operands []FormulaID
			for p.peek().kind != tokRParen {
				sub, err := p.parseFormula()
				if err != nil {
					return 0, err
				}
				operands = append(operands, sub)
			}
			p.next()
			if head.text == "and" {
				return p.forms.And(operands), nil
			}
			return p.forms.Or(operands), nil
		case "not":
			sub, err := p.parseFormula()
			if err != nil {
				return 0, err
			}
			if p.peek().kind != tokRParen {
				return 0, dlerr.New(dlerr.KindParse, "symbolic.parseFormula", "expected ')' after not operand")
			}
			p.next()
			return p.forms.Not(sub), nil
		case "=", "distinct", ">", ">=", "<", "<=":
			lhs, err := p.parseExpr()
			if err != nil {
				return 0, err
			}
			rhs, err := p.parseExpr()
			if err != nil {
				return 0, err
			}
			if p.peek().kind != tokRParen {
				return 0, dlerr.New(dlerr.KindParse, "symbolic.parseFormula", "expected ')' after atom")
			}
			p.next()
			op, err := atomOpFromToken(head.text)
			if err != nil {
				return 0, err
			}
			return p.forms.Atom(op, lhs, rhs), nil
		default:
			return 0, dlerr.WithDetail(dlerr.KindParse, "symbolic.parseFormula", "unsupported operator", head.text)
		}
	default:
		return 0, dlerr.New(dlerr.KindParse, "symbolic.parseFormula", "unexpected token")
	}
}

func atomOpFromToken(s string) (AtomOp, error) {
	switch s {
	case "=":
		return OpEq, nil
	case "distinct":
		return OpNeq, nil
	case ">":
		return OpGt, nil
	case ">=":
		return OpGe, nil
	case "<":
		return OpLt, nil
	case "<=":
		return OpLe, nil
	default:
		return 0, fmt.Errorf("symbolic: unknown atom operator %q", s)
	}
}
