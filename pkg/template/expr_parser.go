// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"strconv"
	"strings"

	"carvel.dev/kiln/pkg/filepos"
)

// exprParser is a recursive descent parser over tokens of a single tag.
// Precedence (low to high): or, and, not, comparison/test, ~, filter, postfix.
type exprParser struct {
	code   string
	tokens []token
	idx    int
	posAt  func(offset int) *filepos.Position
}

func newExprParser(code string, tokens []token, posAt func(int) *filepos.Position) *exprParser {
	return &exprParser{code: code, tokens: tokens, posAt: posAt}
}

func (p *exprParser) peek() token { return p.tokens[p.idx] }

func (p *exprParser) next() token {
	tok := p.tokens[p.idx]
	if tok.kind != tokenEOF {
		p.idx++
	}
	return tok
}

func (p *exprParser) base(start token) exprBase {
	end := start.end
	if p.idx > 0 {
		end = p.tokens[p.idx-1].end
	}
	if end < start.start {
		end = start.start
	}
	return exprBase{pos: p.posAt(start.start), src: p.code[start.start:end]}
}

func (p *exprParser) errorAt(tok token, msg string, args ...interface{}) error {
	return newErr(p.posAt(tok.start), strings.TrimSpace(p.code), msg, args...)
}

func (p *exprParser) expectOp(op string) error {
	tok := p.next()
	if !tok.isOp(op) {
		return p.errorAt(tok, "Expected '%s', but found %s", op, tok.describe())
	}
	return nil
}

func (p *exprParser) expectIdent() (token, error) {
	tok := p.next()
	if tok.kind != tokenIdent {
		return tok, p.errorAt(tok, "Expected identifier, but found %s", tok.describe())
	}
	return tok, nil
}

func (p *exprParser) expectEnd() error {
	tok := p.peek()
	if tok.kind != tokenEOF {
		return p.errorAt(tok, "Unexpected %s", tok.describe())
	}
	return nil
}

func (p *exprParser) parseExpr() (Expr, error) { return p.parseOr() }

func (p *exprParser) parseOr() (Expr, error) {
	start := p.peek()
	x, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().isKeyword("or") {
		p.next()
		y, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		x = &ExprBinary{exprBase: p.base(start), Op: "or", X: x, Y: y}
	}
	return x, nil
}

func (p *exprParser) parseAnd() (Expr, error) {
	start := p.peek()
	x, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().isKeyword("and") {
		p.next()
		y, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		x = &ExprBinary{exprBase: p.base(start), Op: "and", X: x, Y: y}
	}
	return x, nil
}

func (p *exprParser) parseNot() (Expr, error) {
	start := p.peek()
	if start.isKeyword("not") {
		p.next()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ExprNot{exprBase: p.base(start), X: x}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[string]struct{}{
	"==": {}, "!=": {}, "<": {}, "<=": {}, ">": {}, ">=": {},
}

func (p *exprParser) parseComparison() (Expr, error) {
	start := p.peek()
	x, err := p.parseConcat()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()

		switch {
		case tok.kind == tokenOp:
			if _, found := comparisonOps[tok.val]; !found {
				return x, nil
			}
			p.next()
			y, err := p.parseConcat()
			if err != nil {
				return nil, err
			}
			x = &ExprBinary{exprBase: p.base(start), Op: tok.val, X: x, Y: y}

		case tok.isKeyword("in"):
			p.next()
			y, err := p.parseConcat()
			if err != nil {
				return nil, err
			}
			x = &ExprBinary{exprBase: p.base(start), Op: "in", X: x, Y: y}

		case tok.isKeyword("not") && p.tokens[p.idx+1].isKeyword("in"):
			p.next()
			p.next()
			y, err := p.parseConcat()
			if err != nil {
				return nil, err
			}
			x = &ExprBinary{exprBase: p.base(start), Op: "not in", X: x, Y: y}

		case tok.isKeyword("is"):
			p.next()
			negated := false
			if p.peek().isKeyword("not") {
				p.next()
				negated = true
			}
			nameTok, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			x = &ExprTest{exprBase: p.base(start), X: x, Name: nameTok.val, Negated: negated}

		default:
			return x, nil
		}
	}
}

func (p *exprParser) parseConcat() (Expr, error) {
	start := p.peek()
	x, err := p.parseFilter()
	if err != nil {
		return nil, err
	}
	for p.peek().isOp("~") {
		p.next()
		y, err := p.parseFilter()
		if err != nil {
			return nil, err
		}
		x = &ExprBinary{exprBase: p.base(start), Op: "~", X: x, Y: y}
	}
	return x, nil
}

func (p *exprParser) parseFilter() (Expr, error) {
	start := p.peek()
	x, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	for p.peek().isOp("|") {
		p.next()
		nameTok, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		var args []Expr
		if p.peek().isOp("(") {
			p.next()
			args, err = p.parseArgs(")")
			if err != nil {
				return nil, err
			}
		}
		x = &ExprFilter{exprBase: p.base(start), Target: x, Name: nameTok.val, Args: args}
	}
	return x, nil
}

func (p *exprParser) parsePostfix() (Expr, error) {
	start := p.peek()
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		switch {
		case tok.isOp("."):
			p.next()
			nameTok, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			x = &ExprAttr{exprBase: p.base(start), Target: x, Name: nameTok.val}

		case tok.isOp("["):
			p.next()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp("]"); err != nil {
				return nil, err
			}
			x = &ExprIndex{exprBase: p.base(start), Target: x, Index: idx}

		case tok.isOp("("):
			p.next()
			args, err := p.parseArgs(")")
			if err != nil {
				return nil, err
			}
			x = &ExprCall{exprBase: p.base(start), Callee: x, Args: args}

		default:
			return x, nil
		}
	}
}

// parseArgs parses comma separated expressions after opening bracket
func (p *exprParser) parseArgs(closing string) ([]Expr, error) {
	var args []Expr
	for {
		if p.peek().isOp(closing) {
			p.next()
			return args, nil
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		tok := p.next()
		switch {
		case tok.isOp(closing):
			return args, nil
		case tok.isOp(","):
			continue
		default:
			return nil, p.errorAt(tok, "Expected ',' or '%s', but found %s", closing, tok.describe())
		}
	}
}

func (p *exprParser) parsePrimary() (Expr, error) {
	tok := p.next()

	switch tok.kind {
	case tokenString:
		return &ExprLiteral{exprBase: p.base(tok), Value: tok.val}, nil

	case tokenInt:
		val, err := parseIntToken(tok)
		if err != nil {
			return nil, p.errorAt(tok, "Invalid integer literal '%s'", tok.val)
		}
		return &ExprLiteral{exprBase: p.base(tok), Value: val}, nil

	case tokenFloat:
		val, err := strconv.ParseFloat(tok.val, 64)
		if err != nil {
			return nil, p.errorAt(tok, "Invalid float literal '%s'", tok.val)
		}
		return &ExprLiteral{exprBase: p.base(tok), Value: val}, nil

	case tokenIdent:
		switch tok.val {
		case "true", "True":
			return &ExprLiteral{exprBase: p.base(tok), Value: true}, nil
		case "false", "False":
			return &ExprLiteral{exprBase: p.base(tok), Value: false}, nil
		case "none", "None":
			return &ExprLiteral{exprBase: p.base(tok), Value: nil}, nil
		case "and", "or", "not", "in", "is":
			return nil, p.errorAt(tok, "Unexpected keyword '%s'", tok.val)
		}
		return &ExprName{exprBase: p.base(tok), Name: tok.val}, nil

	case tokenOp:
		switch tok.val {
		case "(":
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return x, nil
		case "[":
			items, err := p.parseArgs("]")
			if err != nil {
				return nil, err
			}
			return &ExprList{exprBase: p.base(tok), Items: items}, nil
		}
	}

	return nil, p.errorAt(tok, "Unexpected %s", tok.describe())
}
