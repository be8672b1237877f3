// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"strings"

	"carvel.dev/kiln/pkg/filepos"
)

// Template is a parsed template ready to be executed against a Context
type Template struct {
	name  string
	nodes []Node
}

func (t *Template) Name() string  { return t.name }
func (t *Template) Nodes() []Node { return t.nodes }

type Parser struct{}

func NewParser() *Parser { return &Parser{} }

func (p *Parser) Parse(data []byte, name string) (*Template, error) {
	scanner := newScanner(string(data), name)

	pieces, err := scanner.Scan()
	if err != nil {
		return nil, err
	}

	bp := &blockParser{pieces: pieces, scanner: scanner}

	nodes, term, err := bp.parseBlock()
	if err != nil {
		return nil, err
	}
	if term != nil {
		return nil, newErr(term.piece.Position, "", "Unexpected '{%% %s %%}'", term.keyword)
	}

	return &Template{name: name, nodes: nodes}, nil
}

type blockParser struct {
	pieces  []*piece
	idx     int
	scanner *scanner

	lastKeyword string
	lastHeader  *stmtHeader
}

type stmtHeader struct {
	piece   *piece
	keyword string
	exprs   *exprParser
}

func (h *stmtHeader) source() string { return strings.TrimSpace(h.piece.Content) }

// parseBlock collects nodes until one of ends keywords (which is returned)
// or end of pieces (nil terminator)
func (bp *blockParser) parseBlock(ends ...string) ([]Node, *stmtHeader, error) {
	var nodes []Node

	for bp.idx < len(bp.pieces) {
		piece := bp.pieces[bp.idx]
		bp.idx++

		switch piece.Kind {
		case pieceComment:
			continue

		case pieceText:
			nodes = append(nodes, &NodeText{Position: piece.Position, Content: piece.Content})

		case pieceOutput:
			exprs, err := bp.exprParser(piece)
			if err != nil {
				return nil, nil, err
			}
			if exprs.peek().kind == tokenEOF {
				return nil, nil, newErr(piece.Position, "", "Expected expression inside '{{ }}'")
			}
			expr, err := exprs.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			if err := exprs.expectEnd(); err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, &NodeOutput{Position: piece.Position, Expr: expr})

		case pieceStmt:
			header, err := bp.stmtHeader(piece)
			if err != nil {
				return nil, nil, err
			}
			for _, end := range ends {
				if header.keyword == end {
					return nodes, header, nil
				}
			}

			node, err := bp.parseStmt(header)
			if err != nil {
				return nil, nil, err
			}
			if node != nil {
				nodes = append(nodes, node)
			}

		default:
			panic(fmt.Sprintf("Unknown piece kind %d", piece.Kind))
		}
	}

	return nodes, nil, nil
}

func (bp *blockParser) parseStmt(header *stmtHeader) (Node, error) {
	switch header.keyword {
	case "for":
		return bp.parseFor(header)
	case "if":
		return bp.parseIf(header)
	case "set":
		return bp.parseSet(header)
	case "else", "elif", "endfor", "endif":
		return nil, newErr(header.piece.Position, header.source(), "Unexpected '{%% %s %%}'", header.keyword)
	default:
		return nil, newErr(header.piece.Position, header.source(), "Unknown statement '%s'", header.keyword)
	}
}

func (bp *blockParser) parseFor(header *stmtHeader) (Node, error) {
	exprs := header.exprs

	varTok, err := exprs.expectIdent()
	if err != nil {
		return nil, err
	}
	inTok := exprs.next()
	if !inTok.isKeyword("in") {
		return nil, exprs.errorAt(inTok, "Expected 'in', but found %s", inTok.describe())
	}
	seq, err := exprs.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := exprs.expectEnd(); err != nil {
		return nil, err
	}

	node := &NodeFor{Position: header.piece.Position, Source: header.source(), Var: varTok.val, Seq: seq}

	node.Body, err = bp.parseBody(header, "else", "endfor")
	if err != nil {
		return nil, err
	}
	if bp.lastKeyword == "else" {
		node.Else, err = bp.parseBody(header, "endfor")
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

func (bp *blockParser) parseIf(header *stmtHeader) (Node, error) {
	node := &NodeIf{Position: header.piece.Position}
	branchHeader := header

	for {
		cond, err := branchHeader.exprs.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := branchHeader.exprs.expectEnd(); err != nil {
			return nil, err
		}

		body, err := bp.parseBody(header, "elif", "else", "endif")
		if err != nil {
			return nil, err
		}
		node.Branches = append(node.Branches, NodeIfBranch{Position: branchHeader.piece.Position, Cond: cond, Body: body})

		switch bp.lastKeyword {
		case "elif":
			branchHeader = bp.lastHeader
		case "else":
			node.Else, err = bp.parseBody(header, "endif")
			if err != nil {
				return nil, err
			}
			return node, nil
		default:
			return node, nil
		}
	}
}

func (bp *blockParser) parseSet(header *stmtHeader) (Node, error) {
	exprs := header.exprs

	nameTok, err := exprs.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := exprs.expectOp("="); err != nil {
		return nil, err
	}
	val, err := exprs.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := exprs.expectEnd(); err != nil {
		return nil, err
	}
	return &NodeSet{Position: header.piece.Position, Name: nameTok.val, Value: val}, nil
}

// parseBody parses nested block of opening statement; it fails
// if none of ends keywords is found
func (bp *blockParser) parseBody(opening *stmtHeader, ends ...string) ([]Node, error) {
	nodes, term, err := bp.parseBlock(ends...)
	if err != nil {
		return nil, err
	}
	if term == nil {
		return nil, newErr(opening.piece.Position, opening.source(),
			"Missing '{%% %s %%}' for '{%% %s %%}'", ends[len(ends)-1], opening.keyword)
	}

	switch term.keyword {
	case "else", "endfor", "endif":
		if err := term.exprs.expectEnd(); err != nil {
			return nil, err
		}
	}

	bp.lastKeyword = term.keyword
	bp.lastHeader = term
	return nodes, nil
}

func (bp *blockParser) stmtHeader(piece *piece) (*stmtHeader, error) {
	exprs, err := bp.exprParser(piece)
	if err != nil {
		return nil, err
	}
	kwTok := exprs.next()
	if kwTok.kind != tokenIdent {
		return nil, newErr(piece.Position, strings.TrimSpace(piece.Content), "Expected statement keyword, but found %s", kwTok.describe())
	}
	return &stmtHeader{piece: piece, keyword: kwTok.val, exprs: exprs}, nil
}

func (bp *blockParser) exprParser(piece *piece) (*exprParser, error) {
	posAt := func(offset int) *filepos.Position {
		return bp.scanner.posAt(piece.codeOffset + offset)
	}

	tokens, err := lex(piece.Content)
	if err != nil {
		if lexErr, ok := err.(lexError); ok {
			return nil, newErr(posAt(lexErr.offset), strings.TrimSpace(piece.Content), "%s", lexErr.msg)
		}
		return nil, err
	}

	return newExprParser(piece.Content, tokens, posAt), nil
}
