// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"carvel.dev/kiln/pkg/filepos"
)

type Node interface {
	GetPosition() *filepos.Position
}

var _ = []Node{&NodeText{}, &NodeOutput{}, &NodeFor{}, &NodeIf{}, &NodeSet{}}

type NodeText struct {
	Position *filepos.Position
	Content  string
}

// NodeOutput is a {{ expr }} substitution
type NodeOutput struct {
	Position *filepos.Position
	Expr     Expr
}

type NodeFor struct {
	Position *filepos.Position
	Source   string
	Var      string
	Seq      Expr
	Body     []Node
	Else     []Node
}

type NodeIf struct {
	Position *filepos.Position
	Branches []NodeIfBranch
	Else     []Node
}

type NodeIfBranch struct {
	Position *filepos.Position
	Cond     Expr
	Body     []Node
}

type NodeSet struct {
	Position *filepos.Position
	Name     string
	Value    Expr
}

func (n *NodeText) GetPosition() *filepos.Position   { return n.Position }
func (n *NodeOutput) GetPosition() *filepos.Position { return n.Position }
func (n *NodeFor) GetPosition() *filepos.Position    { return n.Position }
func (n *NodeIf) GetPosition() *filepos.Position     { return n.Position }
func (n *NodeSet) GetPosition() *filepos.Position    { return n.Position }

// Expr is a typed expression; Source returns its original text
// which is used to name it in errors
type Expr interface {
	Pos() *filepos.Position
	Source() string
}

type exprBase struct {
	pos *filepos.Position
	src string
}

func (e exprBase) Pos() *filepos.Position { return e.pos }
func (e exprBase) Source() string         { return e.src }

type ExprName struct {
	exprBase
	Name string
}

type ExprLiteral struct {
	exprBase
	Value interface{}
}

type ExprList struct {
	exprBase
	Items []Expr
}

// ExprAttr is a.b
type ExprAttr struct {
	exprBase
	Target Expr
	Name   string
}

// ExprIndex is a[b]
type ExprIndex struct {
	exprBase
	Target Expr
	Index  Expr
}

// ExprCall is either a function call f(x) or a method call a.m(x)
type ExprCall struct {
	exprBase
	Callee Expr
	Args   []Expr
}

// ExprFilter is a | f(x)
type ExprFilter struct {
	exprBase
	Target Expr
	Name   string
	Args   []Expr
}

type ExprNot struct {
	exprBase
	X Expr
}

type ExprBinary struct {
	exprBase
	Op string
	X  Expr
	Y  Expr
}

// ExprTest is "x is [not] name"
type ExprTest struct {
	exprBase
	X       Expr
	Name    string
	Negated bool
}

var _ = []Expr{&ExprName{}, &ExprLiteral{}, &ExprList{}, &ExprAttr{}, &ExprIndex{},
	&ExprCall{}, &ExprFilter{}, &ExprNot{}, &ExprBinary{}, &ExprTest{}}
