// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"errors"
	"fmt"
	"strings"

	"carvel.dev/kiln/pkg/orderedmap"
	"carvel.dev/kiln/pkg/spell"
)

type cachedResult struct {
	val interface{}
	err error
}

type funcCallKey struct {
	fn   *Func
	args string
}

// evaluation holds state of a single Execute; caches never outlive it
type evaluation struct {
	lazies map[*Lazy]cachedResult
	calls  map[funcCallKey]cachedResult
	out    strings.Builder
}

// Execute renders template against ctx. Output is fully determined
// by template and ctx.
func (t *Template) Execute(ctx Context) (string, error) {
	ev := &evaluation{
		lazies: map[*Lazy]cachedResult{},
		calls:  map[funcCallKey]cachedResult{},
	}

	err := ev.execNodes(t.nodes, ctx)
	if err != nil {
		return "", err
	}
	return ev.out.String(), nil
}

func (ev *evaluation) execNodes(nodes []Node, ctx Context) error {
	for _, node := range nodes {
		switch typedNode := node.(type) {
		case *NodeText:
			ev.out.WriteString(typedNode.Content)

		case *NodeOutput:
			val, err := ev.eval(typedNode.Expr, ctx)
			if err != nil {
				return err
			}
			str, err := asText(val)
			if err != nil {
				return newErr(typedNode.Expr.Pos(), typedNode.Expr.Source(), "Substituting value").withErr(err)
			}
			ev.out.WriteString(str)

		case *NodeSet:
			val, err := ev.eval(typedNode.Value, ctx)
			if err != nil {
				return err
			}
			// visible to following siblings (and their children)
			ctx = ctx.With(typedNode.Name, val)

		case *NodeFor:
			err := ev.execFor(typedNode, ctx)
			if err != nil {
				return err
			}

		case *NodeIf:
			err := ev.execIf(typedNode, ctx)
			if err != nil {
				return err
			}

		default:
			panic(fmt.Sprintf("Unknown node %T", node))
		}
	}
	return nil
}

func (ev *evaluation) execFor(node *NodeFor, ctx Context) error {
	seqVal, err := ev.eval(node.Seq, ctx)
	if err != nil {
		return err
	}

	var items []interface{}

	switch typedSeq := seqVal.(type) {
	case []interface{}:
		items = typedSeq
	case *orderedmap.Map:
		items = typedSeq.Keys()
	default:
		return newErr(node.Seq.Pos(), node.Seq.Source(),
			"Expected for loop to iterate over list or map, but was %s", typeName(seqVal))
	}

	if len(items) == 0 {
		return ev.execNodes(node.Else, ctx)
	}

	for i, item := range items {
		loop := orderedmap.NewMap()
		loop.Set("index", i+1)
		loop.Set("index0", i)
		loop.Set("first", i == 0)
		loop.Set("last", i == len(items)-1)
		loop.Set("length", len(items))

		err := ev.execNodes(node.Body, ctx.With("loop", loop).With(node.Var, item))
		if err != nil {
			return err
		}
	}
	return nil
}

func (ev *evaluation) execIf(node *NodeIf, ctx Context) error {
	for _, branch := range node.Branches {
		condVal, err := ev.eval(branch.Cond, ctx)
		if err != nil {
			return err
		}
		if isTruthy(condVal) {
			return ev.execNodes(branch.Body, ctx)
		}
	}
	return ev.execNodes(node.Else, ctx)
}

func (ev *evaluation) eval(expr Expr, ctx Context) (interface{}, error) {
	switch typedExpr := expr.(type) {
	case *ExprLiteral:
		return typedExpr.Value, nil

	case *ExprName:
		val, found := ctx.Lookup(typedExpr.Name)
		if !found {
			return nil, newUndefinedErr(expr.Pos(), expr.Source(), "Undefined variable '%s'%s", typedExpr.Name, spell.Suggestion(typedExpr.Name, ctx.Names()))
		}
		return ev.force(val, expr)

	case *ExprList:
		result := make([]interface{}, 0, len(typedExpr.Items))
		for _, item := range typedExpr.Items {
			val, err := ev.eval(item, ctx)
			if err != nil {
				return nil, err
			}
			result = append(result, val)
		}
		return result, nil

	case *ExprAttr:
		target, err := ev.eval(typedExpr.Target, ctx)
		if err != nil {
			return nil, err
		}
		typedMap, ok := target.(*orderedmap.Map)
		if !ok {
			return nil, newUndefinedErr(expr.Pos(), expr.Source(),
				"Undefined attribute '%s' on %s", typedExpr.Name, typeName(target))
		}
		val, found := typedMap.Get(typedExpr.Name)
		if !found {
			return nil, newUndefinedErr(expr.Pos(), expr.Source(), "Undefined attribute '%s'%s", typedExpr.Name, spell.Suggestion(typedExpr.Name, stringKeys(typedMap)))
		}
		return ev.force(val, expr)

	case *ExprIndex:
		return ev.evalIndex(typedExpr, ctx)

	case *ExprCall:
		return ev.evalCall(typedExpr, ctx)

	case *ExprFilter:
		return ev.evalFilter(typedExpr, ctx)

	case *ExprNot:
		val, err := ev.eval(typedExpr.X, ctx)
		if err != nil {
			return nil, err
		}
		return !isTruthy(val), nil

	case *ExprBinary:
		return ev.evalBinary(typedExpr, ctx)

	case *ExprTest:
		return ev.evalTest(typedExpr, ctx)

	default:
		panic(fmt.Sprintf("Unknown expression %T", expr))
	}
}

func (ev *evaluation) evalIndex(expr *ExprIndex, ctx Context) (interface{}, error) {
	target, err := ev.eval(expr.Target, ctx)
	if err != nil {
		return nil, err
	}
	idx, err := ev.eval(expr.Index, ctx)
	if err != nil {
		return nil, err
	}

	switch typedTarget := target.(type) {
	case *orderedmap.Map:
		val, found := typedTarget.Get(idx)
		if !found {
			return nil, newUndefinedErr(expr.Pos(), expr.Source(), "Undefined key %s", quoteValue(idx))
		}
		return ev.force(val, expr)

	case []interface{}:
		typedIdx, ok := idx.(int)
		if !ok {
			return nil, newErr(expr.Pos(), expr.Source(), "Expected list index to be int, but was %s", typeName(idx))
		}
		if typedIdx < 0 {
			typedIdx += len(typedTarget)
		}
		if typedIdx < 0 || typedIdx >= len(typedTarget) {
			return nil, newUndefinedErr(expr.Pos(), expr.Source(),
				"Index %d out of range for list of length %d", idx, len(typedTarget))
		}
		return ev.force(typedTarget[typedIdx], expr)

	default:
		return nil, newErr(expr.Pos(), expr.Source(), "Cannot index into %s", typeName(target))
	}
}

func (ev *evaluation) evalArgs(args []Expr, ctx Context) ([]interface{}, error) {
	result := make([]interface{}, 0, len(args))
	for _, arg := range args {
		val, err := ev.eval(arg, ctx)
		if err != nil {
			return nil, err
		}
		result = append(result, val)
	}
	return result, nil
}

func (ev *evaluation) evalCall(expr *ExprCall, ctx Context) (interface{}, error) {
	if attr, ok := expr.Callee.(*ExprAttr); ok {
		target, err := ev.eval(attr.Target, ctx)
		if err != nil {
			return nil, err
		}
		args, err := ev.evalArgs(expr.Args, ctx)
		if err != nil {
			return nil, err
		}
		val, err := callMethod(target, attr.Name, args, expr)
		if err != nil {
			return nil, err
		}
		return ev.force(val, expr)
	}

	callee, err := ev.eval(expr.Callee, ctx)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(*Func)
	if !ok {
		return nil, newErr(expr.Pos(), expr.Source(), "Expected function, but was %s", typeName(callee))
	}
	args, err := ev.evalArgs(expr.Args, ctx)
	if err != nil {
		return nil, err
	}
	return ev.callFunc(fn, args, expr)
}

func (ev *evaluation) callFunc(fn *Func, args []interface{}, expr Expr) (interface{}, error) {
	var key funcCallKey
	if fn.memoized {
		key = funcCallKey{fn, fmt.Sprintf("%#v", args)}
		if result, found := ev.calls[key]; found {
			return result.val, result.err
		}
	}

	val, err := fn.fn(args)
	if err != nil {
		err = newErr(expr.Pos(), expr.Source(), "Calling '%s'", fn.name).withErr(err)
	} else {
		val = Normalize(val)
	}

	if fn.memoized {
		ev.calls[key] = cachedResult{val, err}
	}
	return val, err
}

// force resolves lazy values; any other value is returned as is
func (ev *evaluation) force(val interface{}, expr Expr) (interface{}, error) {
	lazy, ok := val.(*Lazy)
	if !ok {
		return val, nil
	}

	if result, found := ev.lazies[lazy]; found {
		return result.val, result.err
	}

	val, err := lazy.fn()
	if err != nil {
		err = newErr(expr.Pos(), expr.Source(), "Resolving '%s'", lazy.name).withErr(err)
	} else {
		val = Normalize(val)
	}

	ev.lazies[lazy] = cachedResult{val, err}
	return val, err
}

func (ev *evaluation) evalFilter(expr *ExprFilter, ctx Context) (interface{}, error) {
	target, err := ev.eval(expr.Target, ctx)

	if expr.Name == defaultFilterName {
		var undefErr *RenderError
		if err != nil && errors.As(err, &undefErr) && undefErr.IsUndefined() {
			if len(expr.Args) == 0 {
				return "", nil
			}
			return ev.eval(expr.Args[0], ctx)
		}
		return target, err
	}

	if err != nil {
		return nil, err
	}

	filter, found := filters[expr.Name]
	if !found {
		return nil, newErr(expr.Pos(), expr.Source(), "Unknown filter '%s'%s", expr.Name, spell.Suggestion(expr.Name, filterNames()))
	}

	args, err := ev.evalArgs(expr.Args, ctx)
	if err != nil {
		return nil, err
	}

	val, err := filter(target, args)
	if err != nil {
		return nil, newErr(expr.Pos(), expr.Source(), "Applying filter '%s'", expr.Name).withErr(err)
	}
	return val, nil
}

func (ev *evaluation) evalBinary(expr *ExprBinary, ctx Context) (interface{}, error) {
	x, err := ev.eval(expr.X, ctx)
	if err != nil {
		return nil, err
	}

	switch expr.Op {
	case "and":
		if !isTruthy(x) {
			return x, nil
		}
		return ev.eval(expr.Y, ctx)
	case "or":
		if isTruthy(x) {
			return x, nil
		}
		return ev.eval(expr.Y, ctx)
	}

	y, err := ev.eval(expr.Y, ctx)
	if err != nil {
		return nil, err
	}

	var result interface{}

	switch expr.Op {
	case "==":
		result = valuesEqual(x, y)
	case "!=":
		result = !valuesEqual(x, y)
	case "<", "<=", ">", ">=":
		result, err = compareValues(expr.Op, x, y)
	case "in":
		result, err = contains(y, x)
	case "not in":
		var found bool
		found, err = contains(y, x)
		result = !found
	case "~":
		var xStr, yStr string
		xStr, err = asText(x)
		if err == nil {
			yStr, err = asText(y)
		}
		result = xStr + yStr
	default:
		panic(fmt.Sprintf("Unknown operator '%s'", expr.Op))
	}

	if err != nil {
		return nil, newErr(expr.Pos(), expr.Source(), "Applying operator '%s'", expr.Op).withErr(err)
	}
	return result, nil
}

func (ev *evaluation) evalTest(expr *ExprTest, ctx Context) (interface{}, error) {
	var result bool

	switch expr.Name {
	case "defined", "undefined":
		_, err := ev.eval(expr.X, ctx)
		if err != nil {
			var renderErr *RenderError
			if !errors.As(err, &renderErr) || !renderErr.IsUndefined() {
				return nil, err
			}
		}
		result = (err == nil) == (expr.Name == "defined")

	case "none", "string", "number", "mapping", "sequence":
		val, err := ev.eval(expr.X, ctx)
		if err != nil {
			return nil, err
		}
		switch expr.Name {
		case "none":
			result = val == nil
		case "string":
			_, result = val.(string)
		case "number":
			switch val.(type) {
			case int, float64:
				result = true
			}
		case "mapping":
			_, result = val.(*orderedmap.Map)
		case "sequence":
			_, result = val.([]interface{})
		}

	default:
		return nil, newErr(expr.Pos(), expr.Source(), "Unknown test '%s'", expr.Name)
	}

	if expr.Negated {
		return !result, nil
	}
	return result, nil
}
