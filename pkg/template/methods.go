// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"strings"

	"carvel.dev/kiln/pkg/orderedmap"
	"carvel.dev/kiln/pkg/spell"
)

type stringMethod func(str string, args []interface{}) (interface{}, error)

var stringMethods = map[string]stringMethod{
	"lower": func(str string, args []interface{}) (interface{}, error) {
		return strings.ToLower(str), checkArgs(args, 0, 0)
	},
	"upper": func(str string, args []interface{}) (interface{}, error) {
		return strings.ToUpper(str), checkArgs(args, 0, 0)
	},
	"strip":  stripMethod(strings.TrimSpace, strings.Trim),
	"lstrip": stripMethod(func(s string) string { return strings.TrimLeft(s, " \t\n\r") }, strings.TrimLeft),
	"rstrip": stripMethod(func(s string) string { return strings.TrimRight(s, " \t\n\r") }, strings.TrimRight),
	"replace": func(str string, args []interface{}) (interface{}, error) {
		if err := checkArgs(args, 2, 2); err != nil {
			return nil, err
		}
		strArgs, err := stringArgs(args)
		if err != nil {
			return nil, err
		}
		return strings.ReplaceAll(str, strArgs[0], strArgs[1]), nil
	},
	"startswith": func(str string, args []interface{}) (interface{}, error) {
		if err := checkArgs(args, 1, 1); err != nil {
			return nil, err
		}
		strArgs, err := stringArgs(args)
		if err != nil {
			return nil, err
		}
		return strings.HasPrefix(str, strArgs[0]), nil
	},
	"endswith": func(str string, args []interface{}) (interface{}, error) {
		if err := checkArgs(args, 1, 1); err != nil {
			return nil, err
		}
		strArgs, err := stringArgs(args)
		if err != nil {
			return nil, err
		}
		return strings.HasSuffix(str, strArgs[0]), nil
	},
	"split": func(str string, args []interface{}) (interface{}, error) {
		if err := checkArgs(args, 0, 1); err != nil {
			return nil, err
		}
		var parts []string
		if len(args) == 0 {
			parts = strings.Fields(str)
		} else {
			strArgs, err := stringArgs(args)
			if err != nil {
				return nil, err
			}
			if len(strArgs[0]) == 0 {
				return nil, fmt.Errorf("Expected non-empty separator")
			}
			parts = strings.Split(str, strArgs[0])
		}
		result := make([]interface{}, len(parts))
		for i, part := range parts {
			result[i] = part
		}
		return result, nil
	},
}

func stripMethod(noArgs func(string) string, withChars func(string, string) string) stringMethod {
	return func(str string, args []interface{}) (interface{}, error) {
		if err := checkArgs(args, 0, 1); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return noArgs(str), nil
		}
		strArgs, err := stringArgs(args)
		if err != nil {
			return nil, err
		}
		return withChars(str, strArgs[0]), nil
	}
}

func callMethod(target interface{}, name string, args []interface{}, expr Expr) (interface{}, error) {
	var result interface{}
	var err error

	switch typedTarget := target.(type) {
	case string:
		method, found := stringMethods[name]
		if !found {
			return nil, newErr(expr.Pos(), expr.Source(), "Unknown method '%s' on string%s", name, spell.Suggestion(name, stringMethodNames()))
		}
		result, err = method(typedTarget, args)

	case *orderedmap.Map:
		switch name {
		case "get":
			if err := checkArgs(args, 1, 2); err != nil {
				return nil, newErr(expr.Pos(), expr.Source(), "Calling method 'get'").withErr(err)
			}
			val, found := typedTarget.Get(args[0])
			switch {
			case found:
				return val, nil
			case len(args) == 2:
				return args[1], nil
			default:
				return nil, newUndefinedErr(expr.Pos(), expr.Source(), "Undefined key %s", quoteValue(args[0]))
			}
		case "keys":
			result, err = typedTarget.Keys(), checkArgs(args, 0, 0)
		case "values":
			var values []interface{}
			typedTarget.Iterate(func(_, v interface{}) { values = append(values, v) })
			if values == nil {
				values = []interface{}{}
			}
			result, err = values, checkArgs(args, 0, 0)
		case "items":
			var items []interface{}
			typedTarget.Iterate(func(k, v interface{}) { items = append(items, []interface{}{k, v}) })
			if items == nil {
				items = []interface{}{}
			}
			result, err = items, checkArgs(args, 0, 0)
		default:
			return nil, newErr(expr.Pos(), expr.Source(), "Unknown method '%s' on map", name)
		}

	default:
		return nil, newErr(expr.Pos(), expr.Source(), "Unknown method '%s' on %s", name, typeName(target))
	}

	if err != nil {
		return nil, newErr(expr.Pos(), expr.Source(), "Calling method '%s'", name).withErr(err)
	}
	return result, nil
}

func checkArgs(args []interface{}, min, max int) error {
	switch {
	case len(args) < min || len(args) > max:
		if min == max {
			return fmt.Errorf("Expected %d argument(s), but got %d", min, len(args))
		}
		return fmt.Errorf("Expected %d to %d arguments, but got %d", min, max, len(args))
	default:
		return nil
	}
}

func stringArgs(args []interface{}) ([]string, error) {
	result := make([]string, len(args))
	for i, arg := range args {
		str, ok := arg.(string)
		if !ok {
			return nil, fmt.Errorf("Expected argument %d to be string, but was %s", i+1, typeName(arg))
		}
		result[i] = str
	}
	return result, nil
}

func stringMethodNames() []string {
	var names []string
	for name := range stringMethods {
		names = append(names, name)
	}
	return names
}

func stringKeys(m *orderedmap.Map) []string {
	var keys []string
	m.Iterate(func(k, _ interface{}) {
		if str, ok := k.(string); ok {
			keys = append(keys, str)
		}
	})
	return keys
}
