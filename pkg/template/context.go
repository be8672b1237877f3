// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"sort"

	"carvel.dev/kiln/pkg/orderedmap"
)

// Context holds named values available to a template. It is never
// modified: With returns a child scope.
type Context struct {
	parent *Context
	vars   map[string]interface{}
}

// NewContext copies vars into a new root scope. Values are normalized:
// typed slices become []interface{}, Go maps become ordered maps (sorted by
// key) and sized ints become int.
func NewContext(vars map[string]interface{}) Context {
	copied := map[string]interface{}{}
	for name, val := range vars {
		copied[name] = Normalize(val)
	}
	return Context{vars: copied}
}

// With returns a scope that shadows name with val
func (c Context) With(name string, val interface{}) Context {
	parent := c
	return Context{parent: &parent, vars: map[string]interface{}{name: Normalize(val)}}
}

func (c Context) Lookup(name string) (interface{}, bool) {
	for scope := &c; scope != nil; scope = scope.parent {
		if val, found := scope.vars[name]; found {
			return val, true
		}
	}
	return nil, false
}

// Names returns all visible names in sorted order
func (c Context) Names() []string {
	seen := map[string]struct{}{}
	for scope := &c; scope != nil; scope = scope.parent {
		for name := range scope.vars {
			seen[name] = struct{}{}
		}
	}
	var result []string
	for name := range seen {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Lazy is a value computed on first reference. Result is cached only for
// the duration of a single Execute.
type Lazy struct {
	name string
	fn   func() (interface{}, error)
}

func NewLazy(name string, fn func() (interface{}, error)) *Lazy {
	return &Lazy{name, fn}
}

func (l *Lazy) Name() string { return l.name }

// Func is a function callable from templates, eg load_setup_py_data()
type Func struct {
	name     string
	fn       func(args []interface{}) (interface{}, error)
	memoized bool
}

func NewFunc(name string, fn func(args []interface{}) (interface{}, error)) *Func {
	return &Func{name: name, fn: fn}
}

// NewMemoizedFunc returns a Func whose results are cached per arguments
// for the duration of a single Execute
func NewMemoizedFunc(name string, fn func(args []interface{}) (interface{}, error)) *Func {
	return &Func{name: name, fn: fn, memoized: true}
}

func (f *Func) Name() string { return f.name }

// Normalize converts Go values into the value kinds understood by
// the evaluator
func Normalize(val interface{}) interface{} {
	switch typedVal := val.(type) {
	case int8:
		return int(typedVal)
	case int16:
		return int(typedVal)
	case int32:
		return int(typedVal)
	case int64:
		return int(typedVal)
	case uint8:
		return int(typedVal)
	case uint16:
		return int(typedVal)
	case uint32:
		return int(typedVal)
	case float32:
		return float64(typedVal)
	case []string:
		result := make([]interface{}, len(typedVal))
		for i, item := range typedVal {
			result[i] = item
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(typedVal))
		for i, item := range typedVal {
			result[i] = Normalize(item)
		}
		return result
	case map[string]string:
		result := orderedmap.NewMap()
		for _, key := range sortedKeys(typedVal) {
			result.Set(key, typedVal[key])
		}
		return result
	case map[string]interface{}:
		keys := make([]string, 0, len(typedVal))
		for key := range typedVal {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		result := orderedmap.NewMap()
		for _, key := range keys {
			result.Set(key, Normalize(typedVal[key]))
		}
		return result
	case *orderedmap.Map:
		result := orderedmap.NewMap()
		typedVal.Iterate(func(k, v interface{}) {
			result.Set(k, Normalize(v))
		})
		return result
	default:
		return val
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func typeName(val interface{}) string {
	switch val.(type) {
	case nil:
		return "none"
	case string:
		return "string"
	case int:
		return "int"
	case float64:
		return "float"
	case bool:
		return "bool"
	case []interface{}:
		return "list"
	case *orderedmap.Map:
		return "map"
	case *Func:
		return "function"
	default:
		return fmt.Sprintf("%T", val)
	}
}
