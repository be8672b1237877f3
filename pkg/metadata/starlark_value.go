// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"fmt"

	"carvel.dev/kiln/pkg/orderedmap"
	"github.com/k14s/starlark-go/starlark"
	"github.com/k14s/starlark-go/starlarkstruct"
)

type starlarkValue struct {
	val starlark.Value
}

func (e starlarkValue) AsGoValue() (interface{}, error) {
	return e.asInterface(e.val)
}

func (e starlarkValue) asInterface(val starlark.Value) (interface{}, error) {
	switch typedVal := val.(type) {
	case nil, starlark.NoneType:
		return nil, nil

	case starlark.Bool:
		return bool(typedVal), nil

	case starlark.String:
		return string(typedVal), nil

	case starlark.Int:
		i1, ok := typedVal.Int64()
		if ok {
			return i1, nil
		}
		return nil, fmt.Errorf("Integer %s is out of range", typedVal.String())

	case starlark.Float:
		return float64(typedVal), nil

	case *starlark.Dict:
		return e.dictAsInterface(typedVal)

	case *starlark.List:
		return e.iterableAsInterface(typedVal)

	case starlark.Tuple:
		return e.iterableAsInterface(typedVal)

	case *starlark.Set:
		return e.iterableAsInterface(typedVal)

	case *starlarkstruct.Struct:
		return e.structAsInterface(typedVal)

	default:
		return nil, fmt.Errorf("Unsupported value of type %s", val.Type())
	}
}

func (e starlarkValue) dictAsInterface(val *starlark.Dict) (interface{}, error) {
	result := orderedmap.NewMap()
	for _, item := range val.Items() {
		key, err := e.asInterface(item.Index(0))
		if err != nil {
			return nil, err
		}
		value, err := e.asInterface(item.Index(1))
		if err != nil {
			return nil, err
		}
		result.Set(key, value)
	}
	return result, nil
}

func (e starlarkValue) structAsInterface(val *starlarkstruct.Struct) (interface{}, error) {
	// AttrNames are sorted
	result := orderedmap.NewMap()
	for _, key := range val.AttrNames() {
		attrVal, err := val.Attr(key)
		if err != nil {
			return nil, err
		}
		value, err := e.asInterface(attrVal)
		if err != nil {
			return nil, err
		}
		result.Set(key, value)
	}
	return result, nil
}

func (e starlarkValue) iterableAsInterface(iterable starlark.Iterable) (interface{}, error) {
	iter := iterable.Iterate()
	defer iter.Done()

	result := []interface{}{}
	var x starlark.Value
	for iter.Next(&x) {
		item, err := e.asInterface(x)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, nil
}
