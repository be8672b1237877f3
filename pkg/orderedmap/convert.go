// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package orderedmap

import (
	"fmt"
)

type Conversion struct {
	Object interface{}
}

// AsUnorderedStringMaps converts nested *Map values into map[string]interface{}
// for encoders that do not need (or cannot keep) key order. Input is not modified.
func (c Conversion) AsUnorderedStringMaps() (interface{}, error) {
	return c.asUnorderedStringMaps(c.Object)
}

func (c Conversion) asUnorderedStringMaps(object interface{}) (interface{}, error) {
	switch typedObj := object.(type) {
	case map[interface{}]interface{}, map[string]interface{}:
		return nil, fmt.Errorf("Expected *orderedmap.Map instead of %T", object)

	case *Map:
		result := map[string]interface{}{}
		err := typedObj.IterateErr(func(k, v interface{}) error {
			strK, ok := k.(string)
			if !ok {
				return fmt.Errorf("Expected map key to be string, but was %T", k)
			}
			val, err := c.asUnorderedStringMaps(v)
			if err != nil {
				return err
			}
			result[strK] = val
			return nil
		})
		return result, err

	case []interface{}:
		result := make([]interface{}, len(typedObj))
		for i, item := range typedObj {
			val, err := c.asUnorderedStringMaps(item)
			if err != nil {
				return nil, err
			}
			result[i] = val
		}
		return result, nil

	default:
		return typedObj, nil
	}
}
