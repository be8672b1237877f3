// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"carvel.dev/kiln/pkg/orderedmap"
)

// asText returns textual form of a substituted value
func asText(val interface{}) (string, error) {
	switch typedVal := val.(type) {
	case nil:
		return "", nil
	case string:
		return typedVal, nil
	case int:
		return strconv.Itoa(typedVal), nil
	case float64:
		return formatFloat(typedVal), nil
	case bool:
		return strconv.FormatBool(typedVal), nil
	default:
		return "", fmt.Errorf("Expected scalar value, but was %s", typeName(val))
	}
}

func formatFloat(val float64) string {
	switch {
	case math.IsNaN(val):
		return "nan"
	case math.IsInf(val, 1):
		return "inf"
	case math.IsInf(val, -1):
		return "-inf"
	}
	str := strconv.FormatFloat(val, 'g', -1, 64)
	if !strings.ContainsAny(str, ".e") {
		str += ".0"
	}
	return str
}

func isTruthy(val interface{}) bool {
	switch typedVal := val.(type) {
	case nil:
		return false
	case bool:
		return typedVal
	case string:
		return len(typedVal) > 0
	case int:
		return typedVal != 0
	case float64:
		return typedVal != 0
	case []interface{}:
		return len(typedVal) > 0
	case *orderedmap.Map:
		return typedVal.Len() > 0
	default:
		return true
	}
}

func asNumber(val interface{}) (float64, bool) {
	switch typedVal := val.(type) {
	case int:
		return float64(typedVal), true
	case float64:
		return typedVal, true
	default:
		return 0, false
	}
}

func valuesEqual(x, y interface{}) bool {
	if xNum, ok := asNumber(x); ok {
		yNum, ok := asNumber(y)
		return ok && xNum == yNum
	}

	switch typedX := x.(type) {
	case nil:
		return y == nil
	case string, bool:
		return x == y
	case []interface{}:
		typedY, ok := y.([]interface{})
		if !ok || len(typedX) != len(typedY) {
			return false
		}
		for i := range typedX {
			if !valuesEqual(typedX[i], typedY[i]) {
				return false
			}
		}
		return true
	case *orderedmap.Map:
		typedY, ok := y.(*orderedmap.Map)
		return ok && typedX.Equal(typedY)
	default:
		return x == y
	}
}

func compareValues(op string, x, y interface{}) (bool, error) {
	var cmp int

	xNum, xIsNum := asNumber(x)
	yNum, yIsNum := asNumber(y)
	xStr, xIsStr := x.(string)
	yStr, yIsStr := y.(string)

	switch {
	case xIsNum && yIsNum:
		switch {
		case xNum < yNum:
			cmp = -1
		case xNum > yNum:
			cmp = 1
		}
	case xIsStr && yIsStr:
		cmp = strings.Compare(xStr, yStr)
	default:
		return false, fmt.Errorf("Cannot compare %s and %s", typeName(x), typeName(y))
	}

	switch op {
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	default:
		return cmp >= 0, nil
	}
}

func contains(container, item interface{}) (bool, error) {
	switch typedContainer := container.(type) {
	case string:
		typedItem, ok := item.(string)
		if !ok {
			return false, fmt.Errorf("Expected string on left side of 'in' string, but was %s", typeName(item))
		}
		return strings.Contains(typedContainer, typedItem), nil
	case []interface{}:
		for _, containerItem := range typedContainer {
			if valuesEqual(containerItem, item) {
				return true, nil
			}
		}
		return false, nil
	case *orderedmap.Map:
		_, found := typedContainer.Get(item)
		return found, nil
	default:
		return false, fmt.Errorf("Expected string, list or map on right side of 'in', but was %s", typeName(container))
	}
}

func quoteValue(val interface{}) string {
	if str, ok := val.(string); ok {
		return strconv.Quote(str)
	}
	return fmt.Sprintf("%v", val)
}
