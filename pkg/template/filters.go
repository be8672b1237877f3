// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"carvel.dev/kiln/pkg/orderedmap"
	"carvel.dev/kiln/pkg/yamlmeta"
	"github.com/hashicorp/go-version"
)

type filterFunc func(val interface{}, args []interface{}) (interface{}, error)

// "default" is handled by the evaluator since it observes undefined errors
const defaultFilterName = "default"

var filters = map[string]filterFunc{
	"lower":   stringFilter(strings.ToLower),
	"upper":   stringFilter(strings.ToUpper),
	"trim":    stringFilter(strings.TrimSpace),
	"replace": replaceFilter,
	"int":     intFilter,
	"string":  stringConvFilter,
	"join":    joinFilter,
	"length":  lengthFilter,
	"version": versionFilter,

	"yaml_string": yamlStringFilter,
}

func stringFilter(fn func(string) string) filterFunc {
	return func(val interface{}, args []interface{}) (interface{}, error) {
		if err := checkArgs(args, 0, 0); err != nil {
			return nil, err
		}
		str, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("Expected string, but was %s", typeName(val))
		}
		return fn(str), nil
	}
}

func replaceFilter(val interface{}, args []interface{}) (interface{}, error) {
	str, ok := val.(string)
	if !ok {
		return nil, fmt.Errorf("Expected string, but was %s", typeName(val))
	}
	return stringMethods["replace"](str, args)
}

// intFilter accepts ints, integral floats and base 10 integer strings
func intFilter(val interface{}, args []interface{}) (interface{}, error) {
	if err := checkArgs(args, 0, 0); err != nil {
		return nil, err
	}

	switch typedVal := val.(type) {
	case int:
		return typedVal, nil
	case float64:
		if math.Trunc(typedVal) != typedVal || math.IsInf(typedVal, 0) {
			return nil, fmt.Errorf("Expected integral float, but was %s", formatFloat(typedVal))
		}
		return int(typedVal), nil
	case string:
		result, err := strconv.Atoi(strings.TrimSpace(typedVal))
		if err != nil {
			return nil, fmt.Errorf("Expected integer string, but was %s", strconv.Quote(typedVal))
		}
		return result, nil
	default:
		return nil, fmt.Errorf("Expected int, float or string, but was %s", typeName(val))
	}
}

func stringConvFilter(val interface{}, args []interface{}) (interface{}, error) {
	if err := checkArgs(args, 0, 0); err != nil {
		return nil, err
	}
	return asText(val)
}

func joinFilter(val interface{}, args []interface{}) (interface{}, error) {
	if err := checkArgs(args, 0, 1); err != nil {
		return nil, err
	}
	sep := ""
	if len(args) == 1 {
		strArgs, err := stringArgs(args)
		if err != nil {
			return nil, err
		}
		sep = strArgs[0]
	}

	list, ok := val.([]interface{})
	if !ok {
		return nil, fmt.Errorf("Expected list, but was %s", typeName(val))
	}

	var parts []string
	for i, item := range list {
		str, err := asText(item)
		if err != nil {
			return nil, fmt.Errorf("Joining item %d: %s", i, err)
		}
		parts = append(parts, str)
	}
	return strings.Join(parts, sep), nil
}

// yamlStringFilter writes textual form of a value as a block context YAML
// string scalar. It is quoted only when plain form would be read back
// as a different value (eg "2048", "yes", "foo #bar", "a: b").
func yamlStringFilter(val interface{}, args []interface{}) (interface{}, error) {
	if err := checkArgs(args, 0, 0); err != nil {
		return nil, err
	}
	str, err := asText(val)
	if err != nil {
		return nil, err
	}
	if yamlmeta.IsPlainSafe(str) {
		return str, nil
	}
	return strconv.Quote(str), nil
}

func lengthFilter(val interface{}, args []interface{}) (interface{}, error) {
	if err := checkArgs(args, 0, 0); err != nil {
		return nil, err
	}
	switch typedVal := val.(type) {
	case string:
		return utf8.RuneCountInString(typedVal), nil
	case []interface{}:
		return len(typedVal), nil
	case *orderedmap.Map:
		return typedVal.Len(), nil
	default:
		return nil, fmt.Errorf("Expected string, list or map, but was %s", typeName(val))
	}
}

// versionFilter normalizes version string (eg v1.2 -> 1.2.0) or
// returns one of its parts: major, minor, patch, prerelease, metadata
func versionFilter(val interface{}, args []interface{}) (interface{}, error) {
	if err := checkArgs(args, 0, 1); err != nil {
		return nil, err
	}
	str, ok := val.(string)
	if !ok {
		return nil, fmt.Errorf("Expected string, but was %s", typeName(val))
	}

	ver, err := version.NewVersion(str)
	if err != nil {
		return nil, fmt.Errorf("Parsing version %s: %s", strconv.Quote(str), err)
	}

	if len(args) == 0 {
		return ver.String(), nil
	}

	strArgs, err := stringArgs(args)
	if err != nil {
		return nil, err
	}

	segments := ver.Segments()

	switch strArgs[0] {
	case "major":
		return segments[0], nil
	case "minor":
		return segments[1], nil
	case "patch":
		return segments[2], nil
	case "prerelease":
		return ver.Prerelease(), nil
	case "metadata":
		return ver.Metadata(), nil
	default:
		return nil, fmt.Errorf("Unknown version part %s (expected major, minor, patch, prerelease or metadata)", strconv.Quote(strArgs[0]))
	}
}

func filterNames() []string {
	names := []string{defaultFilterName}
	for name := range filters {
		names = append(names, name)
	}
	return names
}
