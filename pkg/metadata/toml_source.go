// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"errors"
	"fmt"
	"sort"

	"carvel.dev/kiln/pkg/filepos"
	"carvel.dev/kiln/pkg/orderedmap"
	"github.com/BurntSushi/toml"
)

// tomlSource reads [project] table of pyproject.toml; files
// without that table are read from their top level
type tomlSource struct{}

func (tomlSource) Fields(data []byte, path string) (*orderedmap.Map, *filepos.Position, error) {
	var doc map[string]interface{}

	_, err := toml.Decode(string(data), &doc)
	if err != nil {
		var parseErr toml.ParseError
		if errors.As(err, &parseErr) && parseErr.Position.Line > 0 {
			return nil, filepos.NewPositionInFile(parseErr.Position.Line, path), errors.New(parseErr.Message)
		}
		return nil, nil, err
	}

	table := doc
	if projectVal, found := doc["project"]; found {
		project, ok := projectVal.(map[string]interface{})
		if !ok {
			return nil, nil, fmt.Errorf("Expected 'project' to be a table, but was %T", projectVal)
		}
		table = project
	}

	fields := tomlAsOrderedMap(table).(*orderedmap.Map)

	if _, found := fields.Get(fieldURL); !found {
		if urls, ok := table["urls"].(map[string]interface{}); ok {
			for _, key := range []string{"Homepage", "homepage"} {
				if homepage, found := urls[key]; found {
					fields.Set(fieldURL, homepage)
					break
				}
			}
		}
	}

	return fields, nil, nil
}

func tomlAsOrderedMap(val interface{}) interface{} {
	switch typedVal := val.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(typedVal))
		for key := range typedVal {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		result := orderedmap.NewMap()
		for _, key := range keys {
			result.Set(key, tomlAsOrderedMap(typedVal[key]))
		}
		return result

	case []map[string]interface{}:
		result := make([]interface{}, len(typedVal))
		for i, item := range typedVal {
			result[i] = tomlAsOrderedMap(item)
		}
		return result

	case []interface{}:
		result := make([]interface{}, len(typedVal))
		for i, item := range typedVal {
			result[i] = tomlAsOrderedMap(item)
		}
		return result

	default:
		return val
	}
}
