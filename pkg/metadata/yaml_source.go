// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"errors"

	"carvel.dev/kiln/pkg/filepos"
	"carvel.dev/kiln/pkg/orderedmap"
	"carvel.dev/kiln/pkg/yamlmeta"
)

// yamlSource reads YAML and JSON (as a subset of YAML) documents
type yamlSource struct{}

func (yamlSource) Fields(data []byte, path string) (*orderedmap.Map, *filepos.Position, error) {
	val, err := yamlmeta.NewParser(yamlmeta.ParserOpts{}).ParseBytes(data, path)
	if err != nil {
		var parseErr *yamlmeta.ParseError
		if errors.As(err, &parseErr) {
			return nil, parseErr.Position, errors.New(parseErr.Msg)
		}
		return nil, nil, err
	}

	fields, ok := val.(*orderedmap.Map)
	if !ok {
		return nil, nil, expectedMappingErr(val)
	}
	return fields, nil, nil
}
