// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package recipe_test

import (
	"errors"
	"math"
	"testing"

	"carvel.dev/kiln/pkg/orderedmap"
	"carvel.dev/kiln/pkg/recipe"
	"carvel.dev/kiln/pkg/yamlfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapOf(kvs ...interface{}) *orderedmap.Map {
	result := orderedmap.NewMap()
	for i := 0; i < len(kvs); i += 2 {
		result.Set(kvs[i], kvs[i+1])
	}
	return result
}

func mapsEqual(a, b *orderedmap.Map) bool { return a.Equal(b) }

func sampleDocument() *recipe.Document {
	return &recipe.Document{Tree: mapOf(
		"package", mapOf("name", "foo", "version", "1.0"),
		"build", mapOf("number", 5),
		"requirements", mapOf("run", []interface{}{"python>=3.10,<4", "numpy"}),
	)}
}

func TestEmitJSONKeepsKeyOrder(t *testing.T) {
	out, err := recipe.Emit(sampleDocument(), recipe.OutputFormatJSON)
	require.NoError(t, err)

	expected := `{
  "package": {
    "name": "foo",
    "version": "1.0"
  },
  "build": {
    "number": 5
  },
  "requirements": {
    "run": [
      "python>=3.10,<4",
      "numpy"
    ]
  }
}
`
	assert.Equal(t, expected, string(out))
}

func TestEmitTOML(t *testing.T) {
	out, err := recipe.Emit(sampleDocument(), recipe.OutputFormatTOML)
	require.NoError(t, err)
	assert.Contains(t, string(out), "[package]\n")
	assert.Contains(t, string(out), `version = "1.0"`)
	assert.Contains(t, string(out), `run = ["python>=3.10,<4", "numpy"]`)

	_, err = recipe.Emit(&recipe.Document{Tree: []interface{}{"a"}}, recipe.OutputFormatTOML)
	require.Error(t, err)
}

func TestEmitFailsWithoutPartialOutput(t *testing.T) {
	docs := []*recipe.Document{
		{Tree: mapOf("a", mapOf("b", struct{}{}))},
		{Tree: mapOf("a", math.NaN())},
	}

	for _, format := range []recipe.OutputFormat{recipe.OutputFormatYAML, recipe.OutputFormatJSON} {
		out, err := recipe.Emit(docs[0], format)
		require.Error(t, err)
		assert.Nil(t, out)

		var serializationErr *yamlfmt.SerializationError
		require.True(t, errors.As(err, &serializationErr), string(format))
		assert.Equal(t, "a.b", serializationErr.Path)
	}

	_, err := recipe.Emit(docs[1], recipe.OutputFormatJSON)
	require.Error(t, err)
}
