// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package yamlfmt_test

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"carvel.dev/kiln/pkg/orderedmap"
	"carvel.dev/kiln/pkg/yamlfmt"
	"carvel.dev/kiln/pkg/yamlmeta"
	"github.com/google/go-cmp/cmp"
	fuzz "github.com/google/gofuzz"
	"github.com/k14s/difflib"
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

func TestPrinterRecipeLayout(t *testing.T) {
	tree := mapOf(
		"package", mapOf("name", "foo", "version", "1.2.3"),
		"build", mapOf("number", 5, "noarch", "python"),
		"requirements", mapOf(
			"build", []interface{}{"python", "setuptools"},
			"run", []interface{}{"python>=3.10,<4", "numpy", "requests"},
		),
		"test", mapOf("imports", []interface{}{"foo"}, "source_files", []interface{}{"tests"}),
		"about", mapOf("home", "http://x", "summary", "bar"),
	)

	const expected = `package:
  name: foo
  version: 1.2.3
build:
  number: 5
  noarch: python
requirements:
  build:
    - python
    - setuptools
  run:
    - python>=3.10,<4
    - numpy
    - requests
test:
  imports:
    - foo
  source_files:
    - tests
about:
  home: http://x
  summary: bar
`
	assertPrinted(t, tree, expected)
}

func TestPrinterNesting(t *testing.T) {
	tree := []interface{}{
		mapOf("a", 1, "b", mapOf("c", []interface{}{true, nil})),
		[]interface{}{"x", []interface{}{"y"}},
		mapOf(),
		[]interface{}{},
	}

	const expected = `- a: 1
  b:
    c:
      - true
      - null
- - x
  - - "y"
- {}
- []
`
	assertPrinted(t, tree, expected)
}

func TestPrinterQuotesAmbiguousScalars(t *testing.T) {
	tree := mapOf(
		"version", "1.10",
		"flag", "true",
		"empty", "",
		"multi", "line1\nline2",
		"comment", "a #b",
		"1", "int-looking key",
		2, 2.0,
		"float", 0.5,
	)

	const expected = `version: "1.10"
flag: "true"
empty: ""
multi: "line1\nline2"
comment: "a #b"
"1": int-looking key
2: 2.0
float: 0.5
`
	assertPrinted(t, tree, expected)
}

func TestPrinterScalarRoot(t *testing.T) {
	assertPrinted(t, "foo", "foo\n")
	assertPrinted(t, nil, "null\n")
}

func TestPrinterSerializationError(t *testing.T) {
	cases := []struct {
		desc string
		tree interface{}
		err  string
	}{
		{
			desc: "go map",
			tree: mapOf("requirements", mapOf("run", []interface{}{"a", map[string]interface{}{"b": 1}})),
			err:  "Serializing document at 'requirements.run[1]': Unsupported value of type map[string]interface {} (expected scalar, list or ordered map)",
		},
		{
			desc: "struct",
			tree: []interface{}{struct{}{}},
			err:  "Serializing document at '[0]': Unsupported value of type struct {} (expected scalar, list or ordered map)",
		},
		{
			desc: "map key",
			tree: mapOf(mapOf("a", 1), "b"),
			err:  "Expected map key to be a scalar, but was *orderedmap.Map",
		},
		{
			desc: "invalid utf-8",
			tree: mapOf("a", string([]byte{0xff})),
			err:  "Serializing document at 'a': Expected string to be valid UTF-8",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.desc, func(t *testing.T) {
			buf := new(bytes.Buffer)
			err := yamlfmt.NewPrinter(buf).Print(tc.tree)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.err)

			var serErr *yamlfmt.SerializationError
			assert.True(t, errors.As(err, &serErr))
			assert.Empty(t, buf.String(), "expected no partial output")
		})
	}
}

func TestPrinterRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	f := fuzz.New().RandSource(r).NilChance(0)

	for i := 0; i < 300; i++ {
		tree := randomTree(f, r, 3)

		printed, err := yamlfmt.NewPrinter(nil).PrintStr(tree)
		require.NoError(t, err)

		parsed, err := yamlmeta.NewParser(yamlmeta.ParserOpts{}).ParseBytes([]byte(printed), "")
		require.NoError(t, err, "printed:\n%s", printed)

		if diff := cmp.Diff(tree, parsed); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s\nprinted:\n%s", diff, printed)
		}
	}
}

func randomTree(f *fuzz.Fuzzer, r *rand.Rand, depth int) interface{} {
	kinds := 5
	if depth > 0 {
		kinds = 7
	}

	switch r.Intn(kinds) {
	case 0:
		var str string
		f.Fuzz(&str)
		return str
	case 1:
		var i int
		f.Fuzz(&i)
		return i
	case 2:
		var b bool
		f.Fuzz(&b)
		return b
	case 3:
		return nil
	case 4:
		var fl float64
		f.Fuzz(&fl)
		return fl
	case 5:
		result := []interface{}{}
		for i := r.Intn(4); i > 0; i-- {
			result = append(result, randomTree(f, r, depth-1))
		}
		return result
	default:
		result := orderedmap.NewMap()
		for i := r.Intn(4); i > 0; i-- {
			var key string
			f.Fuzz(&key)
			result.Set(key, randomTree(f, r, depth-1))
		}
		return result
	}
}

func assertPrinted(t *testing.T, tree interface{}, expected string) {
	t.Helper()

	result, err := yamlfmt.NewPrinter(nil).PrintStr(tree)
	require.NoError(t, err)

	if result != expected {
		diff := difflib.PPDiff(strings.Split(expected, "\n"), strings.Split(result, "\n"))
		t.Fatalf("Not equal; diff expected...actual:\n%v\n", diff)
	}
}
