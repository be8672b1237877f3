// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package spell_test

import (
	"testing"

	"carvel.dev/kiln/pkg/spell"
	"github.com/stretchr/testify/assert"
)

func TestNearest(t *testing.T) {
	candidates := []string{"GIT_DESCRIBE_TAG", "GIT_DESCRIBE_NUMBER", "lower", "load_setup_py_data", "join"}

	cases := map[string]string{
		"lowr":               "lower",
		"git_describe_tag":   "GIT_DESCRIBE_TAG",
		"GIT_DESCRIBE_NUMBR": "GIT_DESCRIBE_NUMBER",
		"load_setup_data":    "load_setup_py_data",
		"xyz":                "",
		"lower":              "",
		"":                   "",
	}

	for word, expected := range cases {
		assert.Equal(t, expected, spell.Nearest(word, candidates), "word: %s", word)
	}
}

func TestSuggestion(t *testing.T) {
	assert.Equal(t, " (did you mean 'join'?)", spell.Suggestion("jion", []string{"join", "length"}))
	assert.Equal(t, "", spell.Suggestion("version", []string{"join", "length"}))
}
