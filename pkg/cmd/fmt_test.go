// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"carvel.dev/kiln/pkg/cmd"
	"carvel.dev/kiln/pkg/cmd/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFmt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.yaml")
	require.NoError(t, os.WriteFile(path, []byte("package: {name: foo, version: '1.10'}\nrun: [python,   numpy]\n"), 0600))

	opts := cmd.NewFmtOptions()
	opts.Files = []string{path}
	stdout := new(bytes.Buffer)

	err := opts.RunWithUI(ui.NewCustomWriterTTY(false, stdout, nil))
	require.NoError(t, err)
	assert.Equal(t, "package:\n  name: foo\n  version: \"1.10\"\nrun:\n  - python\n  - numpy\n", stdout.String())
}

func TestFmtJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.yml")
	require.NoError(t, os.WriteFile(path, []byte("b: 1\na: [x]\n"), 0600))

	opts := cmd.NewFmtOptions()
	opts.Files = []string{path}
	opts.OutputFormat = "json"
	stdout := new(bytes.Buffer)

	err := opts.RunWithUI(ui.NewCustomWriterTTY(false, stdout, nil))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"b\": 1,\n  \"a\": [\n    \"x\"\n  ]\n}\n", stdout.String())
}

func TestFmtRequiresYAML(t *testing.T) {
	opts := cmd.NewFmtOptions()
	opts.Files = []string{"setup.py"}

	err := opts.RunWithUI(ui.NewCustomWriterTTY(false, new(bytes.Buffer), nil))
	require.EqualError(t, err, "Expected file 'setup.py' to be a YAML file")
}
