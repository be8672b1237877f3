// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package filetests

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimTrailingMultilineWhitespace(t *testing.T) {
	for _, testcase := range []struct {
		give, want string
	}{
		{
			give: `we want yaml`,
			want: `we want yaml`,
		},
		{
			give: `we want yaml `,
			want: `we want yaml`,
		},
		{
			give: `we want yaml	`,
			want: `we want yaml`,
		},
		{
			give: `we want yaml
`,
			want: `we want yaml`,
		},
		{
			give: `
we 
want	
yaml  `,
			want: `
we
want
yaml`,
		},
		{
			give: `
we

  want	
	yaml

`,
			want: `
we

  want
	yaml`,
		},
		{
			give: "ERR: Undefined key \"url\"  \n    meta.yaml:3:8 | x  \n\n",
			want: "ERR: Undefined key \"url\"\n    meta.yaml:3:8 | x",
		},
	} {
		assert.Equal(t, testcase.want, TrimTrailingMultilineWhitespace(testcase.give))
	}
}

func TestRunComparesOutputAndErrors(t *testing.T) {
	dir := t.TempDir()
	writeCase := func(name, content string) {
		assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}
	writeCase("ok.tpltest", "a\n+++\n\nA\n")
	writeCase("err.tpltest", "fail\n+++\n\nERR: failed on version __KILN_VERSION__\n")
	writeCase("ignored.txt", "not a test")

	var seen []string
	FileTests{
		PathToTests: dir,
		EvalFunc: func(src string) (string, *TestErr) {
			seen = append(seen, src)
			if src == "fail" {
				err := errors.New("failed on version 0.0.0")
				return "", NewTestErr(err, err)
			}
			return "A\n", nil
		},
	}.Run(t)

	assert.ElementsMatch(t, []string{"a", "fail"}, seen)
}
