// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package recipe_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"carvel.dev/kiln/pkg/metadata"
	"carvel.dev/kiln/pkg/orderedmap"
	"carvel.dev/kiln/pkg/recipe"
	"carvel.dev/kiln/pkg/template"
	"carvel.dev/kiln/pkg/vcs"
	"carvel.dev/kiln/pkg/yamlmeta"
	"github.com/google/go-cmp/cmp"
	"github.com/k14s/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	out   string
	err   error
	calls int
}

func (r *fakeRunner) Run(_ context.Context, _ string, _ string, _ ...string) ([]byte, error) {
	r.calls++
	return []byte(r.out), r.err
}

func noTagRunner() *fakeRunner {
	return &fakeRunner{err: &vcs.CommandError{
		Stderr: "fatal: No names found, cannot describe anything.",
		Err:    errors.New("exit status 128"),
	}}
}

const fooSetupPy = `from setuptools import setup, find_packages

setup(
    name="foo",
    version="1.2.3",
    url="https://example.com/foo",
    description="Foo tools",
    packages=find_packages(),
    install_requires=["NumPy", "Requests"],
)
`

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func writeJSON(t *testing.T, dir, name string, val interface{}) string {
	data, err := json.Marshal(val)
	require.NoError(t, err)
	return writeFile(t, dir, name, string(data))
}

func run(t *testing.T, opts recipe.Options) (recipe.Result, error) {
	pipeline, err := recipe.NewPipeline(opts)
	require.NoError(t, err)
	return pipeline.Run(context.Background())
}

func runList(t *testing.T, doc *recipe.Document) []interface{} {
	val, found := doc.Get("requirements", "run")
	require.True(t, found)
	return val.([]interface{})
}

func TestDefaultRecipe(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{out: "1.2.3-5-gabc1234\n"}

	result, err := run(t, recipe.Options{
		SourcePath: writeFile(t, dir, "setup.py", fooSetupPy),
		Runner:     runner,
	})
	require.NoError(t, err)

	const expected = `package:
  name: foo
  version: 1.2.3
build:
  number: 5
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
  home: https://example.com/foo
  summary: Foo tools
`
	if string(result.Output) != expected {
		diff := difflib.PPDiff(strings.Split(expected, "\n"), strings.Split(string(result.Output), "\n"))
		t.Fatalf("Not equal; diff expected...actual:\n%v\n", diff)
	}

	number, _ := result.Document.Get("build", "number")
	assert.Equal(t, 5, number)
	assert.Equal(t, 1, runner.calls, "expected git describe to run once")
}

func TestDefaultRecipeWithoutDependencies(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "meta.yml", "name: foo\nurl: https://x\ndescription: d\ndependencies: []\n")

	result, err := run(t, recipe.Options{SourcePath: src, Runner: &fakeRunner{out: "1.0.0-0-gabc"}})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"python>=3.10,<4"}, runList(t, result.Document))
}

func TestDependencyFidelity(t *testing.T) {
	deps := []string{"Zeta", "alpha>=1", "Beta[extra]", "numpy; python_version<'3.11'"}

	dir := t.TempDir()
	src := writeFile(t, dir, "meta.yml", "name: foo\nurl: https://x\ndescription: d\ndependencies:\n- Zeta\n- alpha>=1\n- Beta[extra]\n- \"numpy; python_version<'3.11'\"\n")

	result, err := run(t, recipe.Options{SourcePath: src, Runner: &fakeRunner{out: "1.0.0-0-gabc"}})
	require.NoError(t, err)

	run := runList(t, result.Document)
	require.Len(t, run, len(deps)+1)
	assert.Equal(t, "python>=3.10,<4", run[0])
	for i, dep := range deps {
		assert.Equal(t, strings.ToLower(dep), run[i+1])
	}
}

func TestDependencyFidelityWithYAMLSyntax(t *testing.T) {
	deps := []string{"foo #bar", "Baz: qux", "'quoted'", "yes", "[extra]", "- dash", "2048", "@scope"}

	src := writeJSON(t, t.TempDir(), "meta.json", map[string]interface{}{
		"name":         "foo",
		"url":          "https://x",
		"description":  "d",
		"dependencies": deps,
	})

	result, err := run(t, recipe.Options{SourcePath: src, Runner: &fakeRunner{out: "1.0.0-0-gabc"}})
	require.NoError(t, err)

	run := runList(t, result.Document)
	require.Len(t, run, len(deps)+1)
	for i, dep := range deps {
		assert.Equal(t, strings.ToLower(dep), run[i+1])
	}
}

func TestDefaultRecipeKeepsMetadataStrings(t *testing.T) {
	cases := []struct {
		desc        string
		name        string
		description string
		url         string
	}{
		{desc: "inner quotes", name: "foo", description: `A "fast" tool`, url: "https://x"},
		{desc: "leading quote", name: "foo", description: `"Fast" tool`, url: "https://x"},
		{desc: "backslashes", name: "foo", description: `Use \t and \n escapes`, url: "https://x"},
		{desc: "control chars", name: "foo", description: "tab\there\nnewline", url: "https://x"},
		{desc: "comment and colon", name: "foo", description: "Tools: #1 choice", url: "https://x/#readme"},
		{desc: "numeric name", name: "2048", description: "d", url: "https://x"},
		{desc: "bool-like name", name: "on", description: "yes", url: "null"},
		{desc: "date-like name", name: "2024-01-02", description: "d", url: "https://x"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.desc, func(t *testing.T) {
			src := writeJSON(t, t.TempDir(), "meta.json", map[string]interface{}{
				"name":         tc.name,
				"url":          tc.url,
				"description":  tc.description,
				"dependencies": []string{},
			})

			result, err := run(t, recipe.Options{SourcePath: src, Runner: &fakeRunner{out: "1.0.0-0-gabc"}})
			require.NoError(t, err)

			expected := []struct {
				path []string
				val  string
			}{
				{[]string{"package", "name"}, tc.name},
				{[]string{"about", "home"}, tc.url},
				{[]string{"about", "summary"}, tc.description},
			}
			for _, field := range expected {
				actual, found := result.Document.Get(field.path...)
				require.True(t, found, "missing %v", field.path)
				assert.Equal(t, field.val, actual, "%v", field.path)
			}

			imports, found := result.Document.Get("test", "imports")
			require.True(t, found)
			assert.Equal(t, []interface{}{tc.name}, imports)

			parsed, err := yamlmeta.NewParser(yamlmeta.ParserOpts{}).ParseBytes(result.Output, "out.yml")
			require.NoError(t, err)
			if diff := cmp.Diff(result.Document.Tree, parsed, cmp.Comparer(mapsEqual)); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDateLikeTag(t *testing.T) {
	dir := t.TempDir()

	result, err := run(t, recipe.Options{
		SourcePath: writeFile(t, dir, "setup.py", fooSetupPy),
		Env:        map[string]string{"GIT_DESCRIBE_TAG": "2024-01-02", "GIT_DESCRIBE_NUMBER": "3"},
	})
	require.NoError(t, err)

	version, _ := result.Document.Get("package", "version")
	assert.Equal(t, "2024-01-02", version)
	assert.Contains(t, string(result.Output), "  version: \"2024-01-02\"\n")

	// user recipe leaving the tag unquoted
	recipePath := writeFile(t, dir, "recipe/meta.yaml", "version: {{ GIT_DESCRIBE_TAG }}\n")
	result, err = run(t, recipe.Options{
		RecipePath: recipePath,
		SourcePath: "unused.py",
		Env:        map[string]string{"GIT_DESCRIBE_TAG": "2024-01-02"},
	})
	require.NoError(t, err)
	assert.Equal(t, "version: \"2024-01-02\"\n", string(result.Output))
}

func TestEmptyTagFromEnvironmentIsVersionError(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{out: "1.0.0-0-gabc"}

	_, err := run(t, recipe.Options{
		SourcePath: writeFile(t, dir, "setup.py", fooSetupPy),
		Env:        map[string]string{"GIT_DESCRIBE_TAG": "", "GIT_DESCRIBE_NUMBER": "1"},
		Runner:     runner,
	})
	require.Error(t, err)

	var versionErr *vcs.VersionError
	require.True(t, errors.As(err, &versionErr), "expected VersionError in %s", err)
	assert.Contains(t, err.Error(), "Expected GIT_DESCRIBE_TAG to be non-empty")
	assert.Equal(t, 0, runner.calls)
}

func TestMissingNameIsLoadError(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "setup.py", `setup(version="1.0", install_requires=["numpy"])`)

	_, err := run(t, recipe.Options{SourcePath: src, Runner: &fakeRunner{out: "1.0-0-gabc"}})
	require.Error(t, err)

	var loadErr *metadata.LoadError
	require.True(t, errors.As(err, &loadErr), "expected LoadError in %s", err)
	assert.Contains(t, err.Error(), "Expected 'name' to be a non-empty string")
}

func TestNoTagIsVersionError(t *testing.T) {
	dir := t.TempDir()
	runner := noTagRunner()

	_, err := run(t, recipe.Options{SourcePath: writeFile(t, dir, "setup.py", fooSetupPy), Runner: runner})
	require.Error(t, err)

	var versionErr *vcs.VersionError
	require.True(t, errors.As(err, &versionErr), "expected VersionError in %s", err)
	assert.Equal(t, 1, runner.calls, "expected no retries")
}

func TestEnvironmentWinsOverGit(t *testing.T) {
	dir := t.TempDir()
	runner := noTagRunner()

	result, err := run(t, recipe.Options{
		SourcePath: writeFile(t, dir, "setup.py", fooSetupPy),
		Env:        map[string]string{"GIT_DESCRIBE_TAG": "2.0.0", "GIT_DESCRIBE_NUMBER": "12"},
		Runner:     runner,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, runner.calls)

	version, _ := result.Document.Get("package", "version")
	assert.Equal(t, "2.0.0", version)
	number, _ := result.Document.Get("build", "number")
	assert.Equal(t, 12, number)
}

func TestNonNumericDistanceIsVersionError(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, recipe.Options{
		SourcePath: writeFile(t, dir, "setup.py", fooSetupPy),
		Env:        map[string]string{"GIT_DESCRIBE_TAG": "2.0.0", "GIT_DESCRIBE_NUMBER": "twelve"},
	})
	require.Error(t, err)

	var versionErr *vcs.VersionError
	require.True(t, errors.As(err, &versionErr), "expected VersionError in %s", err)
}

func TestGitDescribeRunsOncePerInvocation(t *testing.T) {
	dir := t.TempDir()
	recipePath := writeFile(t, dir, "recipe/meta.yaml", `
tag: "{{ GIT_DESCRIBE_TAG }}"
number: {{ GIT_DESCRIBE_NUMBER }}
hash: {{ GIT_DESCRIBE_HASH }}
build: {{ GIT_BUILD_STR }}
again: "{{ GIT_DESCRIBE_TAG }}"
`)
	runner := &fakeRunner{out: "v1.0-rc.1-3-gdeadbee"}

	opts := recipe.Options{RecipePath: recipePath, SourcePath: "unused.py", Runner: runner}

	result, err := run(t, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, "tag: v1.0-rc.1\nnumber: 3\nhash: deadbee\nbuild: 3_gdeadbee\nagain: v1.0-rc.1\n", string(result.Output))

	_, err = run(t, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, runner.calls, "expected no caching across invocations")
}

func TestMissingOptionalFieldFailsClosed(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "meta.yml", "name: foo\ndescription: d\n")

	_, err := run(t, recipe.Options{SourcePath: src, Runner: &fakeRunner{out: "1.0-0-gabc"}})
	require.Error(t, err)

	var renderErr *template.RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.True(t, renderErr.IsUndefined())
	assert.Contains(t, err.Error(), `Undefined key "url"`)
	assert.Contains(t, err.Error(), "meta.yaml:")
}

func TestRecipeFeatures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "extra/other.toml", "[project]\nname = \"other\"\ndependencies = [\"six\"]\n")
	recipePath := writeFile(t, dir, "recipe/meta.yaml", `{% set data = load_setup_py_data() %}
{% set other = load_file_data('../extra/other.toml') %}
name: {{ data.name }}
{% if data.url is defined %}
home: {{ data.url }}
{% endif %}
{% if data.license is not defined %}
license: unknown
{% endif %}
other: {{ other.name }}
other_deps: [{{ other.dependencies|join(', ') }}]
python: {{ PYTHON }}
home_env: {{ environ.get('HOME', 'none') }}
`)

	result, err := run(t, recipe.Options{
		RecipePath: recipePath,
		SourcePath: writeFile(t, dir, "setup.py", fooSetupPy),
		Env:        map[string]string{"PYTHON": "python3.12"},
	})
	require.NoError(t, err)

	expected := "name: foo\nhome: https://example.com/foo\nlicense: unknown\nother: other\nother_deps:\n  - six\npython: python3.12\nhome_env: none\n"
	assert.Equal(t, expected, string(result.Output))
}

func TestRenderedDocumentMustBeYAML(t *testing.T) {
	dir := t.TempDir()
	recipePath := writeFile(t, dir, "meta.yaml", "a: {{ 'b: c' }}\n")

	_, err := run(t, recipe.Options{RecipePath: recipePath, SourcePath: "unused.py"})
	require.Error(t, err)

	var renderErr *template.RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Contains(t, err.Error(), "Parsing rendered document")
}

func TestRunIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	opts := recipe.Options{
		SourcePath: writeFile(t, dir, "setup.py", fooSetupPy),
		Env:        map[string]string{"GIT_DESCRIBE_TAG": "1.2.3", "GIT_DESCRIBE_NUMBER": "5"},
	}

	first, err := run(t, opts)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		result, err := run(t, opts)
		require.NoError(t, err)
		assert.Equal(t, string(first.Output), string(result.Output))
	}
}

func TestEmittedDocumentRoundTrips(t *testing.T) {
	dir := t.TempDir()
	result, err := run(t, recipe.Options{
		SourcePath: writeFile(t, dir, "setup.py", fooSetupPy),
		Env:        map[string]string{"GIT_DESCRIBE_TAG": "1.10", "GIT_DESCRIBE_NUMBER": "0"},
	})
	require.NoError(t, err)

	version, _ := result.Document.Get("package", "version")
	assert.Equal(t, "1.10", version)

	parsed, err := yamlmeta.NewParser(yamlmeta.ParserOpts{}).ParseBytes(result.Output, "out.yml")
	require.NoError(t, err)

	if diff := cmp.Diff(result.Document.Tree, parsed, cmp.Comparer(mapsEqual)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionsValidation(t *testing.T) {
	_, err := recipe.NewPipeline(recipe.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected option SourcePath to satisfy 'required'")

	_, err = recipe.NewPipeline(recipe.Options{SourcePath: "setup.py", OutputFormat: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected option OutputFormat to satisfy 'oneof=yaml json toml' (was 'xml')")
}

func TestInspectContext(t *testing.T) {
	dir := t.TempDir()
	pipeline, err := recipe.NewPipeline(recipe.Options{
		SourcePath: writeFile(t, dir, "setup.py", fooSetupPy),
		Runner:     &fakeRunner{out: "1.2.3-5-gabc1234"},
	})
	require.NoError(t, err)

	result, err := pipeline.InspectContext(context.Background())
	require.NoError(t, err)

	version, _ := result.Get("version")
	assert.Equal(t, []interface{}{"GIT_DESCRIBE_TAG", "GIT_DESCRIBE_NUMBER", "GIT_DESCRIBE_HASH", "GIT_BUILD_STR"}, version.(*orderedmap.Map).Keys())

	meta, _ := result.Get("metadata")
	assert.NotNil(t, meta)
}
