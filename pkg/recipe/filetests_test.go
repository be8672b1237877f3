// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package recipe_test

import (
	"context"
	"fmt"
	"testing"

	"carvel.dev/kiln/pkg/metadata"
	"carvel.dev/kiln/pkg/recipe"
	"carvel.dev/kiln/pkg/template"
	"carvel.dev/kiln/test/filetests"
)

func TestRecipeFiletests(t *testing.T) {
	filetests.FileTests{
		PathToTests: "filetests",
		EvalFunc:    evalRecipe,
	}.Run(t)
}

func evalRecipe(src string) (string, *filetests.TestErr) {
	tpl, err := template.NewParser().Parse([]byte(src), "meta.yaml")
	if err != nil {
		return "", filetests.NewTestErr(err, fmt.Errorf("parse error: %v", err))
	}

	ctx := recipe.NewContext(context.Background(), recipe.ContextSources{
		Loader:     metadata.NewLoader(metadata.LoaderOpts{}),
		SourcePath: "testdata/setup.py",
		RecipeDir:  "testdata",
		Env: map[string]string{
			"GIT_DESCRIBE_TAG":    "v2.1.0",
			"GIT_DESCRIBE_NUMBER": "4",
			"GIT_DESCRIBE_HASH":   "0ff1ce5",
		},
	})

	doc, err := recipe.Render(tpl, ctx)
	if err != nil {
		return "", filetests.NewTestErr(err, fmt.Errorf("render error: %v", err))
	}

	out, err := recipe.Emit(doc, recipe.OutputFormatYAML)
	if err != nil {
		return "", filetests.NewTestErr(err, fmt.Errorf("emit error: %v", err))
	}
	return string(out), nil
}
