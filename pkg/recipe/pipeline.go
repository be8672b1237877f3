// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package recipe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"carvel.dev/kiln/pkg/files"
	"carvel.dev/kiln/pkg/log"
	"carvel.dev/kiln/pkg/metadata"
	"carvel.dev/kiln/pkg/orderedmap"
	"carvel.dev/kiln/pkg/template"
	"carvel.dev/kiln/pkg/vcs"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type Options struct {
	// RecipePath is a recipe template; DefaultRecipe is used when empty
	RecipePath string
	SourcePath string `validate:"required"`
	// Dir is where git describe runs
	Dir          string
	Env          map[string]string
	GitTimeout   time.Duration `validate:"gte=0"`
	LoadTimeout  time.Duration `validate:"gte=0"`
	OutputFormat OutputFormat  `validate:"omitempty,oneof=yaml json toml"`

	Logger zerolog.Logger `validate:"-"`
	// Runner overrides how git is executed
	Runner vcs.Runner `validate:"-"`
}

type Pipeline struct {
	opts Options
}

type Result struct {
	Document *Document
	Output   []byte
}

func NewPipeline(opts Options) (*Pipeline, error) {
	err := validator.New().Struct(opts)
	if err != nil {
		return nil, optionsErr(err)
	}
	if len(opts.Dir) == 0 {
		opts.Dir = "."
	}
	return &Pipeline{opts}, nil
}

// Run loads recipe, renders it and emits it. Output is only
// returned when every stage succeeded.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	logger := log.Component(p.opts.Logger, "recipe")
	t1 := time.Now()

	tpl, err := p.parseRecipe()
	if err != nil {
		return Result{}, err
	}

	doc, err := Render(tpl, p.Context(ctx))
	if err != nil {
		return Result{}, err
	}

	out, err := Emit(doc, p.opts.OutputFormat)
	if err != nil {
		return Result{}, err
	}

	logger.Debug().Str("recipe", tpl.Name()).Dur("took", time.Since(t1)).Msg("rendered recipe")

	return Result{Document: doc, Output: out}, nil
}

// Context builds a fresh context; each call gets its own caches
func (p *Pipeline) Context(ctx context.Context) template.Context {
	return NewContext(ctx, ContextSources{
		Loader:     p.loader(),
		SourcePath: p.opts.SourcePath,
		RecipeDir:  p.recipeDir(),
		Resolver:   p.resolver(),
		Env:        p.opts.Env,
	})
}

// InspectContext eagerly loads metadata and resolves version
// (plumbed environment wins) for display
func (p *Pipeline) InspectContext(ctx context.Context) (*orderedmap.Map, error) {
	meta, err := p.loader().Load(p.opts.SourcePath)
	if err != nil {
		return nil, err
	}

	info, found, err := vcs.FromEnv(p.opts.Env)
	if err != nil {
		return nil, err
	}
	if !found {
		info, err = p.resolver().Resolve(ctx)
		if err != nil {
			return nil, err
		}
	}

	version := orderedmap.NewMap()
	version.Set(vcs.EnvTag, info.Tag)
	version.Set(vcs.EnvNumber, info.Distance)
	version.Set(vcs.EnvHash, info.Hash)
	version.Set(varBuildStr, info.BuildString())

	result := orderedmap.NewMap()
	result.Set("metadata", meta.AsMap())
	result.Set("version", version)
	return result, nil
}

// WatchedPaths are local files whose change affects output
func (p *Pipeline) WatchedPaths() []string {
	var result []string
	for _, path := range []string{p.opts.RecipePath, p.opts.SourcePath} {
		if len(path) > 0 && path != "-" {
			result = append(result, path)
		}
	}
	return result
}

func (p *Pipeline) parseRecipe() (*template.Template, error) {
	if len(p.opts.RecipePath) == 0 {
		return template.NewParser().Parse([]byte(DefaultRecipe), defaultRecipeName)
	}

	file := files.NewFileFromPath(p.opts.RecipePath)

	data, err := file.Bytes()
	if err != nil {
		return nil, fmt.Errorf("Reading recipe: %w", err)
	}

	return template.NewParser().Parse(data, file.Path())
}

func (p *Pipeline) recipeDir() string {
	if len(p.opts.RecipePath) == 0 || p.opts.RecipePath == "-" {
		return "."
	}
	return files.NewFileFromPath(p.opts.RecipePath).Dir()
}

func (p *Pipeline) loader() *metadata.Loader {
	return metadata.NewLoader(metadata.LoaderOpts{
		Timeout: p.opts.LoadTimeout,
		Logger:  log.Component(p.opts.Logger, "metadata"),
	})
}

func (p *Pipeline) resolver() *vcs.Resolver {
	return vcs.NewResolver(vcs.ResolverOpts{
		Dir:     p.opts.Dir,
		Timeout: p.opts.GitTimeout,
		Runner:  p.opts.Runner,
		Logger:  log.Component(p.opts.Logger, "vcs"),
	})
}

func optionsErr(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var msgs []string
	for _, fieldErr := range validationErrs {
		msgs = append(msgs, fmt.Sprintf("Expected option %s to satisfy '%s' (was '%v')", fieldErr.Field(), fieldErr.ActualTag()+paramSuffix(fieldErr.Param()), fieldErr.Value()))
	}
	return fmt.Errorf("Invalid options: %s", strings.Join(msgs, ", "))
}

func paramSuffix(param string) string {
	if len(param) == 0 {
		return ""
	}
	return "=" + param
}
