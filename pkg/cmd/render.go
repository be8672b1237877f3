// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	cmdui "carvel.dev/kiln/pkg/cmd/ui"
	"carvel.dev/kiln/pkg/files"
	"carvel.dev/kiln/pkg/log"
	"carvel.dev/kiln/pkg/recipe"
	"carvel.dev/kiln/pkg/yamlfmt"
	uierrs "github.com/cppforlife/go-cli-ui/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const defaultSourcePath = "setup.py"

type RenderOptions struct {
	RecipePath string
	SourcePath string
	Dir        string

	EnvKVs []string
	UseEnv bool

	GitTimeout  time.Duration
	LoadTimeout time.Duration

	OutputPath   string
	OutputFormat string

	Watch          bool
	InspectContext bool

	Debug     bool
	LogFormat string
}

func NewRenderOptions() *RenderOptions {
	return &RenderOptions{}
}

func NewRenderCmd(o *RenderOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "render",
		Aliases: []string{"r"},
		Short:   "Render recipe (default command)",
		RunE:    func(cmd *cobra.Command, _ []string) error { return o.Run(cmd.Context()) },
	}
	cmd.Flags().StringVarP(&o.RecipePath, "recipe", "r", "", "Recipe template (ie local path, -) (built-in recipe is used when not specified)")
	cmd.Flags().StringVarP(&o.SourcePath, "source", "s", defaultSourcePath, "Package metadata (ie setup.py, pyproject.toml, .star, .yml, .json)")
	cmd.Flags().StringVar(&o.Dir, "dir", ".", "Directory in which git describe is run")

	cmd.Flags().StringArrayVar(&o.EnvKVs, "env", nil, "Set environment variable visible to recipe (format: KEY=VALUE) (can be specified multiple times)")
	cmd.Flags().BoolVar(&o.UseEnv, "use-env", false, "Make process environment visible to recipe (--env takes precedence)")

	cmd.Flags().DurationVar(&o.GitTimeout, "git-timeout", 0, "Limit for running git describe (default 10s)")
	cmd.Flags().DurationVar(&o.LoadTimeout, "load-timeout", 0, "Limit for evaluating Starlark metadata (default 5s)")

	cmd.Flags().StringVarP(&o.OutputPath, "output", "o", "", "Write document to file instead of stdout")
	cmd.Flags().StringVar(&o.OutputFormat, "output-format", string(recipe.OutputFormatYAML), "Document format (yaml, json, toml)")

	cmd.Flags().BoolVar(&o.Watch, "watch", false, "Re-render when recipe or metadata source changes")
	cmd.Flags().BoolVar(&o.InspectContext, "inspect-context", false, "Print loaded metadata and resolved version instead of rendering")

	cmd.Flags().BoolVar(&o.Debug, "debug", false, "Enable debug output")
	cmd.Flags().StringVar(&o.LogFormat, "log-format", log.FormatConsole, "Diagnostic log format (console, json)")
	return cmd
}

func (o *RenderOptions) Run(ctx context.Context) error {
	return o.RunWithUI(ctx, cmdui.NewTTY(o.Debug))
}

func (o *RenderOptions) RunWithUI(ctx context.Context, ui cmdui.UI) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := o.logger()
	if err != nil {
		return err
	}
	ctx = log.WithContext(ctx, logger)

	if o.Watch && o.InspectContext {
		return fmt.Errorf("Expected only one of --watch and --inspect-context to be specified")
	}

	env, err := o.env()
	if err != nil {
		return err
	}

	pipeline, err := recipe.NewPipeline(recipe.Options{
		RecipePath:   o.RecipePath,
		SourcePath:   o.SourcePath,
		Dir:          o.Dir,
		Env:          env,
		GitTimeout:   o.GitTimeout,
		LoadTimeout:  o.LoadTimeout,
		OutputFormat: recipe.OutputFormat(o.OutputFormat),
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	switch {
	case o.InspectContext:
		return o.inspectContext(ctx, pipeline, ui)

	case o.Watch:
		watcher := NewWatcher(WatcherOpts{Paths: pipeline.WatchedPaths(), Logger: log.Component(logger, "watch")})
		return watcher.Run(ctx, func() {
			err := o.render(ctx, pipeline, ui)
			if err != nil {
				ui.Warnf("kiln: Error: %s\n", uierrs.NewMultiLineError(err))
			}
		})

	default:
		return o.render(ctx, pipeline, ui)
	}
}

func (o *RenderOptions) render(ctx context.Context, pipeline *recipe.Pipeline, ui cmdui.UI) error {
	t1 := time.Now()

	defer func() {
		ui.Debugf("total: %s\n", time.Since(t1))
	}()

	result, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	return o.output(ctx, result.Output, ui)
}

func (o *RenderOptions) output(ctx context.Context, data []byte, ui cmdui.UI) error {
	if len(o.OutputPath) == 0 || o.OutputPath == "-" {
		ui.PrintBytes(data)
		return nil
	}

	err := files.NewOutputFile(o.OutputPath, data).Create()
	if err != nil {
		return fmt.Errorf("Writing output file '%s': %w", o.OutputPath, err)
	}

	logger := log.FromContext(ctx)
	logger.Debug().Str("path", o.OutputPath).Msg("wrote document")
	return nil
}

func (o *RenderOptions) inspectContext(ctx context.Context, pipeline *recipe.Pipeline, ui cmdui.UI) error {
	vals, err := pipeline.InspectContext(ctx)
	if err != nil {
		return err
	}

	out, err := yamlfmt.NewPrinter(nil).PrintStr(vals)
	if err != nil {
		return err
	}

	return o.output(ctx, []byte(out), ui)
}

// env merges process environment (when requested) with --env values
func (o *RenderOptions) env() (map[string]string, error) {
	result := map[string]string{}

	if o.UseEnv {
		for _, kv := range os.Environ() {
			pieces := strings.SplitN(kv, "=", 2)
			if len(pieces) == 2 {
				result[pieces[0]] = pieces[1]
			}
		}
	}

	for _, kv := range o.EnvKVs {
		pieces := strings.SplitN(kv, "=", 2)
		if len(pieces) != 2 || len(pieces[0]) == 0 {
			return nil, fmt.Errorf("Expected --env value '%s' to be in KEY=VALUE format", kv)
		}
		result[pieces[0]] = pieces[1]
	}

	return result, nil
}

func (o *RenderOptions) logger() (zerolog.Logger, error) {
	level := ""
	if o.Debug {
		level = zerolog.LevelDebugValue
	}
	return log.New(log.Options{Level: level, Format: o.LogFormat})
}
