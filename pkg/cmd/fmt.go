// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"time"

	cmdui "carvel.dev/kiln/pkg/cmd/ui"
	"carvel.dev/kiln/pkg/files"
	"carvel.dev/kiln/pkg/recipe"
	"carvel.dev/kiln/pkg/yamlmeta"
	"github.com/spf13/cobra"
)

type FmtOptions struct {
	Files        []string
	OutputFormat string
	Debug        bool
}

func NewFmtOptions() *FmtOptions {
	return &FmtOptions{}
}

func NewFmtCmd(o *FmtOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt",
		Short: "Format YAML documents (eg rendered recipes)",
		RunE:  func(_ *cobra.Command, _ []string) error { return o.RunWithUI(cmdui.NewTTY(o.Debug)) },
	}
	cmd.Flags().StringArrayVarP(&o.Files, "file", "f", nil, "File (ie local path, -) (can be specified multiple times)")
	cmd.Flags().StringVar(&o.OutputFormat, "output-format", string(recipe.OutputFormatYAML), "Document format (yaml, json, toml)")
	cmd.Flags().BoolVar(&o.Debug, "debug", false, "Enable debug output")
	return cmd
}

func (o *FmtOptions) RunWithUI(ui cmdui.UI) error {
	t1 := time.Now()

	defer func() {
		ui.Debugf("total: %s\n", time.Since(t1))
	}()

	if len(o.Files) == 0 {
		return fmt.Errorf("Expected at least one file to be specified via --file")
	}

	for _, path := range o.Files {
		file := files.NewFileFromPath(path)

		if file.Type() != files.TypeYAML && path != "-" {
			return fmt.Errorf("Expected %s to be a YAML file", file.Description())
		}

		data, err := file.Bytes()
		if err != nil {
			return err
		}

		tree, err := yamlmeta.NewParser(yamlmeta.ParserOpts{}).ParseBytes(data, file.Path())
		if err != nil {
			return err
		}

		out, err := recipe.Emit(&recipe.Document{Tree: tree}, recipe.OutputFormat(o.OutputFormat))
		if err != nil {
			return err
		}

		ui.PrintBytes(out)
	}

	return nil
}
