// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"carvel.dev/kiln/pkg/version"
	"github.com/cppforlife/cobrautil"
	"github.com/spf13/cobra"
)

type KilnOptions struct{}

func NewDefaultKilnOptions() *KilnOptions {
	return &KilnOptions{}
}

func NewDefaultKilnCmd() *cobra.Command {
	return NewKilnCmd(NewDefaultKilnOptions())
}

func NewKilnCmd(o *KilnOptions) *cobra.Command {
	cmd := NewRenderCmd(NewRenderOptions())

	cmd.Use = "kiln"
	cmd.Aliases = nil
	cmd.Version = version.Version
	cmd.Short = "kiln renders package recipes"
	cmd.Long = `kiln renders package recipes.

Recipe templates are filled from package metadata (setup.py, pyproject.toml,
YAML or JSON) and from the version described by the nearest git tag.`

	// Affects children as well
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	// Disable docs header
	cmd.DisableAutoGenTag = true

	cmd.AddCommand(NewVersionCmd(NewVersionOptions()))
	cmd.AddCommand(NewRenderCmd(NewRenderOptions()))
	cmd.AddCommand(NewFmtCmd(NewFmtOptions()))

	// Reconfigure Commands
	cobrautil.VisitCommands(cmd, cobrautil.ReconfigureCmdWithSubcmd,
		cobrautil.DisallowExtraArgs, cobrautil.WrapRunEForCmd(cobrautil.ResolveFlagsForCmd))

	return cmd
}
