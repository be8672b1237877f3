// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package cmd is home to the full set of kiln's "commands" -- instances of cobra.Command
(not to be confused with ./cmd which contains the bootstrapping for executing kiln).

A cobra.Command is the starting point of execution.

For a list of commands run:

	$ kiln help

The default command is "render".
*/
package cmd
