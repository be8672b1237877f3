// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package pkg is the collection of packages that make up the implementation of kiln.

Packages are organized into layers and depend on each other only to the degree
required. In the inventory below, each package is named alongside its coupling
with the other packages in the codebase.

	(# of dependents) => <package name> => (# of dependencies)

# Entry Point

kiln is built into a single command-line tool:

	./cmd/kiln

# Commands

The default command is "render"; "fmt" and "version" round out the set.

	(1) => pkg/cmd => (7)
	(1) => pkg/cmd/ui => (0)

# The Pipeline

Rendering a recipe is a sequence of steps: the recipe template is parsed,
executed against a context whose values are loaded and resolved on first
reference, the output is parsed as YAML and finally emitted in the requested
format.

	(2) => pkg/recipe => (8)

# Context Sources

Package metadata is read from setup.py (evaluated as Starlark), .star,
pyproject.toml, YAML or JSON files. Version information comes from the
environment or from `git describe`.

	(2) => pkg/metadata => (4)
	(2) => pkg/vcs => (0)

# Templating

Recipes are text templates with substitutions ({{ }}), statements ({% %}) and
comments ({# #}). Templates are parsed into a typed tree and evaluated against
an immutable context; no template code is ever compiled into a program.

	(2) => pkg/template => (3)

# YAML Structures

YAML is parsed into ordered maps so that key order survives a round trip.

	(4) => pkg/yamlmeta => (2)
	(2) => pkg/yamlfmt => (2)

# Utilities

The remainder are domain-agnostic utilities.

	(6) => pkg/filepos => (0)
	(6) => pkg/orderedmap => (0)
	(3) => pkg/files => (0)
	(4) => pkg/log => (0)
	(1) => pkg/spell => (0)
	(2) => pkg/version => (0)

# Dependencies

Each package's dependencies on other packages within this module are as follows
(if a package is not listed, it has no dependencies on other packages within
this module):

	pkg/cmd:
	- pkg/cmd/ui
	- pkg/files
	- pkg/log
	- pkg/recipe
	- pkg/version
	- pkg/yamlfmt
	- pkg/yamlmeta
	pkg/recipe:
	- pkg/files
	- pkg/log
	- pkg/metadata
	- pkg/orderedmap
	- pkg/template
	- pkg/vcs
	- pkg/yamlfmt
	- pkg/yamlmeta
	pkg/metadata:
	- pkg/filepos
	- pkg/files
	- pkg/orderedmap
	- pkg/yamlmeta
	pkg/template:
	- pkg/filepos
	- pkg/orderedmap
	- pkg/spell
	pkg/yamlfmt:
	- pkg/orderedmap
	- pkg/yamlmeta
	pkg/yamlmeta:
	- pkg/filepos
	- pkg/orderedmap
*/
package pkg
