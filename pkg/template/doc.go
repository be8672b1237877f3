// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package template implements the recipe templating language.

A template is text containing substitutions ({{ expr }}), statements
({% for %}, {% if %}, {% set %}) and comments ({# #}). Parse turns the text
into a tree of typed nodes (see ast.go); Execute walks that tree against an
immutable Context and produces text. There is no dynamic code execution:
expressions can only read context values, call the fixed set of methods and
filters, and call functions that were explicitly placed into the Context.

Statement and comment tags that are alone on their line remove that whole
line from the output, so templates of indentation sensitive formats (YAML)
keep their layout.
*/
package template
