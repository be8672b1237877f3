// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package yamlmeta parses a YAML document into a plain tree made of
*orderedmap.Map, []interface{} and scalars (string, int, float64, bool, nil).

This tree is the rendered recipe document: mapping keys keep their source order
so that emitting it again (see yamlfmt) reproduces the layout of the template.
*/
package yamlmeta
