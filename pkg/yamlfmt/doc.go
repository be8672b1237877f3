// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package yamlfmt emits a rendered document (tree of *orderedmap.Map,
[]interface{} and scalars) as block-style YAML.

Key and item order is preserved, indentation is two spaces, and scalars are
quoted only when reading them back would not produce the same value.
*/
package yamlfmt
