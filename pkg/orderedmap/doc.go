// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package orderedmap provides a map implementation where the order of keys is
maintained (unlike the native Go map).

Rendered recipes are built from this map so that emitted documents keep the
key order of the recipe template.
*/
package orderedmap
