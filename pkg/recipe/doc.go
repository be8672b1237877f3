// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package recipe binds package metadata and version control state into a
recipe template and emits the resulting document.

A Pipeline runs Load, Resolve, Render and Emit once per invocation.
Metadata and version are pulled lazily: they are only loaded or resolved
when the recipe refers to them, and at most once per invocation.
*/
package recipe
