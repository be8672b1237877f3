// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package files reads recipe templates and metadata sources (local paths or
stdin) and writes rendered documents.

A File's Type is determined by its extension and decides which metadata
format is used to read it.
*/
package files
