// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package vcs resolves the nearest tag and distance from it using
// "git describe". Tags are opaque strings.
package vcs
