// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package filepos provides the concept of Position: a source name (usually a file),
line number and optionally a column within that source.

Positions are included in every template and YAML error so that the user can
find the offending expression. The zero-value of Position (can be created using
NewUnknownPosition()) represents generated content.
*/
package filepos
