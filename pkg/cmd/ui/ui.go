// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"io"
)

// UI separates rendered documents (stdout) from diagnostics (stderr)
type UI interface {
	Printf(string, ...interface{})
	PrintBytes([]byte)
	Debugf(string, ...interface{})
	Warnf(str string, args ...interface{})
	DebugWriter() io.Writer
	IsDebug() bool
}
