// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"strings"

	"carvel.dev/kiln/pkg/filepos"
)

// RenderError is returned for malformed templates and for failed evaluation
// (undefined references, type mismatches, failed coercions).
type RenderError struct {
	Position *filepos.Position
	Expr     string
	Msg      string
	Err      error

	undefined bool
}

func (e *RenderError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	if len(e.Expr) > 0 {
		msg = fmt.Sprintf("%s (in '%s')", msg, e.Expr)
	}

	if !e.Position.IsKnown() {
		return msg
	}

	result := []string{msg, fmt.Sprintf("    %s |", e.Position.AsCompactString())}
	if line := e.Position.GetLine(); len(line) > 0 {
		result[1] += " " + strings.TrimRight(line, "\r")
	}
	return strings.Join(result, "\n")
}

func (e *RenderError) Unwrap() error { return e.Err }

// IsUndefined indicates that error was caused by a reference to a missing
// variable, attribute or key
func (e *RenderError) IsUndefined() bool { return e.undefined }

func newErr(pos *filepos.Position, expr, msg string, args ...interface{}) *RenderError {
	return &RenderError{Position: pos, Expr: expr, Msg: fmt.Sprintf(msg, args...)}
}

func newUndefinedErr(pos *filepos.Position, expr, msg string, args ...interface{}) *RenderError {
	err := newErr(pos, expr, msg, args...)
	err.undefined = true
	return err
}

func (e *RenderError) withErr(err error) *RenderError {
	e.Err = err
	return e
}
