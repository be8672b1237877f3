// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"fmt"

	"carvel.dev/kiln/pkg/filepos"
)

// LoadError indicates that metadata source is unreachable, malformed
// or does not satisfy field rules
type LoadError struct {
	Source   string
	Position *filepos.Position
	Msg      string
	Err      error
}

func (e *LoadError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if len(msg) > 0 {
			msg += ": "
		}
		msg += e.Err.Error()
	}
	if e.Position.IsKnown() {
		msg = fmt.Sprintf("%s: %s", e.Position.AsCompactString(), msg)
	}
	return fmt.Sprintf("Loading package metadata from %s: %s", e.Source, msg)
}

func (e *LoadError) Unwrap() error { return e.Err }
