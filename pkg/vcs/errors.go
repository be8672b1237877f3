// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package vcs

import (
	"fmt"
)

// VersionError indicates that version control state could not be
// resolved into a tag and distance
type VersionError struct {
	Msg string
	Err error
}

func (e *VersionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Resolving version: %s", e.Msg)
	}
	return fmt.Sprintf("Resolving version: %s: %s", e.Msg, e.Err)
}

func (e *VersionError) Unwrap() error { return e.Err }
