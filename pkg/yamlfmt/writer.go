// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package yamlfmt

import (
	"io"
)

type writer struct {
	writer    io.Writer
	lastChunk writerChunk
}

type writerChunk struct {
	Content        string
	Indent         string
	AllowsInlining bool
	InliningSpacer string
	CanBeInlined   bool
}

func newWriter(w io.Writer) *writer {
	return &writer{writer: w}
}

// AddContent writes chunk on its own line unless previous chunk
// allows following content to continue on the same line (eg "- ")
func (w *writer) AddContent(chunk writerChunk) {
	defer func() {
		w.lastChunk = chunk
	}()

	if w.lastChunk.AllowsInlining {
		if !chunk.CanBeInlined {
			w.write("\n")
			w.write(chunk.Indent)
		} else {
			w.write(w.lastChunk.InliningSpacer)
		}
	} else {
		w.write(chunk.Indent)
	}

	w.write(chunk.Content)

	if !chunk.AllowsInlining {
		w.write("\n")
	}
}

func (w *writer) write(str string) {
	// writes go to an in-memory buffer
	_, _ = io.WriteString(w.writer, str)
}
