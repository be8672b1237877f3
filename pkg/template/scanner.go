// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"sort"
	"strings"

	"carvel.dev/kiln/pkg/filepos"
)

type pieceKind int

const (
	pieceText pieceKind = iota
	pieceOutput
	pieceStmt
	pieceComment
)

var pieceClosings = map[byte]string{
	'{': "}}",
	'%': "%}",
	'#': "#}",
}

var pieceKinds = map[byte]pieceKind{
	'{': pieceOutput,
	'%': pieceStmt,
	'#': pieceComment,
}

type piece struct {
	Kind     pieceKind
	Content  string
	Position *filepos.Position

	start      int // offset of whole tag (or text) within data
	end        int
	codeOffset int

	trimLeft  bool
	trimRight bool
}

type scanner struct {
	data       string
	name       string
	lineStarts []int
}

func newScanner(data, name string) *scanner {
	lineStarts := []int{0}
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}
	return &scanner{data: data, name: name, lineStarts: lineStarts}
}

// Scan splits data into text and tag pieces and applies whitespace control
func (s *scanner) Scan() ([]*piece, error) {
	var pieces []*piece

	data := s.data
	textStart := 0
	i := 0

	for i < len(data)-1 {
		kind, isTag := pieceKinds[data[i+1]]
		if data[i] != '{' || !isTag {
			i++
			continue
		}

		if i > textStart {
			pieces = append(pieces, &piece{Kind: pieceText, start: textStart, end: i, Position: s.posAt(textStart)})
		}

		closing := pieceClosings[data[i+1]]
		tag := &piece{Kind: kind, start: i, Position: s.posAt(i)}

		codeStart := i + 2
		if codeStart < len(data) && data[codeStart] == '-' {
			tag.trimLeft = true
			codeStart++
		}

		closeIdx := s.findClosing(codeStart, closing, kind == pieceComment)
		if closeIdx < 0 {
			return nil, newErr(tag.Position, "", "Missing closing '%s' for tag opened with '%s'", closing, data[i:i+2])
		}

		codeEnd := closeIdx
		if codeEnd > codeStart && data[codeEnd-1] == '-' {
			tag.trimRight = true
			codeEnd--
		}

		tag.Content = data[codeStart:codeEnd]
		tag.codeOffset = codeStart
		tag.end = closeIdx + len(closing)
		pieces = append(pieces, tag)

		i = tag.end
		textStart = i
	}

	if textStart < len(data) {
		pieces = append(pieces, &piece{Kind: pieceText, start: textStart, end: len(data), Position: s.posAt(textStart)})
	}

	return s.applyWhitespaceControl(pieces), nil
}

// findClosing returns offset of closing delimiter skipping over string literals
func (s *scanner) findClosing(from int, closing string, isComment bool) int {
	if isComment {
		idx := strings.Index(s.data[from:], closing)
		if idx < 0 {
			return -1
		}
		return from + idx
	}

	var quote byte
	for i := from; i < len(s.data); i++ {
		currChar := s.data[i]
		switch {
		case quote != 0:
			if currChar == '\\' {
				i++
			} else if currChar == quote {
				quote = 0
			}
		case currChar == '\'' || currChar == '"':
			quote = currChar
		case strings.HasPrefix(s.data[i:], closing):
			return i
		}
	}
	return -1
}

func (s *scanner) applyWhitespaceControl(pieces []*piece) []*piece {
	data := s.data
	deleted := make([]bool, len(data))

	for _, p := range pieces {
		if p.Kind == pieceText {
			continue
		}

		if p.trimLeft {
			for k := p.start - 1; k >= 0 && isSpace(data[k]); k-- {
				deleted[k] = true
			}
		}
		if p.trimRight {
			for k := p.end; k < len(data) && isSpace(data[k]); k++ {
				deleted[k] = true
			}
		}

		if p.Kind == pieceStmt || p.Kind == pieceComment {
			s.deleteOwnedLine(p, deleted)
		}
	}

	var result []*piece

	for _, p := range pieces {
		if p.Kind != pieceText {
			result = append(result, p)
			continue
		}

		var content strings.Builder
		for k := p.start; k < p.end; k++ {
			if !deleted[k] {
				content.WriteByte(data[k])
			}
		}
		if content.Len() > 0 {
			p.Content = content.String()
			result = append(result, p)
		}
	}

	return result
}

// deleteOwnedLine removes line of a tag that is the only content on it
// (including indentation and trailing newline)
func (s *scanner) deleteOwnedLine(p *piece, deleted []bool) {
	data := s.data

	lineStart := strings.LastIndexByte(data[:p.start], '\n') + 1
	for k := lineStart; k < p.start; k++ {
		if data[k] != ' ' && data[k] != '\t' {
			return
		}
	}

	lineEnd := len(data)
	if idx := strings.IndexByte(data[p.end:], '\n'); idx >= 0 {
		lineEnd = p.end + idx
	}
	for k := p.end; k < lineEnd; k++ {
		if data[k] != ' ' && data[k] != '\t' && data[k] != '\r' {
			return
		}
	}

	for k := lineStart; k < p.start; k++ {
		deleted[k] = true
	}
	for k := p.end; k <= lineEnd && k < len(data); k++ {
		deleted[k] = true
	}
}

func (s *scanner) posAt(offset int) *filepos.Position {
	lineIdx := sort.Search(len(s.lineStarts), func(i int) bool { return s.lineStarts[i] > offset }) - 1
	lineStart := s.lineStarts[lineIdx]

	lineEnd := len(s.data)
	if idx := strings.IndexByte(s.data[lineStart:], '\n'); idx >= 0 {
		lineEnd = lineStart + idx
	}

	pos := filepos.NewPositionAt(s.name, lineIdx+1, offset-lineStart+1)
	pos.SetLine(s.data[lineStart:lineEnd])
	return pos
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
