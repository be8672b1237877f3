// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenString
	tokenInt
	tokenFloat
	tokenOp
)

func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of expression"
	case tokenIdent:
		return "identifier"
	case tokenString:
		return "string"
	case tokenInt, tokenFloat:
		return "number"
	default:
		return "operator"
	}
}

type token struct {
	kind  tokenKind
	val   string // unquoted for strings
	start int
	end   int
}

func (t token) isOp(op string) bool      { return t.kind == tokenOp && t.val == op }
func (t token) isKeyword(kw string) bool { return t.kind == tokenIdent && t.val == kw }

func (t token) describe() string {
	if t.kind == tokenEOF {
		return t.kind.String()
	}
	return fmt.Sprintf("%s '%s'", t.kind, t.val)
}

// longest operators first
var operators = []string{"==", "!=", "<=", ">=", "<", ">", "=", ".", ",", "(", ")", "[", "]", "|", "~"}

type lexError struct {
	offset int
	msg    string
}

func (e lexError) Error() string { return e.msg }

func lex(code string) ([]token, error) {
	var tokens []token
	i := 0

	for i < len(code) {
		currChar := code[i]

		switch {
		case isSpace(currChar):
			i++

		case isIdentStart(currChar):
			start := i
			for i < len(code) && isIdentPart(code[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenIdent, val: code[start:i], start: start, end: i})

		case isDigit(currChar):
			start := i
			kind := tokenInt
			for i < len(code) && isDigit(code[i]) {
				i++
			}
			if i+1 < len(code) && code[i] == '.' && isDigit(code[i+1]) {
				kind = tokenFloat
				i++
				for i < len(code) && isDigit(code[i]) {
					i++
				}
			}
			tokens = append(tokens, token{kind: kind, val: code[start:i], start: start, end: i})

		case currChar == '\'' || currChar == '"':
			tok, err := lexString(code, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = tok.end

		default:
			var matched string
			for _, op := range operators {
				if strings.HasPrefix(code[i:], op) {
					matched = op
					break
				}
			}
			if len(matched) == 0 {
				return nil, lexError{i, fmt.Sprintf("Unexpected character '%c'", currChar)}
			}
			tokens = append(tokens, token{kind: tokenOp, val: matched, start: i, end: i + len(matched)})
			i += len(matched)
		}
	}

	return append(tokens, token{kind: tokenEOF, start: len(code), end: len(code)}), nil
}

func lexString(code string, start int) (token, error) {
	quote := code[start]
	var val strings.Builder

	for i := start + 1; i < len(code); i++ {
		currChar := code[i]
		switch currChar {
		case quote:
			return token{kind: tokenString, val: val.String(), start: start, end: i + 1}, nil
		case '\\':
			if i+1 >= len(code) {
				break
			}
			i++
			switch code[i] {
			case 'n':
				val.WriteByte('\n')
			case 't':
				val.WriteByte('\t')
			case 'r':
				val.WriteByte('\r')
			case '\\', '\'', '"':
				val.WriteByte(code[i])
			default:
				val.WriteByte('\\')
				val.WriteByte(code[i])
			}
		default:
			val.WriteByte(currChar)
		}
	}

	return token{}, lexError{start, "Unterminated string literal"}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func parseIntToken(tok token) (int, error) {
	return strconv.Atoi(tok.val)
}
