// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package yamlfmt

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"carvel.dev/kiln/pkg/orderedmap"
	"carvel.dev/kiln/pkg/yamlmeta"
)

// plain "<<" key would be read back as a merge
const mergeKey = "<<"

type Printer struct {
	writer io.Writer
}

// SerializationError indicates that the tree holds a value
// that cannot be represented in YAML
type SerializationError struct {
	Path string
	Msg  string
}

func (e *SerializationError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("Serializing document: %s", e.Msg)
	}
	return fmt.Sprintf("Serializing document at '%s': %s", e.Path, e.Msg)
}

func NewPrinter(writer io.Writer) *Printer {
	return &Printer{writer}
}

// Print writes val only when whole tree can be serialized
func (p *Printer) Print(val interface{}) error {
	str, err := p.PrintStr(val)
	if err != nil {
		return err
	}
	_, err = io.WriteString(p.writer, str)
	return err
}

func (p *Printer) PrintStr(val interface{}) (string, error) {
	buf := new(bytes.Buffer)
	err := p.print(val, whitespace{}, "", newWriter(buf))
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (p *Printer) print(val interface{}, ws whitespace, path string, writer *writer) error {
	leafVal, err := p.leafValue(val, path)
	if err != nil {
		return err
	}
	if leafVal.IsLeaf {
		writer.AddContent(writerChunk{
			Indent:       ws.Indent,
			Content:      leafVal.String,
			CanBeInlined: true,
		})
		return nil
	}

	switch typedVal := val.(type) {
	case *orderedmap.Map:
		return typedVal.IterateErr(func(key, itemVal interface{}) error {
			keyPath := p.keyPath(path, key)

			keyVal, err := p.leafValue(key, keyPath)
			if err != nil {
				return err
			}
			if !keyVal.IsScalar {
				return &SerializationError{Path: keyPath, Msg: fmt.Sprintf("Expected map key to be a scalar, but was %T", key)}
			}
			if keyVal.String == mergeKey {
				keyVal.String = strconv.Quote(mergeKey)
			}

			itemLeafVal, err := p.leafValue(itemVal, keyPath)
			if err != nil {
				return err
			}

			if itemLeafVal.IsLeaf {
				writer.AddContent(writerChunk{
					Indent:       ws.Indent,
					Content:      fmt.Sprintf("%s: %s", keyVal.String, itemLeafVal.String),
					CanBeInlined: true,
				})
				return nil
			}

			writer.AddContent(writerChunk{
				Indent:       ws.Indent,
				Content:      keyVal.String + ":",
				CanBeInlined: true,
			})
			return p.print(itemVal, ws.NewIndented(), keyPath, writer)
		})

	case []interface{}:
		for i, item := range typedVal {
			itemPath := fmt.Sprintf("%s[%d]", path, i)

			itemLeafVal, err := p.leafValue(item, itemPath)
			if err != nil {
				return err
			}

			if itemLeafVal.IsLeaf {
				writer.AddContent(writerChunk{
					Indent:       ws.Indent,
					Content:      "- " + itemLeafVal.String,
					CanBeInlined: true,
				})
				continue
			}

			writer.AddContent(writerChunk{
				Indent:         ws.Indent,
				Content:        "-",
				AllowsInlining: true,
				InliningSpacer: " ",
				CanBeInlined:   true,
			})

			err = p.print(item, ws.NewIndented(), itemPath, writer)
			if err != nil {
				return err
			}
		}
		return nil

	default:
		panic(fmt.Sprintf("Unexpected non-leaf %T in Printer", val))
	}
}

func (p *Printer) keyPath(path string, key interface{}) string {
	if len(path) == 0 {
		return fmt.Sprintf("%v", key)
	}
	return fmt.Sprintf("%s.%v", path, key)
}

type printerLeafValue struct {
	String   string
	IsLeaf   bool
	IsScalar bool
}

func (p *Printer) leafValue(val interface{}, path string) (printerLeafValue, error) {
	scalar := func(str string) (printerLeafValue, error) {
		return printerLeafValue{String: str, IsLeaf: true, IsScalar: true}, nil
	}

	switch typedVal := val.(type) {
	case *orderedmap.Map:
		if typedVal == nil || typedVal.Len() == 0 {
			return printerLeafValue{String: "{}", IsLeaf: true}, nil
		}
		return printerLeafValue{}, nil

	case []interface{}:
		if len(typedVal) == 0 {
			return printerLeafValue{String: "[]", IsLeaf: true}, nil
		}
		return printerLeafValue{}, nil

	case nil:
		return scalar("null")

	case bool:
		return scalar(strconv.FormatBool(typedVal))

	case string:
		if !utf8.ValidString(typedVal) {
			return printerLeafValue{}, &SerializationError{Path: path, Msg: "Expected string to be valid UTF-8"}
		}
		if yamlmeta.IsPlainSafe(typedVal) {
			return scalar(typedVal)
		}
		return scalar(strconv.Quote(typedVal))

	case int:
		return scalar(strconv.FormatInt(int64(typedVal), 10))
	case int8:
		return scalar(strconv.FormatInt(int64(typedVal), 10))
	case int16:
		return scalar(strconv.FormatInt(int64(typedVal), 10))
	case int32:
		return scalar(strconv.FormatInt(int64(typedVal), 10))
	case int64:
		return scalar(strconv.FormatInt(typedVal, 10))
	case uint:
		return scalar(strconv.FormatUint(uint64(typedVal), 10))
	case uint8:
		return scalar(strconv.FormatUint(uint64(typedVal), 10))
	case uint16:
		return scalar(strconv.FormatUint(uint64(typedVal), 10))
	case uint32:
		return scalar(strconv.FormatUint(uint64(typedVal), 10))
	case uint64:
		return scalar(strconv.FormatUint(typedVal, 10))

	case float32:
		return scalar(p.formatFloat(float64(typedVal)))
	case float64:
		return scalar(p.formatFloat(typedVal))

	default:
		return printerLeafValue{}, &SerializationError{
			Path: path,
			Msg:  fmt.Sprintf("Unsupported value of type %T (expected scalar, list or ordered map)", val),
		}
	}
}

func (p *Printer) formatFloat(val float64) string {
	switch {
	case math.IsNaN(val):
		return ".nan"
	case math.IsInf(val, 1):
		return ".inf"
	case math.IsInf(val, -1):
		return "-.inf"
	}

	str := strconv.FormatFloat(val, 'g', -1, 64)
	if !strings.ContainsAny(str, ".e") {
		str += ".0" // keep float type when read back
	}
	return str
}

type whitespace struct {
	Indent string
}

func (w whitespace) NewIndented() whitespace {
	const indentLvl = "  "
	return whitespace{Indent: w.Indent + indentLvl}
}
