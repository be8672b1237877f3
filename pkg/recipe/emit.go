// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"carvel.dev/kiln/pkg/orderedmap"
	"carvel.dev/kiln/pkg/yamlfmt"
	"github.com/BurntSushi/toml"
)

type OutputFormat string

const (
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatTOML OutputFormat = "toml"
)

// Emit serializes document; nothing is returned unless whole
// document could be serialized
func Emit(doc *Document, format OutputFormat) ([]byte, error) {
	switch format {
	case "", OutputFormatYAML:
		str, err := yamlfmt.NewPrinter(nil).PrintStr(doc.Tree)
		if err != nil {
			return nil, err
		}
		return []byte(str), nil

	case OutputFormatJSON:
		buf := new(bytes.Buffer)
		err := jsonEncoder{buf}.encode(doc.Tree, "")
		if err != nil {
			return nil, err
		}
		indentedBuf := new(bytes.Buffer)
		err = json.Indent(indentedBuf, buf.Bytes(), "", "  ")
		if err != nil {
			return nil, &yamlfmt.SerializationError{Msg: err.Error()}
		}
		indentedBuf.WriteString("\n")
		return indentedBuf.Bytes(), nil

	case OutputFormatTOML:
		if _, ok := doc.Tree.(*orderedmap.Map); !ok {
			return nil, &yamlfmt.SerializationError{Msg: fmt.Sprintf("Expected top-level value to be a map for toml output, but was %T", doc.Tree)}
		}
		val, err := orderedmap.Conversion{Object: doc.Tree}.AsUnorderedStringMaps()
		if err != nil {
			return nil, &yamlfmt.SerializationError{Msg: err.Error()}
		}
		buf := new(bytes.Buffer)
		err = toml.NewEncoder(buf).Encode(val)
		if err != nil {
			return nil, &yamlfmt.SerializationError{Msg: err.Error()}
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("Unknown output format '%s'", format)
	}
}

// jsonEncoder writes maps in their insertion order
type jsonEncoder struct {
	buf *bytes.Buffer
}

func (e jsonEncoder) encode(val interface{}, path string) error {
	switch typedVal := val.(type) {
	case *orderedmap.Map:
		e.buf.WriteString("{")
		i := 0
		err := typedVal.IterateErr(func(k, v interface{}) error {
			key, ok := k.(string)
			if !ok {
				return &yamlfmt.SerializationError{Path: path, Msg: fmt.Sprintf("Expected map key to be a string for json output, but was %T", k)}
			}
			if i > 0 {
				e.buf.WriteString(",")
			}
			i++
			if err := e.scalar(key, path); err != nil {
				return err
			}
			e.buf.WriteString(":")
			return e.encode(v, e.keyPath(path, key))
		})
		if err != nil {
			return err
		}
		e.buf.WriteString("}")
		return nil

	case []interface{}:
		e.buf.WriteString("[")
		for i, item := range typedVal {
			if i > 0 {
				e.buf.WriteString(",")
			}
			if err := e.encode(item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		e.buf.WriteString("]")
		return nil

	case float64:
		if math.IsNaN(typedVal) || math.IsInf(typedVal, 0) {
			return &yamlfmt.SerializationError{Path: path, Msg: fmt.Sprintf("Unsupported float value %v for json output", typedVal)}
		}
		return e.scalar(val, path)

	case nil, string, bool, int, int64, uint64:
		return e.scalar(val, path)

	default:
		return &yamlfmt.SerializationError{
			Path: path,
			Msg:  fmt.Sprintf("Unsupported value of type %T (expected scalar, list or ordered map)", val),
		}
	}
}

func (e jsonEncoder) scalar(val interface{}, path string) error {
	scalarBuf := new(bytes.Buffer)
	enc := json.NewEncoder(scalarBuf)
	enc.SetEscapeHTML(false)

	err := enc.Encode(val)
	if err != nil {
		return &yamlfmt.SerializationError{Path: path, Msg: err.Error()}
	}
	e.buf.Write(bytes.TrimSuffix(scalarBuf.Bytes(), []byte("\n")))
	return nil
}

func (e jsonEncoder) keyPath(path, key string) string {
	if len(path) == 0 {
		return key
	}
	return path + "." + key
}
