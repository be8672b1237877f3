// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package recipe

import (
	"errors"
	"strings"

	"carvel.dev/kiln/pkg/orderedmap"
	"carvel.dev/kiln/pkg/template"
	"carvel.dev/kiln/pkg/yamlmeta"
)

// Document is a rendered recipe: a tree of *orderedmap.Map,
// []interface{} and scalars
type Document struct {
	Tree interface{}
}

// Get walks tree through map keys; it is meant for callers
// inspecting well known fields such as package.name
func (d *Document) Get(keys ...string) (interface{}, bool) {
	val := d.Tree
	for _, key := range keys {
		typedMap, ok := val.(*orderedmap.Map)
		if !ok {
			return nil, false
		}
		val, ok = typedMap.Get(key)
		if !ok {
			return nil, false
		}
	}
	return val, true
}

// Render executes tpl and parses its output into a Document
func Render(tpl *template.Template, ctx template.Context) (*Document, error) {
	text, err := tpl.Execute(ctx)
	if err != nil {
		return nil, err
	}

	tree, err := yamlmeta.NewParser(yamlmeta.ParserOpts{}).ParseBytes([]byte(text), tpl.Name())
	if err != nil {
		renderErr := &template.RenderError{Msg: "Parsing rendered document", Err: err}
		var parseErr *yamlmeta.ParseError
		if errors.As(err, &parseErr) {
			renderErr.Err = errors.New(parseErr.Msg)
			renderErr.Position = parseErr.Position
			if parseErr.Position.IsKnown() {
				lines := strings.Split(text, "\n")
				if lineNum := parseErr.Position.LineNum(); lineNum <= len(lines) {
					renderErr.Position.SetLine(lines[lineNum-1])
				}
			}
		}
		return nil, renderErr
	}

	return &Document{Tree: tree}, nil
}
