// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package yamlmeta

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"carvel.dev/kiln/pkg/filepos"
	"carvel.dev/kiln/pkg/orderedmap"
	"gopkg.in/yaml.v3"
)

const (
	maxAliasDepth = 100
	timestampTag  = "!!timestamp"
)

var (
	// eg "yaml: line 2: found character that cannot start any token"
	lineErrRegexp = regexp.MustCompile(`^yaml: line (?P<num>\d+): (?P<msg>.+)$`)
)

type ParserOpts struct {
	// AllowMultipleDocs allows more than one document in a stream;
	// only the first one is returned
	AllowMultipleDocs bool
}

type Parser struct {
	opts           ParserOpts
	associatedName string
}

// ParseError describes invalid YAML at a position
type ParseError struct {
	Position *filepos.Position
	Msg      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Position.AsString(), e.Msg)
}

func NewParser(opts ParserOpts) *Parser {
	return &Parser{opts, ""}
}

// ParseBytes parses a single YAML document. Empty input produces nil.
func (p *Parser) ParseBytes(data []byte, associatedName string) (interface{}, error) {
	p.associatedName = associatedName

	dec := yaml.NewDecoder(bytes.NewReader(data))

	var docs []*yaml.Node

	for {
		var doc yaml.Node

		err := dec.Decode(&doc)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, p.errFromYAML(err)
		}

		docs = append(docs, &doc)
	}

	switch {
	case len(docs) == 0:
		return nil, nil
	case len(docs) > 1 && !p.opts.AllowMultipleDocs:
		return nil, &ParseError{
			Position: p.newPosition(docs[1].Line, docs[1].Column),
			Msg:      fmt.Sprintf("Expected exactly one YAML document, but found %d", len(docs)),
		}
	}

	return p.convert(docs[0], 0)
}

func (p *Parser) convert(node *yaml.Node, aliasDepth int) (interface{}, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return p.convert(node.Content[0], aliasDepth)

	case yaml.MappingNode:
		result := orderedmap.NewMap()
		seen := map[interface{}]struct{}{}

		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]

			if keyNode.Kind == yaml.ScalarNode && keyNode.Tag == "!!merge" {
				err := p.merge(result, valNode, aliasDepth)
				if err != nil {
					return nil, err
				}
				continue
			}

			if keyNode.Kind != yaml.ScalarNode {
				return nil, &ParseError{
					Position: p.newPosition(keyNode.Line, keyNode.Column),
					Msg:      "Expected map key to be a scalar",
				}
			}

			key, err := p.scalar(keyNode)
			if err != nil {
				return nil, err
			}

			if _, found := seen[key]; found {
				return nil, &ParseError{
					Position: p.newPosition(keyNode.Line, keyNode.Column),
					Msg:      fmt.Sprintf("Found duplicate map key '%v'", key),
				}
			}
			seen[key] = struct{}{}

			val, err := p.convert(valNode, aliasDepth)
			if err != nil {
				return nil, err
			}
			result.Set(key, val)
		}
		return result, nil

	case yaml.SequenceNode:
		result := []interface{}{}
		for _, itemNode := range node.Content {
			val, err := p.convert(itemNode, aliasDepth)
			if err != nil {
				return nil, err
			}
			result = append(result, val)
		}
		return result, nil

	case yaml.ScalarNode:
		return p.scalar(node)

	case yaml.AliasNode:
		if aliasDepth >= maxAliasDepth {
			return nil, &ParseError{
				Position: p.newPosition(node.Line, node.Column),
				Msg:      "Exceeded maximum alias nesting",
			}
		}
		return p.convert(node.Alias, aliasDepth+1)

	default:
		return nil, &ParseError{
			Position: p.newPosition(node.Line, node.Column),
			Msg:      fmt.Sprintf("Unknown YAML node kind %d", node.Kind),
		}
	}
}

// merge implements '<<' keys: explicitly set keys win over merged ones
func (p *Parser) merge(result *orderedmap.Map, node *yaml.Node, aliasDepth int) error {
	val, err := p.convert(node, aliasDepth)
	if err != nil {
		return err
	}

	var sources []*orderedmap.Map

	switch typedVal := val.(type) {
	case *orderedmap.Map:
		sources = append(sources, typedVal)
	case []interface{}:
		for _, item := range typedVal {
			typedItem, ok := item.(*orderedmap.Map)
			if !ok {
				return &ParseError{Position: p.newPosition(node.Line, node.Column), Msg: "Expected merge value to be a map or a list of maps"}
			}
			sources = append(sources, typedItem)
		}
	default:
		return &ParseError{Position: p.newPosition(node.Line, node.Column), Msg: "Expected merge value to be a map or a list of maps"}
	}

	for _, src := range sources {
		src.Iterate(func(k, v interface{}) {
			if _, found := result.Get(k); !found {
				result.Set(k, v)
			}
		})
	}
	return nil
}

func (p *Parser) scalar(node *yaml.Node) (interface{}, error) {
	// tree holds no time values; dates (eg calendar version tags) stay as written
	if node.ShortTag() == timestampTag {
		return node.Value, nil
	}

	var val interface{}

	err := node.Decode(&val)
	if err != nil {
		return nil, &ParseError{
			Position: p.newPosition(node.Line, node.Column),
			Msg:      err.Error(),
		}
	}

	switch typedVal := val.(type) {
	case int64:
		if int64(int(typedVal)) == typedVal {
			return int(typedVal), nil
		}
	case []byte:
		return string(typedVal), nil
	}
	return val, nil
}

func (p *Parser) errFromYAML(err error) error {
	submatches := lineErrRegexp.FindStringSubmatch(err.Error())
	if len(submatches) != 3 {
		return &ParseError{Position: filepos.NewUnknownPositionInFile(p.associatedName), Msg: err.Error()}
	}

	lineNum, parseErr := strconv.Atoi(submatches[1])
	if parseErr != nil || lineNum <= 0 {
		return &ParseError{Position: filepos.NewUnknownPositionInFile(p.associatedName), Msg: err.Error()}
	}

	return &ParseError{Position: p.newPosition(lineNum, 0), Msg: submatches[2]}
}

func (p *Parser) newPosition(line, col int) *filepos.Position {
	if line <= 0 {
		return filepos.NewUnknownPositionInFile(p.associatedName)
	}
	return filepos.NewPositionAt(p.associatedName, line, col)
}
