// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"path/filepath"
	"strings"
)

var (
	yamlExts     = []string{".yaml", ".yml"}
	jsonExts     = []string{".json"}
	tomlExts     = []string{".toml"}
	starlarkExts = []string{".star", ".py"}
)

type Type int

const (
	TypeUnknown Type = iota
	TypeYAML
	TypeJSON
	TypeTOML
	TypeStarlark
)

func (t Type) String() string {
	switch t {
	case TypeYAML:
		return "yaml"
	case TypeJSON:
		return "json"
	case TypeTOML:
		return "toml"
	case TypeStarlark:
		return "starlark"
	default:
		return "unknown"
	}
}

type File struct {
	src Source
}

// NewFileFromPath returns stdin backed file for "-" and local file otherwise
func NewFileFromPath(path string) *File {
	if path == "-" {
		return NewFileFromSource(NewStdinSource())
	}
	return NewFileFromSource(NewLocalSource(path))
}

func NewFileFromSource(src Source) *File {
	return &File{src: src}
}

func (r *File) Description() string    { return r.src.Description() }
func (r *File) Path() string           { return r.src.Path() }
func (r *File) Bytes() ([]byte, error) { return r.src.Bytes() }

// Dir returns directory that relative references from this file resolve against
func (r *File) Dir() string { return filepath.Dir(r.src.Path()) }

func (r *File) Type() Type {
	switch {
	case r.matchesExt(yamlExts):
		return TypeYAML
	case r.matchesExt(jsonExts):
		return TypeJSON
	case r.matchesExt(tomlExts):
		return TypeTOML
	case r.matchesExt(starlarkExts):
		return TypeStarlark
	default:
		return TypeUnknown
	}
}

func (r *File) matchesExt(exts []string) bool {
	filename := strings.ToLower(filepath.Base(r.Path()))
	for _, ext := range exts {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}

// ResolvePath joins relative path onto dir; absolute paths are returned as is
func ResolvePath(dir, path string) string {
	if filepath.IsAbs(path) || path == "-" {
		return path
	}
	return filepath.Join(dir, path)
}
