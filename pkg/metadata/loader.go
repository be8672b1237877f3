// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"fmt"
	"time"

	"carvel.dev/kiln/pkg/filepos"
	"carvel.dev/kiln/pkg/files"
	"carvel.dev/kiln/pkg/orderedmap"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const DefaultTimeout = 5 * time.Second

type LoaderOpts struct {
	// Timeout bounds how long Load waits for a Starlark source. The
	// interpreter cannot be interrupted, so an evaluation that times out
	// keeps running in its goroutine until it finishes on its own (or
	// until the process exits). Long-lived callers such as --watch leak
	// one goroutine per timed out load.
	Timeout time.Duration
	Logger  zerolog.Logger
}

type Loader struct {
	opts     LoaderOpts
	validate *validator.Validate
}

func NewLoader(opts LoaderOpts) *Loader {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Loader{opts: opts, validate: newValidator()}
}

// Load reads metadata from path ("-" for stdin)
func (l *Loader) Load(path string) (PackageMetadata, error) {
	return l.LoadFile(files.NewFileFromPath(path))
}

func (l *Loader) LoadFile(file *files.File) (PackageMetadata, error) {
	l.opts.Logger.Debug().Str("source", file.Description()).Str("type", file.Type().String()).Msg("loading package metadata")

	data, err := file.Bytes()
	if err != nil {
		return PackageMetadata{}, &LoadError{Source: file.Description(), Msg: "Reading source", Err: err}
	}

	fields, err := l.decode(file, data)
	if err != nil {
		return PackageMetadata{}, err
	}

	meta, err := newPackageMetadata(fields)
	if err != nil {
		return PackageMetadata{}, &LoadError{Source: file.Description(), Err: err}
	}

	err = l.validate.Struct(meta)
	if err != nil {
		return PackageMetadata{}, &LoadError{Source: file.Description(), Err: validationErr(err)}
	}

	l.opts.Logger.Debug().Str("name", meta.Name).Int("dependencies", len(meta.Dependencies)).Msg("loaded package metadata")

	return meta, nil
}

func (l *Loader) decode(file *files.File, data []byte) (*orderedmap.Map, error) {
	var source fieldsSource

	switch file.Type() {
	case files.TypeStarlark:
		source = starlarkSource{timeout: l.opts.Timeout}
	case files.TypeTOML:
		source = tomlSource{}
	case files.TypeYAML, files.TypeJSON:
		source = yamlSource{}
	default:
		return nil, &LoadError{
			Source: file.Description(),
			Msg:    "Unsupported source type (expected setup.py, .star, .toml, .yaml, .yml or .json file)",
		}
	}

	fields, pos, err := source.Fields(data, file.Path())
	if err != nil {
		return nil, &LoadError{Source: file.Description(), Position: pos, Err: err}
	}
	return fields, nil
}

// fieldsSource decodes raw source into top-level fields;
// returned position (may be nil) locates decoding error
type fieldsSource interface {
	Fields(data []byte, path string) (*orderedmap.Map, *filepos.Position, error)
}

var _ = []fieldsSource{starlarkSource{}, tomlSource{}, yamlSource{}}

func expectedMappingErr(val interface{}) error {
	return fmt.Errorf("Expected top-level value to be a map, but was %s", typeName(val))
}
