// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"fmt"
	"os"
)

// Source provides bytes of a recipe or metadata file. Sources never reach
// out to the network.
type Source interface {
	Description() string
	Path() string
	Bytes() ([]byte, error)
}

var _ []Source = []Source{BytesSource{}, StdinSource{}, LocalSource{}, &CachedSource{}}

type BytesSource struct {
	path string
	data []byte
}

func NewBytesSource(path string, data []byte) BytesSource { return BytesSource{path, data} }

func (s BytesSource) Description() string    { return s.path }
func (s BytesSource) Path() string           { return s.path }
func (s BytesSource) Bytes() ([]byte, error) { return s.data, nil }

type StdinSource struct {
	bytes []byte
	err   error
}

func NewStdinSource() StdinSource {
	bs, err := ReadStdin()
	return StdinSource{bs, err}
}

func (s StdinSource) Description() string    { return "stdin" }
func (s StdinSource) Path() string           { return "stdin.yml" }
func (s StdinSource) Bytes() ([]byte, error) { return s.bytes, s.err }

type LocalSource struct {
	path string
}

func NewLocalSource(path string) LocalSource { return LocalSource{path} }

func (s LocalSource) Description() string { return fmt.Sprintf("file '%s'", s.path) }
func (s LocalSource) Path() string        { return s.path }

func (s LocalSource) Bytes() ([]byte, error) {
	bs, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("Reading %s: %w", s.Description(), err)
	}
	return bs, nil
}

// CachedSource reads underlying source at most once. Callers own its
// lifetime; it is meant to live no longer than a single render.
type CachedSource struct {
	src Source

	bytesFetched bool
	bytes        []byte
	bytesErr     error
}

func NewCachedSource(src Source) *CachedSource { return &CachedSource{src: src} }

func (s *CachedSource) Description() string { return s.src.Description() }
func (s *CachedSource) Path() string        { return s.src.Path() }

func (s *CachedSource) Bytes() ([]byte, error) {
	if s.bytesFetched {
		return s.bytes, s.bytesErr
	}

	s.bytesFetched = true
	s.bytes, s.bytesErr = s.src.Bytes()

	return s.bytes, s.bytesErr
}
