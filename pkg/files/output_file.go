// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"os"
	"path/filepath"
)

type OutputFile struct {
	path string
	data []byte
}

func NewOutputFile(path string, data []byte) OutputFile {
	return OutputFile{path, data}
}

func (f OutputFile) Path() string  { return f.path }
func (f OutputFile) Bytes() []byte { return f.data }

// Create writes data next to destination and renames it into place
// so that readers never observe a partially written document.
func (f OutputFile) Create() error {
	dir := filepath.Dir(f.path)

	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return err
	}

	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	_, err = tmpFile.Write(f.data)
	if closeErr := tmpFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	err = os.Chmod(tmpPath, 0644)
	if err != nil {
		return err
	}

	return os.Rename(tmpPath, f.path)
}
