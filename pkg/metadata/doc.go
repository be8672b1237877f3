// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package metadata reads package metadata (name, version, url, description
and dependencies) from a build descriptor.

Supported sources are chosen by file extension: setup.py and .star files
are evaluated as Starlark with a predeclared setup(**kwargs) that captures
its arguments; pyproject.toml is read from its [project] table; YAML and
JSON files hold a top-level mapping. Only declared fields are read and
nothing in a source can touch the file system, network or processes.
*/
package metadata
