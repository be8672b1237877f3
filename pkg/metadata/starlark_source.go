// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"carvel.dev/kiln/pkg/filepos"
	"carvel.dev/kiln/pkg/orderedmap"
	"github.com/k14s/starlark-go/resolve"
	"github.com/k14s/starlark-go/starlark"
	"github.com/k14s/starlark-go/syntax"
)

var (
	importLineRegexp = regexp.MustCompile(`^(import|from)\s`)
)

func init() {
	// setup.py files commonly use top-level conditionals and floats
	resolve.AllowFloat = true
	resolve.AllowSet = true
	resolve.AllowLambda = true
	resolve.AllowNestedDef = true
	resolve.AllowGlobalReassign = true
}

// starlarkSource evaluates setup.py style programs
type starlarkSource struct {
	timeout time.Duration
}

type starlarkResult struct {
	fields *orderedmap.Map
	pos    *filepos.Position
	err    error
}

// Fields gives up waiting after timeout. Evaluation goroutine is abandoned
// since starlark.Thread offers no way to cancel it.
func (s starlarkSource) Fields(data []byte, path string) (*orderedmap.Map, *filepos.Position, error) {
	resultCh := make(chan starlarkResult, 1)

	go func() {
		fields, pos, err := s.eval(blankImports(string(data)), path)
		resultCh <- starlarkResult{fields, pos, err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil, nil, fmt.Errorf("Evaluation did not finish within %s", s.timeout)
	case result := <-resultCh:
		return result.fields, result.pos, result.err
	}
}

func (s starlarkSource) eval(src, path string) (*orderedmap.Map, *filepos.Position, error) {
	capture := &setupCapture{}

	thread := &starlark.Thread{
		Name:  "metadata",
		Print: func(_ *starlark.Thread, _ string) {},
		Load: func(_ *starlark.Thread, module string) (starlark.StringDict, error) {
			return nil, fmt.Errorf("Loading modules is not supported (tried '%s')", module)
		},
	}

	emptyList := func(name string) *starlark.Builtin {
		return starlark.NewBuiltin(name, func(_ *starlark.Thread, _ *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
			return starlark.NewList(nil), nil
		})
	}

	predeclared := starlark.StringDict{
		"setup":                   starlark.NewBuiltin("setup", capture.Setup),
		"find_packages":           emptyList("find_packages"),
		"find_namespace_packages": emptyList("find_namespace_packages"),
		"__name__":                starlark.String("__main__"),
		"__file__":                starlark.String(path),
	}

	_, err := starlark.ExecFile(thread, path, src, predeclared)
	if err != nil {
		pos, err := starlarkErr(err, path, src)
		return nil, pos, err
	}

	if capture.kwargs == nil {
		return nil, nil, fmt.Errorf("Expected setup() to be called")
	}

	fields := orderedmap.NewMap()

	for _, kwarg := range capture.kwargs {
		key := string(kwarg[0].(starlark.String))
		if !isKnownField(key) {
			continue
		}
		val, err := starlarkValue{kwarg[1]}.AsGoValue()
		if err != nil {
			return nil, nil, fmt.Errorf("Converting '%s': %s", key, err)
		}
		fields.Set(key, val)
	}

	return fields, nil, nil
}

type setupCapture struct {
	kwargs []starlark.Tuple
}

func (c *setupCapture) Setup(_ *starlark.Thread, f *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if c.kwargs != nil {
		return nil, fmt.Errorf("%s: expected to be called only once", f.Name())
	}
	if len(args) > 0 {
		return nil, fmt.Errorf("%s: expected keyword arguments only", f.Name())
	}
	c.kwargs = append([]starlark.Tuple{}, kwargs...)
	return starlark.None, nil
}

func isKnownField(key string) bool {
	for _, field := range knownFields {
		if field == key {
			return true
		}
	}
	return false
}

// blankImports empties top-level import statements (including
// continuation lines) keeping line numbers intact
func blankImports(src string) string {
	lines := strings.Split(src, "\n")
	parenDepth := 0
	continued := false

	for i, line := range lines {
		if !continued && parenDepth == 0 && !importLineRegexp.MatchString(line) {
			continue
		}
		parenDepth += strings.Count(line, "(") - strings.Count(line, ")")
		continued = strings.HasSuffix(strings.TrimRight(line, " \t\r"), "\\")
		lines[i] = ""
	}

	return strings.Join(lines, "\n")
}

func starlarkErr(err error, path, src string) (*filepos.Position, error) {
	switch typedErr := err.(type) {
	case syntax.Error:
		return starlarkPos(typedErr.Pos, path, src), errors.New(typedErr.Msg)

	case resolve.ErrorList:
		if len(typedErr) > 0 {
			var msgs []string
			for _, resolveErr := range typedErr {
				msgs = append(msgs, resolveErr.Msg)
			}
			return starlarkPos(typedErr[0].Pos, path, src), errors.New(strings.Join(msgs, ", "))
		}

	case *starlark.EvalError:
		for i := len(typedErr.CallStack) - 1; i >= 0; i-- {
			if typedErr.CallStack[i].Pos.Line > 0 {
				return starlarkPos(typedErr.CallStack[i].Pos, path, src), errors.New(typedErr.Msg)
			}
		}
		return nil, errors.New(typedErr.Msg)
	}

	return nil, err
}

func starlarkPos(pos syntax.Position, path, src string) *filepos.Position {
	if pos.Line <= 0 {
		return nil
	}
	result := filepos.NewPositionAt(path, int(pos.Line), int(pos.Col))
	if lines := strings.Split(src, "\n"); int(pos.Line) <= len(lines) {
		result.SetLine(lines[pos.Line-1])
	}
	return result
}
