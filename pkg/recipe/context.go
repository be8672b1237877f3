// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package recipe

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"carvel.dev/kiln/pkg/files"
	"carvel.dev/kiln/pkg/metadata"
	"carvel.dev/kiln/pkg/template"
	"carvel.dev/kiln/pkg/vcs"
)

const (
	varLoadSetupPyData = "load_setup_py_data"
	varLoadFileData    = "load_file_data"
	varBuildStr        = "GIT_BUILD_STR"
	varPython          = "PYTHON"
	varEnviron         = "environ"

	defaultPython = "python"
)

// ContextSources are collaborators that back context values
type ContextSources struct {
	Loader     *metadata.Loader
	SourcePath string
	// RecipeDir resolves relative paths given to load_file_data
	RecipeDir string
	Resolver  *vcs.Resolver
	Env       map[string]string
}

// NewContext builds template context for a single render. Nothing is
// loaded or resolved until the template refers to it.
func NewContext(ctx context.Context, srcs ContextSources) template.Context {
	version := newVersionOnce(ctx, srcs.Resolver)

	vars := map[string]interface{}{
		varLoadSetupPyData: template.NewMemoizedFunc(varLoadSetupPyData, func(args []interface{}) (interface{}, error) {
			if len(args) != 0 {
				return nil, fmt.Errorf("Expected no arguments, but got %d", len(args))
			}
			meta, err := srcs.Loader.Load(srcs.SourcePath)
			if err != nil {
				return nil, err
			}
			return meta.AsMap(), nil
		}),

		varLoadFileData: template.NewMemoizedFunc(varLoadFileData, func(args []interface{}) (interface{}, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("Expected exactly 1 argument, but got %d", len(args))
			}
			path, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("Expected path to be a string, but was %T", args[0])
			}
			meta, err := srcs.Loader.Load(files.ResolvePath(srcs.RecipeDir, path))
			if err != nil {
				return nil, err
			}
			return meta.AsMap(), nil
		}),

		varEnviron: srcs.Env,
	}

	vars[varPython] = defaultPython
	if python, found := srcs.Env[varPython]; found && len(python) > 0 {
		vars[varPython] = python
	}

	versionVars := map[string]func(vcs.VersionInfo) string{
		vcs.EnvTag:    func(info vcs.VersionInfo) string { return info.Tag },
		vcs.EnvNumber: func(info vcs.VersionInfo) string { return strconv.Itoa(info.Distance) },
		vcs.EnvHash:   func(info vcs.VersionInfo) string { return info.Hash },
		varBuildStr:   func(info vcs.VersionInfo) string { return info.BuildString() },
	}

	for name, valFunc := range versionVars {
		name, valFunc := name, valFunc
		vars[name] = template.NewLazy(name, func() (interface{}, error) {
			if envVal, found := srcs.Env[name]; found {
				switch name {
				case vcs.EnvTag:
					if err := vcs.CheckEnvTag(envVal); err != nil {
						return nil, err
					}
				case vcs.EnvNumber:
					distance, err := vcs.ParseDistance(envVal)
					if err != nil {
						return nil, err
					}
					return strconv.Itoa(distance), nil
				}
				return envVal, nil
			}

			info, err := version.Get()
			if err != nil {
				return nil, err
			}
			return valFunc(info), nil
		})
	}

	return template.NewContext(vars)
}

// versionOnce runs resolver at most once per context
type versionOnce struct {
	once    sync.Once
	resolve func() (vcs.VersionInfo, error)
	info    vcs.VersionInfo
	err     error
}

func newVersionOnce(ctx context.Context, resolver *vcs.Resolver) *versionOnce {
	return &versionOnce{resolve: func() (vcs.VersionInfo, error) {
		if resolver == nil {
			return vcs.VersionInfo{}, &vcs.VersionError{Msg: "Version resolution is not configured"}
		}
		return resolver.Resolve(ctx)
	}}
}

func (v *versionOnce) Get() (vcs.VersionInfo, error) {
	v.once.Do(func() {
		v.info, v.err = v.resolve()
	})
	return v.info, v.err
}
