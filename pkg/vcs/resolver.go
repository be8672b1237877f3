// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const DefaultTimeout = 10 * time.Second

// Runner executes a command in dir and returns its stdout
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

var _ Runner = ExecRunner{}

// CommandError carries stderr of a failed command
type CommandError struct {
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if stderr := strings.TrimSpace(e.Stderr); len(stderr) > 0 {
		return fmt.Sprintf("%s (stderr: %s)", e.Err, stderr)
	}
	return e.Err.Error()
}

func (e *CommandError) Unwrap() error { return e.Err }

func (ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return nil, &CommandError{Stderr: stderr.String(), Err: err}
	}
	return stdout.Bytes(), nil
}

type ResolverOpts struct {
	Dir     string
	Timeout time.Duration
	Runner  Runner
	Logger  zerolog.Logger
}

type Resolver struct {
	opts ResolverOpts
}

func NewResolver(opts ResolverOpts) *Resolver {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if len(opts.Dir) == 0 {
		opts.Dir = "."
	}
	return &Resolver{opts}
}

// Resolve runs "git describe --tags --long" once; there are no retries
func (r *Resolver) Resolve(ctx context.Context) (VersionInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	r.opts.Logger.Debug().Str("dir", r.opts.Dir).Msg("running git describe")

	out, err := r.opts.Runner.Run(ctx, r.opts.Dir, "git", "describe", "--tags", "--long")
	if err != nil {
		return VersionInfo{}, r.describeErr(ctx, err)
	}

	info, err := ParseDescribe(string(out))
	if err != nil {
		return VersionInfo{}, err
	}

	r.opts.Logger.Debug().Str("tag", info.Tag).Int("distance", info.Distance).Str("hash", info.Hash).Msg("resolved version")

	return info, nil
}

func (r *Resolver) describeErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &VersionError{Msg: fmt.Sprintf("Running git describe did not finish within %s", r.opts.Timeout), Err: err}
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		stderr := strings.ToLower(cmdErr.Stderr)
		switch {
		case strings.Contains(stderr, "not a git repository"):
			return &VersionError{Msg: fmt.Sprintf("Expected directory '%s' to be inside a git work tree", r.opts.Dir), Err: err}
		case strings.Contains(stderr, "no names found"),
			strings.Contains(stderr, "no tags can describe"),
			strings.Contains(stderr, "cannot describe"):
			return &VersionError{Msg: "Expected at least one tag to be reachable from HEAD", Err: err}
		}
	}

	if errors.Is(err, exec.ErrNotFound) {
		return &VersionError{Msg: "Expected git to be installed", Err: err}
	}

	return &VersionError{Msg: "Running git describe", Err: err}
}
