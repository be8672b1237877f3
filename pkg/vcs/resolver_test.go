// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package vcs_test

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"carvel.dev/kiln/pkg/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	out   string
	err   error
	delay time.Duration
	calls int
}

func (r *fakeRunner) Run(ctx context.Context, _ string, name string, args ...string) ([]byte, error) {
	r.calls++
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []byte(r.out), r.err
}

func requireVersionErr(t *testing.T, err error) {
	require.Error(t, err)
	var versionErr *vcs.VersionError
	require.True(t, errors.As(err, &versionErr), "expected VersionError, but was %T", err)
}

func TestResolve(t *testing.T) {
	runner := &fakeRunner{out: "1.2.3-5-gabc1234\n"}

	info, err := vcs.NewResolver(vcs.ResolverOpts{Runner: runner}).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, vcs.VersionInfo{Tag: "1.2.3", Distance: 5, Hash: "abc1234"}, info)
	assert.Equal(t, "5_gabc1234", info.BuildString())
	assert.Equal(t, 1, runner.calls)
}

func TestResolveNoTag(t *testing.T) {
	runner := &fakeRunner{err: &vcs.CommandError{
		Stderr: "fatal: No names found, cannot describe anything.\n",
		Err:    errors.New("exit status 128"),
	}}

	_, err := vcs.NewResolver(vcs.ResolverOpts{Runner: runner}).Resolve(context.Background())
	requireVersionErr(t, err)
	assert.Equal(t, "Resolving version: Expected at least one tag to be reachable from HEAD: "+
		"exit status 128 (stderr: fatal: No names found, cannot describe anything.)", err.Error())
	assert.Equal(t, 1, runner.calls, "expected no retries")
}

func TestResolveNotRepository(t *testing.T) {
	runner := &fakeRunner{err: &vcs.CommandError{
		Stderr: "fatal: not a git repository (or any of the parent directories): .git\n",
		Err:    errors.New("exit status 128"),
	}}

	_, err := vcs.NewResolver(vcs.ResolverOpts{Dir: "/src", Runner: runner}).Resolve(context.Background())
	requireVersionErr(t, err)
	assert.Contains(t, err.Error(), "Expected directory '/src' to be inside a git work tree")
}

func TestResolveTimeout(t *testing.T) {
	runner := &fakeRunner{delay: time.Second}

	_, err := vcs.NewResolver(vcs.ResolverOpts{Runner: runner, Timeout: 10 * time.Millisecond}).Resolve(context.Background())
	requireVersionErr(t, err)
	assert.Contains(t, err.Error(), "Running git describe did not finish within 10ms")
}

func TestResolveMalformedOutput(t *testing.T) {
	cases := map[string]string{
		"v1.0-x-gabc": "Expected distance 'x' to be a non-negative integer",
		"v1.0-5-abc":  "Expected commit id in describe output 'v1.0-5-abc' to start with 'g'",
		"abc1234":     "to be in <tag>-<distance>-g<hash> format",
		"-5-gabc1234": "to be in <tag>-<distance>-g<hash> format",
	}

	for out, expectedErr := range cases {
		_, err := vcs.NewResolver(vcs.ResolverOpts{Runner: &fakeRunner{out: out}}).Resolve(context.Background())
		requireVersionErr(t, err)
		assert.Contains(t, err.Error(), expectedErr, out)
	}
}

func TestParseDescribeKeepsDashedTags(t *testing.T) {
	info, err := vcs.ParseDescribe("release-2024-01-0-g1a2b3c4")
	require.NoError(t, err)
	assert.Equal(t, vcs.VersionInfo{Tag: "release-2024-01", Distance: 0, Hash: "1a2b3c4"}, info)
}

func TestFromEnv(t *testing.T) {
	info, found, err := vcs.FromEnv(map[string]string{
		vcs.EnvTag:    "1.2.3",
		vcs.EnvNumber: "5",
		vcs.EnvHash:   "abc",
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, vcs.VersionInfo{Tag: "1.2.3", Distance: 5, Hash: "abc"}, info)

	_, found, err = vcs.FromEnv(map[string]string{vcs.EnvTag: "1.2.3"})
	require.NoError(t, err)
	assert.False(t, found)

	for _, number := range []string{"abc", "-1", "+3", "1.5", ""} {
		_, found, err = vcs.FromEnv(map[string]string{vcs.EnvTag: "1.2.3", vcs.EnvNumber: number})
		assert.True(t, found)
		requireVersionErr(t, err)
	}
}

func TestCheckEnvTag(t *testing.T) {
	require.NoError(t, vcs.CheckEnvTag("2024-01-02"))
	requireVersionErr(t, vcs.CheckEnvTag(""))

	_, found, err := vcs.FromEnv(map[string]string{vcs.EnvTag: "", vcs.EnvNumber: "1"})
	assert.True(t, found)
	requireVersionErr(t, err)
	assert.Contains(t, err.Error(), "Expected GIT_DESCRIBE_TAG to be non-empty")
}

func TestResolveWithGit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	dir := t.TempDir()
	git := func(args ...string) {
		args = append([]string{"-c", "user.name=kiln", "-c", "user.email=kiln@example.com", "-c", "commit.gpgsign=false", "-c", "tag.gpgsign=false"}, args...)
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}

	git("init", "-q")
	git("commit", "-q", "--allow-empty", "-m", "first")

	_, err := vcs.NewResolver(vcs.ResolverOpts{Dir: dir}).Resolve(context.Background())
	requireVersionErr(t, err)

	git("tag", "v0.1.0")
	git("commit", "-q", "--allow-empty", "-m", "second")
	git("commit", "-q", "--allow-empty", "-m", "third")

	info, err := vcs.NewResolver(vcs.ResolverOpts{Dir: dir}).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v0.1.0", info.Tag)
	assert.Equal(t, 2, info.Distance)
	assert.NotEmpty(t, info.Hash)
}
