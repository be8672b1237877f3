// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"carvel.dev/kiln/pkg/cmd"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestWatcherRendersOnChange(t *testing.T) {
	dir := t.TempDir()
	watchedPath := filepath.Join(dir, "meta.yaml")
	otherPath := filepath.Join(dir, "other.txt")
	require.NoError(t, os.WriteFile(watchedPath, []byte("a: 1\n"), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var renders int32
	done := make(chan error, 1)

	watcher := cmd.NewWatcher(cmd.WatcherOpts{Paths: []string{watchedPath}, Delay: 20 * time.Millisecond, Logger: zerolog.Nop()})
	go func() {
		done <- watcher.Run(ctx, func() { atomic.AddInt32(&renders, 1) })
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&renders) == 1 }, 5*time.Second, 10*time.Millisecond)

	// unrelated files in same directory are ignored
	require.NoError(t, os.WriteFile(otherPath, []byte("x"), 0600))
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&renders))

	require.NoError(t, os.WriteFile(watchedPath, []byte("a: 2\n"), 0600))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&renders) >= 2 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
