// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultWatchDelay = 200 * time.Millisecond

type WatcherOpts struct {
	Paths []string
	// Delay collapses bursts of events into one render
	Delay  time.Duration
	Logger zerolog.Logger
}

// Watcher calls back whenever one of watched files changes
type Watcher struct {
	opts WatcherOpts
}

func NewWatcher(opts WatcherOpts) *Watcher {
	if opts.Delay == 0 {
		opts.Delay = defaultWatchDelay
	}
	return &Watcher{opts}
}

// Run calls renderFunc once and then after each change until ctx is done.
// Parent directories are watched since editors often replace files
// instead of writing into them.
func (w *Watcher) Run(ctx context.Context, renderFunc func()) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("Creating file watcher: %w", err)
	}
	defer fsWatcher.Close()

	watched := map[string]struct{}{}
	dirs := map[string]struct{}{}

	for _, path := range w.opts.Paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("Watching '%s': %w", path, err)
		}
		watched[absPath] = struct{}{}
		dirs[filepath.Dir(absPath)] = struct{}{}
	}

	for _, dir := range w.sortedKeys(dirs) {
		err := fsWatcher.Add(dir)
		if err != nil {
			return fmt.Errorf("Watching directory '%s': %w", dir, err)
		}
	}

	w.opts.Logger.Info().Strs("paths", w.sortedKeys(watched)).Msg("watching for changes")

	renderFunc()

	var timer *time.Timer
	var timerC <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if _, found := watched[filepath.Clean(event.Name)]; !found {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			w.opts.Logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("file changed")

			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.opts.Delay)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			renderFunc()

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn().Err(err).Msg("watching files")
		}
	}
}

func (w *Watcher) sortedKeys(m map[string]struct{}) []string {
	var result []string
	for key := range m {
		result = append(result, key)
	}
	sort.Strings(result)
	return result
}
