// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package fswatch debounces filesystem change notifications into
// incremental re-parse triggers.
package fswatch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the pause after the last observed event before a
// batch of changed paths is delivered to Trigger.
const DefaultDebounce = 500 * time.Millisecond

// Trigger receives the set of paths that changed during one debounce
// window, in sorted order.
type Trigger func(ctx context.Context, changedPaths []string)

// Watcher recursively watches a project root with fsnotify, coalescing
// bursts of create/write/remove events into debounced Trigger calls.
type Watcher struct {
	root         string
	excludeGlobs []string
	debounce     time.Duration
	trigger      Trigger

	fsWatcher *fsnotify.Watcher
	ctx       context.Context

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
}

// New builds a Watcher rooted at root. debounce<=0 uses DefaultDebounce.
func New(root string, excludeGlobs []string, debounce time.Duration, trigger Trigger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:         root,
		excludeGlobs: excludeGlobs,
		debounce:     debounce,
		trigger:      trigger,
		fsWatcher:    fsWatcher,
		pending:      make(map[string]bool),
	}, nil
}

// Start adds watches for every directory under root (skipping excluded
// ones) and begins processing events in a background goroutine. It
// returns once the initial directory walk completes; event processing
// continues until ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.ctx = ctx
	if err := w.addWatches(w.root); err != nil {
		return err
	}
	go w.run(ctx)
	return nil
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

func (w *Watcher) addWatches(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		if w.isExcluded(path) {
			return filepath.SkipDir
		}
		_ = w.fsWatcher.Add(path)
		return nil
	})
}

// isExcluded follows internal/changedetect.Detector's matching (a
// substring check against the pattern with a trailing "/" trimmed, plus a
// filepath.Match against the base name), except that a trailing "/**" is
// also trimmed here before the substring check.
func (w *Watcher) isExcluded(path string) bool {
	normalized := filepath.ToSlash(path)
	for _, pattern := range w.excludeGlobs {
		trimmed := strings.TrimSuffix(strings.TrimSuffix(pattern, "/**"), "/")
		if trimmed != "" && strings.Contains(normalized, trimmed) {
			return true
		}
		if ok, _ := filepath.Match(pattern, filepath.Base(normalized)); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case _, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.isExcluded(event.Name) {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.addWatches(event.Name)
		}
	}

	w.addEvent(event.Name)
}

func (w *Watcher) addEvent(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	if len(paths) == 0 || w.trigger == nil {
		return
	}
	sort.Strings(paths)
	w.trigger(w.ctx, paths)
}
