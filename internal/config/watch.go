// Copyright (c) 2025 BreathAI
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceDelay coalesces bursts of filesystem events. Editors often
// write a file several times in quick succession (temp file, rename,
// chmod), and one reload covers all of them.
const debounceDelay = 250 * time.Millisecond

// Watcher reloads the settings file when it changes on disk.
type Watcher struct {
	fw     *fsnotify.Watcher
	path   string
	logger *zap.Logger
	done   chan struct{}
}

// Watch starts watching the settings file at path. onChange is called
// with the freshly loaded settings after each change; load failures
// are logged and skipped.
func Watch(path string, logger *zap.Logger, onChange func(*Settings)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory, not the file: atomic saves replace the
	// file and a file-level watch would die with the old inode.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch config directory: %w", err)
	}

	w := &Watcher{
		fw:     fw,
		path:   path,
		logger: logger,
		done:   make(chan struct{}),
	}
	go w.run(onChange)
	return w, nil
}

// run is the event loop.
func (w *Watcher) run(onChange func(*Settings)) {
	var debounce *time.Timer
	reload := func() {
		s, err := LoadFromPath(w.path)
		if err != nil {
			w.logger.Warn("settings reload failed", zap.Error(err))
			return
		}
		w.logger.Info("settings reloaded", zap.String("path", w.path))
		onChange(s)
	}

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, reload)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("settings watcher error", zap.Error(err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}
