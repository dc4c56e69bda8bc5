// Package watcher reports changes to the daemon's config file.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce collapses the burst of events editors produce on save.
const DefaultDebounce = 100 * time.Millisecond

// ConfigWatcher watches a config file and calls onReload when it changes.
type ConfigWatcher struct {
	watcher    *fsnotify.Watcher
	file       string
	target     string // Resolved symlink target, if the file is a symlink
	debounce   time.Duration
	lastChange time.Time
	mu         sync.Mutex
	logger     *logrus.Entry
	onReload   func(file string)
}

// New creates a ConfigWatcher for file. fsnotify does not follow symlinks, so
// when file is a symlink the target's directory is watched too.
func New(file string, debounce time.Duration, onReload func(string), logger *logrus.Entry) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(file)
	if err != nil {
		w.Close()
		return nil, err
	}

	// Watch the directory so atomic saves (write + rename) are seen.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}

	cw := &ConfigWatcher{
		watcher:  w,
		file:     abs,
		debounce: debounce,
		logger:   logger,
		onReload: onReload,
	}
	if cw.debounce <= 0 {
		cw.debounce = DefaultDebounce
	}

	if target, err := filepath.EvalSymlinks(abs); err == nil && target != abs {
		cw.target = target
		if filepath.Dir(target) != filepath.Dir(abs) {
			if err := w.Add(filepath.Dir(target)); err != nil {
				logger.WithError(err).Warnf("Failed to watch symlink target dir %s", filepath.Dir(target))
			} else {
				logger.Debugf("Watching symlink target directory: %s", filepath.Dir(target))
			}
		}
	}

	return cw, nil
}

// Start begins watching. It blocks until ctx is canceled.
func (w *ConfigWatcher) Start(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if w.matches(event.Name) {
				w.handleChange()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			w.watcher.Close()
			return
		}
	}
}

func (w *ConfigWatcher) matches(name string) bool {
	name = filepath.Clean(name)
	return name == w.file || (w.target != "" && name == w.target)
}

// handleChange reports a change unless one was reported within the debounce window.
func (w *ConfigWatcher) handleChange() {
	w.mu.Lock()
	elapsed := time.Since(w.lastChange)
	if elapsed < w.debounce {
		w.mu.Unlock()
		w.logger.Debugf("Debounced: %s (only %v since last change)", filepath.Base(w.file), elapsed)
		return
	}
	w.lastChange = time.Now()
	w.mu.Unlock()

	w.logger.Infof("Config changed: %s", filepath.Base(w.file))
	if w.onReload != nil {
		w.onReload(w.file)
	}
}

// Close stops the watcher and releases resources.
func (w *ConfigWatcher) Close() error {
	return w.watcher.Close()
}
