// Package watcher provides debounced file system watching for workbook
// directories.
package watcher

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/twiced-technology-gmbh/plantrack/internal/config"
)

// debounceDelay is the time to wait after the last file event before triggering
// a callback. This coalesces rapid changes (e.g., batch operations) into a
// single notification.
const debounceDelay = 100 * time.Millisecond

// Watcher watches workbook directories for changes and invokes a callback
// with debouncing. The callback receives the base names of the files that
// changed since the previous call, sorted.
type Watcher struct {
	fsw      *fsnotify.Watcher
	mu       sync.Mutex
	timer    *time.Timer
	pending  map[string]bool
	delay    time.Duration
	callback func(changed []string)
}

// New creates a Watcher that monitors the given paths for changes.
func New(paths []string, callback func(changed []string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, p := range paths {
		if err := fsw.Add(p); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	return &Watcher{
		fsw:      fsw,
		pending:  make(map[string]bool),
		delay:    debounceDelay,
		callback: callback,
	}, nil
}

// Paths returns the directories holding the files a board view reads.
func Paths(cfg *config.Config) []string {
	return []string{cfg.Dir(), cfg.ProjectsPath()}
}

// Relevant reports whether a change to name should refresh a view. Lock
// files, atomic-write temp files and append-only logs are ignored.
func Relevant(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch filepath.Ext(base) {
	case ".yml", ".yaml", ".md":
		return true
	}
	return false
}

// Run starts the watch loop. It blocks until the context is canceled.
// Errors from the underlying watcher are passed to the optional errFn callback.
func (w *Watcher) Run(ctx context.Context, errFn func(error)) {
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// Only react to meaningful operations.
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !Relevant(event.Name) {
				continue
			}
			w.debounce(filepath.Base(event.Name))
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if errFn != nil {
				errFn(err)
			}
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) debounce(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[name] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	changed := make([]string, 0, len(w.pending))
	for name := range w.pending {
		changed = append(changed, name)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	sort.Strings(changed)
	w.callback(changed)
}
