// Package watcher reports files under a root that changed outside the API.
package watcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// skipDirs are never watched.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// Watcher watches a directory tree and calls onChange with the slash-separated
// root-relative path of every regular file that stopped changing for the
// debounce interval.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	root      string
	debounce  time.Duration
	onChange  func(relPath string)
	logger    *slog.Logger

	// path -> time of the last event seen for it
	pending   map[string]time.Time
	pendingMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a new Watcher for root.
func New(root string, debounce time.Duration, onChange func(relPath string)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		root:      root,
		debounce:  debounce,
		onChange:  onChange,
		logger:    slog.Default().With("component", "watcher"),
		pending:   make(map[string]time.Time),
		done:      make(chan struct{}),
	}, nil
}

// Start adds the directory tree and begins delivering changes.
func (w *Watcher) Start() error {
	if err := w.addTree(w.root); err != nil {
		return err
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	return nil
}

// Stop shuts the watcher down and waits for its goroutines.
func (w *Watcher) Stop() error {
	close(w.done)
	w.wg.Wait()
	return w.fsWatcher.Close()
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && skipDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "dir", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if event.Op&fsnotify.Create != 0 && !skipDirs[info.Name()] {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
				}
				continue
			}

			w.pendingMu.Lock()
			w.pending[event.Name] = time.Now()
			w.pendingMu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(max(w.debounce/4, 10*time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case now := <-ticker.C:
			w.flush(now)
		}
	}
}

// flush hands every settled path to onChange.
func (w *Watcher) flush(now time.Time) {
	threshold := now.Add(-w.debounce)

	var settled []string
	w.pendingMu.Lock()
	for path, last := range w.pending {
		if last.Before(threshold) {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	w.pendingMu.Unlock()

	for _, path := range settled {
		// Deleted files and editor temp files that were renamed away are not reported.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			continue
		}
		w.logger.Debug("file changed", "path", rel)
		w.onChange(filepath.ToSlash(rel))
	}
}
