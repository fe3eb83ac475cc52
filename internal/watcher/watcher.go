// Package watcher keeps indexed roots current by re-indexing files as they
// change on disk.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Indexer is the subset of the engine the watcher drives.
type Indexer interface {
	IndexPath(ctx context.Context, path string) error
	ErasePath(ctx context.Context, path string) error
}

// AcceptFunc reports whether path is still meant to be indexed.
type AcceptFunc func(path string) bool

type Watcher struct {
	fsw            *fsnotify.Watcher
	indexer        Indexer
	accept         AcceptFunc
	followSymlinks bool
	logger         *slog.Logger

	mu     sync.Mutex
	closed bool
}

// New creates a watcher. A nil accept admits every path.
func New(indexer Indexer, accept AcceptFunc, followSymlinks bool) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if accept == nil {
		accept = func(string) bool { return true }
	}
	return &Watcher{
		fsw:            fsw,
		indexer:        indexer,
		accept:         accept,
		followSymlinks: followSymlinks,
		logger:         slog.Default().With("component", "watcher"),
	}, nil
}

// Add watches root. Directories are watched recursively.
func (w *Watcher) Add(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return w.fsw.Add(abs)
	}
	return w.addRecursive(abs)
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// Run processes filesystem events until ctx is cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watcher started", "watches", len(w.fsw.WatchList()))
	for {
		select {
		case <-ctx.Done():
			_ = w.Close()
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	path := event.Name
	if !w.accept(path) {
		w.logger.Debug("ignoring event outside indexed paths", "path", path, "op", event.Op.String())
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		if w.isWatchableDir(path) {
			if err := w.addRecursive(path); err != nil {
				w.logger.Warn("cannot watch new directory", "path", path, "error", err)
			}
		}
		w.reindex(ctx, path)
	case event.Has(fsnotify.Write):
		w.reindex(ctx, path)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if err := w.indexer.ErasePath(ctx, path); err != nil {
			w.logger.Warn("erase after removal failed", "path", path, "error", err)
			return
		}
		w.logger.Debug("erased removed path", "path", path)
	}
}

// reindex drops whatever path contributed before and indexes it afresh, so
// words deleted from a file stop matching it.
func (w *Watcher) reindex(ctx context.Context, path string) {
	if err := w.indexer.ErasePath(ctx, path); err != nil {
		w.logger.Warn("erase before re-index failed", "path", path, "error", err)
	}
	if err := w.indexer.IndexPath(ctx, path); err != nil {
		w.logger.Warn("re-index failed", "path", path, "error", err)
		return
	}
	w.logger.Debug("re-indexed changed path", "path", path)
}

func (w *Watcher) isWatchableDir(path string) bool {
	linfo, err := os.Lstat(path)
	if err != nil {
		return false
	}
	if linfo.Mode()&fs.ModeSymlink != 0 && !w.followSymlinks {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}
