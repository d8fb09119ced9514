// Package watch reports changes to a single file.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Debounce is how long a burst of events must stay quiet before a change is sent.
const Debounce = 150 * time.Millisecond

const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename

// Watch sends path on the returned channel each time the file changes. The
// parent directory is watched so editors that replace the file are seen.
// The channel is closed once ctx is done.
func Watch(ctx context.Context, path string, log *zap.Logger) (<-chan string, error) {
	return watch(ctx, path, Debounce, log)
}

func watch(ctx context.Context, path string, quiet time.Duration, log *zap.Logger) (<-chan string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	out := make(chan string)
	go run(ctx, w, abs, path, quiet, out, log.With(zap.String("path", abs)))
	return out, nil
}

func run(ctx context.Context, w *fsnotify.Watcher, abs, path string, quiet time.Duration, out chan<- string, log *zap.Logger) {
	defer close(out)
	defer w.Close()

	timer := time.NewTimer(quiet)
	timer.Stop()
	defer timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(relevant) {
				continue
			}
			log.Debug("file event", zap.Stringer("op", ev.Op))
			timer.Reset(quiet)
			pending = true
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			select {
			case out <- path:
			case <-ctx.Done():
				return
			}
		}
	}
}
