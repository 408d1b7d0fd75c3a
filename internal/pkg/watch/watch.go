// Package watch re-runs an update cycle whenever input files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc is called after a watched file has changed.
//
// An error is logged and does not stop the [Watcher].
type ReloadFunc func(ctx context.Context, changed string) error

// Watcher watches a set of files.
type Watcher struct {
	options

	files  map[string]struct{}
	reload ReloadFunc
}

// New builds a [Watcher] over files.
func New(files []string, reload ReloadFunc, opts ...Option) *Watcher {
	o := optionsWithDefaults(opts)
	o.l = o.l.With(slog.String("module", "watch"))

	index := make(map[string]struct{}, len(files))
	for _, file := range files {
		index[filepath.Clean(file)] = struct{}{}
	}

	return &Watcher{
		options: o,
		files:   index,
		reload:  reload,
	}
}

// Run watches files until ctx is cancelled. It returns nil on cancellation.
//
// Parent directories are watched rather than the files themselves, so that files replaced
// by a rename are still followed.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.files) == 0 {
		return errors.New("watch: no file to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed creating file watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	dirs := make(map[string]struct{})
	for file := range w.files {
		dir := filepath.Dir(file)
		if _, ok := dirs[dir]; ok {
			continue
		}

		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %q: %w", dir, err)
		}
		dirs[dir] = struct{}{}
	}

	w.l.Info("watching files", slog.Int("files", len(w.files)), slog.Int("directories", len(dirs)))

	var (
		pending string
		settled <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			w.l.Info("watch stopped")

			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !w.relevant(ev) {
				continue
			}

			w.l.Debug("file changed", slog.String("file", ev.Name), slog.String("op", ev.Op.String()))
			pending = filepath.Clean(ev.Name)
			settled = time.After(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			w.l.Warn("file watcher error", slog.String("error", err.Error()))

		case <-settled:
			settled = nil

			if err := w.reload(ctx, pending); err != nil {
				w.l.Error("reload failed", slog.String("file", pending), slog.String("error", err.Error()))

				continue
			}

			w.l.Info("reloaded", slog.String("file", pending))
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}

	_, ok := w.files[filepath.Clean(ev.Name)]

	return ok
}
