package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"termcal/internal/log"
)

// DefaultDebounce collapses bursts of writes into one reload
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports changes to a store location. A directory is watched as a
// whole; for a file its parent directory is watched and only entries
// sharing the file's name prefix count (covers SQLite -wal/-shm files).
type Watcher struct {
	fsw      *fsnotify.Watcher
	dir      string
	prefix   string
	debounce time.Duration
	logger   zerolog.Logger
}

// New starts watching path
func New(path string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	dir, prefix := path, ""
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		dir, prefix = filepath.Dir(path), filepath.Base(path)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create watch dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		fsw:      fsw,
		dir:      dir,
		prefix:   prefix,
		debounce: debounce,
		logger:   log.WithComponent("watch"),
	}
	w.logger.Debug().Str("path", path).Msg("watching store for changes")
	return w, nil
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return w.prefix == "" || strings.HasPrefix(name, w.prefix)
}

// Run calls onChange after each quiet period following a change, until ctx
// is cancelled. The watcher is closed when Run returns.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Debug().Msg("store watcher stopped")
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("store changed")
			timer.Reset(w.debounce)

		case <-timer.C:
			onChange()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("store watcher error")
		}
	}
}

// Close stops watching without running
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
