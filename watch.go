package persist

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the dev container cache whenever the file changes on disk.
// ModeDev files are meant to be edited freely, so external edits should win
// over the stale cache. Watch returns after spawning the watcher goroutine,
// which runs until ctx is done. Reload failures are logged and the watcher
// keeps going.
//
// The containing directory is watched rather than the file itself so
// editors that replace the file atomically are still observed.
func (m *Manager) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	devPath := m.DevPath()
	dir := filepath.Dir(devPath)
	if dir == "" {
		dir = "."
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return err
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(devPath) {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					if err := m.Load(); err != nil {
						m.log.Warn("persist: reload after external edit failed", "path", devPath, "err", err)
					} else {
						m.log.Info("persist: dev container reloaded after external edit", "path", devPath)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				m.log.Warn("persist: watcher error", "err", err)
			}
		}
	}()
	return nil
}
