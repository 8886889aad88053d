package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the catalog when template files change, until ctx is
// cancelled. Bursts of filesystem events are debounced into a single
// reload. cb (if non-nil) runs after each successful reload.
func (c *Catalog) Watch(ctx context.Context, logger *slog.Logger, cb func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(c.dir); err != nil {
		return err
	}

	logger.Info("catalog watcher: started", slog.String("dir", c.dir))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(250 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(250 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("catalog watcher: stopped")
			return nil

		case <-reloadCh:
			if err := c.Reload(); err != nil {
				// Previous catalog stays live; a later fix triggers
				// another reload.
				logger.Warn("catalog watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Info("catalog watcher: reloaded", slog.Int("templates", c.Len()))
			if cb != nil {
				cb()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isTemplateFile(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("catalog watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
