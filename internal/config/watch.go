package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"hudoverlay/internal/logging"
)

const watchDebounce = 250 * time.Millisecond

// Watch reloads h whenever its file changes until ctx is done. The parent
// directory is watched so editors that replace the file atomically are
// handled. Reload errors are logged and the previous configuration stays
// active.
func Watch(ctx context.Context, h *Holder, logger *slog.Logger) error {
	path := h.Path()
	if path == "" {
		return fmt.Errorf("watch config: no file path")
	}
	logger = logging.NewComponentLogger(logger, "config")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir %q: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
				} else {
					timer.Reset(watchDebounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				if _, err := h.Reload(); err != nil {
					logging.WarnWithContext(logger, "config reload failed", "config_reload_failed",
						logging.String("path", path),
						logging.String(logging.FieldErrorHint, "fix the file; the previous configuration stays active"),
						logging.String(logging.FieldImpact, "configuration changes were not applied"),
						logging.Error(err),
					)
					continue
				}
				logger.Info("configuration reloaded",
					logging.String(logging.FieldEventType, "config_reloaded"),
					logging.String("path", path),
				)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Debug("config watcher error", logging.Error(err))
			}
		}
	}()
	return nil
}
