package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const fileChangeOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// WatchFile reloads the dataset after path changes, coalescing bursts of events into
// one reload. The parent directory is watched so that files replaced by rename are
// still seen. WatchFile blocks until ctx is done.
func (s *Service) WatchFile(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("dataset watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	s.logger.Info("watching dataset file", "path", target)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || event.Op&fileChangeOps == 0 {
				continue
			}
			s.logger.Debug("dataset file event", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("dataset watcher error", "error", err)
		case <-fire:
			fire = nil
			_ = s.reload(ctx, "file-change")
		}
	}
}
