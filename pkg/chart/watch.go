package chart

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Settle is how long Watch waits after the last write before reporting a
// change. Editors often write a file in several steps.
const Settle = 100 * time.Millisecond

// Watch calls onChange after path is written, created or renamed over, until
// ctx is done. It watches the parent directory so atomic saves are seen.
// onChange runs on the watcher goroutine.
func Watch(ctx context.Context, path string, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch chart: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch chart: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch chart: %w", err)
	}

	go func() {
		defer watcher.Close()
		timer := time.NewTimer(Settle)
		if !timer.Stop() {
			<-timer.C
		}
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					timer.Reset(Settle)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("watch chart", "path", abs, "err", err)
			case <-timer.C:
				onChange()
			}
		}
	}()
	return nil
}
