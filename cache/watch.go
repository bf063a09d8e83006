package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/FalconNL93/DoorbellSvc/log"
)

// Events arrive in bursts while files are copied in; wait for the
// directory to settle before rescanning.
const settleDelay = 2 * time.Second

// Watch re-runs Prewarm whenever the sounds directory changes, until ctx
// is cancelled. It returns once the watcher is installed; rescans happen
// on a background goroutine.
func Watch(ctx context.Context, soundsDir, cacheDir string, tc Transcoder, enabled bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(soundsDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", soundsDir, err)
	}

	go func() {
		defer watcher.Close()

		var settle *time.Timer
		var rescan <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				if settle == nil {
					settle = time.NewTimer(settleDelay)
					rescan = settle.C
				} else {
					settle.Reset(settleDelay)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("sounds watcher: %v", err)
			case <-rescan:
				settle = nil
				rescan = nil
				if _, err := Prewarm(ctx, soundsDir, cacheDir, tc, enabled); err != nil {
					log.Errorf("prewarm after change: %v", err)
				}
			}
		}
	}()

	return nil
}
