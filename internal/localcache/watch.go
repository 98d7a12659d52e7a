package localcache

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeKind tells what happened to a cached key.
type ChangeKind string

const (
	KeyUpdated ChangeKind = "updated"
	KeyRemoved ChangeKind = "removed"
)

// ChangeCallback is called for every key changed on disk, by this process or
// another one sharing the cache directory.
type ChangeCallback func(kind ChangeKind, key string)

// watchDebounce coalesces the burst of events produced by one atomic write.
const watchDebounce = 50 * time.Millisecond

// Watch reports changes to cached keys until ctx is cancelled. Temp files
// from in-flight writes are ignored.
func (f *FS) Watch(ctx context.Context, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(f.root); err != nil {
		return err
	}
	logger.Info("cache watcher: started", slog.String("root", f.root))

	pending := make(map[string]ChangeKind)
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(watchDebounce)
			timerCh = timer.C
			return
		}
		timer.Reset(watchDebounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("cache watcher: stopped")
			return nil

		case <-timerCh:
			for key, kind := range pending {
				logger.Debug("cache watcher: change", slog.String("key", key), slog.String("kind", string(kind)))
				if cb != nil {
					cb(kind, key)
				}
			}
			clear(pending)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			key, ok := keyOf(ev.Name)
			if !ok {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				pending[key] = KeyUpdated
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				pending[key] = KeyRemoved
			default:
				continue
			}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("cache watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
