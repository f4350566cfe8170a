package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchHandlers receives the outcome of reloads triggered by file changes.
type WatchHandlers struct {
	// OnReload is called after a successful reload.
	OnReload func(previous, current *Config)

	// OnError is called when a reload fails or the watcher reports an error.
	OnError func(err error)
}

type watch struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Watch reloads the configuration whenever the file changes.
// Bursts of events within the debounce window produce one reload, and reloads never overlap.
// Handlers run on the watch goroutine, so they must not call StopWatching.
func (s *Source) Watch(ctx context.Context, handlers WatchHandlers) error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	if s.watch != nil {
		return fmt.Errorf("already watching %s", s.path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory so editors that replace the file via rename are still observed.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(s.path), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &watch{cancel: cancel, done: make(chan struct{})}
	s.watch = w

	go s.watchLoop(ctx, watcher, handlers, w.done)

	s.logger.Debug("Watching configuration file", "path", s.path, "debounce", s.debounce)

	return nil
}

// IsWatching reports whether a watch is active.
func (s *Source) IsWatching() bool {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	return s.watch != nil
}

// StopWatching stops an active watch and waits for its goroutine to exit.
func (s *Source) StopWatching() {
	s.watchMu.Lock()
	w := s.watch
	s.watch = nil
	s.watchMu.Unlock()

	if w == nil {
		return
	}

	w.cancel()
	<-w.done
}

func (s *Source) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, handlers WatchHandlers, done chan<- struct{}) {
	defer close(done)
	defer func() { _ = watcher.Close() }()

	trigger := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	schedule := func() {
		if timer == nil {
			timer = time.AfterFunc(s.debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
			return
		}
		timer.Reset(s.debounce)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			schedule()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("Configuration watcher error", "error", err)
			if handlers.OnError != nil {
				handlers.OnError(err)
			}
		case <-trigger:
			if ctx.Err() != nil {
				return
			}
			previous, current, err := s.Reload()
			if err != nil {
				if handlers.OnError != nil {
					handlers.OnError(err)
				}
				continue
			}
			if handlers.OnReload != nil {
				handlers.OnReload(previous, current)
			}
		}
	}
}
