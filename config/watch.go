package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits after the last write before reloading.
const DefaultDebounce = 150 * time.Millisecond

// Watcher reloads a configuration file whenever it changes on disk.
// Successful reloads arrive on Updates, failed ones on Errors. Both channels
// hold at most the latest value and are closed by Close.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration

	updates chan Config
	errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// Watch starts watching a configuration file. The file's directory is watched
// so editors that replace the file on save are still seen.
//
// Parameters:
//   - path: the configuration file
//   - debounce: quiet period after the last event before reloading; <= 0 uses DefaultDebounce
//
// Returns:
//   - *Watcher: the running watcher
//   - error: error if the directory cannot be watched
func Watch(path string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch config %s: %w", abs, err)
	}

	w := &Watcher{
		watcher:  fw,
		path:     abs,
		debounce: debounce,
		updates:  make(chan Config, 1),
		errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	slog.Debug("watching config", slog.String("path", abs))
	return w, nil
}

// Updates delivers each successfully reloaded configuration.
func (w *Watcher) Updates() <-chan Config {
	return w.updates
}

// Errors delivers reload and watch failures.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops watching. Safe to call multiple times.
//
// Returns:
//   - error: error from closing the underlying watcher
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.updates)
		close(w.errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			latest(w.errors, err)
		case <-w.closeCh:
			return
		}
	}
}

// reload parses the file and publishes the result.
func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		slog.Warn("config reload failed, keeping previous settings", slog.String("path", w.path), slog.Any("error", err))
		latest(w.errors, err)
		return
	}
	slog.Info("config reloaded", slog.String("path", w.path))
	latest(w.updates, cfg)
}

// latest sends v, replacing an unread older value. Only the run goroutine sends.
func latest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- v
}
