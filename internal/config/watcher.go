package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/voxctl/voxctl/internal/bus"
	logging "github.com/voxctl/voxctl/internal/logging"
)

// debounceWindow coalesces the write bursts editors produce into one
// change notification.
const debounceWindow = 250 * time.Millisecond

// Watcher publishes a bus event when the config file changes on disk.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

// Watch starts watching the config file's directory (watching the file
// itself breaks on atomic rename saves). Events are published on
// bus.TopicConfigChanged with the path as data.
func Watch(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{path: path, watcher: fw, cancel: cancel}
	go w.run(ctx)

	logging.L_debug("config: watching", "path", path)
	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			logging.L_debug("config: file changed on disk", "path", w.path)
			bus.PublishEventWithSource(bus.TopicConfigChanged, w.path, "config.watcher")

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.L_warn("config: watch error", "error", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}
