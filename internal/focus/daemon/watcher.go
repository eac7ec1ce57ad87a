package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/focuslog/focuslog/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce batches the burst of events an editor produces on save.
const DefaultDebounce = 200 * time.Millisecond

// ConfigWatcher calls a function when one file changes.
//
// The parent directory is watched rather than the file itself so that
// editors that replace the file by rename are still seen.
type ConfigWatcher struct {
	path     string
	debounce time.Duration
	onChange func()
	logger   *logging.Logger

	watcher *fsnotify.Watcher
}

// NewConfigWatcher creates a watcher for path. onChange runs on the
// watcher goroutine after events settle for the debounce period.
func NewConfigWatcher(path string, debounce time.Duration, onChange func(), logger *logging.Logger) (*ConfigWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &ConfigWatcher{
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		logger:   logging.OrNop(logger).WithComponent("config-watcher"),
		watcher:  watcher,
	}, nil
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *ConfigWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("config file event", "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			w.onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}
