package treelog

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher signals that new events may have arrived in a file-backed log,
// typically because a sync layer replaced the file. Receivers are
// expected to run a full rebuild; the signal carries no payload.
type Watcher struct {
	// Events delivers one signal per burst of file activity. The
	// channel is buffered and notifications are coalesced, so a slow
	// receiver sees at least one signal, not one per write.
	Events <-chan struct{}

	watcher   *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once
}

// WatchLog watches the log file at filePath for external modification.
// The parent directory is watched rather than the file itself because
// saves replace the file by rename, which would detach a file watch.
func WatchLog(filePath string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(filePath)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	events := make(chan struct{}, 1)
	w := &Watcher{
		Events:  events,
		watcher: fsw,
		done:    make(chan struct{}),
	}

	base := filepath.Base(filePath)
	go func() {
		defer close(events)
		for {
			select {
			case <-w.done:
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Rename) {
					continue
				}
				select {
				case events <- struct{}{}:
				default:
					// A signal is already pending; coalesce.
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("log watcher error", "error", err)
			}
		}
	}()

	return w, nil
}

// Close stops the watcher and closes the Events channel. Further calls
// are no-ops.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
