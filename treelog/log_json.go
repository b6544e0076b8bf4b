package treelog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/arthur-debert/treelog/types"
	"github.com/gofrs/flock"
)

// jsonFileLog implements Log with a single JSON file. Writes go through a
// temp-file-and-rename so readers never observe a torn file, and a
// sibling .lock file guards cross-process access. Sync layers that ship
// the file between devices only ever see whole, valid documents.
type jsonFileLog struct {
	filePath    string
	lockManager *lockManager
	fileLock    *flock.Flock
	data        *logData
	// timeFunc supplies metadata timestamps, overridable in tests.
	timeFunc func() time.Time
}

// logData is the on-disk document.
type logData struct {
	Events   []types.NodeEvent `json:"events"`
	Metadata logMetadata       `json:"metadata"`
}

// logMetadata describes the log file itself.
type logMetadata struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Constants for file locking.
const (
	lockTimeout    = 3 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond
)

// NewJSONFileLog opens (or creates) a JSON file event log at the given
// path. A separate lock file avoids interference with the atomic rename
// performed on save.
func NewJSONFileLog(filePath string) (Log, error) {
	log := &jsonFileLog{
		filePath:    filePath,
		lockManager: newLockManager(),
		fileLock:    flock.New(filePath + ".lock"),
		timeFunc:    time.Now,
		data: &logData{
			Events: []types.NodeEvent{},
			Metadata: logMetadata{
				Version:   "1.0",
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			},
		},
	}

	if err := log.withFileLock(log.load); err != nil {
		return nil, fmt.Errorf("failed to load event log: %w", err)
	}
	return log, nil
}

// acquireLock attempts to take the exclusive file lock with retries.
func (l *jsonFileLog) acquireLock(ctx context.Context) error {
	for i := 0; i < lockMaxRetries; i++ {
		locked, err := l.fileLock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if locked {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return fmt.Errorf("failed to acquire lock after %d attempts", lockMaxRetries)
}

// withFileLock runs fn while holding the cross-process file lock.
func (l *jsonFileLog) withFileLock(fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	if err := l.acquireLock(ctx); err != nil {
		return err
	}
	defer func() { _ = l.fileLock.Unlock() }()

	return fn()
}

// load reads the JSON file into memory. Caller must hold the file lock.
func (l *jsonFileLog) load() error {
	if _, err := os.Stat(l.filePath); os.IsNotExist(err) {
		// File doesn't exist yet, that's OK
		return nil
	}

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var parsed logData
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	l.data = &parsed
	return nil
}

// save writes the in-memory data to the JSON file atomically. Caller
// must hold the file lock.
func (l *jsonFileLog) save() error {
	l.data.Metadata.UpdatedAt = l.timeFunc()

	data, err := json.MarshalIndent(l.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tmpFile := l.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	// Rename is atomic on most filesystems.
	if err := os.Rename(tmpFile, l.filePath); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Append durably records one event. The file is re-read under the lock
// first so appends from other processes are never lost: the log only
// ever grows.
func (l *jsonFileLog) Append(ev types.NodeEvent) error {
	return l.lockManager.execute(writeOperation, func() error {
		return l.withFileLock(func() error {
			if err := l.load(); err != nil {
				return err
			}
			l.data.Events = append(l.data.Events, ev)
			if err := l.save(); err != nil {
				l.data.Events = l.data.Events[:len(l.data.Events)-1]
				return fmt.Errorf("failed to save: %w", err)
			}
			return nil
		})
	})
}

// All returns a copy of every known event in file order.
func (l *jsonFileLog) All() ([]types.NodeEvent, error) {
	var result []types.NodeEvent
	err := l.lockManager.execute(writeOperation, func() error {
		return l.withFileLock(func() error {
			if err := l.load(); err != nil {
				return err
			}
			result = make([]types.NodeEvent, len(l.data.Events))
			copy(result, l.data.Events)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Close removes the lock file. Event data is saved on every append, so
// there is nothing to flush.
func (l *jsonFileLog) Close() error {
	return l.lockManager.execute(writeOperation, func() error {
		_ = os.Remove(l.filePath + ".lock")
		return nil
	})
}
