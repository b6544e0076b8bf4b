// Package treelog maintains a hierarchical outline whose source of truth
// is an append-only log of immutable events. The reducer deterministically
// rebuilds an in-memory tree snapshot from the log; batches of events form
// undo-able units whose inverses are appended back to the log, never
// rewritten into it.
package treelog

import (
	"sync"
)

// operationType distinguishes read operations, which may run
// concurrently, from exclusive write operations.
type operationType int

const (
	readOperation operationType = iota
	writeOperation
)

// lockManager centralizes the locking strategy for a shared structure so
// call sites never mix up lock kinds or leave a lock held on an early
// return. Reads take the shared lock, writes the exclusive one.
type lockManager struct {
	mu *sync.RWMutex
}

func newLockManager() *lockManager {
	return &lockManager{mu: &sync.RWMutex{}}
}

// execute runs fn under the lock appropriate for the operation type.
func (lm *lockManager) execute(opType operationType, fn func() error) error {
	switch opType {
	case readOperation:
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	case writeOperation:
		lm.mu.Lock()
		defer lm.mu.Unlock()
	}
	return fn()
}
