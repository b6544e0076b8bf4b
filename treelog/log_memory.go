package treelog

import (
	"github.com/arthur-debert/treelog/types"
)

// memoryLog implements Log in process memory. It backs tests and
// embedders that supply their own persistence.
type memoryLog struct {
	lockManager *lockManager
	events      []types.NodeEvent
}

// NewMemoryLog returns an empty in-memory event log.
func NewMemoryLog() Log {
	return &memoryLog{lockManager: newLockManager()}
}

func (l *memoryLog) Append(ev types.NodeEvent) error {
	return l.lockManager.execute(writeOperation, func() error {
		l.events = append(l.events, ev)
		return nil
	})
}

func (l *memoryLog) All() ([]types.NodeEvent, error) {
	var result []types.NodeEvent
	_ = l.lockManager.execute(readOperation, func() error {
		result = make([]types.NodeEvent, len(l.events))
		copy(result, l.events)
		return nil
	})
	return result, nil
}

func (l *memoryLog) Close() error {
	return nil
}
