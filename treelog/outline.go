package treelog

import (
	"fmt"
	"log/slog"

	"github.com/arthur-debert/treelog/types"
)

// Outline binds an event log to a live snapshot behind one serialized
// execution context. Locally produced events take the cheap incremental
// path; anything arriving from elsewhere (sync, another process) goes
// through Refresh, which rebuilds into a scratch snapshot and swaps it
// in atomically. A partially applied snapshot is never observable.
type Outline struct {
	log         Log
	reducer     *Reducer
	translator  *Translator
	lockManager *lockManager
	snap        *Snapshot
}

// Open reads the full log and builds the initial snapshot. The logger
// receives replay diagnostics and may be nil.
func Open(log Log, logger *slog.Logger) (*Outline, error) {
	o := &Outline{
		log:         log,
		reducer:     &Reducer{Logger: logger},
		translator:  NewTranslator(),
		lockManager: newLockManager(),
		snap:        NewSnapshot(),
	}
	if err := o.Refresh(); err != nil {
		return nil, err
	}
	return o, nil
}

// Refresh discards the live snapshot in favor of a full deterministic
// replay of every known event. This is the path for cold start and for
// remote sync merges; conflicts are resolved by replay order alone.
func (o *Outline) Refresh() error {
	events, err := o.log.All()
	if err != nil {
		return fmt.Errorf("failed to read event log: %w", err)
	}
	fresh := o.reducer.Rebuild(events)
	return o.lockManager.execute(writeOperation, func() error {
		o.snap = fresh
		return nil
	})
}

// Snapshot returns the current tree snapshot. The snapshot exposes no
// mutators, so sharing the reference with readers is safe; it is
// replaced, not mutated, by Refresh.
func (o *Outline) Snapshot() *Snapshot {
	var snap *Snapshot
	_ = o.lockManager.execute(readOperation, func() error {
		snap = o.snap
		return nil
	})
	return snap
}

// Apply translates one batch of operations, appends the resulting events
// to the log, and folds them into the live snapshot incrementally. The
// events are freshly minted here so they are causally last by
// construction.
func (o *Outline) Apply(ops []types.Operation) ([]types.NodeEvent, error) {
	if len(ops) == 0 {
		return nil, nil
	}
	var events []types.NodeEvent
	err := o.lockManager.execute(writeOperation, func() error {
		var err error
		events, err = o.translator.Translate(o.snap, ops)
		if err != nil {
			return err
		}
		for _, ev := range events {
			if err := o.log.Append(ev); err != nil {
				return fmt.Errorf("failed to append event: %w", err)
			}
			o.reducer.Apply(o.snap, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ToggleCollapse flips a node's collapse flag as its own single-event
// batch.
func (o *Outline) ToggleCollapse(nodeID string) error {
	return o.lockManager.execute(writeOperation, func() error {
		ev, err := o.translator.ToggleCollapse(nodeID)
		if err != nil {
			return err
		}
		if err := o.log.Append(ev); err != nil {
			return fmt.Errorf("failed to append event: %w", err)
		}
		o.reducer.Apply(o.snap, ev)
		return nil
	})
}

// Undo reverses the most recent batch and rebuilds the snapshot from the
// grown log. It returns the appended inverse events; ErrNothingToUndo
// and ErrIrreversibleBatch are recoverable and leave the log untouched.
func (o *Outline) Undo() ([]types.NodeEvent, error) {
	events, err := Undo(o.log, o.translator, o.reducer)
	if err != nil {
		return nil, err
	}
	if err := o.Refresh(); err != nil {
		return nil, err
	}
	return events, nil
}

// History replays the full log, projecting every event against the tree
// state just after it applied, and returns the entries in replay order.
func (o *Outline) History(p *Projector) ([]Entry, error) {
	events, err := o.log.All()
	if err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}
	// Replay by hand so each event can be projected against the
	// post-event state.
	ordered := sortByTimestamp(events)
	snap := NewSnapshot()
	entries := make([]Entry, 0, len(ordered))
	for _, ev := range ordered {
		o.reducer.Apply(snap, ev)
		entries = append(entries, p.Project(ev, snap))
	}
	return entries, nil
}

// Close closes the underlying log.
func (o *Outline) Close() error {
	return o.log.Close()
}
