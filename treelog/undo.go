package treelog

import (
	"errors"
	"fmt"

	"github.com/arthur-debert/treelog/types"
	"github.com/google/uuid"
)

var (
	// ErrNothingToUndo is returned when the log holds no batch to
	// reverse.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrIrreversibleBatch is returned when an inverse cannot be
	// constructed for the most recent batch, e.g. because one of its
	// events no longer decodes. The undo does not proceed and the log
	// is left untouched.
	ErrIrreversibleBatch = errors.New("batch cannot be inverted")
)

// invSpec is one inverse event waiting to be minted.
type invSpec struct {
	typ     types.EventType
	payload interface{}
}

// Undo reverses the most recent batch in the log: the batch whose events
// carry the highest timestamp. One inverse event is synthesized per
// original event and appended as a new batch tagged with the reversed
// batch's id. History is never rewritten; undoing an undo batch is an
// ordinary undo and acts as redo.
//
// Prior state needed by the inverses (a reparented node's old parent and
// position, the subtree shape a delete destroyed) is reconstructed by
// replaying the log as it stood just before each batch event applied,
// never from the live post-batch tree.
//
// Every inverse is constructed and validated before anything is
// appended, so ErrIrreversibleBatch always leaves the log untouched. An
// Append failure partway through can leave a prefix of the inverse
// batch behind; each inverse is independently valid, so the log stays
// consistent, but the undo is then partial.
func Undo(log Log, tr *Translator, r *Reducer) ([]types.NodeEvent, error) {
	events, err := log.All()
	if err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}
	if len(events) == 0 {
		return nil, ErrNothingToUndo
	}

	ordered := sortByTimestamp(events)
	target := ordered[len(ordered)-1].BatchID

	// Replay in order, capturing each target-batch event's inverses
	// against the snapshot state just before that event applied.
	var groups [][]invSpec
	snap := NewSnapshot()
	for _, ev := range ordered {
		if ev.BatchID == target {
			inv, err := inverseOf(ev, snap)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrIrreversibleBatch, err)
			}
			groups = append(groups, inv)
		}
		r.Apply(snap, ev)
	}

	// Inverses run in reverse order of the originals. Within one
	// original's group the order stays as built: a delete's subtree
	// re-inserts must revive parents before children.
	var inverses []types.NodeEvent
	for i := len(groups) - 1; i >= 0; i-- {
		for _, inv := range groups[i] {
			ev, err := tr.newEvent(inv.typ, "", inv.payload)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrIrreversibleBatch, err)
			}
			inverses = append(inverses, ev)
		}
	}

	undoBatch := uuid.New().String()
	for i := range inverses {
		inverses[i].BatchID = undoBatch
		inverses[i].UndoOf = target
		if err := log.Append(inverses[i]); err != nil {
			return nil, fmt.Errorf("failed to append undo event: %w", err)
		}
	}
	return inverses, nil
}

// inverseOf builds the inverse specs for one event given the snapshot
// state just before the event applied. Events that were no-ops against
// that state need no inverse. A delete expands into one re-insert per
// subtree node it actually tore down, top-down so parents revive first.
func inverseOf(ev types.NodeEvent, pre *Snapshot) ([]invSpec, error) {
	payload, err := ev.DecodePayload()
	if err != nil {
		return nil, err
	}

	switch p := payload.(type) {
	case *types.InsertPayload:
		if p.NodeID == "" {
			return nil, nil
		}
		return []invSpec{{types.EventDelete, &types.DeletePayload{NodeID: p.NodeID}}}, nil

	case *types.RenamePayload:
		if _, ok := pre.nodes[p.NodeID]; !ok {
			return nil, nil
		}
		return []invSpec{{types.EventRename, &types.RenamePayload{
			NodeID:   p.NodeID,
			OldTitle: p.NewTitle,
			NewTitle: p.OldTitle,
		}}}, nil

	case *types.DeletePayload:
		node, ok := pre.nodes[p.NodeID]
		if !ok || node.IsDeleted {
			return nil, nil
		}
		var specs []invSpec
		var collect func(n *types.Node)
		collect = func(n *types.Node) {
			specs = append(specs, invSpec{types.EventInsert, &types.InsertPayload{
				NodeID:   n.ID,
				Title:    n.Title,
				ParentID: n.ParentID,
				Position: pre.indexIn(n.ID),
			}})
			for _, childID := range n.Children {
				if child, ok := pre.nodes[childID]; ok && !child.IsDeleted {
					collect(child)
				}
			}
		}
		collect(node)
		return specs, nil

	case *types.ReparentPayload:
		node, ok := pre.nodes[p.NodeID]
		if !ok {
			return nil, nil
		}
		return []invSpec{{types.EventReparent, &types.ReparentPayload{
			NodeID:      p.NodeID,
			NewParentID: node.ParentID,
			NewPosition: pre.indexIn(p.NodeID),
		}}}, nil

	case *types.ToggleCollapsePayload:
		if _, ok := pre.nodes[p.NodeID]; !ok {
			return nil, nil
		}
		return []invSpec{{types.EventToggleCollapse, &types.ToggleCollapsePayload{NodeID: p.NodeID}}}, nil

	case *types.ToggleCompletePayload:
		node, ok := pre.nodes[p.NodeID]
		if !ok {
			return nil, nil
		}
		return []invSpec{{types.EventToggleComplete, &types.ToggleCompletePayload{
			NodeID:      p.NodeID,
			IsCompleted: node.IsCompleted,
		}}}, nil
	}
	return nil, fmt.Errorf("unknown payload %T", payload)
}
