package treelog

import (
	"log/slog"
	"sort"

	"github.com/arthur-debert/treelog/types"
)

// Reducer folds ordered event sequences into tree snapshots. It carries
// no state of its own; both entry points are deterministic and produce
// identical results for identical inputs.
//
// Every dangling reference is absorbed as a silent no-op: the log may
// legitimately mention nodes another device deleted before this event's
// originating device learned of it. Only malformed events are logged,
// and even those never abort a replay.
type Reducer struct {
	// Logger receives diagnostics for skipped events. Nil falls back
	// to slog.Default.
	Logger *slog.Logger
}

func (r *Reducer) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// sortByTimestamp returns a copy of events ordered by timestamp. The
// sort is stable: events sharing a timestamp keep their given order,
// which for a log scan is the original log order.
func sortByTimestamp(events []types.NodeEvent) []types.NodeEvent {
	ordered := make([]types.NodeEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})
	return ordered
}

// Rebuild sorts the complete event set by timestamp (stable, so events
// sharing a timestamp keep their log order) and folds every event into a
// fresh snapshot. The input slice is not modified. Callers swap the
// returned snapshot in atomically; an existing live snapshot is never
// touched.
func (r *Reducer) Rebuild(events []types.NodeEvent) *Snapshot {
	ordered := sortByTimestamp(events)
	snap := NewSnapshot()
	for _, ev := range ordered {
		r.Apply(snap, ev)
	}
	return snap
}

// Apply folds one event into the snapshot without re-sorting. This is
// only valid for events known to be causally last, i.e. freshly produced
// on this device; events received from sync require a full Rebuild.
func (r *Reducer) Apply(snap *Snapshot, ev types.NodeEvent) {
	payload, err := ev.DecodePayload()
	if err != nil {
		// One malformed event must never abort the rest of the replay.
		r.logger().Warn("skipping malformed event",
			"event_id", ev.ID,
			"event_type", string(ev.Type),
			"error", err)
		return
	}

	switch p := payload.(type) {
	case *types.InsertPayload:
		r.applyInsert(snap, p)
	case *types.RenamePayload:
		r.applyRename(snap, p)
	case *types.DeletePayload:
		r.applyDelete(snap, p)
	case *types.ReparentPayload:
		r.applyReparent(snap, p)
	case *types.ToggleCollapsePayload:
		r.applyToggleCollapse(snap, p)
	case *types.ToggleCompletePayload:
		r.applyToggleComplete(snap, p)
	}
}

// resolveParent maps an insert's requested parent id to the sibling
// list that will actually receive the node. A parent that is missing or
// soft-deleted falls back to the root list rather than dropping the
// event; an insert has no prior place to keep.
func resolveParent(snap *Snapshot, parentID string) string {
	if parentID == "" {
		return ""
	}
	parent, ok := snap.nodes[parentID]
	if !ok || parent.IsDeleted {
		return ""
	}
	return parentID
}

func (r *Reducer) applyInsert(snap *Snapshot, p *types.InsertPayload) {
	if p.NodeID == "" {
		return
	}
	parentID := resolveParent(snap, p.ParentID)

	if node, ok := snap.nodes[p.NodeID]; ok {
		// Re-insert of a known id revives the node in place. This is
		// what makes a delete invertible with the six-type schema:
		// the record and its children survived the soft delete.
		snap.detach(p.NodeID)
		node.Title = p.Title
		node.IsDeleted = false
		snap.attachAt(p.NodeID, parentID, p.Position)
		return
	}

	snap.nodes[p.NodeID] = &types.Node{
		ID:    p.NodeID,
		Title: p.Title,
	}
	snap.attachAt(p.NodeID, parentID, p.Position)
}

func (r *Reducer) applyRename(snap *Snapshot, p *types.RenamePayload) {
	if node, ok := snap.nodes[p.NodeID]; ok {
		node.Title = p.NewTitle
	}
}

func (r *Reducer) applyDelete(snap *Snapshot, p *types.DeletePayload) {
	node, ok := snap.nodes[p.NodeID]
	if !ok {
		return
	}
	// Cascade the marker through the subtree. Nodes keep their slot in
	// the parent's child list so an undo can reinstate them in order.
	var mark func(n *types.Node)
	mark = func(n *types.Node) {
		n.IsDeleted = true
		for _, childID := range n.Children {
			if child, ok := snap.nodes[childID]; ok {
				mark(child)
			}
		}
	}
	mark(node)
}

func (r *Reducer) applyReparent(snap *Snapshot, p *types.ReparentPayload) {
	if _, ok := snap.nodes[p.NodeID]; !ok {
		return
	}
	if p.NewParentID != "" {
		// A target that is missing or soft-deleted is a dangling
		// reference; unlike insert, the node already has a valid place,
		// so it keeps it.
		parent, ok := snap.nodes[p.NewParentID]
		if !ok || parent.IsDeleted {
			return
		}
		if snap.isDescendant(p.NewParentID, p.NodeID) {
			// Moving a node beneath its own subtree would orphan the
			// whole branch into an unreachable cycle; refuse the move.
			r.logger().Debug("ignoring reparent that would create a cycle",
				"node_id", p.NodeID,
				"new_parent_id", p.NewParentID)
			return
		}
	}
	snap.detach(p.NodeID)
	snap.attachAt(p.NodeID, p.NewParentID, p.NewPosition)
}

func (r *Reducer) applyToggleCollapse(snap *Snapshot, p *types.ToggleCollapsePayload) {
	if node, ok := snap.nodes[p.NodeID]; ok {
		node.IsCollapsed = !node.IsCollapsed
	}
}

func (r *Reducer) applyToggleComplete(snap *Snapshot, p *types.ToggleCompletePayload) {
	if node, ok := snap.nodes[p.NodeID]; ok {
		node.IsCompleted = p.IsCompleted
	}
}
