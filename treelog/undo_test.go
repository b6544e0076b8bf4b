package treelog_test

import (
	"errors"
	"testing"

	"github.com/arthur-debert/treelog/treelog"
	"github.com/arthur-debert/treelog/types"
)

func rebuildFromLog(t *testing.T, log treelog.Log, r *treelog.Reducer) *treelog.Snapshot {
	t.Helper()
	events, err := log.All()
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	return r.Rebuild(events)
}

func TestUndoInsertRoundTrip(t *testing.T) {
	r := &treelog.Reducer{}
	log := treelog.NewMemoryLog()
	if err := log.Append(insertEvent(t, 1, "b1", "a", "Buy milk", "", 0)); err != nil {
		t.Fatal(err)
	}

	undone, err := treelog.Undo(log, treelog.NewTranslator(), r)
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if len(undone) != 1 || undone[0].Type != types.EventDelete {
		t.Fatalf("expected one inverse delete, got %+v", undone)
	}
	if undone[0].UndoOf != "b1" {
		t.Errorf("inverse batch should reference b1, got %q", undone[0].UndoOf)
	}

	snap := rebuildFromLog(t, log, r)
	if len(snap.ActiveRoots()) != 0 {
		t.Error("node A should no longer be active after undo")
	}
	node, ok := snap.FindNode("a")
	if !ok || !node.IsDeleted {
		t.Error("node A should remain indexed as soft-deleted")
	}

	// The log only grew; history is never rewritten.
	events, _ := log.All()
	if len(events) != 2 {
		t.Errorf("expected 2 events in the log, got %d", len(events))
	}
}

func TestUndoRename(t *testing.T) {
	r := &treelog.Reducer{}
	log := treelog.NewMemoryLog()
	_ = log.Append(insertEvent(t, 1, "b1", "a", "Old", "", 0))
	_ = log.Append(mkEvent(t, 2, "b2", types.EventRename, &types.RenamePayload{
		NodeID: "a", OldTitle: "Old", NewTitle: "New",
	}))

	if _, err := treelog.Undo(log, treelog.NewTranslator(), r); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	node, _ := rebuildFromLog(t, log, r).FindNode("a")
	if node.Title != "Old" {
		t.Errorf("expected title restored to Old, got %q", node.Title)
	}
}

func TestUndoDeleteRestoresSubtree(t *testing.T) {
	r := &treelog.Reducer{}
	log := treelog.NewMemoryLog()
	setup := []types.NodeEvent{
		insertEvent(t, 1, "b1", "p", "Parent", "", 0),
		insertEvent(t, 2, "b1", "c1", "One", "p", 0),
		insertEvent(t, 3, "b1", "c2", "Two", "p", 1),
		insertEvent(t, 4, "b1", "g", "Grandchild", "c1", 0),
	}
	for _, ev := range setup {
		_ = log.Append(ev)
	}
	before := fingerprint(r.Rebuild(setup))

	_ = log.Append(mkEvent(t, 5, "b2", types.EventDelete, &types.DeletePayload{NodeID: "p"}))
	if _, err := treelog.Undo(log, treelog.NewTranslator(), r); err != nil {
		t.Fatalf("undo failed: %v", err)
	}

	after := fingerprint(rebuildFromLog(t, log, r))
	if before != after {
		t.Errorf("undo did not restore the pre-delete tree:\nbefore:\n%s\nafter:\n%s", before, after)
	}
}

func TestUndoReparent(t *testing.T) {
	r := &treelog.Reducer{}
	log := treelog.NewMemoryLog()
	setup := []types.NodeEvent{
		insertEvent(t, 1, "b1", "a", "A", "", 0),
		insertEvent(t, 2, "b1", "b", "B", "", 1),
		insertEvent(t, 3, "b1", "a1", "Child", "a", 0),
	}
	for _, ev := range setup {
		_ = log.Append(ev)
	}
	before := fingerprint(r.Rebuild(setup))

	_ = log.Append(mkEvent(t, 4, "b2", types.EventReparent, &types.ReparentPayload{
		NodeID: "a1", NewParentID: "b", NewPosition: 0,
	}))
	if _, err := treelog.Undo(log, treelog.NewTranslator(), r); err != nil {
		t.Fatalf("undo failed: %v", err)
	}

	if after := fingerprint(rebuildFromLog(t, log, r)); after != before {
		t.Errorf("undo did not restore the original parent/position:\nbefore:\n%s\nafter:\n%s", before, after)
	}
}

func TestUndoToggles(t *testing.T) {
	r := &treelog.Reducer{}

	t.Run("Complete", func(t *testing.T) {
		log := treelog.NewMemoryLog()
		_ = log.Append(insertEvent(t, 1, "b1", "a", "A", "", 0))
		_ = log.Append(mkEvent(t, 2, "b2", types.EventToggleComplete, &types.ToggleCompletePayload{
			NodeID: "a", IsCompleted: true,
		}))
		if _, err := treelog.Undo(log, treelog.NewTranslator(), r); err != nil {
			t.Fatalf("undo failed: %v", err)
		}
		if node, _ := rebuildFromLog(t, log, r).FindNode("a"); node.IsCompleted {
			t.Error("expected completion reverted")
		}
	})

	t.Run("Collapse", func(t *testing.T) {
		log := treelog.NewMemoryLog()
		_ = log.Append(insertEvent(t, 1, "b1", "a", "A", "", 0))
		_ = log.Append(mkEvent(t, 2, "b2", types.EventToggleCollapse, &types.ToggleCollapsePayload{NodeID: "a"}))
		if _, err := treelog.Undo(log, treelog.NewTranslator(), r); err != nil {
			t.Fatalf("undo failed: %v", err)
		}
		if node, _ := rebuildFromLog(t, log, r).FindNode("a"); node.IsCollapsed {
			t.Error("expected collapse reverted")
		}
	})
}

func TestUndoMultiEventBatch(t *testing.T) {
	r := &treelog.Reducer{}
	log := treelog.NewMemoryLog()
	// One logical action: add a parent and a child beneath it.
	_ = log.Append(insertEvent(t, 1, "b1", "p", "Parent", "", 0))
	_ = log.Append(insertEvent(t, 2, "b1", "c", "Child", "p", 0))

	undone, err := treelog.Undo(log, treelog.NewTranslator(), r)
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if len(undone) != 2 {
		t.Fatalf("expected 2 inverse events, got %d", len(undone))
	}
	// Inverses run in reverse order: the child goes first.
	first, err := undone[0].DecodePayload()
	if err != nil {
		t.Fatal(err)
	}
	if first.(*types.DeletePayload).NodeID != "c" {
		t.Errorf("expected child deleted first, got %+v", first)
	}

	snap := rebuildFromLog(t, log, r)
	if len(snap.ActiveRoots()) != 0 {
		t.Error("expected no active nodes after undoing the batch")
	}
}

func TestUndoTwiceActsAsRedo(t *testing.T) {
	r := &treelog.Reducer{}
	log := treelog.NewMemoryLog()
	_ = log.Append(insertEvent(t, 1, "b1", "a", "A", "", 0))

	tr := treelog.NewTranslator()
	if _, err := treelog.Undo(log, tr, r); err != nil {
		t.Fatalf("first undo failed: %v", err)
	}
	if _, err := treelog.Undo(log, tr, r); err != nil {
		t.Fatalf("second undo failed: %v", err)
	}

	node, ok := rebuildFromLog(t, log, r).FindNode("a")
	if !ok || node.IsDeleted {
		t.Error("undoing the undo should bring node A back")
	}
}

func TestUndoEmptyLog(t *testing.T) {
	log := treelog.NewMemoryLog()
	_, err := treelog.Undo(log, treelog.NewTranslator(), &treelog.Reducer{})
	if !errors.Is(err, treelog.ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestUndoIrreversibleBatch(t *testing.T) {
	log := treelog.NewMemoryLog()
	_ = log.Append(insertEvent(t, 1, "b1", "a", "A", "", 0))
	_ = log.Append(rawEvent(2, "b2", types.EventRename, `{"node_id":`))

	_, err := treelog.Undo(log, treelog.NewTranslator(), &treelog.Reducer{})
	if !errors.Is(err, treelog.ErrIrreversibleBatch) {
		t.Fatalf("expected ErrIrreversibleBatch, got %v", err)
	}

	// A failed undo leaves the log untouched.
	events, _ := log.All()
	if len(events) != 2 {
		t.Errorf("expected 2 events, got %d", len(events))
	}
}

func TestUndoBatchOfNoOps(t *testing.T) {
	r := &treelog.Reducer{}
	log := treelog.NewMemoryLog()
	// The latest batch only touches a node no device ever created;
	// there is nothing to invert and nothing to append.
	_ = log.Append(insertEvent(t, 1, "b1", "a", "A", "", 0))
	_ = log.Append(mkEvent(t, 2, "b2", types.EventRename, &types.RenamePayload{
		NodeID: "ghost", OldTitle: "x", NewTitle: "y",
	}))

	undone, err := treelog.Undo(log, treelog.NewTranslator(), r)
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if len(undone) != 0 {
		t.Errorf("expected no inverse events, got %d", len(undone))
	}
	events, _ := log.All()
	if len(events) != 2 {
		t.Errorf("log should not have grown, got %d events", len(events))
	}
}
