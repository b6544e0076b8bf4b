package treelog_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/arthur-debert/treelog/treelog"
	"github.com/arthur-debert/treelog/types"
)

var eventSeq int

// mkEvent builds one log event with an explicit timestamp and batch.
func mkEvent(t *testing.T, ts int64, batch string, typ types.EventType, payload interface{}) types.NodeEvent {
	t.Helper()
	raw, err := types.EncodePayload(typ, payload)
	if err != nil {
		t.Fatalf("failed to encode %s payload: %v", typ, err)
	}
	eventSeq++
	return types.NodeEvent{
		ID:        fmt.Sprintf("ev-%d", eventSeq),
		Timestamp: ts,
		Type:      typ,
		BatchID:   batch,
		Payload:   raw,
	}
}

func insertEvent(t *testing.T, ts int64, batch, nodeID, title, parentID string, pos int) types.NodeEvent {
	t.Helper()
	return mkEvent(t, ts, batch, types.EventInsert, &types.InsertPayload{
		NodeID:   nodeID,
		Title:    title,
		ParentID: parentID,
		Position: pos,
	})
}

// fingerprint renders the complete snapshot structure, soft-deleted
// nodes included, into a canonical string for structural comparison.
func fingerprint(snap *treelog.Snapshot) string {
	var sb strings.Builder
	var visit func(ids []string, depth int)
	visit = func(ids []string, depth int) {
		for _, id := range ids {
			node, ok := snap.FindNode(id)
			if !ok {
				fmt.Fprintf(&sb, "%s!missing:%s\n", strings.Repeat(" ", depth), id)
				continue
			}
			fmt.Fprintf(&sb, "%s%s title=%q collapsed=%t completed=%t deleted=%t\n",
				strings.Repeat(" ", depth), node.ID, node.Title,
				node.IsCollapsed, node.IsCompleted, node.IsDeleted)
			visit(node.Children, depth+1)
		}
	}
	visit(snap.Roots(), 0)
	fmt.Fprintf(&sb, "len=%d\n", snap.Len())
	return sb.String()
}

// rawEvent builds an event with an arbitrary payload blob, bypassing
// encode-time validation, to simulate corrupted or foreign log entries.
func rawEvent(ts int64, batch string, typ types.EventType, blob string) types.NodeEvent {
	eventSeq++
	return types.NodeEvent{
		ID:        fmt.Sprintf("ev-%d", eventSeq),
		Timestamp: ts,
		Type:      typ,
		BatchID:   batch,
		Payload:   json.RawMessage(blob),
	}
}
