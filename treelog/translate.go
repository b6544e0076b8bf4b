package treelog

import (
	"fmt"
	"sync"
	"time"

	"github.com/arthur-debert/treelog/types"
	"github.com/google/uuid"
)

// Translator turns structured operations into log events. It owns the
// device clock: timestamps are strictly monotonic within one translator
// even when the wall clock stalls or steps backwards, which keeps every
// locally produced event causally last.
type Translator struct {
	mu     sync.Mutex
	lastTS int64
	// timeFunc supplies the wall clock, overridable in tests.
	timeFunc func() time.Time
}

// NewTranslator returns a translator using the system clock.
func NewTranslator() *Translator {
	return &Translator{timeFunc: time.Now}
}

// nextTimestamp returns a unix-millisecond timestamp greater than any
// previously issued by this translator.
func (t *Translator) nextTimestamp() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	ts := t.timeFunc().UnixMilli()
	if ts <= t.lastTS {
		ts = t.lastTS + 1
	}
	t.lastTS = ts
	return ts
}

func (t *Translator) newEvent(typ types.EventType, batchID string, payload interface{}) (types.NodeEvent, error) {
	raw, err := types.EncodePayload(typ, payload)
	if err != nil {
		return types.NodeEvent{}, err
	}
	return types.NodeEvent{
		ID:        uuid.New().String(),
		Timestamp: t.nextTimestamp(),
		Type:      typ,
		BatchID:   batchID,
		Payload:   raw,
	}, nil
}

// Translate converts a batch of operations 1:1 into events sharing one
// freshly minted batch id. The snapshot supplies prior state an inverse
// will later need, such as the old title of a rename; it is read, never
// mutated. An operation the contract does not cover is a fatal
// translation error and nothing is returned.
func (t *Translator) Translate(snap *Snapshot, ops []types.Operation) ([]types.NodeEvent, error) {
	batchID := uuid.New().String()
	events := make([]types.NodeEvent, 0, len(ops))

	for _, op := range ops {
		var (
			typ     types.EventType
			payload interface{}
		)
		switch op.Type {
		case types.OpInsert:
			nodeID := op.NodeID
			if nodeID == "" {
				nodeID = uuid.New().String()
			}
			typ = types.EventInsert
			payload = &types.InsertPayload{
				NodeID:   nodeID,
				Title:    op.Title,
				ParentID: op.ParentID,
				Position: op.Position,
			}
		case types.OpRename:
			var oldTitle string
			if node, ok := snap.FindNode(op.NodeID); ok {
				oldTitle = node.Title
			}
			typ = types.EventRename
			payload = &types.RenamePayload{
				NodeID:   op.NodeID,
				OldTitle: oldTitle,
				NewTitle: op.Title,
			}
		case types.OpDelete:
			typ = types.EventDelete
			payload = &types.DeletePayload{NodeID: op.NodeID}
		case types.OpReparent:
			typ = types.EventReparent
			payload = &types.ReparentPayload{
				NodeID:      op.NodeID,
				NewParentID: op.ParentID,
				NewPosition: op.Position,
			}
		case types.OpToggleComplete:
			typ = types.EventToggleComplete
			payload = &types.ToggleCompletePayload{
				NodeID:      op.NodeID,
				IsCompleted: op.Completed,
			}
		default:
			return nil, fmt.Errorf("unknown operation type %q", op.Type)
		}

		ev, err := t.newEvent(typ, batchID, payload)
		if err != nil {
			return nil, fmt.Errorf("failed to translate %s operation: %w", op.Type, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// ToggleCollapse builds a single-event batch flipping a node's collapse
// flag. Collapse is a local UI concern and is not part of the operation
// contract, so it gets its own entry point.
func (t *Translator) ToggleCollapse(nodeID string) (types.NodeEvent, error) {
	return t.newEvent(types.EventToggleCollapse, uuid.New().String(),
		&types.ToggleCollapsePayload{NodeID: nodeID})
}
