// Package types defines the shared value types of the treelog engine:
// the event schema, the node record, and the operation contract consumed
// from external operation producers.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EventType tags the payload carried by a NodeEvent.
type EventType string

const (
	EventInsert         EventType = "insert"
	EventRename         EventType = "rename"
	EventDelete         EventType = "delete"
	EventReparent       EventType = "reparent"
	EventToggleCollapse EventType = "toggleCollapse"
	EventToggleComplete EventType = "toggleComplete"
)

// Valid reports whether the type tag is in the known set.
func (t EventType) Valid() bool {
	switch t {
	case EventInsert, EventRename, EventDelete, EventReparent,
		EventToggleCollapse, EventToggleComplete:
		return true
	}
	return false
}

// NodeEvent is one immutable entry in the append-only event log.
// The log is the sole source of truth; the tree snapshot is derived
// from it by deterministic replay.
type NodeEvent struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`

	// Timestamp is the total-order key, unix milliseconds, assigned
	// monotonically by the producing device at creation time.
	Timestamp int64 `json:"timestamp"`

	// Type declares how Payload must be decoded.
	Type EventType `json:"type"`

	// BatchID groups events from one logical user action. It is the
	// unit of undo and is not necessarily unique per event.
	BatchID string `json:"batch_id"`

	// UndoOf names the batch this event's batch reverses, when the
	// batch was synthesized by an undo.
	UndoOf string `json:"undo_of,omitempty"`

	// Payload is the type-specific body, opaque at the log layer.
	Payload json.RawMessage `json:"payload"`
}

// InsertPayload creates a node. An empty ParentID targets the root list.
// Position is clamped by the reducer, never range-checked.
type InsertPayload struct {
	NodeID   string `json:"node_id"`
	Title    string `json:"title"`
	ParentID string `json:"parent_id,omitempty"`
	Position int    `json:"position"`
}

// RenamePayload changes a node title. OldTitle is captured at event
// construction time so the rename can be inverted without replay.
type RenamePayload struct {
	NodeID   string `json:"node_id"`
	OldTitle string `json:"old_title"`
	NewTitle string `json:"new_title"`
}

// DeletePayload soft-deletes a node and, transitively, its descendants.
type DeletePayload struct {
	NodeID string `json:"node_id"`
}

// ReparentPayload moves a node. An empty NewParentID targets the root
// list. NewPosition is clamped by the reducer.
type ReparentPayload struct {
	NodeID      string `json:"node_id"`
	NewParentID string `json:"new_parent_id,omitempty"`
	NewPosition int    `json:"new_position"`
}

// ToggleCollapsePayload flips the UI collapse flag.
type ToggleCollapsePayload struct {
	NodeID string `json:"node_id"`
}

// ToggleCompletePayload sets the completion flag to an explicit value,
// which keeps replay commutative for this event type.
type ToggleCompletePayload struct {
	NodeID      string `json:"node_id"`
	IsCompleted bool   `json:"is_completed"`
}

// payloadFor returns a fresh payload value for a type tag.
func payloadFor(t EventType) (interface{}, bool) {
	switch t {
	case EventInsert:
		return &InsertPayload{}, true
	case EventRename:
		return &RenamePayload{}, true
	case EventDelete:
		return &DeletePayload{}, true
	case EventReparent:
		return &ReparentPayload{}, true
	case EventToggleCollapse:
		return &ToggleCollapsePayload{}, true
	case EventToggleComplete:
		return &ToggleCompletePayload{}, true
	}
	return nil, false
}

// matches reports whether a payload value is the one declared by the tag.
func matches(t EventType, payload interface{}) bool {
	switch payload.(type) {
	case InsertPayload, *InsertPayload:
		return t == EventInsert
	case RenamePayload, *RenamePayload:
		return t == EventRename
	case DeletePayload, *DeletePayload:
		return t == EventDelete
	case ReparentPayload, *ReparentPayload:
		return t == EventReparent
	case ToggleCollapsePayload, *ToggleCollapsePayload:
		return t == EventToggleCollapse
	case ToggleCompletePayload, *ToggleCompletePayload:
		return t == EventToggleComplete
	}
	return false
}

// EncodePayload serializes a payload for the given event type. A payload
// value that does not match the declared type is a fatal construction
// error; it must never reach the log.
func EncodePayload(t EventType, payload interface{}) (json.RawMessage, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown event type %q", t)
	}
	if !matches(t, payload) {
		return nil, fmt.Errorf("payload %T does not match event type %q", payload, t)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", t, err)
	}
	return data, nil
}

// DecodePayload parses the event payload per its declared type tag.
// Unknown tags and payload bytes that do not match the declared schema
// (including extraneous fields) are errors; callers replaying a log are
// expected to skip such events rather than abort.
func (e NodeEvent) DecodePayload() (interface{}, error) {
	payload, ok := payloadFor(e.Type)
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	dec := json.NewDecoder(bytes.NewReader(e.Payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(payload); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return payload, nil
}
