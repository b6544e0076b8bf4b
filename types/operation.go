package types

// OpType identifies an operation produced by an external collaborator
// (typically a parsed model response). Collapse toggling is a local UI
// concern and is not part of the operation contract.
type OpType string

const (
	OpInsert         OpType = "insert"
	OpRename         OpType = "rename"
	OpDelete         OpType = "delete"
	OpReparent       OpType = "reparent"
	OpToggleComplete OpType = "toggleComplete"
)

// Operation is one structured edit request. A batch of operations is
// translated 1:1 into events sharing a single freshly minted batch id.
type Operation struct {
	Type   OpType `json:"type"`
	NodeID string `json:"node_id,omitempty"`

	// Title is the node title for insert and the new title for rename.
	Title string `json:"title,omitempty"`

	// ParentID targets the containing node for insert and reparent.
	// Empty means the root list.
	ParentID string `json:"parent_id,omitempty"`

	// Position is the requested child index for insert and reparent.
	Position int `json:"position,omitempty"`

	// Completed is the target state for toggleComplete.
	Completed bool `json:"completed,omitempty"`
}
