package types

// Node is one entry in the outline tree. Nodes are owned by the tree
// snapshot; callers receive value copies and never hold a mutable
// reference into the snapshot.
type Node struct {
	// ID is the stable identifier assigned at creation, never reused.
	ID string `json:"id"`

	// Title is the display text of the node.
	Title string `json:"title"`

	// ParentID is a lookup relation back to the containing node.
	// Empty means the node sits in the root list.
	ParentID string `json:"parent_id,omitempty"`

	// Children holds child node ids in display order. Soft-deleted
	// children keep their slot so an undo can reinstate them in place.
	Children []string `json:"children,omitempty"`

	// IsCollapsed is a UI-only flag and has no structural meaning.
	IsCollapsed bool `json:"is_collapsed,omitempty"`

	// IsCompleted marks the node's task as done.
	IsCompleted bool `json:"is_completed,omitempty"`

	// IsDeleted is the soft-delete marker. Deleted nodes stay indexed
	// for changelog lookups but are excluded from active traversals.
	IsDeleted bool `json:"is_deleted,omitempty"`
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	c := n
	if n.Children != nil {
		c.Children = make([]string, len(n.Children))
		copy(c.Children, n.Children)
	}
	return c
}
