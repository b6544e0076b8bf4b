package treelog

import (
	"github.com/arthur-debert/treelog/types"
)

// Snapshot is the derived in-memory projection of the node tree: a flat
// id-to-node arena plus an ordered root list. It is rebuilt wholesale by
// replay and owns every Node record it indexes; accessors hand out value
// copies only.
//
// A Snapshot is not safe for concurrent mutation. All writes must be
// serialized by the caller (see lockManager); cross-device concurrency
// is resolved through the event log, not through in-process locking.
type Snapshot struct {
	nodes map[string]*types.Node
	roots []string
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		nodes: make(map[string]*types.Node),
	}
}

// FindNode returns a copy of the node with the given id, including
// soft-deleted nodes, and reports whether it exists.
func (s *Snapshot) FindNode(id string) (types.Node, bool) {
	node, ok := s.nodes[id]
	if !ok {
		return types.Node{}, false
	}
	return node.Clone(), true
}

// Len counts all indexed nodes, soft-deleted ones included.
func (s *Snapshot) Len() int {
	return len(s.nodes)
}

// Roots returns the ordered root-level node ids, soft-deleted ones
// included. The slice is a copy.
func (s *Snapshot) Roots() []string {
	out := make([]string, len(s.roots))
	copy(out, s.roots)
	return out
}

// ActiveRoots returns the ordered root ids with soft-deleted nodes
// filtered out.
func (s *Snapshot) ActiveRoots() []string {
	return s.filterActive(s.roots)
}

// ActiveChildren returns the ordered child ids of a node with
// soft-deleted children filtered out. A missing id yields nil.
func (s *Snapshot) ActiveChildren(id string) []string {
	node, ok := s.nodes[id]
	if !ok {
		return nil
	}
	return s.filterActive(node.Children)
}

func (s *Snapshot) filterActive(ids []string) []string {
	var out []string
	for _, id := range ids {
		if node, ok := s.nodes[id]; ok && !node.IsDeleted {
			out = append(out, id)
		}
	}
	return out
}

// Walk traverses the active tree depth-first in display order, calling
// fn with a copy of each non-deleted node and its depth. Returning
// false from fn stops the traversal.
func (s *Snapshot) Walk(fn func(node types.Node, depth int) bool) {
	var visit func(ids []string, depth int) bool
	visit = func(ids []string, depth int) bool {
		for _, id := range ids {
			node, ok := s.nodes[id]
			if !ok || node.IsDeleted {
				continue
			}
			if !fn(node.Clone(), depth) {
				return false
			}
			if !visit(node.Children, depth+1) {
				return false
			}
		}
		return true
	}
	visit(s.roots, 0)
}

// childSlice returns the sibling list a parent id addresses: the root
// list for an empty id, otherwise the parent's children.
func (s *Snapshot) childSlice(parentID string) []string {
	if parentID == "" {
		return s.roots
	}
	if parent, ok := s.nodes[parentID]; ok {
		return parent.Children
	}
	return nil
}

func (s *Snapshot) setChildSlice(parentID string, ids []string) {
	if parentID == "" {
		s.roots = ids
		return
	}
	if parent, ok := s.nodes[parentID]; ok {
		parent.Children = ids
	}
}

// clampPosition clamps a requested index to [0, len]. Out-of-range
// requests are silently clamped, never rejected.
func clampPosition(pos, length int) int {
	if pos < 0 {
		return 0
	}
	if pos > length {
		return length
	}
	return pos
}

// attachAt splices a node into the sibling list addressed by parentID at
// the clamped position and updates the node's parent back-reference.
func (s *Snapshot) attachAt(id, parentID string, pos int) {
	siblings := s.childSlice(parentID)
	pos = clampPosition(pos, len(siblings))
	siblings = append(siblings, "")
	copy(siblings[pos+1:], siblings[pos:])
	siblings[pos] = id
	s.setChildSlice(parentID, siblings)
	if node, ok := s.nodes[id]; ok {
		node.ParentID = parentID
	}
}

// detach removes a node from its current sibling list. The node record
// itself stays in the arena.
func (s *Snapshot) detach(id string) {
	node, ok := s.nodes[id]
	if !ok {
		return
	}
	siblings := s.childSlice(node.ParentID)
	for i, sib := range siblings {
		if sib == id {
			s.setChildSlice(node.ParentID, append(siblings[:i], siblings[i+1:]...))
			return
		}
	}
}

// indexIn returns the position of a node within its parent's sibling
// list, counting soft-deleted siblings, or -1 when detached.
func (s *Snapshot) indexIn(id string) int {
	node, ok := s.nodes[id]
	if !ok {
		return -1
	}
	for i, sib := range s.childSlice(node.ParentID) {
		if sib == id {
			return i
		}
	}
	return -1
}

// isDescendant reports whether candidate sits in the subtree rooted at
// ancestor, following parent back-references.
func (s *Snapshot) isDescendant(candidate, ancestor string) bool {
	for candidate != "" {
		if candidate == ancestor {
			return true
		}
		node, ok := s.nodes[candidate]
		if !ok {
			return false
		}
		candidate = node.ParentID
	}
	return false
}
