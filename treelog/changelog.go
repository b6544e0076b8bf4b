package treelog

import (
	"fmt"

	"github.com/arthur-debert/treelog/types"
)

// Category classifies a changelog entry for display.
type Category string

const (
	CategoryAdd      Category = "add"
	CategoryEdit     Category = "edit"
	CategoryRemove   Category = "remove"
	CategoryMove     Category = "move"
	CategoryCollapse Category = "collapse"
	CategoryComplete Category = "complete"
	CategoryUnknown  Category = "unknown"
)

// Entry is one human-readable changelog record derived from an event and
// the tree state after the event applied.
type Entry struct {
	EventID     string
	Timestamp   int64
	BatchID     string
	Category    Category
	Icon        string
	Description string

	// BeforeTitle and AfterTitle are set for renames.
	BeforeTitle string
	AfterTitle  string
}

// Projector renders events into changelog entries. It is an explicit
// value constructed once and passed to whatever renders history; the
// icon set can be overridden per instance.
type Projector struct {
	icons map[Category]string
}

// NewProjector returns a projector with the default icon set.
func NewProjector() *Projector {
	return &Projector{
		icons: map[Category]string{
			CategoryAdd:      "+",
			CategoryEdit:     "✎",
			CategoryRemove:   "✕",
			CategoryMove:     "⇄",
			CategoryCollapse: "▸",
			CategoryComplete: "✓",
			CategoryUnknown:  "?",
		},
	}
}

// SetIcon overrides the icon for one category.
func (p *Projector) SetIcon(cat Category, icon string) {
	p.icons[cat] = icon
}

// Project produces the display record for one event against the
// post-event snapshot. It is total over any well-formed event: a node
// that has since vanished, a payload that no longer decodes, or an
// unknown type tag all degrade to a record built from the raw event
// rather than a failure.
func (p *Projector) Project(ev types.NodeEvent, snap *Snapshot) Entry {
	entry := Entry{
		EventID:   ev.ID,
		Timestamp: ev.Timestamp,
		BatchID:   ev.BatchID,
	}

	payload, err := ev.DecodePayload()
	if err != nil {
		entry.Category = CategoryUnknown
		entry.Icon = p.icons[CategoryUnknown]
		entry.Description = fmt.Sprintf("Unrecognized %s event", ev.Type)
		return entry
	}

	// title resolves a node id to its current title, falling back to
	// the raw id when the node is gone from the snapshot.
	title := func(id string) string {
		if node, ok := snap.FindNode(id); ok {
			return fmt.Sprintf("%q", node.Title)
		}
		return shortID(id)
	}

	switch pl := payload.(type) {
	case *types.InsertPayload:
		entry.Category = CategoryAdd
		if pl.ParentID == "" {
			entry.Description = fmt.Sprintf("Added %q", pl.Title)
		} else {
			entry.Description = fmt.Sprintf("Added %q under %s", pl.Title, title(pl.ParentID))
		}
	case *types.RenamePayload:
		entry.Category = CategoryEdit
		entry.BeforeTitle = pl.OldTitle
		entry.AfterTitle = pl.NewTitle
		entry.Description = fmt.Sprintf("Renamed %q to %q", pl.OldTitle, pl.NewTitle)
	case *types.DeletePayload:
		entry.Category = CategoryRemove
		entry.Description = fmt.Sprintf("Deleted %s", title(pl.NodeID))
	case *types.ReparentPayload:
		entry.Category = CategoryMove
		if pl.NewParentID == "" {
			entry.Description = fmt.Sprintf("Moved %s to the top level", title(pl.NodeID))
		} else {
			entry.Description = fmt.Sprintf("Moved %s under %s", title(pl.NodeID), title(pl.NewParentID))
		}
	case *types.ToggleCollapsePayload:
		entry.Category = CategoryCollapse
		entry.Description = fmt.Sprintf("Toggled collapse on %s", title(pl.NodeID))
	case *types.ToggleCompletePayload:
		entry.Category = CategoryComplete
		if pl.IsCompleted {
			entry.Description = fmt.Sprintf("Completed %s", title(pl.NodeID))
		} else {
			entry.Description = fmt.Sprintf("Reopened %s", title(pl.NodeID))
		}
	}
	entry.Icon = p.icons[entry.Category]
	return entry
}

// shortID abbreviates an opaque id for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
