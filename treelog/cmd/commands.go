package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/arthur-debert/treelog/treelog"
	"github.com/arthur-debert/treelog/types"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(
		newAddCmd(),
		newRenameCmd(),
		newDoneCmd(),
		newRmCmd(),
		newMvCmd(),
		newCollapseCmd(),
		newUndoCmd(),
		newListCmd(),
		newLogCmd(),
		newCountCmd(),
		newExportCmd(),
	)
}

// withOutline opens the outline, runs fn, and closes the log.
func withOutline(fn func(outline *treelog.Outline) error) error {
	outline, err := openOutline()
	if err != nil {
		return err
	}
	defer func() { _ = outline.Close() }()
	return fn(outline)
}

// applyOne runs a single-operation batch.
func applyOne(outline *treelog.Outline, op types.Operation) error {
	_, err := outline.Apply([]types.Operation{op})
	return err
}

func newAddCmd() *cobra.Command {
	var parent string
	var position int

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add an item to the outline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutline(func(outline *treelog.Outline) error {
				parentID := ""
				if parent != "" {
					id, err := resolveNodeID(outline, parent)
					if err != nil {
						return err
					}
					parentID = id
				}
				events, err := outline.Apply([]types.Operation{{
					Type:     types.OpInsert,
					Title:    args[0],
					ParentID: parentID,
					Position: position,
				}})
				if err != nil {
					return err
				}
				payload, err := events[0].DecodePayload()
				if err != nil {
					return err
				}
				fmt.Printf("Added %q (%s)\n", args[0], shortID(payload.(*types.InsertPayload).NodeID))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "Parent node id (default: top level)")
	cmd.Flags().IntVar(&position, "position", 1<<30, "Child index to insert at (default: end)")
	return cmd
}

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutline(func(outline *treelog.Outline) error {
				id, err := resolveNodeID(outline, args[0])
				if err != nil {
					return err
				}
				return applyOne(outline, types.Operation{
					Type:   types.OpRename,
					NodeID: id,
					Title:  args[1],
				})
			})
		},
	}
}

func newDoneCmd() *cobra.Command {
	var reopen bool

	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark an item completed (or reopen it with --undo)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutline(func(outline *treelog.Outline) error {
				id, err := resolveNodeID(outline, args[0])
				if err != nil {
					return err
				}
				return applyOne(outline, types.Operation{
					Type:      types.OpToggleComplete,
					NodeID:    id,
					Completed: !reopen,
				})
			})
		},
	}
	cmd.Flags().BoolVar(&reopen, "undo", false, "Reopen instead of completing")
	return cmd
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Soft-delete an item and its descendants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutline(func(outline *treelog.Outline) error {
				id, err := resolveNodeID(outline, args[0])
				if err != nil {
					return err
				}
				return applyOne(outline, types.Operation{
					Type:   types.OpDelete,
					NodeID: id,
				})
			})
		},
	}
}

func newMvCmd() *cobra.Command {
	var parent string
	var position int

	cmd := &cobra.Command{
		Use:   "mv <id>",
		Short: "Move an item to a new parent and position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutline(func(outline *treelog.Outline) error {
				id, err := resolveNodeID(outline, args[0])
				if err != nil {
					return err
				}
				parentID := ""
				if parent != "" {
					parentID, err = resolveNodeID(outline, parent)
					if err != nil {
						return err
					}
				}
				return applyOne(outline, types.Operation{
					Type:     types.OpReparent,
					NodeID:   id,
					ParentID: parentID,
					Position: position,
				})
			})
		},
	}
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "New parent node id (default: top level)")
	cmd.Flags().IntVar(&position, "position", 1<<30, "Child index to move to (default: end)")
	return cmd
}

func newCollapseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collapse <id>",
		Short: "Toggle an item's collapsed state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutline(func(outline *treelog.Outline) error {
				id, err := resolveNodeID(outline, args[0])
				if err != nil {
					return err
				}
				return outline.ToggleCollapse(id)
			})
		},
	}
}

func newUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Reverse the most recent batch of edits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutline(func(outline *treelog.Outline) error {
				events, err := outline.Undo()
				if err != nil {
					return err
				}
				fmt.Printf("Undid %d event(s).\n", len(events))
				return nil
			})
		},
	}
}

func newListCmd() *cobra.Command {
	var showIDs bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the active outline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutline(func(outline *treelog.Outline) error {
				snap := outline.Snapshot()
				snap.Walk(func(node types.Node, depth int) bool {
					marker := "[ ]"
					if node.IsCompleted {
						marker = "[x]"
					}
					line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", depth), marker, node.Title)
					if node.IsCollapsed {
						line += " …"
					}
					if showIDs {
						line += fmt.Sprintf("  (%s)", shortID(node.ID))
					}
					fmt.Println(line)
					return true
				})
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&showIDs, "ids", false, "Show abbreviated node ids")
	return cmd
}

func newLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print the changelog, most recent last",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutline(func(outline *treelog.Outline) error {
				entries, err := outline.History(treelog.NewProjector())
				if err != nil {
					return err
				}
				if limit > 0 && len(entries) > limit {
					entries = entries[len(entries)-limit:]
				}
				for _, entry := range entries {
					ts := time.UnixMilli(entry.Timestamp).Format("2006-01-02 15:04")
					fmt.Printf("%s  %s %s\n", ts, entry.Icon, entry.Description)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Only show the last N entries")
	return cmd
}

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count indexed nodes, soft-deleted ones included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutline(func(outline *treelog.Outline) error {
				fmt.Println(outline.Snapshot().Len())
				return nil
			})
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
