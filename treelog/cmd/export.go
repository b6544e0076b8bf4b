package main

import (
	"encoding/json"
	"fmt"

	"github.com/arthur-debert/treelog/treelog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// exportItem is the nested document shape written by the export command.
type exportItem struct {
	ID        string       `yaml:"id" json:"id"`
	Title     string       `yaml:"title" json:"title"`
	Completed bool         `yaml:"completed,omitempty" json:"completed,omitempty"`
	Collapsed bool         `yaml:"collapsed,omitempty" json:"collapsed,omitempty"`
	Children  []exportItem `yaml:"children,omitempty" json:"children,omitempty"`
}

func newExportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the active outline as yaml or json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutline(func(outline *treelog.Outline) error {
				items := exportTree(outline.Snapshot())

				var (
					out []byte
					err error
				)
				switch format {
				case "yaml":
					out, err = yaml.Marshal(items)
				case "json":
					out, err = json.MarshalIndent(items, "", "  ")
				default:
					return fmt.Errorf("unknown format %q (expected yaml or json)", format)
				}
				if err != nil {
					return fmt.Errorf("failed to marshal outline: %w", err)
				}
				fmt.Print(string(out))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml|json")
	return cmd
}

// exportTree converts the active portion of a snapshot into the nested
// export shape.
func exportTree(snap *treelog.Snapshot) []exportItem {
	var build func(ids []string) []exportItem
	build = func(ids []string) []exportItem {
		var items []exportItem
		for _, id := range ids {
			node, ok := snap.FindNode(id)
			if !ok || node.IsDeleted {
				continue
			}
			items = append(items, exportItem{
				ID:        node.ID,
				Title:     node.Title,
				Completed: node.IsCompleted,
				Collapsed: node.IsCollapsed,
				Children:  build(node.Children),
			})
		}
		return items
	}
	return build(snap.ActiveRoots())
}
