package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/treelog/treelog"
	"github.com/arthur-debert/treelog/types"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "treelog",
	Short: "Treelog - event-sourced outline management",
	Long: `Treelog maintains a hierarchical outline of items backed by an
append-only log of immutable events. Every edit appends events; the tree
you see is rebuilt deterministically from the log, so any set of synced
devices converges to the same outline.

Examples:
  # Add a top-level item and a child under it
  treelog add "Groceries"
  treelog add "Buy milk" --parent 1a2b

  # Rename, complete, move, and soft-delete items
  treelog rename 1a2b "Buy oat milk"
  treelog done 1a2b
  treelog mv 1a2b --parent 9f3c --position 0
  treelog rm 1a2b

  # Reverse the most recent action
  treelog undo`,
	SilenceUsage: true,
}

var (
	// Global flags that apply to all commands
	storePath string
	logLevel  string
	verbose   bool

	config cliConfig
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&storePath, "store", "s", "", "Event log file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug|info|warn|error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Also log to stderr")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Flags win over environment and config file.
		if cmd.Flags().Changed("store") {
			cfg.StorePath = storePath
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("verbose") {
			cfg.Verbose = verbose
		}
		config = cfg
		return initLogging(cfg.LogLevel, cfg.Verbose)
	}
}

// openOutline opens the configured event log and rebuilds the snapshot.
func openOutline() (*treelog.Outline, error) {
	if err := os.MkdirAll(filepath.Dir(config.StorePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	log, err := treelog.NewJSONFileLog(config.StorePath)
	if err != nil {
		return nil, err
	}
	outline, err := treelog.Open(log, mainLogger)
	if err != nil {
		_ = log.Close()
		return nil, err
	}
	return outline, nil
}

// resolveNodeID expands a (possibly abbreviated) node id to the full id
// of the unique active node it prefixes. Ambiguous or unknown prefixes
// are errors; edits against stale full ids are left to the reducer's
// no-op semantics.
func resolveNodeID(outline *treelog.Outline, arg string) (string, error) {
	snap := outline.Snapshot()
	if _, ok := snap.FindNode(arg); ok {
		return arg, nil
	}

	var matches []string
	snap.Walk(func(node types.Node, _ int) bool {
		if strings.HasPrefix(node.ID, arg) {
			matches = append(matches, node.ID)
		}
		return true
	})
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no node matches id %q", arg)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id %q is ambiguous (%d matches)", arg, len(matches))
	}
}
