package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/arthur-debert/treelog/treelog"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, treelog.ErrNothingToUndo) {
			fmt.Fprintln(os.Stderr, "Nothing to undo.")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
