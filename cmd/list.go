package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trefhq/tref/internal/printer"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all blocks in the local registry",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	entries, err := rt.store.List(context.Background())
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		printer.Info("registry is empty (%s)", rt.store.Dir())
		return nil
	}

	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", e.ID, e.Added)
	}
	return nil
}
