package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tref",
	Short: "tref - content-addressed knowledge blocks",
	Long: `tref creates, verifies, and derives knowledge blocks: JSON documents
bundling content, metadata, references, and parent lineage, identified by
the SHA-256 hash of their canonical encoding.

Blocks are immutable. Deriving from a block publishes a new one that
records its parent, so edits form a verifiable lineage tree.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Subcommands register themselves in their own files.
}
