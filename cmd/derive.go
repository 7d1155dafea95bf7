package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trefhq/tref/internal/printer"
	"github.com/trefhq/tref/internal/publisher"
)

var (
	deriveAuthor string
	deriveRefs   []string
)

var deriveCmd = &cobra.Command{
	Use:   "derive <id|file> [file]",
	Short: "Derive a child block from an existing block",
	Long: `Derive loads the source block (by registry ID or from a file), reads new
content from the second argument (or stdin), and publishes a child block.
The child records the source's ID as its parent and inherits its refs,
license, and language. The source block is never modified.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDerive,
}

func init() {
	deriveCmd.Flags().StringVar(&deriveAuthor, "author", "", "author override (default: source's author)")
	deriveCmd.Flags().StringArrayVar(&deriveRefs, "ref", nil, "additional URL reference (repeatable)")
	rootCmd.AddCommand(deriveCmd)
}

func runDerive(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	src, err := rt.loadBlock(args[0])
	if err != nil {
		return fmt.Errorf("loading source block: %w", err)
	}

	contentArg := ""
	if len(args) > 1 {
		contentArg = args[1]
	}
	content, err := readContent(cmd, contentArg)
	if err != nil {
		return err
	}

	child, err := rt.pub.Derive(src, content, publisher.DeriveOptions{
		Author: deriveAuthor,
		Refs:   parseRefFlags(deriveRefs),
	})
	if err != nil {
		return err
	}

	if err := rt.store.Put(context.Background(), child); err != nil {
		return fmt.Errorf("storing block: %w", err)
	}

	printer.Success("derived from %s", src.ID)
	printer.ID(child.ID)
	return nil
}
