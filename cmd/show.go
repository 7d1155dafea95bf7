package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/trefhq/tref/internal/printer"
)

var showRaw bool

var showCmd = &cobra.Command{
	Use:   "show <id|file>",
	Short: "Display a block's metadata and rendered content",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "print the block as JSON instead of rendering")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	b, err := rt.loadBlock(args[0])
	if err != nil {
		return err
	}

	if showRaw {
		data, err := json.MarshalIndent(b, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding block: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	printer.ID(b.ID)
	printer.Info("created:  %s", b.Meta.Created)
	printer.Info("license:  %s", b.Meta.License)
	if b.Meta.Author != "" {
		printer.Info("author:   %s", b.Meta.Author)
	}
	if b.Parent != "" {
		printer.Info("parent:   %s", b.Parent)
	}
	if len(b.Refs) > 0 {
		printer.Info("refs:     %d", len(b.Refs))
	}
	printer.Info("")

	fmt.Fprint(cmd.OutOrStdout(), renderMarkdown(b.Content))
	return nil
}

// renderMarkdown converts Markdown to styled terminal output, falling back
// to the plain text when rendering fails.
func renderMarkdown(content string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content
	}

	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}
