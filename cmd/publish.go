package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trefhq/tref/internal/printer"
	"github.com/trefhq/tref/internal/publisher"
)

var (
	publishAuthor  string
	publishLicense string
	publishLang    string
	publishRefs    []string
	publishOut     string
)

var publishCmd = &cobra.Command{
	Use:   "publish [file]",
	Short: "Publish a new block from a file or stdin",
	Long: `Publish reads content from the given file (or stdin when the argument
is "-" or omitted), wraps it in a draft, computes its content-addressed ID,
and stores the resulting block in the local registry.

With --out, the block is written to the given path instead of the registry.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishAuthor, "author", "", "author attribution")
	publishCmd.Flags().StringVar(&publishLicense, "license", "", "license identifier (default from config)")
	publishCmd.Flags().StringVar(&publishLang, "lang", "", "two-letter language code")
	publishCmd.Flags().StringArrayVar(&publishRefs, "ref", nil, "URL reference (repeatable)")
	publishCmd.Flags().StringVar(&publishOut, "out", "", "write the block to this path instead of the registry")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	content, err := readContent(cmd, arg)
	if err != nil {
		return err
	}

	author := publishAuthor
	if author == "" {
		author = rt.cfg.Author
	}
	lang := publishLang
	if lang == "" {
		lang = rt.cfg.Lang
	}

	d, err := rt.pub.CreateDraft(content, publisher.DraftOptions{
		Author:  author,
		License: publishLicense,
		Lang:    lang,
		Refs:    parseRefFlags(publishRefs),
	})
	if err != nil {
		return err
	}

	b, err := rt.pub.Publish(d)
	if err != nil {
		return err
	}

	if publishOut != "" {
		data, err := json.MarshalIndent(b, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding block: %w", err)
		}
		if err := os.WriteFile(publishOut, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", publishOut, err)
		}
		printer.Success("block written to %s", publishOut)
	} else {
		if err := rt.store.Put(context.Background(), b); err != nil {
			return fmt.Errorf("storing block: %w", err)
		}
		printer.Success("block published")
	}

	printer.ID(b.ID)
	return nil
}
