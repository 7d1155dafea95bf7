package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trefhq/tref/internal/block"
	"github.com/trefhq/tref/internal/identity"
	"github.com/trefhq/tref/internal/printer"
	"github.com/trefhq/tref/internal/registry"
)

var validateCmd = &cobra.Command{
	Use:   "validate <id|file>",
	Short: "Validate a block's structure and hash integrity",
	Long: `Validate runs the two-stage check on a block: structural validation
first, then verification that the ID matches the hash of the block's
canonical encoding. The two failures are reported distinctly - a structural
failure means the document's shape is wrong, an integrity failure means a
well-formed block was tampered with.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	arg := args[0]
	if identity.IsValid(arg) {
		b, err := rt.store.Get(arg)
		if err != nil {
			if errors.Is(err, registry.ErrIntegrity) {
				return fmt.Errorf("ID does not match content hash: %s", arg)
			}
			return err
		}
		printer.Success("valid block")
		printer.ID(b.ID)
		return nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return fmt.Errorf("reading %s: %w", arg, err)
	}

	res := rt.pub.Validate(data)
	if !res.Valid {
		return errors.New(res.Error)
	}

	b, err := block.Parse(data)
	if err != nil {
		return err
	}
	printer.Success("valid block")
	printer.ID(b.ID)
	return nil
}
