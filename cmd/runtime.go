package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trefhq/tref/internal/block"
	"github.com/trefhq/tref/internal/config"
	"github.com/trefhq/tref/internal/identity"
	"github.com/trefhq/tref/internal/log"
	"github.com/trefhq/tref/internal/publisher"
	"github.com/trefhq/tref/internal/registry"
)

// runtime bundles the collaborators every command needs: configuration,
// the registry store, and a publisher.
type runtime struct {
	cfg   *config.Config
	store *registry.Store
	pub   *publisher.Publisher
}

// newRuntime loads configuration, installs the default logger, and opens
// the registry.
func newRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.LogJSON})
	slog.SetDefault(logger)

	store, err := registry.Open(cfg.PublishDir, logger.With("component", "registry"))
	if err != nil {
		return nil, fmt.Errorf("opening registry: %w", err)
	}

	return &runtime{
		cfg:   cfg,
		store: store,
		pub:   publisher.New(publisher.WithDefaultLicense(cfg.License)),
	}, nil
}

// readContent returns the block content named by arg: a file path, or
// stdin when arg is "-" or empty.
func readContent(cmd *cobra.Command, arg string) (string, error) {
	if arg == "" || arg == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", arg, err)
	}
	return string(data), nil
}

// loadBlock resolves arg as either a block ID (fetched from the registry)
// or a path to a serialized block file.
func (rt *runtime) loadBlock(arg string) (*block.Block, error) {
	if identity.IsValid(arg) {
		return rt.store.Get(arg)
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && strings.HasPrefix(arg, "sha256:") {
			return nil, fmt.Errorf("%q is neither a valid block ID nor a readable file", arg)
		}
		return nil, fmt.Errorf("reading %s: %w", arg, err)
	}
	return block.Parse(data)
}

// parseRefFlags converts repeated --ref values into url references.
func parseRefFlags(values []string) []block.Ref {
	refs := make([]block.Ref, 0, len(values))
	for _, v := range values {
		refs = append(refs, block.Ref{Type: block.RefURL, URL: v})
	}
	return refs
}
