package mcp

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/trefhq/tref/internal/log"
	"github.com/trefhq/tref/internal/publisher"
	"github.com/trefhq/tref/internal/registry"
)

// Tool names exposed by the server.
const (
	ToolPublish  = "tref_publish"
	ToolDerive   = "tref_derive"
	ToolValidate = "tref_validate"
	ToolGet      = "tref_get"
	ToolList     = "tref_list"
)

// Server wraps the MCP SDK server around the publisher and registry.
type Server struct {
	mcpServer *mcp.Server
	pub       *publisher.Publisher
	store     *registry.Store
	logger    log.Logger
	name      string
	version   string
}

// Config holds MCP server configuration.
type Config struct {
	Name      string
	Version   string
	Logger    log.Logger
	Publisher *publisher.Publisher
	Store     *registry.Store
}

// NewServer creates an MCP server and registers all block tools.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.Publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		mcpServer: mcpServer,
		pub:       cfg.Publisher,
		store:     cfg.Store,
		logger:    cfg.Logger,
		name:      cfg.Name,
		version:   cfg.Version,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}
	return s, nil
}

// Run starts the server on the given transport. Blocking; it handles all
// MCP protocol communication until ctx is canceled or the client hangs up.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.Info("MCP server running", "name", s.name, "version", s.version)
	return s.mcpServer.Run(ctx, transport)
}

func (s *Server) registerTools() error {
	publishSchema, err := jsonschema.For[PublishInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", ToolPublish, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolPublish,
		Description: "Publish a new knowledge block from content. " +
			"Returns the block with its content-addressed sha256 ID.",
		InputSchema: publishSchema,
	}, s.Publish)

	deriveSchema, err := jsonschema.For[DeriveInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", ToolDerive, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolDerive,
		Description: "Derive a child block from an existing block and new content. " +
			"The child records the parent's ID and inherits its refs, license, and language.",
		InputSchema: deriveSchema,
	}, s.Derive)

	validateSchema, err := jsonschema.For[ValidateInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", ToolValidate, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolValidate,
		Description: "Validate a block document: structural checks first, then " +
			"verification that the ID matches the content hash.",
		InputSchema: validateSchema,
	}, s.Validate)

	getSchema, err := jsonschema.For[GetInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", ToolGet, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolGet,
		Description: "Fetch a block from the local registry by its sha256 ID. " +
			"Integrity is re-verified on read.",
		InputSchema: getSchema,
	}, s.Get)

	listSchema, err := jsonschema.For[ListInput](nil)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", ToolList, err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolList,
		Description: "List all block IDs in the local registry with the time each was added.",
		InputSchema: listSchema,
	}, s.List)

	return nil
}
