package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/trefhq/tref/internal/block"
	"github.com/trefhq/tref/internal/publisher"
	"github.com/trefhq/tref/internal/registry"
)

// PublishInput is the input for the tref_publish tool.
type PublishInput struct {
	Content string      `json:"content" jsonschema:"the block's text content (typically Markdown)"`
	Author  string      `json:"author,omitempty" jsonschema:"optional author attribution"`
	License string      `json:"license,omitempty" jsonschema:"optional license identifier, defaults to the registry's configured license"`
	Lang    string      `json:"lang,omitempty" jsonschema:"optional ISO 639-1 two-letter language code"`
	Refs    []block.Ref `json:"refs,omitempty" jsonschema:"optional references (url, archive, search, or hash variants)"`
}

// DeriveInput is the input for the tref_derive tool.
type DeriveInput struct {
	ParentID string      `json:"parent_id" jsonschema:"sha256 ID of the block to derive from; must exist in the registry"`
	Content  string      `json:"content" jsonschema:"the child block's new text content"`
	Author   string      `json:"author,omitempty" jsonschema:"optional author override; defaults to the parent's author"`
	Refs     []block.Ref `json:"refs,omitempty" jsonschema:"optional additional references, appended after the inherited ones"`
}

// ValidateInput is the input for the tref_validate tool.
type ValidateInput struct {
	Block json.RawMessage `json:"block" jsonschema:"the block document to validate, as a JSON object"`
}

// GetInput is the input for the tref_get tool.
type GetInput struct {
	ID string `json:"id" jsonschema:"sha256 ID of the block to fetch"`
}

// ListInput is the input for the tref_list tool. It has no fields.
type ListInput struct{}

// Publish handles the tref_publish tool call.
func (s *Server) Publish(ctx context.Context, _ *mcp.CallToolRequest, input PublishInput) (*mcp.CallToolResult, any, error) {
	d, err := s.pub.CreateDraft(input.Content, publisher.DraftOptions{
		Author:  input.Author,
		License: input.License,
		Lang:    input.Lang,
		Refs:    input.Refs,
	})
	if err != nil {
		return errorResult(err), nil, nil
	}

	b, err := s.pub.Publish(d)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if err := s.store.Put(ctx, b); err != nil {
		return nil, nil, fmt.Errorf("storing block: %w", err)
	}

	s.logger.Info("block published via MCP", "id", b.ID)
	return jsonResult(b)
}

// Derive handles the tref_derive tool call.
func (s *Server) Derive(ctx context.Context, _ *mcp.CallToolRequest, input DeriveInput) (*mcp.CallToolResult, any, error) {
	src, err := s.store.Get(input.ParentID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) || errors.Is(err, registry.ErrIntegrity) {
			return errorResult(err), nil, nil
		}
		return nil, nil, fmt.Errorf("loading parent: %w", err)
	}

	child, err := s.pub.Derive(src, input.Content, publisher.DeriveOptions{
		Author: input.Author,
		Refs:   input.Refs,
	})
	if err != nil {
		return errorResult(err), nil, nil
	}
	if err := s.store.Put(ctx, child); err != nil {
		return nil, nil, fmt.Errorf("storing block: %w", err)
	}

	s.logger.Info("block derived via MCP", "id", child.ID, "parent", src.ID)
	return jsonResult(child)
}

// Validate handles the tref_validate tool call. Validation failures are
// data, not errors: the result always carries {valid, error?}.
func (s *Server) Validate(_ context.Context, _ *mcp.CallToolRequest, input ValidateInput) (*mcp.CallToolResult, any, error) {
	res := s.pub.Validate([]byte(input.Block))
	return jsonResult(res)
}

// Get handles the tref_get tool call.
func (s *Server) Get(_ context.Context, _ *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, any, error) {
	b, err := s.store.Get(input.ID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) || errors.Is(err, registry.ErrIntegrity) {
			return errorResult(err), nil, nil
		}
		return nil, nil, fmt.Errorf("loading block: %w", err)
	}
	return jsonResult(b)
}

// List handles the tref_list tool call.
func (s *Server) List(ctx context.Context, _ *mcp.CallToolRequest, _ ListInput) (*mcp.CallToolResult, any, error) {
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing registry: %w", err)
	}
	if entries == nil {
		entries = []registry.Entry{}
	}
	return jsonResult(entries)
}
