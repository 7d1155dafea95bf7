// Package publisher drives the block lifecycle: draft creation, publishing
// (draft to identified block), and derivation (parent block plus new
// content to child block with lineage).
//
// Every operation is a pure function from inputs to a new value or an
// error: nothing is mutated, nothing is retried, nothing logs. The only
// transitions are Draft -> Block, performed exactly once per logical block
// by [Publisher.Publish], and Block -> Block, the lineage edge produced by
// [Publisher.Derive], which never touches the source.
//
// Collaborators (registry, CLI, MCP server) call this surface and the
// block package only; they never reach into the encoder or identity
// generator directly.
package publisher

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/trefhq/tref/internal/block"
	"github.com/trefhq/tref/internal/identity"
)

var (
	// ErrInvalidDraft indicates Publish was handed a structurally bad draft.
	ErrInvalidDraft = errors.New("invalid draft")

	// ErrInvalidSource indicates Derive was handed a malformed source block.
	ErrInvalidSource = errors.New("invalid source block")
)

// Publisher performs block lifecycle operations. The zero configuration
// (system clock, CC-BY-4.0 default license) suits production use; tests
// inject a fixed clock via WithClock.
type Publisher struct {
	now            func() time.Time
	defaultLicense string
}

// Option configures a Publisher, following the functional options pattern.
type Option func(*Publisher)

// WithClock replaces the timestamp source used for meta.created.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

// WithDefaultLicense replaces the license stamped onto drafts that do not
// specify one.
func WithDefaultLicense(license string) Option {
	return func(p *Publisher) {
		p.defaultLicense = license
	}
}

// New creates a Publisher.
func New(opts ...Option) *Publisher {
	p := &Publisher{
		now:            time.Now,
		defaultLicense: block.DefaultLicense,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DraftOptions carries the optional fields of a new draft. Unset fields
// are omitted from the draft entirely, keeping the canonical encoding
// clean.
type DraftOptions struct {
	Author  string
	License string // overrides the publisher's default
	Lang    string
	Refs    []block.Ref
	Parent  string
}

// CreateDraft builds a draft around content, stamping meta.created with
// the current time (UTC, RFC 3339). Empty content is rejected here rather
// than deferred to Publish, so callers get the failure at the earliest
// point.
func (p *Publisher) CreateDraft(content string, opts DraftOptions) (block.Draft, error) {
	if content == "" {
		return block.Draft{}, fmt.Errorf("%w: content must be a non-empty string", block.ErrMissingContent)
	}

	license := opts.License
	if license == "" {
		license = p.defaultLicense
	}

	d := block.Draft{
		V:       block.Version,
		Content: content,
		Meta: block.Meta{
			Created: p.now().UTC().Format(time.RFC3339),
			License: license,
			Author:  opts.Author,
			Lang:    opts.Lang,
		},
	}
	if len(opts.Refs) > 0 {
		d.Refs = append([]block.Ref(nil), opts.Refs...)
	}
	if opts.Parent != "" {
		d.Parent = opts.Parent
	}
	return d, nil
}

// Publish validates the draft, computes its identity, and returns the
// published block. The input draft is not mutated.
func (p *Publisher) Publish(d block.Draft) (*block.Block, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDraft, err)
	}

	id, err := identity.Generate(d)
	if err != nil {
		return nil, fmt.Errorf("generating id: %w", err)
	}
	return &block.Block{Draft: d, ID: id}, nil
}

// DeriveOptions carries the optional fields of a derivation.
type DeriveOptions struct {
	Author string      // defaults to the source's author
	Refs   []block.Ref // appended after the inherited refs
}

// Derive publishes a child block from a source block and new content. The
// child inherits license, language, and author (unless overridden), its
// refs are the source's refs followed by opts.Refs in that order, and its
// parent is the source's ID. meta.modified is never inherited: it tracks
// the child's own edit history, which starts unset. The source is never
// mutated.
func (p *Publisher) Derive(src *block.Block, content string, opts DeriveOptions) (*block.Block, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: source is nil", ErrInvalidSource)
	}
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}

	author := opts.Author
	if author == "" {
		author = src.Meta.Author
	}

	var refs []block.Ref
	if n := len(src.Refs) + len(opts.Refs); n > 0 {
		refs = make([]block.Ref, 0, n)
		refs = append(refs, src.Refs...)
		refs = append(refs, opts.Refs...)
	}

	d, err := p.CreateDraft(content, DraftOptions{
		Author:  author,
		License: src.Meta.License,
		Lang:    src.Meta.Lang,
		Refs:    refs,
		Parent:  src.ID,
	})
	if err != nil {
		return nil, err
	}
	return p.Publish(d)
}

// Result reports a validation outcome as data. Error is set only when
// Valid is false.
type Result struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Validate runs the full two-stage check on a candidate block: structure
// first, then hash integrity. The two failures are reported distinctly
// because their remediation differs (fix the shape vs re-publish). It
// accepts a *block.Block, a block.Block, raw JSON bytes, or any
// JSON-compatible value, and never panics.
func (p *Publisher) Validate(v any) Result {
	var b *block.Block
	switch t := v.(type) {
	case *block.Block:
		if t == nil {
			return Result{Error: "invalid block structure: block is nil"}
		}
		b = t
	case block.Block:
		b = &t
	case []byte:
		parsed, err := block.Parse(t)
		if err != nil {
			return Result{Error: "invalid block structure: " + err.Error()}
		}
		b = parsed
	default:
		enc, err := json.Marshal(v)
		if err != nil {
			return Result{Error: "invalid block structure: " + err.Error()}
		}
		parsed, err := block.Parse(enc)
		if err != nil {
			return Result{Error: "invalid block structure: " + err.Error()}
		}
		b = parsed
	}

	if err := b.Validate(); err != nil {
		return Result{Error: "invalid block structure: " + err.Error()}
	}
	if !identity.Verify(b) {
		return Result{Error: "id does not match content hash"}
	}
	return Result{Valid: true}
}
