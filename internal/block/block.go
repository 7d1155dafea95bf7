package block

import (
	"fmt"
	"net/url"
	"time"

	"github.com/trefhq/tref/internal/identity"
)

// Version is the only supported format version.
const Version = 1

// DefaultLicense is stamped onto drafts when no license is supplied.
const DefaultLicense = "CC-BY-4.0"

// Meta carries a block's descriptive metadata. Created and License are
// required; the rest are omitted from the encoding when unset.
type Meta struct {
	Created  string `json:"created"`            // RFC 3339 timestamp
	License  string `json:"license"`            // license identifier, e.g. "CC-BY-4.0"
	Author   string `json:"author,omitempty"`   // free-form attribution
	Modified string `json:"modified,omitempty"` // this block's own edit history, never inherited
	Lang     string `json:"lang,omitempty"`     // ISO 639-1 two-letter code
}

// Origin describes where a block is canonically published. It is carried
// for collaborators; the core never dereferences it.
type Origin struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Draft is the pre-publication form of a block: every field except the id.
// Drafts are transient, single-use values consumed by one publish call.
type Draft struct {
	V       int     `json:"v"`
	Content string  `json:"content"`
	Meta    Meta    `json:"meta"`
	Refs    []Ref   `json:"refs,omitempty"`
	Parent  string  `json:"parent,omitempty"`
	Origin  *Origin `json:"origin,omitempty"`
}

// Block is the published, immutable unit. Its ID is the SHA-256 hash of the
// draft's canonical encoding and is never recomputed in place: a content
// change means a new Block.
type Block struct {
	Draft
	ID string `json:"id"`
}

// Validate checks a draft's structural invariants, returning the first
// failure wrapped in its sentinel kind.
func (d Draft) Validate() error {
	if d.V != Version {
		return fmt.Errorf("%w: v must be %d, got %d", ErrInvalidVersion, Version, d.V)
	}
	if d.Content == "" {
		return fmt.Errorf("%w: content must be a non-empty string", ErrMissingContent)
	}
	if err := d.Meta.validate(); err != nil {
		return err
	}
	for i, r := range d.Refs {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%w: refs[%d]: %v", ErrInvalidReference, i, err)
		}
	}
	if d.Parent != "" && !identity.IsValid(d.Parent) {
		return fmt.Errorf("%w: %q", ErrInvalidParent, d.Parent)
	}
	if d.Origin != nil {
		if err := d.Origin.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks everything Draft.Validate checks, plus the id format.
// It does not recompute the hash; integrity is the identity package's job.
func (b *Block) Validate() error {
	if err := b.Draft.Validate(); err != nil {
		return err
	}
	if !identity.IsValid(b.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidID, b.ID)
	}
	return nil
}

func (m Meta) validate() error {
	if m.Created == "" {
		return fmt.Errorf("%w: created is required", ErrInvalidMeta)
	}
	if _, err := time.Parse(time.RFC3339, m.Created); err != nil {
		return fmt.Errorf("%w: created %q is not a valid timestamp", ErrInvalidMeta, m.Created)
	}
	if m.License == "" {
		return fmt.Errorf("%w: license is required", ErrInvalidMeta)
	}
	if m.Modified != "" {
		if _, err := time.Parse(time.RFC3339, m.Modified); err != nil {
			return fmt.Errorf("%w: modified %q is not a valid timestamp", ErrInvalidMeta, m.Modified)
		}
	}
	if m.Lang != "" && !isLangCode(m.Lang) {
		return fmt.Errorf("%w: lang %q is not a two-letter code", ErrInvalidMeta, m.Lang)
	}
	return nil
}

func (o Origin) validate() error {
	if o.URL == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidOrigin)
	}
	if _, err := url.ParseRequestURI(o.URL); err != nil {
		return fmt.Errorf("%w: url %q is not a valid URL", ErrInvalidOrigin, o.URL)
	}
	return nil
}

func isLangCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
