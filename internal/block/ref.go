package block

import (
	"fmt"
	"net/url"
	"regexp"
	"time"
)

// RefType discriminates the reference union. The type fully determines
// which other fields are legal; mixing fields from two variants is a
// structural error.
type RefType string

const (
	// RefURL points at a live web resource.
	RefURL RefType = "url"

	// RefArchive preserves a quoted snippet from a source that may vanish.
	RefArchive RefType = "archive"

	// RefSearch records a query that should rediscover the source.
	RefSearch RefType = "search"

	// RefHash pins external content by its digest.
	RefHash RefType = "hash"
)

// HashAlgs lists the digest algorithms a hash reference may use. These
// cover external content only; block identity is always SHA-256.
var HashAlgs = []string{"sha256", "sha384", "sha512"}

var hexPattern = regexp.MustCompile(`^[0-9a-f]+$`)

// Ref is one reference attached to a block. Refs are order-preserving and
// never deduplicated; their order is semantic.
type Ref struct {
	Type RefType `json:"type"`

	// url variant
	URL      string `json:"url,omitempty"`
	Title    string `json:"title,omitempty"`
	Accessed string `json:"accessed,omitempty"`

	// archive variant
	Snippet  string `json:"snippet,omitempty"`
	From     string `json:"from,omitempty"`
	Archived string `json:"archived,omitempty"`
	Context  string `json:"context,omitempty"`

	// search variant
	Query  string `json:"query,omitempty"`
	Engine string `json:"engine,omitempty"`
	Expect string `json:"expect,omitempty"`

	// hash variant
	Alg   string `json:"alg,omitempty"`
	Value string `json:"value,omitempty"`
	Of    string `json:"of,omitempty"`
}

// variantFields maps each type to the JSON field names it may carry.
var variantFields = map[RefType][]string{
	RefURL:     {"url", "title", "accessed"},
	RefArchive: {"snippet", "from", "archived", "context"},
	RefSearch:  {"query", "engine", "expect"},
	RefHash:    {"alg", "value", "of"},
}

// Validate checks the reference against its variant's rules: required
// fields present, no fields from another variant set, per-field formats.
func (r Ref) Validate() error {
	allowed, ok := variantFields[r.Type]
	if !ok {
		return fmt.Errorf("unknown type %q", r.Type)
	}

	set := r.setFields()
	permitted := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		permitted[f] = true
	}
	for name := range set {
		if !permitted[name] {
			return fmt.Errorf("field %q is not allowed on type %q", name, r.Type)
		}
	}

	switch r.Type {
	case RefURL:
		if r.URL == "" {
			return fmt.Errorf("type %q requires url", r.Type)
		}
		if _, err := url.ParseRequestURI(r.URL); err != nil {
			return fmt.Errorf("url %q is not a valid URL", r.URL)
		}
		if err := checkTimestamp("accessed", r.Accessed); err != nil {
			return err
		}
	case RefArchive:
		if r.Snippet == "" {
			return fmt.Errorf("type %q requires snippet", r.Type)
		}
		if r.From != "" {
			if _, err := url.ParseRequestURI(r.From); err != nil {
				return fmt.Errorf("from %q is not a valid URL", r.From)
			}
		}
		if err := checkTimestamp("archived", r.Archived); err != nil {
			return err
		}
	case RefSearch:
		if r.Query == "" {
			return fmt.Errorf("type %q requires query", r.Type)
		}
	case RefHash:
		if !validAlg(r.Alg) {
			return fmt.Errorf("alg must be one of %v, got %q", HashAlgs, r.Alg)
		}
		if r.Value == "" || !hexPattern.MatchString(r.Value) {
			return fmt.Errorf("value %q is not lowercase hex", r.Value)
		}
	}
	return nil
}

// setFields returns the names of all non-empty fields other than type.
func (r Ref) setFields() map[string]string {
	set := make(map[string]string)
	add := func(name, value string) {
		if value != "" {
			set[name] = value
		}
	}
	add("url", r.URL)
	add("title", r.Title)
	add("accessed", r.Accessed)
	add("snippet", r.Snippet)
	add("from", r.From)
	add("archived", r.Archived)
	add("context", r.Context)
	add("query", r.Query)
	add("engine", r.Engine)
	add("expect", r.Expect)
	add("alg", r.Alg)
	add("value", r.Value)
	add("of", r.Of)
	return set
}

func checkTimestamp(name, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, value); err != nil {
		return fmt.Errorf("%s %q is not a valid timestamp", name, value)
	}
	return nil
}

func validAlg(alg string) bool {
	for _, a := range HashAlgs {
		if alg == a {
			return true
		}
	}
	return false
}
