// Package identity computes and verifies content-addressed block IDs.
//
// A block's ID is the SHA-256 digest of the canonical encoding of the whole
// draft (every field except id), formatted as "sha256:" followed by 64
// lowercase hex characters. Hashing the whole draft means any change -
// content, metadata, references, or parent - produces a different ID, so a
// published block is tamper-evident across all of its fields.
//
// IDs are permanent: a block's ID is never recomputed in place. Changing
// anything means publishing a new block.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/trefhq/tref/internal/canonical"
)

// Prefix is the algorithm tag carried by every block ID.
const Prefix = "sha256:"

var idPattern = regexp.MustCompile(`^sha256:[0-9a-f]{64}$`)

// Digest returns the prefixed lowercase-hex SHA-256 digest of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return Prefix + hex.EncodeToString(sum[:])
}

// Generate computes the ID for a draft or block. A top-level id field, if
// present, is removed before encoding, since the ID cannot be part of its
// own input. The input may be a typed draft/block or any JSON-compatible
// value with the same shape.
func Generate(v any) (string, error) {
	norm, err := canonical.Normalize(v)
	if err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}
	if obj, ok := norm.(map[string]any); ok {
		delete(obj, "id")
	}

	enc, err := canonical.Encode(norm)
	if err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}
	return Digest(enc), nil
}

// Verify reports whether a block's id matches the hash of its own
// canonical encoding. It never panics: any structurally malformed input
// (missing or non-string id or content) simply verifies false.
// Verification failure is data, not an error.
func Verify(v any) bool {
	norm, err := canonical.Normalize(v)
	if err != nil {
		return false
	}
	obj, ok := norm.(map[string]any)
	if !ok {
		return false
	}

	id, ok := obj["id"].(string)
	if !ok || !IsValid(id) {
		return false
	}
	content, ok := obj["content"].(string)
	if !ok || content == "" {
		return false
	}

	want, err := Generate(obj)
	if err != nil {
		return false
	}
	return want == id
}

// IsValid reports whether id has the "sha256:" + 64 lowercase hex format.
// Format validity says nothing about integrity; see Verify.
func IsValid(id string) bool {
	return idPattern.MatchString(id)
}
