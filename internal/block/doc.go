// Package block defines the knowledge-block data model and its structural
// validation.
//
// A [Block] is an immutable, content-addressed unit: free-form text content
// plus metadata, an ordered list of references, and optional parent lineage,
// identified by the SHA-256 hash of its canonical encoding. A [Draft] is the
// same shape minus the id - the transient pre-publication form consumed
// exactly once by the publisher.
//
// Validation distinguishes error kinds with sentinel errors
// ([ErrInvalidVersion], [ErrMissingContent], ...) so callers can report
// actionable failures via errors.Is. Structural validity of an id's format
// is separate from content-hash correctness; the latter belongs to the
// identity package.
//
// Entry points come in a returning pair, [Parse] and [MustParse], matching
// the throwing/non-throwing split the format requires.
package block
