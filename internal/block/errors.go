package block

import "errors"

var (
	// ErrMalformed indicates the input is not a JSON object at all.
	ErrMalformed = errors.New("malformed block document")

	// ErrInvalidVersion indicates the v field is not the supported version.
	ErrInvalidVersion = errors.New("invalid version")

	// ErrMissingContent indicates content is empty or not a string.
	ErrMissingContent = errors.New("missing content")

	// ErrInvalidMeta indicates the meta object is malformed.
	ErrInvalidMeta = errors.New("invalid meta")

	// ErrInvalidReference indicates a reference fails its variant's rules.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrInvalidID indicates the id field is not sha256:<64 lowercase hex>.
	ErrInvalidID = errors.New("invalid id")

	// ErrInvalidParent indicates the parent field is not a valid block ID.
	ErrInvalidParent = errors.New("invalid parent")

	// ErrInvalidOrigin indicates the origin object is malformed.
	ErrInvalidOrigin = errors.New("invalid origin")
)
