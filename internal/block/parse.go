package block

import (
	"encoding/json"
	"fmt"
)

// Parse decodes and structurally validates a serialized block. It is the
// returning entry point: malformed input comes back as an error whose kind
// is checkable with errors.Is against this package's sentinels.
func Parse(data []byte) (*Block, error) {
	var b Block
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// MustParse is the panicking counterpart of Parse, for inputs known to be
// valid (literals in tests, embedded fixtures).
func MustParse(data []byte) *Block {
	b, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return b
}
