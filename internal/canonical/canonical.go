// Package canonical produces deterministic JSON encodings.
//
// Two semantically equal values encode to identical bytes regardless of how
// they were constructed: object keys are sorted lexicographically at every
// nesting level, no insignificant whitespace is emitted, and output is
// UTF-8 without HTML escaping. Array element order is semantic and is
// preserved as-is.
//
// The encoding is the hashing input for block identity; see the identity
// package. Nothing here strips the id field - that is the identity
// package's responsibility.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Encode returns the canonical encoding of any JSON-compatible value.
// Structs are accepted and treated according to their JSON representation,
// so a struct and the equivalent map encode identically.
func Encode(v any) ([]byte, error) {
	norm, err := Normalize(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := write(&buf, norm); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Normalize converts v into the generic JSON form (map[string]any, []any,
// string, json.Number, bool, nil) by round-tripping through encoding/json.
// Numbers keep their original textual form via json.Number, so 1 and 1.0
// stay distinct. The result shares no memory with v.
func Normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalizing value: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("normalizing value: %w", err)
	}
	return out, nil
}

// write emits the canonical form of an already-normalized value.
func write(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(val.String())
	case string:
		return writeString(buf, val)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := write(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := write(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type %T in canonical encoding", v)
	}
	return nil
}

// writeString emits a JSON string without HTML escaping, so "<" stays "<".
func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding string: %w", err)
	}
	// Encode appends a newline.
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
