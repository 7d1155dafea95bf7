package identity

import (
	"strings"
	"testing"
)

// Known SHA-256 vector: sha256("test").
const testDigest = "sha256:9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func sampleDraft() map[string]any {
	return map[string]any{
		"v":       1,
		"content": "Hello, blocks",
		"meta": map[string]any{
			"created": "2025-01-06T12:00:00Z",
			"license": "CC-BY-4.0",
		},
	}
}

func TestDigest_KnownVector(t *testing.T) {
	if got := Digest([]byte("test")); got != testDigest {
		t.Errorf("Digest = %s, want %s", got, testDigest)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	first, err := Generate(sampleDraft())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	for range 20 {
		again, err := Generate(sampleDraft())
		if err != nil {
			t.Fatalf("Generate returned error: %v", err)
		}
		if again != first {
			t.Fatalf("Generate not deterministic: %s vs %s", again, first)
		}
	}
}

func TestGenerate_KeyOrderIndependent(t *testing.T) {
	// Same logical draft, fields listed in a different order.
	permuted := map[string]any{
		"meta": map[string]any{
			"license": "CC-BY-4.0",
			"created": "2025-01-06T12:00:00Z",
		},
		"content": "Hello, blocks",
		"v":       1,
	}

	a, err := Generate(sampleDraft())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	b, err := Generate(permuted)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if a != b {
		t.Errorf("key order changed the id: %s vs %s", a, b)
	}
}

func TestGenerate_IgnoresID(t *testing.T) {
	withoutID, err := Generate(sampleDraft())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	d := sampleDraft()
	d["id"] = "sha256:" + strings.Repeat("0", 64)
	withID, err := Generate(d)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if withoutID != withID {
		t.Errorf("id field leaked into its own hash input: %s vs %s", withoutID, withID)
	}
}

func TestGenerate_ContentSensitive(t *testing.T) {
	a, err := Generate(sampleDraft())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	d := sampleDraft()
	d["content"] = "Hello, blocks!"
	b, err := Generate(d)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if a == b {
		t.Error("different content produced the same id")
	}
}

func TestGenerate_MetadataSensitive(t *testing.T) {
	// Whole-draft convention: a metadata-only change must change the id.
	a, err := Generate(sampleDraft())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	d := sampleDraft()
	d["meta"].(map[string]any)["license"] = "MIT"
	b, err := Generate(d)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if a == b {
		t.Error("metadata-only change did not change the id")
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	d := sampleDraft()
	id, err := Generate(d)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	d["id"] = id

	if !Verify(d) {
		t.Error("Verify = false for a freshly generated id")
	}
}

func TestVerify_TamperDetection(t *testing.T) {
	d := sampleDraft()
	id, err := Generate(d)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	d["id"] = id
	d["content"] = d["content"].(string) + "x"

	if Verify(d) {
		t.Error("Verify = true for tampered content")
	}
}

func TestVerify_MalformedInputs(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"nil", nil},
		{"not an object", "just a string"},
		{"missing id", sampleDraft()},
		{"non-string id", map[string]any{"id": 42, "content": "x"}},
		{"bad id format", map[string]any{"id": "sha256:short", "content": "x"}},
		{"missing content", map[string]any{"id": testDigest}},
		{"empty content", map[string]any{"id": testDigest, "content": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Verify(tt.input) {
				t.Errorf("Verify = true for %s", tt.name)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{testDigest, true},
		{"sha256:" + strings.Repeat("a", 64), true},
		{"sha256:" + strings.Repeat("A", 64), false}, // uppercase hex rejected
		{"sha256:" + strings.Repeat("a", 63), false},
		{"sha256:" + strings.Repeat("a", 65), false},
		{"sha512:" + strings.Repeat("a", 64), false},
		{strings.Repeat("a", 64), false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValid(tt.id); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
