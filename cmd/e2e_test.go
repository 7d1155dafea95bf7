package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/trefhq/tref/internal/log"
	"github.com/trefhq/tref/internal/registry"
)

// isolate points HOME and the publish directory at a temp dir, so tests
// never touch the developer's real registry or config.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	publishDir := filepath.Join(home, "blocks")
	t.Setenv("HOME", home)
	t.Setenv("TREF_PUBLISH_DIR", publishDir)
	t.Setenv("TREF_LOG_LEVEL", "error")
	return publishDir
}

func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func registryEntries(t *testing.T, publishDir string) []registry.Entry {
	t.Helper()
	store, err := registry.Open(publishDir, log.NewNop())
	if err != nil {
		t.Fatalf("opening registry: %v", err)
	}
	entries, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("listing registry: %v", err)
	}
	return entries
}

func TestPublishValidateDerive(t *testing.T) {
	publishDir := isolate(t)

	// Publish from a file.
	src := filepath.Join(t.TempDir(), "note.md")
	if err := os.WriteFile(src, []byte("# A note\n\nBody."), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := runCommand(t, "", "publish", src, "--author", "ada"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	entries := registryEntries(t, publishDir)
	if len(entries) != 1 {
		t.Fatalf("registry has %d entries after publish, want 1", len(entries))
	}
	parentID := entries[0].ID

	// Validate the published block by ID.
	if _, err := runCommand(t, "", "validate", parentID); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	// Derive with content from stdin.
	if _, err := runCommand(t, "revised body", "derive", parentID); err != nil {
		t.Fatalf("derive failed: %v", err)
	}

	entries = registryEntries(t, publishDir)
	if len(entries) != 2 {
		t.Fatalf("registry has %d entries after derive, want 2", len(entries))
	}

	store, err := registry.Open(publishDir, log.NewNop())
	if err != nil {
		t.Fatalf("opening registry: %v", err)
	}
	child, err := store.Get(entries[1].ID)
	if err != nil {
		t.Fatalf("loading child: %v", err)
	}
	if child.Parent != parentID {
		t.Errorf("child.Parent = %q, want %q", child.Parent, parentID)
	}
	if child.Meta.Author != "ada" {
		t.Errorf("child author = %q, want inherited ada", child.Meta.Author)
	}

	// List shows both blocks.
	out, err := runCommand(t, "", "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, parentID) || !strings.Contains(out, child.ID) {
		t.Errorf("list output missing ids:\n%s", out)
	}
}

func TestValidate_TamperedFile(t *testing.T) {
	isolate(t)

	// Publish to a standalone file, then edit it.
	out := filepath.Join(t.TempDir(), "block.tref")
	if _, err := runCommand(t, "original content", "publish", "-", "--out", out); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	publishOut = "" // reset the persistent flag for later tests

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading block file: %v", err)
	}
	tampered := strings.Replace(string(data), "original content", "tampered content", 1)
	if err := os.WriteFile(out, []byte(tampered), 0o644); err != nil {
		t.Fatalf("writing tampered file: %v", err)
	}

	_, err = runCommand(t, "", "validate", out)
	if err == nil {
		t.Fatal("validate should fail for a tampered block")
	}
	if !strings.Contains(err.Error(), "does not match content hash") {
		t.Errorf("error = %v, want integrity message", err)
	}
}

func TestValidate_StructuralFailure(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "broken.tref")
	if err := os.WriteFile(path, []byte(`{"v": 2, "content": ""}`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	_, err := runCommand(t, "", "validate", path)
	if err == nil {
		t.Fatal("validate should fail for a structurally broken block")
	}
	if !strings.Contains(err.Error(), "invalid block structure") {
		t.Errorf("error = %v, want structural message", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "tref") {
		t.Errorf("version output missing binary name: %s", out)
	}
}
