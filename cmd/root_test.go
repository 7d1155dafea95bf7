package cmd

import (
	"testing"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	want := []string{"publish", "derive", "validate", "show", "list", "mcp", "version"}

	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}

	for _, name := range want {
		if !registered[name] {
			t.Errorf("subcommand %q is not registered", name)
		}
	}
}

func TestParseRefFlags(t *testing.T) {
	refs := parseRefFlags([]string{"https://a.example", "https://b.example"})

	if len(refs) != 2 {
		t.Fatalf("got %d refs, want 2", len(refs))
	}
	for i, r := range refs {
		if r.Type != "url" {
			t.Errorf("refs[%d].Type = %q, want url", i, r.Type)
		}
	}
	if refs[0].URL != "https://a.example" || refs[1].URL != "https://b.example" {
		t.Errorf("ref order not preserved: %+v", refs)
	}
}
