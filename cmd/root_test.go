package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCmdMetadata(t *testing.T) {
	if rootCmd.Use != "docsage" {
		t.Errorf("expected Use=%q, got %q", "docsage", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("expected non-empty Short description")
	}
	if !rootCmd.SilenceUsage {
		t.Error("expected SilenceUsage to be set")
	}

	expected := []string{"ask", "ingest", "serve", "blocklist", "models", "logs", "version"}
	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range expected {
		if !registered[name] {
			t.Errorf("expected subcommand %q to be registered", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	origVersion, origCommit, origDate := version, commit, date
	defer func() {
		version, commit, date = origVersion, origCommit, origDate
	}()
	version, commit, date = "1.2.3", "abc123", "2026-01-01"

	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)

	out := buf.String()
	for _, want := range []string{"docsage 1.2.3", "commit: abc123", "built:  2026-01-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q:\n%s", want, out)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"long truncated", "hello world", 8, "hello..."},
		{"newlines flattened", "a\nb", 10, "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
