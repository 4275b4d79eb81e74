package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	if cmd == nil {
		t.Fatal("Root command should not be nil")
	}
	if cmd.Use != "curator" {
		t.Errorf("Expected Use to be 'curator', got '%s'", cmd.Use)
	}

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	if err != nil {
		t.Fatalf("Help should not fail: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "curator") {
		t.Errorf("Help text should contain 'curator', got: %s", output)
	}
	if !strings.Contains(output, "selection") {
		t.Errorf("Help text should describe the selection, got: %s", output)
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	want := []string{"scan", "toggle", "apply", "undo", "redo", "filter", "relevant", "session", "watch"}
	found := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		found[sub.Name()] = true
	}

	for _, name := range want {
		if !found[name] {
			t.Errorf("Expected subcommand %q to be registered", name)
		}
	}
}

func TestRootCommandPersistentFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"config", "db", "session-file", "verbose", "log-dir"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("Expected persistent flag %q to be registered", name)
		}
	}
}

func TestVersionFlag(t *testing.T) {
	cmd := NewRootCommand()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--version"})

	err := cmd.Execute()
	if err != nil {
		t.Fatalf("Version flag should not fail: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "version") {
		t.Errorf("Version output should contain 'version', got: %s", output)
	}
}
