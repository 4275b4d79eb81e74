package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// executeCommand runs the full command tree with the given arguments and
// returns everything written to the command's out and err streams.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

// writeProjectFile creates one file under dir, making parent directories.
func writeProjectFile(t *testing.T, dir, rel, content string) {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", rel, err)
	}
}

// newTestProject lays out a small project tree and returns its path plus the
// shared flags that keep all state inside the test's temp directories.
func newTestProject(t *testing.T) (string, []string) {
	t.Helper()

	project := t.TempDir()
	writeProjectFile(t, project, "main.go", "package main\n\nfunc main() {}\n")
	writeProjectFile(t, project, "util/helper.go", "package util\n")
	writeProjectFile(t, project, "README.md", "# demo\n")

	state := t.TempDir()
	flags := []string{
		"--session-file", filepath.Join(state, "session.json"),
		"--log-dir", filepath.Join(state, "logs"),
	}
	return project, flags
}

func TestScanToggleUndoRedoWorkflow(t *testing.T) {
	project, flags := newTestProject(t)

	// First scan creates and activates a session with an empty selection
	output, err := executeCommand(t, append([]string{"scan", project}, flags...)...)
	if err != nil {
		t.Fatalf("scan failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Created session") {
		t.Errorf("First scan should create a session, got: %s", output)
	}
	if !strings.Contains(output, "No files selected.") {
		t.Errorf("Fresh session should start empty, got: %s", output)
	}

	// A second scan resumes the same session
	output, err = executeCommand(t, append([]string{"scan", project}, flags...)...)
	if err != nil {
		t.Fatalf("second scan failed: %v\n%s", err, output)
	}
	if strings.Contains(output, "Created session") {
		t.Errorf("Second scan should reuse the session, got: %s", output)
	}

	// Toggle includes a file by its relative path
	output, err = executeCommand(t, append([]string{"toggle", "main.go"}, flags...)...)
	if err != nil {
		t.Fatalf("toggle failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Included: main.go") {
		t.Errorf("Expected main.go to be included, got: %s", output)
	}

	// Undo in a fresh invocation reverts the persisted toggle
	output, err = executeCommand(t, append([]string{"undo"}, flags...)...)
	if err != nil {
		t.Fatalf("undo failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "No files selected.") {
		t.Errorf("Undo should empty the selection, got: %s", output)
	}

	// Redo restores it again
	output, err = executeCommand(t, append([]string{"redo"}, flags...)...)
	if err != nil {
		t.Fatalf("redo failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "+ main.go") {
		t.Errorf("Redo should restore the inclusion, got: %s", output)
	}

	// Nothing left to redo
	output, err = executeCommand(t, append([]string{"redo"}, flags...)...)
	if err != nil {
		t.Fatalf("redo failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Nothing to redo") {
		t.Errorf("Exhausted redo should say so, got: %s", output)
	}
}

func TestScanLogsSummaryOnce(t *testing.T) {
	project, flags := newTestProject(t)

	output, err := executeCommand(t, append([]string{"scan", project}, flags...)...)
	if err != nil {
		t.Fatalf("scan failed: %v\n%s", err, output)
	}
	if got := strings.Count(output, "=== Selection Summary ==="); got != 1 {
		t.Errorf("Expected the selection summary exactly once, got %d:\n%s", got, output)
	}
}

func TestApplyAndExcludeWorkflow(t *testing.T) {
	project, flags := newTestProject(t)

	output, err := executeCommand(t, append([]string{"scan", project}, flags...)...)
	if err != nil {
		t.Fatalf("scan failed: %v\n%s", err, output)
	}

	// Apply merges matched paths and warns about the rest
	output, err = executeCommand(t, append([]string{"apply", "util/helper.go", "missing.go"}, flags...)...)
	if err != nil {
		t.Fatalf("apply failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Matched 1 of 2 paths") {
		t.Errorf("Expected one matched path, got: %s", output)
	}
	if !strings.Contains(output, `"missing.go" does not match`) {
		t.Errorf("Expected a warning for the unmatched path, got: %s", output)
	}
	if !strings.Contains(output, "+ util/helper.go") {
		t.Errorf("Expected util/helper.go to be included, got: %s", output)
	}

	// Force-exclude a file; it must show up in the excluded section
	output, err = executeCommand(t, append([]string{"toggle", "--exclude", "README.md"}, flags...)...)
	if err != nil {
		t.Fatalf("toggle --exclude failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Excluded: README.md") {
		t.Errorf("Expected README.md to be excluded, got: %s", output)
	}

	// Replacing the selection drops previous inclusions
	output, err = executeCommand(t, append([]string{"apply", "--replace", "main.go"}, flags...)...)
	if err != nil {
		t.Fatalf("apply --replace failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "+ main.go") {
		t.Errorf("Expected main.go to be included, got: %s", output)
	}
	if strings.Contains(output, "+ util/helper.go") {
		t.Errorf("Replace should drop util/helper.go, got: %s", output)
	}
	if !strings.Contains(output, "- README.md") {
		t.Errorf("Forced exclusion should survive a replace, got: %s", output)
	}
}

func TestToggleWithoutSession(t *testing.T) {
	_, flags := newTestProject(t)

	// No scan has run, so there is no active session
	output, err := executeCommand(t, append([]string{"toggle", "main.go"}, flags...)...)
	if err == nil {
		t.Fatalf("Expected an error without an active session, got: %s", output)
	}
	if !strings.Contains(err.Error(), "no active session") {
		t.Errorf("Expected a no-active-session error, got: %v", err)
	}
}

func TestSessionShowAndExport(t *testing.T) {
	project, flags := newTestProject(t)

	output, err := executeCommand(t, append([]string{"scan", project}, flags...)...)
	if err != nil {
		t.Fatalf("scan failed: %v\n%s", err, output)
	}
	output, err = executeCommand(t, append([]string{"toggle", "main.go"}, flags...)...)
	if err != nil {
		t.Fatalf("toggle failed: %v\n%s", err, output)
	}

	output, err = executeCommand(t, append([]string{"session", "show"}, flags...)...)
	if err != nil {
		t.Fatalf("session show failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Directory:") {
		t.Errorf("Expected session details, got: %s", output)
	}
	if !strings.Contains(output, "+ main.go") {
		t.Errorf("Expected the included file, got: %s", output)
	}

	exportPath := filepath.Join(t.TempDir(), "export.yaml")
	output, err = executeCommand(t, append([]string{"session", "export", "--output", exportPath}, flags...)...)
	if err != nil {
		t.Fatalf("session export failed: %v\n%s", err, output)
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	exported := string(data)
	if !strings.Contains(exported, "included_files:") {
		t.Errorf("Export should carry the included list, got: %s", exported)
	}
	if !strings.Contains(exported, "main.go") {
		t.Errorf("Export should name the included file, got: %s", exported)
	}
	if !strings.Contains(exported, "directory:") {
		t.Errorf("Export should carry the directory, got: %s", exported)
	}
}

func TestSessionClear(t *testing.T) {
	project, flags := newTestProject(t)

	output, err := executeCommand(t, append([]string{"scan", project}, flags...)...)
	if err != nil {
		t.Fatalf("scan failed: %v\n%s", err, output)
	}
	output, err = executeCommand(t, append([]string{"toggle", "main.go"}, flags...)...)
	if err != nil {
		t.Fatalf("toggle failed: %v\n%s", err, output)
	}

	output, err = executeCommand(t, append([]string{"session", "clear"}, flags...)...)
	if err != nil {
		t.Fatalf("session clear failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Cleared selection") {
		t.Errorf("Expected a clear confirmation, got: %s", output)
	}

	// The cleared selection has no history to undo
	output, err = executeCommand(t, append([]string{"undo"}, flags...)...)
	if err != nil {
		t.Fatalf("undo failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Nothing to undo") {
		t.Errorf("Clear should drop the history, got: %s", output)
	}
}

func TestRelevantFromFile(t *testing.T) {
	project, flags := newTestProject(t)

	output, err := executeCommand(t, append([]string{"scan", project}, flags...)...)
	if err != nil {
		t.Fatalf("scan failed: %v\n%s", err, output)
	}

	resultFile := filepath.Join(t.TempDir(), "result.json")
	result := `{"files": ["util/helper.go", "main.go", "missing.go"]}`
	if err := os.WriteFile(resultFile, []byte(result), 0644); err != nil {
		t.Fatalf("Failed to write result file: %v", err)
	}

	output, err = executeCommand(t, append([]string{"relevant", "--from", resultFile}, flags...)...)
	if err != nil {
		t.Fatalf("relevant failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Found 3 relevant files") {
		t.Errorf("Expected three extracted paths, got: %s", output)
	}
	if !strings.Contains(output, "+ util/helper.go") {
		t.Errorf("Expected util/helper.go to be merged in, got: %s", output)
	}
	if !strings.Contains(output, `"missing.go" does not match`) {
		t.Errorf("Expected a warning for the unknown path, got: %s", output)
	}
}

func TestRelevantWithoutApply(t *testing.T) {
	project, flags := newTestProject(t)

	output, err := executeCommand(t, append([]string{"scan", project}, flags...)...)
	if err != nil {
		t.Fatalf("scan failed: %v\n%s", err, output)
	}

	resultFile := filepath.Join(t.TempDir(), "result.json")
	if err := os.WriteFile(resultFile, []byte(`["main.go"]`), 0644); err != nil {
		t.Fatalf("Failed to write result file: %v", err)
	}

	output, err = executeCommand(t, append([]string{"relevant", "--from", resultFile, "--apply=false"}, flags...)...)
	if err != nil {
		t.Fatalf("relevant failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Found 1 relevant files") {
		t.Errorf("Expected the extracted path to be listed, got: %s", output)
	}

	// The selection stays untouched
	output, err = executeCommand(t, append([]string{"session", "show"}, flags...)...)
	if err != nil {
		t.Fatalf("session show failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "No files selected.") {
		t.Errorf("Selection should be untouched, got: %s", output)
	}
}

func TestRelevantConflictingSources(t *testing.T) {
	_, flags := newTestProject(t)

	output, err := executeCommand(t, append([]string{"relevant", "--job", "abc", "--exec", "cmd"}, flags...)...)
	if err == nil {
		t.Fatalf("Expected an error for conflicting sources, got: %s", output)
	}
	if !strings.Contains(err.Error(), "only one of") {
		t.Errorf("Expected a conflicting-sources error, got: %v", err)
	}
}
