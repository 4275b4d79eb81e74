package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// testOptions keeps the debounce short so events arrive quickly.
func testOptions() Options {
	return Options{Debounce: 50 * time.Millisecond}
}

// waitForEvent reads events until one arrives for path, skipping events for
// other paths (directory creations, sibling noise).
func waitForEvent(t *testing.T, w *Watcher, path string) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case event := <-w.Events():
			if event.Path == path {
				return event
			}
		case err := <-w.Errors():
			t.Fatalf("Unexpected watcher error: %v", err)
		case <-timeout:
			t.Fatalf("Timeout waiting for event for %s", path)
		}
	}
}

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{OpCreated, "created"},
		{OpModified, "modified"},
		{OpRemoved, "removed"},
		{Op(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Op(%d).String() = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()

	w, err := New(tmpDir+string(filepath.Separator), testOptions())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	if w.Root() != tmpDir {
		t.Errorf("Root() = %v, want %v", w.Root(), tmpDir)
	}
}

func TestNew_MissingDirTolerated(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	w, err := New(missing, testOptions())
	if err != nil {
		t.Fatalf("New with missing dir failed: %v", err)
	}
	w.Close()
}

func TestWatcher_FileCreated(t *testing.T) {
	tmpDir := t.TempDir()
	w, err := New(tmpDir, testOptions())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	testFile := filepath.Join(tmpDir, "new.go")
	if err := os.WriteFile(testFile, []byte("package main"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	event := waitForEvent(t, w, testFile)
	if event.Op != OpCreated {
		t.Errorf("Event.Op = %v, want %v", event.Op, OpCreated)
	}
}

func TestWatcher_FileModified(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "main.go")
	if err := os.WriteFile(testFile, []byte("initial"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	w, err := New(tmpDir, testOptions())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(testFile, []byte("modified"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	event := waitForEvent(t, w, testFile)
	if event.Op != OpModified {
		t.Errorf("Event.Op = %v, want %v", event.Op, OpModified)
	}
}

func TestWatcher_FileRemoved(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "doomed.go")
	if err := os.WriteFile(testFile, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	w, err := New(tmpDir, testOptions())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	if err := os.Remove(testFile); err != nil {
		t.Fatalf("Failed to remove test file: %v", err)
	}

	event := waitForEvent(t, w, testFile)
	if event.Op != OpRemoved {
		t.Errorf("Event.Op = %v, want %v", event.Op, OpRemoved)
	}
}

func TestWatcher_ExcludedDirsSilent(t *testing.T) {
	tmpDir := t.TempDir()
	for _, dir := range []string{"node_modules", ".git"} {
		if err := os.MkdirAll(filepath.Join(tmpDir, dir), 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	w, err := New(tmpDir, Options{
		ExcludeDirs: []string{"node_modules"},
		Debounce:    50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	// Files inside excluded and dot directories must stay invisible
	if err := os.WriteFile(filepath.Join(tmpDir, "node_modules", "dep.js"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ".git", "HEAD"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	visible := filepath.Join(tmpDir, "app.go")
	if err := os.WriteFile(visible, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	event := waitForEvent(t, w, visible)
	if event.Op != OpCreated {
		t.Errorf("Event.Op = %v, want %v", event.Op, OpCreated)
	}

	// Drain for a while; any event under an excluded dir is a failure
	timeout := time.After(300 * time.Millisecond)
drainLoop:
	for {
		select {
		case event := <-w.Events():
			if event.Path != visible {
				t.Errorf("Unexpected event for %v", event.Path)
			}
		case <-timeout:
			break drainLoop
		}
	}
}

func TestWatcher_NewSubdirectoryPickedUp(t *testing.T) {
	tmpDir := t.TempDir()
	w, err := New(tmpDir, testOptions())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	subDir := filepath.Join(tmpDir, "pkg")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}

	// Give the watcher time to register the new directory
	time.Sleep(100 * time.Millisecond)

	testFile := filepath.Join(subDir, "pkg.go")
	if err := os.WriteFile(testFile, []byte("package pkg"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	waitForEvent(t, w, testFile)
}

func TestWatcher_PatternFiltering(t *testing.T) {
	tmpDir := t.TempDir()
	w, err := New(tmpDir, Options{Pattern: "*.go", Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	ignored := filepath.Join(tmpDir, "notes.txt")
	if err := os.WriteFile(ignored, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	matching := filepath.Join(tmpDir, "main.go")
	if err := os.WriteFile(matching, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	event := waitForEvent(t, w, matching)
	if event.Op != OpCreated {
		t.Errorf("Event.Op = %v, want %v", event.Op, OpCreated)
	}

	timeout := time.After(300 * time.Millisecond)
drainLoop:
	for {
		select {
		case event := <-w.Events():
			if event.Path == ignored {
				t.Errorf("Unexpected event for non-matching file %v", event.Path)
			}
		case <-timeout:
			break drainLoop
		}
	}
}

func TestWatcher_DebounceCoalesces(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "busy.go")
	if err := os.WriteFile(testFile, []byte("initial"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	w, err := New(tmpDir, Options{Debounce: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(testFile, []byte("write"+string(rune('0'+i))), 0644); err != nil {
			t.Fatalf("Failed to write: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	eventCount := 0
	timeout := time.After(time.Second)
loop:
	for {
		select {
		case <-w.Events():
			eventCount++
		case <-timeout:
			break loop
		}
	}

	if eventCount != 1 {
		t.Errorf("Expected 1 coalesced event, got %d", eventCount)
	}
}

func TestWatcher_CreateThenWriteReportsCreated(t *testing.T) {
	tmpDir := t.TempDir()
	w, err := New(tmpDir, Options{Debounce: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	// The create and the follow-up writes all land inside one window
	testFile := filepath.Join(tmpDir, "fresh.go")
	if err := os.WriteFile(testFile, []byte("package fresh"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(testFile, []byte("package fresh // rev"), 0644); err != nil {
			t.Fatalf("Failed to write test file: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	event := waitForEvent(t, w, testFile)
	if event.Op != OpCreated {
		t.Errorf("Event.Op = %v, want %v (write must not demote a pending create)", event.Op, OpCreated)
	}
}

func TestWatcher_RemoveSupersedesPendingCreate(t *testing.T) {
	tmpDir := t.TempDir()
	w, err := New(tmpDir, Options{Debounce: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	testFile := filepath.Join(tmpDir, "transient.go")
	if err := os.WriteFile(testFile, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	if err := os.Remove(testFile); err != nil {
		t.Fatalf("Failed to remove test file: %v", err)
	}

	event := waitForEvent(t, w, testFile)
	if event.Op != OpRemoved {
		t.Errorf("Event.Op = %v, want %v", event.Op, OpRemoved)
	}
}

func TestMergeOps(t *testing.T) {
	tests := []struct {
		name string
		prev Op
		next Op
		want Op
	}{
		{"write after create stays created", OpCreated, OpModified, OpCreated},
		{"create after create", OpCreated, OpCreated, OpCreated},
		{"remove supersedes create", OpCreated, OpRemoved, OpRemoved},
		{"remove supersedes write", OpModified, OpRemoved, OpRemoved},
		{"write after write", OpModified, OpModified, OpModified},
		{"recreate after remove is a modification", OpRemoved, OpCreated, OpModified},
		{"remove after remove", OpRemoved, OpRemoved, OpRemoved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mergeOps(tt.prev, tt.next); got != tt.want {
				t.Errorf("mergeOps(%v, %v) = %v, want %v", tt.prev, tt.next, got, tt.want)
			}
		})
	}
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	w, err := New(t.TempDir(), testOptions())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("First Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
}
