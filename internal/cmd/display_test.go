package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/harrison/curator/internal/models"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name string
		size int64
		want string
	}{
		{name: "bytes", size: 512, want: "512 B"},
		{name: "exact kilobyte", size: 1024, want: "1.0 KB"},
		{name: "fractional kilobytes", size: 1536, want: "1.5 KB"},
		{name: "megabytes", size: 3 << 20, want: "3.0 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatSize(tt.size); got != tt.want {
				t.Errorf("formatSize(%d) = %q, want %q", tt.size, got, tt.want)
			}
		})
	}
}

func TestPrintSelectionEmpty(t *testing.T) {
	buf := new(bytes.Buffer)
	printSelection(buf, nil, nil)

	if !strings.Contains(buf.String(), "No files selected.") {
		t.Errorf("Empty selection should print a placeholder, got: %s", buf.String())
	}
}

func TestPrintSelectionSections(t *testing.T) {
	buf := new(bytes.Buffer)
	printSelection(buf, []string{"src/a.go", "src/b.go"}, []string{"vendor/c.go"})

	output := buf.String()
	if !strings.Contains(output, "Included files:") {
		t.Errorf("Expected included section, got: %s", output)
	}
	if !strings.Contains(output, "+ src/a.go") {
		t.Errorf("Expected included entry for src/a.go, got: %s", output)
	}
	if !strings.Contains(output, "Excluded files:") {
		t.Errorf("Expected excluded section, got: %s", output)
	}
	if !strings.Contains(output, "- vendor/c.go") {
		t.Errorf("Expected excluded entry for vendor/c.go, got: %s", output)
	}
}

func TestPrintSelectionIncludedOnly(t *testing.T) {
	buf := new(bytes.Buffer)
	printSelection(buf, []string{"main.go"}, nil)

	output := buf.String()
	if !strings.Contains(output, "+ main.go") {
		t.Errorf("Expected included entry, got: %s", output)
	}
	if strings.Contains(output, "Excluded files:") {
		t.Errorf("Excluded section should be omitted when empty, got: %s", output)
	}
}

func TestPrintFileTable(t *testing.T) {
	files := []models.FileRecord{
		{Path: "a.go", Included: true},
		{Path: "b.go", ForceExcluded: true},
		{Path: "c.go"},
	}

	buf := new(bytes.Buffer)
	printFileTable(buf, files, false)

	output := buf.String()
	if !strings.Contains(output, "+ a.go") {
		t.Errorf("Included file should carry a plus marker, got: %s", output)
	}
	if !strings.Contains(output, "- b.go") {
		t.Errorf("Force-excluded file should carry a minus marker, got: %s", output)
	}
	if !strings.Contains(output, "  c.go") {
		t.Errorf("Unselected file should print without a marker, got: %s", output)
	}
}

func TestPrintFileTableWithSizes(t *testing.T) {
	files := []models.FileRecord{
		{Path: "big.go", Size: 2048},
		{Path: "unknown.go"},
	}

	buf := new(bytes.Buffer)
	printFileTable(buf, files, true)

	output := buf.String()
	if !strings.Contains(output, "big.go (2.0 KB)") {
		t.Errorf("Expected size annotation, got: %s", output)
	}
	if strings.Contains(output, "unknown.go (") {
		t.Errorf("Zero size should not be annotated, got: %s", output)
	}
}
