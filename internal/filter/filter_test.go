package filter

import (
	"strings"
	"testing"

	"github.com/harrison/curator/internal/models"
)

func fileMap() map[string]models.FileRecord {
	return map[string]models.FileRecord{
		"src/app/main.go":      {Path: "src/app/main.go", ComparablePath: "src/app/main.go", Included: true},
		"src/app/util.go":      {Path: "src/app/util.go", ComparablePath: "src/app/util.go"},
		"src/app/util_test.go": {Path: "src/app/util_test.go", ComparablePath: "src/app/util_test.go", ForceExcluded: true},
		"docs/README.md":       {Path: "docs/README.md", ComparablePath: "docs/README.md", Included: true},
	}
}

func paths(records []models.FileRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Path)
	}
	return out
}

func TestFilterModeAll(t *testing.T) {
	res := Filter(fileMap(), nil, "", ModeAll, Patterns{})
	if len(res.Files) != 4 {
		t.Errorf("ModeAll returned %d files, want 4", len(res.Files))
	}
	// Output is sorted by path.
	if res.Files[0].Path != "docs/README.md" {
		t.Errorf("first file = %q, want docs/README.md", res.Files[0].Path)
	}
}

func TestFilterModeSelected(t *testing.T) {
	res := Filter(fileMap(), nil, "", ModeSelected, Patterns{})

	got := paths(res.Files)
	if len(got) != 2 || got[0] != "docs/README.md" || got[1] != "src/app/main.go" {
		t.Errorf("ModeSelected = %v, want [docs/README.md src/app/main.go]", got)
	}
}

func TestFilterSearchTerm(t *testing.T) {
	tests := []struct {
		name string
		term string
		want int
	}{
		{"substring", "util", 2},
		{"case insensitive", "ReadMe", 1},
		{"no match", "zzz", 0},
		{"empty keeps all", "", 4},
		{"whitespace only keeps all", "   ", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Filter(fileMap(), nil, tt.term, ModeAll, Patterns{})
			if len(res.Files) != tt.want {
				t.Errorf("Filter(term=%q) returned %d files, want %d", tt.term, len(res.Files), tt.want)
			}
		})
	}
}

func TestFilterSearchTermNarrowsSelectedMode(t *testing.T) {
	// The term stage only narrows what the mode stage produced.
	res := Filter(fileMap(), nil, "util", ModeSelected, Patterns{})
	if len(res.Files) != 0 {
		t.Errorf("selected+term returned %v, want nothing", paths(res.Files))
	}
}

func TestFilterPositiveTitlePattern(t *testing.T) {
	res := Filter(fileMap(), nil, "", ModeRegex, Patterns{Title: `\.go$`})

	for _, rec := range res.Files {
		if !strings.HasSuffix(rec.Path, ".go") {
			t.Errorf("positive title pattern kept %q", rec.Path)
		}
	}
	if len(res.Files) != 3 {
		t.Errorf("got %d files, want 3", len(res.Files))
	}
}

func TestFilterNegativeTitlePattern(t *testing.T) {
	res := Filter(fileMap(), nil, "", ModeRegex, Patterns{NegativeTitle: `_test\.go$`})

	for _, rec := range res.Files {
		if strings.HasSuffix(rec.Path, "_test.go") {
			t.Errorf("negative title pattern kept %q", rec.Path)
		}
	}
	if len(res.Files) != 3 {
		t.Errorf("got %d files, want 3", len(res.Files))
	}
}

func TestFilterContentPatterns(t *testing.T) {
	contents := map[string]string{
		"src/app/main.go": "package main\n\nfunc main() {}\n",
		"src/app/util.go": "package main\n\nfunc helper() {}\n",
	}

	res := Filter(fileMap(), contents, "", ModeRegex, Patterns{Content: `func main`})
	got := paths(res.Files)
	if len(got) != 1 || got[0] != "src/app/main.go" {
		t.Errorf("positive content filter = %v, want [src/app/main.go]", got)
	}

	res = Filter(fileMap(), contents, "", ModeRegex, Patterns{NegativeContent: `func main`})
	for _, rec := range res.Files {
		if rec.Path == "src/app/main.go" {
			t.Error("negative content filter kept src/app/main.go")
		}
	}
}

func TestFilterMissingContentSemantics(t *testing.T) {
	// Content is loaded for exactly one other file.
	contents := map[string]string{
		"src/app/util.go": "package main\n",
	}

	// Positive content pattern: a file with no loaded content is excluded.
	res := Filter(fileMap(), contents, "", ModeRegex, Patterns{Content: `package`})
	got := paths(res.Files)
	if len(got) != 1 || got[0] != "src/app/util.go" {
		t.Errorf("positive content with missing entries = %v, want [src/app/util.go]", got)
	}

	// Negative content pattern: a file with no loaded content is never removed.
	res = Filter(fileMap(), contents, "", ModeRegex, Patterns{NegativeContent: `package`})
	got = paths(res.Files)
	if len(got) != 3 {
		t.Errorf("negative content with missing entries = %v, want the three unloaded files", got)
	}
	for _, p := range got {
		if p == "src/app/util.go" {
			t.Error("file with matching loaded content should have been removed")
		}
	}
}

func TestFilterContentSlotsNeedContentMap(t *testing.T) {
	// Without a content map, content slots do not apply at all.
	res := Filter(fileMap(), nil, "", ModeRegex, Patterns{Content: `package`})
	if len(res.Files) != 4 {
		t.Errorf("content slot without content map removed files: %v", paths(res.Files))
	}
}

func TestFilterMalformedPatternIsolated(t *testing.T) {
	res := Filter(fileMap(), nil, "", ModeRegex, Patterns{
		Title:         `[`,
		NegativeTitle: `_test\.go$`,
	})

	if res.Errors.Title == "" {
		t.Error("malformed title pattern should produce a slot error")
	}
	if res.Errors.NegativeTitle != "" {
		t.Errorf("valid slot reported an error: %q", res.Errors.NegativeTitle)
	}
	if !res.Errors.Any() {
		t.Error("Errors.Any() should be true")
	}
	// The broken slot is skipped; the valid negative slot still applies.
	if len(res.Files) != 3 {
		t.Errorf("got %d files, want 3 (negative slot still active)", len(res.Files))
	}
}

func TestFilterRegexSlotsIgnoredOutsideRegexMode(t *testing.T) {
	res := Filter(fileMap(), nil, "", ModeAll, Patterns{Title: `\.md$`})
	if len(res.Files) != 4 {
		t.Errorf("regex slots applied in ModeAll: got %d files, want 4", len(res.Files))
	}
	if res.Errors.Any() {
		t.Errorf("no slot should compile outside regex mode, got %+v", res.Errors)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"", ModeAll, false},
		{"all", ModeAll, false},
		{"Selected", ModeSelected, false},
		{"REGEX", ModeRegex, false},
		{"fuzzy", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
