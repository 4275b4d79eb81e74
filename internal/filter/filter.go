// Package filter narrows the managed file set for display: by selection
// mode, by a case-insensitive search term, and by up to four independent
// regular expressions over paths and file contents. Filtering never touches
// selection state.
package filter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/harrison/curator/internal/models"
)

// Mode selects which subset of the managed files the pipeline starts from
type Mode string

const (
	// ModeAll passes every managed file into the pipeline
	ModeAll Mode = "all"
	// ModeSelected keeps only files that are included and not force-excluded
	ModeSelected Mode = "selected"
	// ModeRegex behaves like ModeAll but additionally applies the regex slots
	ModeRegex Mode = "regex"
)

// ParseMode validates a mode string. An empty string means ModeAll.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAll:
		return ModeAll, nil
	case ModeSelected:
		return ModeSelected, nil
	case ModeRegex:
		return ModeRegex, nil
	}
	return "", fmt.Errorf("unknown filter mode %q (valid: all, selected, regex)", s)
}

// Patterns holds the four independent regex slots. Empty slots are inactive.
type Patterns struct {
	Title           string // Keep files whose path matches
	Content         string // Keep files whose content matches
	NegativeTitle   string // Remove files whose path matches
	NegativeContent string // Remove files whose content matches
}

// Empty returns true when no slot carries a pattern
func (p Patterns) Empty() bool {
	return p.Title == "" && p.Content == "" && p.NegativeTitle == "" && p.NegativeContent == ""
}

// Errors carries one optional compile-error message per pattern slot. A slot
// with an error is skipped; the rest of the pipeline still runs.
type Errors struct {
	Title           string
	Content         string
	NegativeTitle   string
	NegativeContent string
}

// Any returns true when at least one slot failed to compile
func (e Errors) Any() bool {
	return e.Title != "" || e.Content != "" || e.NegativeTitle != "" || e.NegativeContent != ""
}

// Result is the outcome of one filter pass
type Result struct {
	Files  []models.FileRecord // Surviving records, sorted by path
	Errors Errors
}

// Filter runs the narrowing pipeline over a managed file map. Stages apply
// in order and only ever narrow: selection-mode filter, case-insensitive
// search term over path (falling back to comparable path), then the regex
// slots when mode is ModeRegex. Content slots only apply when a content map
// is supplied; a file whose content is absent from the map counts as a
// non-match, which excludes it under a positive content pattern but keeps it
// under a negative one.
func Filter(files map[string]models.FileRecord, contents map[string]string, term string, mode Mode, patterns Patterns) Result {
	result := Result{}

	keys := make([]string, 0, len(files))
	for key := range files {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	records := make([]models.FileRecord, 0, len(keys))
	for _, key := range keys {
		rec := files[key]
		if mode == ModeSelected && !rec.Selected() {
			continue
		}
		records = append(records, rec)
	}

	if needle := strings.ToLower(strings.TrimSpace(term)); needle != "" {
		kept := records[:0]
		for _, rec := range records {
			if strings.Contains(strings.ToLower(rec.Path), needle) ||
				strings.Contains(strings.ToLower(rec.ComparablePath), needle) {
				kept = append(kept, rec)
			}
		}
		records = kept
	}

	if mode == ModeRegex {
		records = applyRegexSlots(records, contents, patterns, &result.Errors)
	}

	result.Files = records
	return result
}

// applyRegexSlots runs the four pattern slots in order: positive title,
// positive content, negative title, negative content.
func applyRegexSlots(records []models.FileRecord, contents map[string]string, patterns Patterns, errs *Errors) []models.FileRecord {
	title := compileSlot(patterns.Title, "title", &errs.Title)
	content := compileSlot(patterns.Content, "content", &errs.Content)
	negTitle := compileSlot(patterns.NegativeTitle, "negative title", &errs.NegativeTitle)
	negContent := compileSlot(patterns.NegativeContent, "negative content", &errs.NegativeContent)

	if title != nil {
		kept := records[:0]
		for _, rec := range records {
			if matchesPath(title, rec) {
				kept = append(kept, rec)
			}
		}
		records = kept
	}

	if content != nil && contents != nil {
		kept := records[:0]
		for _, rec := range records {
			text, ok := lookupContent(contents, rec)
			if ok && content.MatchString(text) {
				kept = append(kept, rec)
			}
		}
		records = kept
	}

	if negTitle != nil {
		kept := records[:0]
		for _, rec := range records {
			if !matchesPath(negTitle, rec) {
				kept = append(kept, rec)
			}
		}
		records = kept
	}

	if negContent != nil && contents != nil {
		kept := records[:0]
		for _, rec := range records {
			text, ok := lookupContent(contents, rec)
			// Unloaded content never causes a negative filter to remove a file.
			if !ok || !negContent.MatchString(text) {
				kept = append(kept, rec)
			}
		}
		records = kept
	}

	return records
}

// compileSlot compiles one pattern defensively. A malformed pattern yields a
// per-slot error message instead of an error return, and the slot is skipped.
func compileSlot(pattern, slot string, errMsg *string) *regexp.Regexp {
	if strings.TrimSpace(pattern) == "" {
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		*errMsg = fmt.Sprintf("invalid %s pattern: %v", slot, err)
		return nil
	}
	return re
}

func matchesPath(re *regexp.Regexp, rec models.FileRecord) bool {
	return re.MatchString(rec.Path) || re.MatchString(rec.ComparablePath)
}

// lookupContent finds a file's loaded content, trying the comparable path
// first and the raw path second. The second return value distinguishes
// "content not yet loaded" from empty content.
func lookupContent(contents map[string]string, rec models.FileRecord) (string, bool) {
	if text, ok := contents[rec.ComparablePath]; ok {
		return text, true
	}
	text, ok := contents[rec.Path]
	return text, ok
}
