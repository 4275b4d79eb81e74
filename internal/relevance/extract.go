// Package relevance consumes relevant-files search results. Results arrive
// either as structured job metadata or as raw agent text; extraction prefers
// the structured form and falls back to parsing paths out of prose and
// markdown. The package also hosts the job poller and the local command
// backend that produce those results.
package relevance

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
)

// Metadata keys checked for a ready-made path list, in preference order.
var metadataKeys = []string{"files", "verifiedPaths"}

var (
	pathTagRegex  = regexp.MustCompile(`<path>([^<]+)</path>`)
	fileTagRegex  = regexp.MustCompile(`<file>([^<]+)</file>`)
	fileAttrRegex = regexp.MustCompile(`<\w+\s+(?:file|path)=["']([^"']+)["']`)
)

// Extract pulls relevant file paths out of a job result. Structured metadata
// wins: a "files" array, then a "verifiedPaths" array. When the metadata has
// neither, a raw output that decodes as a JSON object is given the same
// chance. Only then is the raw text parsed for path-shaped content.
// Structured paths are trusted as-is (trimmed, deduplicated); text-derived
// paths must also pass IsValidPath.
func Extract(metadata map[string]interface{}, raw string) []string {
	if paths := metadataPaths(metadata); len(paths) > 0 {
		return paths
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		if paths := metadataPaths(decoded); len(paths) > 0 {
			return paths
		}
	}

	// A bare JSON array of paths is also structured output.
	var items []interface{}
	if err := json.Unmarshal([]byte(raw), &items); err == nil {
		if paths := stringList(items); len(paths) > 0 {
			return dedupe(paths)
		}
	}

	return ExtractFromText(raw)
}

// metadataPaths returns the first non-empty path list found under the
// recognized metadata keys.
func metadataPaths(metadata map[string]interface{}) []string {
	for _, key := range metadataKeys {
		if paths := stringList(metadata[key]); len(paths) > 0 {
			return dedupe(paths)
		}
	}
	return nil
}

// stringList coerces a decoded JSON array into trimmed non-empty strings.
func stringList(value interface{}) []string {
	var out []string
	appendItem := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	switch items := value.(type) {
	case []interface{}:
		for _, item := range items {
			if s, ok := item.(string); ok {
				appendItem(s)
			}
		}
	case []string:
		for _, s := range items {
			appendItem(s)
		}
	}
	return out
}

// ExtractFromText recovers file paths from free-form agent output. Candidates
// are collected from <path>/<file> tag markup, from markdown code blocks and
// inline code, and from the remaining prose lines; each candidate must pass
// IsValidPath. Order of first appearance is preserved and duplicates are
// dropped.
func ExtractFromText(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var candidates []string
	candidates = append(candidates, taggedPaths(raw)...)
	candidates = append(candidates, codeCandidates(raw)...)
	candidates = append(candidates, lineCandidates(raw)...)

	seen := make(map[string]bool, len(candidates))
	var out []string
	for _, c := range candidates {
		if !IsValidPath(c) || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// taggedPaths extracts paths from <path>…</path> and <file>…</file> markup
// and from file="…"/path="…" attributes on any tag.
func taggedPaths(content string) []string {
	var paths []string
	for _, re := range []*regexp.Regexp{pathTagRegex, fileTagRegex, fileAttrRegex} {
		for _, match := range re.FindAllStringSubmatch(content, -1) {
			p := strings.TrimSpace(match[1])
			if p != "" {
				paths = append(paths, p)
			}
		}
	}
	return paths
}

// lineCandidates runs the prose-line parser over every line of the text.
func lineCandidates(raw string) []string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var candidates []string
	for _, line := range strings.Split(normalized, "\n") {
		if c := cleanLine(line); c != "" {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

// cleanLine reduces one line of agent output to a path candidate, or ""
// when the line is prose, a comment, a fence, or otherwise not a path.
// List markers (numbered and bulleted) and surrounding quote or punctuation
// characters are stripped.
func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || len(line) < 2 {
		return ""
	}
	for _, prefix := range []string{"//", "#", "Note:", "Analysis:", "Here are", "The following", "Based on", "```"} {
		if strings.HasPrefix(line, prefix) {
			return ""
		}
	}
	if line == "json" || line == "JSON" {
		return ""
	}

	// Numbered list entries: "1. path/to/file"
	if line[0] >= '0' && line[0] <= '9' {
		if dot := strings.Index(line, "."); dot >= 0 {
			line = strings.TrimSpace(line[dot+1:])
		}
	}

	// Bullets: "- path/to/file", "* path/to/file"
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
		line = line[2:]
	}

	line = strings.Trim(line, "\"'`,:;")
	return strings.TrimSpace(line)
}

// IsValidPath reports whether a candidate string is shaped like a relative
// file path worth applying: bounded length, a short alphanumeric extension,
// no absolute or parent-directory escapes, no URLs, no spaces, and only
// alphanumerics plus '/', '-', '_', '.'.
func IsValidPath(path string) bool {
	if len(path) < 3 || len(path) > 260 {
		return false
	}
	if !strings.Contains(path, ".") || strings.HasSuffix(path, ".") {
		return false
	}
	if strings.HasPrefix(path, "/") ||
		strings.HasPrefix(path, ".") ||
		strings.Contains(path, " ") ||
		strings.Contains(path, "//") ||
		strings.Contains(path, "..") ||
		strings.HasSuffix(path, "/") ||
		strings.Contains(path, "://") ||
		strings.HasPrefix(path, "http") ||
		strings.Contains(path, `\`) {
		return false
	}

	ext := path[strings.LastIndex(path, ".")+1:]
	if ext == "" || len(ext) > 10 {
		return false
	}
	for _, r := range ext {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}

	for _, r := range path {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '/' || r == '-' || r == '_' || r == '.' {
			continue
		}
		return false
	}
	return true
}

// dedupe removes duplicates while preserving first-appearance order.
func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	var out []string
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
