// Package pathutil provides pure path normalization helpers. The same file
// can reach the engine as an absolute path, a project-relative path, or a
// bare filename, with either separator style; everything that compares paths
// goes through the canonical forms produced here.
package pathutil

import (
	"path"
	"strings"
)

// NormalizeForComparison converts a raw path into the canonical comparison
// key used for all path equality and matching: backslashes become forward
// slashes, repeated slashes collapse, a single leading "./" and a single
// leading "/" are stripped, and surrounding whitespace is trimmed. Empty
// input maps to the empty string. Case is preserved.
func NormalizeForComparison(rawPath string) string {
	p := strings.TrimSpace(rawPath)
	if p == "" {
		return ""
	}

	p = strings.ReplaceAll(p, "\\", "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}

	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")

	return p
}

// MakeRelative converts an absolute path into a path relative to the given
// base directory. The second return value is false when the path does not
// live under the base directory (or when either input is empty); callers are
// expected to skip such entries rather than fail.
func MakeRelative(absolutePath, baseDirectory string) (string, bool) {
	abs := cleanAbsolute(absolutePath)
	base := cleanAbsolute(baseDirectory)
	if abs == "" || base == "" {
		return "", false
	}

	// The directory itself is not a file under it.
	if abs == base {
		return "", false
	}

	if base == "/" {
		return strings.TrimPrefix(abs, "/"), true
	}

	if strings.HasPrefix(abs, base+"/") {
		return abs[len(base)+1:], true
	}

	return "", false
}

// NormalizeDirectory produces the canonical key for a directory used by the
// loader's de-duplication and cancellation tables. Distinct spellings of the
// same directory (trailing slashes, "." segments, backslashes) collapse to
// one key.
func NormalizeDirectory(dir string) string {
	d := strings.TrimSpace(dir)
	if d == "" {
		return ""
	}

	d = strings.ReplaceAll(d, "\\", "/")
	return path.Clean(d)
}

// cleanAbsolute normalizes separators and resolves "." and ".." segments
// without touching the filesystem.
func cleanAbsolute(p string) string {
	s := strings.TrimSpace(p)
	if s == "" {
		return ""
	}

	s = strings.ReplaceAll(s, "\\", "/")
	return path.Clean(s)
}
