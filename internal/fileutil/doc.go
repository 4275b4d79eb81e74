// Package fileutil provides centralized file system scanning and content
// reading utilities.
//
// This package serves as a single source of truth for all file operations in
// Curator, offering robust directory traversal with flexible filtering and
// error-tolerant scanning capabilities.
//
// # Purpose
//
// The fileutil package is designed for:
//   - Directory traversal with recursive and depth-limited scanning
//   - File filtering by regex pattern on slash-relative paths
//   - Directory exclusion (hidden dirs, .git, node_modules, etc.)
//   - Error-tolerant scanning that collects non-fatal errors
//   - Bounded, binary-safe reading of file contents for search
//
// # Main Components
//
// ScanOptions - Configuration struct for directory scanning:
//   - Pattern: Regex matched against the slash-separated relative path
//   - ExcludeDirs: Directory names to skip (e.g., ".git", "node_modules")
//   - MaxDepth: Limit recursion depth (0 = unlimited, 1 = root dir only)
//   - WithSizes: Collect per-file sizes alongside paths
//
// ScanResult - Results of a directory scan:
//   - Files: Absolute paths of all matched files (sorted alphabetically)
//   - Sizes: Sizes parallel to Files when WithSizes is set
//   - Errors: Non-fatal errors encountered during the scan
//
// ScanTree() walks a directory tree with the provided options. ReadContents()
// loads file contents keyed by relative path, silently skipping files that are
// binary, unreadable, or larger than the size cap.
//
// # Usage Example
//
//	result, err := fileutil.ScanTree(ctx, "/path/to/project", fileutil.ScanOptions{
//	    Pattern:     `\.go$`,
//	    ExcludeDirs: []string{"vendor", "node_modules"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, file := range result.Files {
//	    fmt.Println(file)
//	}
//
// # Error Tolerance
//
// The scanner collects non-fatal errors (e.g., permission denied on a
// subdirectory) and continues scanning. Only fatal errors (root directory does
// not exist, invalid regex pattern, cancelled context) cause immediate failure.
//
// Sorted output ensures deterministic results across runs and platforms, which
// matters both for tests and for stable reconciliation of selection state.
//
// Directories starting with "." (e.g., .git, .cache) are automatically skipped
// during recursive scans.
package fileutil
