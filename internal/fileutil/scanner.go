package fileutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ScanOptions configures the directory walk behind the local listing backend
type ScanOptions struct {
	// Pattern is a regex matched against the path relative to the scanned
	// directory (forward slashes); empty matches everything
	Pattern string
	// ExcludeDirs is a list of directory names to skip entirely (e.g. ".git", "node_modules")
	ExcludeDirs []string
	// MaxDepth limits recursion depth (0 = unlimited, 1 = top level only)
	MaxDepth int
	// WithSizes collects file sizes alongside paths
	WithSizes bool
}

// ScanResult contains the results of a directory scan
type ScanResult struct {
	// Files contains the absolute paths of all matched files, sorted
	Files []string
	// Sizes is parallel to Files when WithSizes was set; nil otherwise
	Sizes []int64
	// Errors contains non-fatal errors encountered during scanning
	Errors []error
}

// scanEntry pairs a path with its size so sorting keeps them aligned
type scanEntry struct {
	path string
	size int64
}

// ScanTree walks a directory tree and collects the files in it. Dot
// directories and configured exclude directories are skipped. The walk stops
// early when the context is cancelled.
func ScanTree(ctx context.Context, dir string, opts ScanOptions) (*ScanResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	var patternRegex *regexp.Regexp
	if opts.Pattern != "" {
		patternRegex, err = regexp.Compile(opts.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
	}

	excludeMap := make(map[string]bool)
	for _, name := range opts.ExcludeDirs {
		excludeMap[name] = true
	}

	result := &ScanResult{}
	var entries []scanEntry

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			return nil // Continue walking
		}

		// Skip the root directory itself
		if path == dir {
			return nil
		}

		if d.IsDir() {
			if excludeMap[d.Name()] || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 {
				relPath, _ := filepath.Rel(dir, path)
				depth := strings.Count(relPath, string(filepath.Separator)) + 1
				if depth >= opts.MaxDepth {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if patternRegex != nil {
			relPath, relErr := filepath.Rel(dir, path)
			if relErr != nil {
				relPath = d.Name()
			}
			if !patternRegex.MatchString(filepath.ToSlash(relPath)) {
				return nil
			}
		}

		absPath, err := filepath.Abs(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to resolve path %s: %w", path, err))
			return nil
		}

		entry := scanEntry{path: absPath}
		if opts.WithSizes {
			if fi, statErr := d.Info(); statErr == nil {
				entry.size = fi.Size()
			} else {
				result.Errors = append(result.Errors, fmt.Errorf("failed to stat %s: %w", path, statErr))
			}
		}
		entries = append(entries, entry)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	// Sort by path so sizes stay aligned with their files
	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })

	result.Files = make([]string, 0, len(entries))
	for _, e := range entries {
		result.Files = append(result.Files, e.path)
	}
	if opts.WithSizes {
		result.Sizes = make([]int64, 0, len(entries))
		for _, e := range entries {
			result.Sizes = append(result.Sizes, e.size)
		}
	}

	return result, nil
}
