package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// CuratorHome returns the data directory for a project
// Priority order:
//  1. CURATOR_HOME environment variable (if set)
//  2. <projectDir>/.curator
//
// The directory is created if it doesn't exist
func CuratorHome(projectDir string) (string, error) {
	if home := os.Getenv("CURATOR_HOME"); home != "" {
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("create curator home directory: %w", err)
		}
		return home, nil
	}

	home := filepath.Join(projectDir, ".curator")
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create curator home directory: %w", err)
	}
	return home, nil
}

// FindProjectRoot walks upward from dir to the nearest directory that holds
// curator data: a .curator-root marker file or an existing .curator
// directory. When nothing is found, dir itself is returned, so running
// curator in a fresh project just anchors data there.
func FindProjectRoot(dir string) string {
	start, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}

	current := start
	for {
		// Marker file takes priority over a data directory
		if _, err := os.Stat(filepath.Join(current, ".curator-root")); err == nil {
			return current
		}
		if info, err := os.Stat(filepath.Join(current, ".curator")); err == nil && info.IsDir() {
			return current
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root
			break
		}
		current = parent
	}

	return start
}

// ResolvePath anchors a relative data path at the project directory.
// Absolute paths and empty paths pass through unchanged.
func ResolvePath(projectDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(projectDir, path)
}
