package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
)

const (
	// maxContentSize caps how large a file may be before content loading
	// skips it entirely
	maxContentSize = 50 * 1024 * 1024
	// binaryProbeSize is how many leading bytes are inspected for binary
	// content
	binaryProbeSize = 8192
)

// ReadContents loads file contents for content-based filtering, keyed by the
// given project-relative paths. Files that cannot be read, look binary, or
// exceed the size cap are left out of the map, which downstream filtering
// treats as "content not loaded" rather than empty content.
func ReadContents(baseDir string, paths []string) map[string]string {
	contents := make(map[string]string, len(paths))
	for _, rel := range paths {
		abs := filepath.Join(baseDir, filepath.FromSlash(rel))

		info, err := os.Stat(abs)
		if err != nil || info.IsDir() || info.Size() > maxContentSize {
			continue
		}

		data, err := os.ReadFile(abs)
		if err != nil {
			continue
		}
		if isBinaryData(data) {
			continue
		}
		contents[rel] = string(data)
	}
	return contents
}

// isBinaryData reports whether data looks like binary content, by scanning
// the leading bytes for NUL characters.
func isBinaryData(data []byte) bool {
	probe := data
	if len(probe) > binaryProbeSize {
		probe = probe[:binaryProbeSize]
	}
	return bytes.IndexByte(probe, 0) >= 0
}
