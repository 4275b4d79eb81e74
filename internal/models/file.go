package models

import "errors"

// FileRecord represents a single discovered file and its selection state
type FileRecord struct {
	Path           string // Project-relative path, the stable identifier and map key
	ComparablePath string // Normalized form of Path used for all equality and matching; set once at discovery
	Size           int64  // File size in bytes; 0 when the listing reported no stats
	Included       bool   // True if the file is part of the active selection
	ForceExcluded  bool   // True if the user explicitly excluded the file; never true together with Included
}

// Validate checks the record invariants
func (r *FileRecord) Validate() error {
	if r.Path == "" {
		return errors.New("file record path is required")
	}
	if r.Included && r.ForceExcluded {
		return errors.New("file record cannot be both included and force-excluded")
	}
	return nil
}

// Selected returns true if the file counts toward the active selection
func (r FileRecord) Selected() bool {
	return r.Included && !r.ForceExcluded
}

// SameSelection reports whether two records carry identical selection flags
func (r FileRecord) SameSelection(other FileRecord) bool {
	return r.Included == other.Included && r.ForceExcluded == other.ForceExcluded
}

// SelectionEqual reports whether two file maps carry the same keys with the
// same selection flags. It is the value-equality check used to suppress
// redundant updates after a rebuild.
func SelectionEqual(a, b map[string]FileRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for path, rec := range a {
		other, ok := b[path]
		if !ok || !rec.SameSelection(other) {
			return false
		}
	}
	return true
}

// CloneFileMap returns an independent copy of a file map
func CloneFileMap(files map[string]FileRecord) map[string]FileRecord {
	if files == nil {
		return nil
	}
	out := make(map[string]FileRecord, len(files))
	for path, rec := range files {
		out[path] = rec
	}
	return out
}
