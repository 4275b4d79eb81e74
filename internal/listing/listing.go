// Package listing provides directory listing backends.
//
// A Lister returns the raw file population of a directory, either from a
// remote listing endpoint (HTTPLister) or by walking the local filesystem
// (LocalLister). Failures carry a Category so callers can distinguish
// permanent conditions (missing directory, permission denied) from transient
// ones without string matching.
package listing

import (
	"context"
	"errors"
	"fmt"
)

// Request describes a single directory listing request.
type Request struct {
	Directory    string `json:"directory"`         // Absolute directory to list
	IncludeStats bool   `json:"includeStats"`      // Collect per-file sizes alongside paths
	Pattern      string `json:"pattern,omitempty"` // Optional regex applied to relative paths
}

// FileStat carries per-file metadata, parallel to Response.Files.
type FileStat struct {
	Size int64 `json:"size"` // File size in bytes
}

// Response is a successful directory listing.
type Response struct {
	Files []string   `json:"files"`           // Absolute file paths, sorted
	Stats []FileStat `json:"stats,omitempty"` // Present only when stats were requested
}

// Lister produces directory listings. Implementations must honor context
// cancellation and return context errors unwrapped so callers can treat an
// aborted request as a clean no-op.
type Lister interface {
	List(ctx context.Context, req Request) (*Response, error)
}

// Category classifies a listing failure.
type Category string

const (
	// CategoryBadRequest means the request itself was invalid (malformed
	// directory, bad pattern).
	CategoryBadRequest Category = "bad_request"
	// CategoryPermission means the directory exists but cannot be read.
	CategoryPermission Category = "permission"
	// CategoryNotFound means the directory does not exist.
	CategoryNotFound Category = "not_found"
	// CategoryServer means the backend failed or returned a malformed
	// response.
	CategoryServer Category = "server_error"
	// CategoryUnknown covers transport failures and unrecognized statuses.
	CategoryUnknown Category = "unknown"
)

// Error is a categorized listing failure.
type Error struct {
	Category Category // Failure class, never empty
	Message  string   // Human-readable description
	Err      error    // Underlying cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// CategoryOf extracts the failure category from err. Errors that do not carry
// a category report CategoryUnknown.
func CategoryOf(err error) Category {
	var le *Error
	if errors.As(err, &le) {
		return le.Category
	}
	return CategoryUnknown
}
