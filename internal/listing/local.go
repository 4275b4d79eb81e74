package listing

import (
	"context"
	"errors"
	"io/fs"

	"github.com/harrison/curator/internal/fileutil"
)

// LocalLister serves directory listings by walking the local filesystem. It is
// the standalone backend used when no listing endpoint is configured.
type LocalLister struct {
	// ExcludeDirs lists directory names skipped during the walk
	ExcludeDirs []string
	// MaxDepth limits recursion depth (0 = unlimited)
	MaxDepth int
}

// NewLocalLister creates a local lister that skips the given directory names.
func NewLocalLister(excludeDirs []string) *LocalLister {
	return &LocalLister{ExcludeDirs: excludeDirs}
}

// List walks the requested directory and returns its files, sorted by
// absolute path. Filesystem failures map onto the same categories the HTTP
// backend uses.
func (l *LocalLister) List(ctx context.Context, req Request) (*Response, error) {
	result, err := fileutil.ScanTree(ctx, req.Directory, fileutil.ScanOptions{
		Pattern:     req.Pattern,
		ExcludeDirs: l.ExcludeDirs,
		MaxDepth:    l.MaxDepth,
		WithSizes:   req.IncludeStats,
	})
	if err != nil {
		return nil, localError(err)
	}

	resp := &Response{Files: result.Files}
	if req.IncludeStats {
		resp.Stats = make([]FileStat, len(result.Sizes))
		for i, size := range result.Sizes {
			resp.Stats[i] = FileStat{Size: size}
		}
	}
	return resp, nil
}

// localError maps a scan failure onto a listing failure category. Context
// errors pass through unwrapped so callers can detect aborted requests.
func localError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, fs.ErrNotExist):
		return &Error{Category: CategoryNotFound, Message: "directory not found", Err: err}
	case errors.Is(err, fs.ErrPermission):
		return &Error{Category: CategoryPermission, Message: "directory not readable", Err: err}
	default:
		return &Error{Category: CategoryBadRequest, Message: "listing failed", Err: err}
	}
}
