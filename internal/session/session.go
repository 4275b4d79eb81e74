// Package session persists file-selection sessions. Two backends implement
// the same interface: a SQLite store for the usual case and a JSON file store
// for hosts without a database. Both encode the included and excluded path
// lists the same way and both persist the undo/redo stacks so selection
// history survives process restarts.
package session

import (
	"context"
	"strings"

	"github.com/harrison/curator/internal/history"
	"github.com/harrison/curator/internal/models"
)

// SessionStore is the persistence interface shared by the SQLite and file
// backends.
type SessionStore interface {
	// CreateSession creates a session for a directory and marks it active.
	CreateSession(ctx context.Context, name, directory string) (*models.Session, error)
	// GetSession fetches a session by id.
	GetSession(ctx context.Context, id string) (*models.Session, error)
	// ActiveSession returns the active session, or nil when there is none.
	ActiveSession(ctx context.Context) (*models.Session, error)
	// SetActiveSession marks the given session active and all others inactive.
	SetActiveSession(ctx context.Context, id string) error
	// ListSessions returns all sessions, most recently updated first.
	ListSessions(ctx context.Context) ([]*models.Session, error)
	// DeleteSession removes a session and its history.
	DeleteSession(ctx context.Context, id string) error

	// SetIncludedFiles replaces the session's included path list.
	SetIncludedFiles(ctx context.Context, id string, paths []string) error
	// SetExcludedFiles replaces the session's excluded path list.
	SetExcludedFiles(ctx context.Context, id string, paths []string) error
	// UpdateSelection replaces both path lists in one write.
	UpdateSelection(ctx context.Context, id string, included, excluded []string) error
	// MergeIncludedFiles adds paths to the included list, skipping paths
	// already included and paths present in the excluded list. It returns
	// how many paths were added.
	MergeIncludedFiles(ctx context.Context, id string, paths []string) (int, error)
	// ClearSelection empties both path lists.
	ClearSelection(ctx context.Context, id string) error

	// SaveHistory replaces the persisted undo/redo stacks for a session.
	SaveHistory(ctx context.Context, id string, past, future []history.Snapshot) error
	// LoadHistory fetches the persisted undo/redo stacks, oldest first.
	LoadHistory(ctx context.Context, id string) (past, future []history.Snapshot, err error)

	// Close releases backend resources.
	Close() error
}

// encodePaths joins a path list into the newline-delimited storage form.
func encodePaths(paths []string) string {
	return strings.Join(paths, "\n")
}

// decodePaths splits the newline-delimited storage form back into a path
// list, dropping blank lines.
func decodePaths(encoded string) []string {
	if encoded == "" {
		return nil
	}
	var paths []string
	for _, line := range strings.Split(encoded, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths
}
