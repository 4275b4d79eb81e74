package models

import (
	"errors"
	"time"
)

// Session represents a persisted file-selection session for one project directory
type Session struct {
	ID            string    // Unique session identifier (UUID)
	Name          string    // Optional human-readable label
	Directory     string    // Project directory the session belongs to
	IncludedFiles []string  // Persisted included path list
	ExcludedFiles []string  // Persisted force-excluded path list
	CreatedAt     time.Time // Timestamp when the session was created
	UpdatedAt     time.Time // Timestamp of the last persisted change
}

// Validate checks if the session has all required fields
func (s *Session) Validate() error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	if s.Directory == "" {
		return errors.New("session directory is required")
	}
	return nil
}
