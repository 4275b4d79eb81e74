package session

import (
	"context"
	"fmt"
)

// Logger is the subset of logging used by the store sink.
type Logger interface {
	LogError(message string)
}

// nopLogger drops all messages; used when no logger is supplied
type nopLogger struct{}

func (nopLogger) LogError(string) {}

// StoreSink forwards derived selection lists from the reconciler to a
// session store. Persistence failures are logged rather than surfaced, since
// the in-memory selection state remains authoritative.
type StoreSink struct {
	store     SessionStore
	sessionID string
	log       Logger
}

// NewStoreSink creates a sink that persists selection updates for the given
// session.
func NewStoreSink(store SessionStore, sessionID string, log Logger) *StoreSink {
	if log == nil {
		log = nopLogger{}
	}
	return &StoreSink{store: store, sessionID: sessionID, log: log}
}

// SetIncludedFiles persists the derived included path list.
func (s *StoreSink) SetIncludedFiles(paths []string) {
	if err := s.store.SetIncludedFiles(context.Background(), s.sessionID, paths); err != nil {
		s.log.LogError(fmt.Sprintf("Failed to persist included files: %v", err))
	}
}

// SetExcludedFiles persists the derived excluded path list.
func (s *StoreSink) SetExcludedFiles(paths []string) {
	if err := s.store.SetExcludedFiles(context.Background(), s.sessionID, paths); err != nil {
		s.log.LogError(fmt.Sprintf("Failed to persist excluded files: %v", err))
	}
}
