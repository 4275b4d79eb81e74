package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/curator/internal/filelock"
	"github.com/harrison/curator/internal/history"
	"github.com/harrison/curator/internal/models"
)

// fileDocument is the JSON layout of a file-backed session. The file holds a
// single session together with its undo/redo stacks.
type fileDocument struct {
	Session *fileSession `json:"session,omitempty"`
	History fileHistory  `json:"history"`
}

// fileSession mirrors models.Session with stable JSON field names.
type fileSession struct {
	ID            string    `json:"id"`
	Name          string    `json:"name,omitempty"`
	Directory     string    `json:"directory"`
	IncludedFiles []string  `json:"includedFiles"`
	ExcludedFiles []string  `json:"excludedFiles"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type fileHistory struct {
	Past   []history.Snapshot `json:"past"`
	Future []history.Snapshot `json:"future"`
}

// FileStore persists a single session as a JSON document. Every operation is
// a locked read-modify-write through the filelock package, so concurrent
// curator processes sharing one session file cannot tear it.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed session store at the given path. The
// file is created lazily on the first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Close implements SessionStore; the file store holds no open resources.
func (f *FileStore) Close() error {
	return nil
}

// CreateSession replaces the stored session with a fresh one. A file store
// holds exactly one session, so creating also activates it and drops any
// previous history.
func (f *FileStore) CreateSession(ctx context.Context, name, directory string) (*models.Session, error) {
	if directory == "" {
		return nil, fmt.Errorf("session directory is required")
	}

	now := time.Now().UTC()
	sess := &models.Session{
		ID:        uuid.New().String(),
		Name:      name,
		Directory: directory,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := f.update(func(doc *fileDocument) error {
		doc.Session = toFileSession(sess)
		doc.History = fileHistory{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// GetSession fetches the stored session when its id matches.
func (f *FileStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	if doc.Session == nil || doc.Session.ID != id {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return fromFileSession(doc.Session), nil
}

// ActiveSession returns the stored session, or nil when the file is empty.
// The single stored session is always the active one.
func (f *FileStore) ActiveSession(ctx context.Context) (*models.Session, error) {
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	if doc.Session == nil {
		return nil, nil
	}
	return fromFileSession(doc.Session), nil
}

// SetActiveSession verifies the id matches the stored session; a file store
// cannot switch between sessions.
func (f *FileStore) SetActiveSession(ctx context.Context, id string) error {
	doc, err := f.read()
	if err != nil {
		return err
	}
	if doc.Session == nil || doc.Session.ID != id {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

// ListSessions returns the stored session as a one-element list, or an empty
// list when the file is empty.
func (f *FileStore) ListSessions(ctx context.Context) ([]*models.Session, error) {
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	if doc.Session == nil {
		return nil, nil
	}
	return []*models.Session{fromFileSession(doc.Session)}, nil
}

// DeleteSession empties the document.
func (f *FileStore) DeleteSession(ctx context.Context, id string) error {
	return f.update(func(doc *fileDocument) error {
		if doc.Session == nil || doc.Session.ID != id {
			return fmt.Errorf("session %s not found", id)
		}
		doc.Session = nil
		doc.History = fileHistory{}
		return nil
	})
}

// SetIncludedFiles replaces the session's included path list.
func (f *FileStore) SetIncludedFiles(ctx context.Context, id string, paths []string) error {
	return f.updateSession(id, func(sess *fileSession) {
		sess.IncludedFiles = append([]string(nil), paths...)
	})
}

// SetExcludedFiles replaces the session's excluded path list.
func (f *FileStore) SetExcludedFiles(ctx context.Context, id string, paths []string) error {
	return f.updateSession(id, func(sess *fileSession) {
		sess.ExcludedFiles = append([]string(nil), paths...)
	})
}

// UpdateSelection replaces both path lists in one write.
func (f *FileStore) UpdateSelection(ctx context.Context, id string, included, excluded []string) error {
	return f.updateSession(id, func(sess *fileSession) {
		sess.IncludedFiles = append([]string(nil), included...)
		sess.ExcludedFiles = append([]string(nil), excluded...)
	})
}

// MergeIncludedFiles adds paths to the included list, skipping entries
// already present and entries on the excluded list.
func (f *FileStore) MergeIncludedFiles(ctx context.Context, id string, paths []string) (int, error) {
	added := 0
	err := f.updateSession(id, func(sess *fileSession) {
		have := make(map[string]bool, len(sess.IncludedFiles))
		for _, p := range sess.IncludedFiles {
			have[p] = true
		}
		blocked := make(map[string]bool, len(sess.ExcludedFiles))
		for _, p := range sess.ExcludedFiles {
			blocked[p] = true
		}
		for _, p := range paths {
			if p == "" || have[p] || blocked[p] {
				continue
			}
			sess.IncludedFiles = append(sess.IncludedFiles, p)
			have[p] = true
			added++
		}
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// ClearSelection empties both path lists.
func (f *FileStore) ClearSelection(ctx context.Context, id string) error {
	return f.UpdateSelection(ctx, id, nil, nil)
}

// SaveHistory replaces the persisted undo/redo stacks.
func (f *FileStore) SaveHistory(ctx context.Context, id string, past, future []history.Snapshot) error {
	return f.update(func(doc *fileDocument) error {
		if doc.Session == nil || doc.Session.ID != id {
			return fmt.Errorf("session %s not found", id)
		}
		doc.History = fileHistory{
			Past:   cloneSnapshots(past),
			Future: cloneSnapshots(future),
		}
		return nil
	})
}

// LoadHistory fetches the persisted undo/redo stacks, oldest first.
func (f *FileStore) LoadHistory(ctx context.Context, id string) ([]history.Snapshot, []history.Snapshot, error) {
	doc, err := f.read()
	if err != nil {
		return nil, nil, err
	}
	if doc.Session == nil || doc.Session.ID != id {
		return nil, nil, fmt.Errorf("session %s not found", id)
	}
	return cloneSnapshots(doc.History.Past), cloneSnapshots(doc.History.Future), nil
}

// read loads the document while holding the session file lock. A missing
// file decodes as an empty document.
func (f *FileStore) read() (*fileDocument, error) {
	data, exists, err := filelock.LockedRead(f.path)
	if err != nil {
		return nil, err
	}
	doc := &fileDocument{}
	if !exists || len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to decode session file %s: %w", f.path, err)
	}
	return doc, nil
}

// update applies fn to the document under the session file lock and writes
// the result back atomically.
func (f *FileStore) update(fn func(doc *fileDocument) error) error {
	return filelock.LockedUpdate(f.path, func(data []byte, exists bool) ([]byte, error) {
		doc := &fileDocument{}
		if exists && len(data) > 0 {
			if err := json.Unmarshal(data, doc); err != nil {
				return nil, fmt.Errorf("failed to decode session file %s: %w", f.path, err)
			}
		}
		if err := fn(doc); err != nil {
			return nil, err
		}
		return json.MarshalIndent(doc, "", "  ")
	})
}

// updateSession applies fn to the stored session and bumps its update time.
func (f *FileStore) updateSession(id string, fn func(sess *fileSession)) error {
	return f.update(func(doc *fileDocument) error {
		if doc.Session == nil || doc.Session.ID != id {
			return fmt.Errorf("session %s not found", id)
		}
		fn(doc.Session)
		doc.Session.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func toFileSession(sess *models.Session) *fileSession {
	return &fileSession{
		ID:            sess.ID,
		Name:          sess.Name,
		Directory:     sess.Directory,
		IncludedFiles: append([]string(nil), sess.IncludedFiles...),
		ExcludedFiles: append([]string(nil), sess.ExcludedFiles...),
		CreatedAt:     sess.CreatedAt,
		UpdatedAt:     sess.UpdatedAt,
	}
}

func fromFileSession(sess *fileSession) *models.Session {
	return &models.Session{
		ID:            sess.ID,
		Name:          sess.Name,
		Directory:     sess.Directory,
		IncludedFiles: append([]string(nil), sess.IncludedFiles...),
		ExcludedFiles: append([]string(nil), sess.ExcludedFiles...),
		CreatedAt:     sess.CreatedAt,
		UpdatedAt:     sess.UpdatedAt,
	}
}

func cloneSnapshots(snaps []history.Snapshot) []history.Snapshot {
	if snaps == nil {
		return nil
	}
	out := make([]history.Snapshot, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, s.Clone())
	}
	return out
}
