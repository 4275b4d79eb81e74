package session

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/curator/internal/history"
	"github.com/harrison/curator/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Store persists sessions and their selection history in SQLite.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new Store instance and initializes the database
func NewStore(dbPath string) (*Store, error) {
	// Handle in-memory database
	if dbPath == ":memory:" {
		return openAndInitStore(dbPath)
	}

	// Ensure parent directory exists for file-based databases
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	return openAndInitStore(dbPath)
}

// openAndInitStore opens the database connection and initializes schema
func openAndInitStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Configure SQLite for concurrent access with retry logic.
	// Set busy_timeout FIRST so subsequent operations wait on locks.
	// Use retry with backoff for "database is locked" errors that can occur
	// during concurrent initialization of the same database file.
	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return store, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, sqlStr string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(sqlStr)
		if err == nil {
			return nil
		}

		// Only retry on "database is locked" errors
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		delay := baseDelay * time.Duration(1<<attempt)
		time.Sleep(delay)
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateSession creates a session for a directory and marks it active. Any
// previously active session becomes inactive.
func (s *Store) CreateSession(ctx context.Context, name, directory string) (*models.Session, error) {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET is_active = 0 WHERE is_active = 1`); err != nil {
		return nil, fmt.Errorf("deactivate sessions: %w", err)
	}

	query := `INSERT INTO sessions (id, name, directory, included_files, excluded_files, is_active, created_at, updated_at)
		VALUES (?, ?, ?, '', '', 1, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, sess.ID, sess.Name, sess.Directory, sess.CreatedAt, sess.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit session: %w", err)
	}
	return sess, nil
}

// GetSession fetches a session by id.
func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT id, name, directory, included_files, excluded_files, created_at, updated_at
		FROM sessions WHERE id = ?`
	sess, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return sess, nil
}

// ActiveSession returns the active session, or nil when there is none.
func (s *Store) ActiveSession(ctx context.Context) (*models.Session, error) {
	query := `SELECT id, name, directory, included_files, excluded_files, created_at, updated_at
		FROM sessions WHERE is_active = 1 LIMIT 1`
	sess, err := scanSession(s.db.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query active session: %w", err)
	}
	return sess, nil
}

// SetActiveSession marks the given session active and all others inactive.
func (s *Store) SetActiveSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET is_active = 0 WHERE is_active = 1`); err != nil {
		return fmt.Errorf("deactivate sessions: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE sessions SET is_active = 1, updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("activate session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session %s not found", id)
	}

	return tx.Commit()
}

// ListSessions returns all sessions, most recently updated first.
func (s *Store) ListSessions(ctx context.Context) ([]*models.Session, error) {
	query := `SELECT id, name, directory, included_files, excluded_files, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes a session and its persisted history.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM selection_history WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete session history: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session %s not found", id)
	}

	return tx.Commit()
}

// SetIncludedFiles replaces the session's included path list.
func (s *Store) SetIncludedFiles(ctx context.Context, id string, paths []string) error {
	return s.updateColumn(ctx, id, "included_files", encodePaths(paths))
}

// SetExcludedFiles replaces the session's excluded path list.
func (s *Store) SetExcludedFiles(ctx context.Context, id string, paths []string) error {
	return s.updateColumn(ctx, id, "excluded_files", encodePaths(paths))
}

// UpdateSelection replaces both path lists in one write.
func (s *Store) UpdateSelection(ctx context.Context, id string, included, excluded []string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET included_files = ?, excluded_files = ?, updated_at = ? WHERE id = ?`,
		encodePaths(included), encodePaths(excluded), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update selection: %w", err)
	}
	return requireRow(result, id)
}

// MergeIncludedFiles adds paths to the included list without disturbing
// existing entries. Paths already included are skipped, and paths present in
// the excluded list are skipped so a merge can never resurrect an exclusion.
// It returns how many paths were added.
func (s *Store) MergeIncludedFiles(ctx context.Context, id string, paths []string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var includedRaw, excludedRaw string
	err = tx.QueryRowContext(ctx,
		`SELECT included_files, excluded_files FROM sessions WHERE id = ?`, id).
		Scan(&includedRaw, &excludedRaw)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("session %s not found", id)
	}
	if err != nil {
		return 0, fmt.Errorf("query selection: %w", err)
	}

	included := decodePaths(includedRaw)
	have := make(map[string]bool, len(included))
	for _, p := range included {
		have[p] = true
	}
	blocked := make(map[string]bool)
	for _, p := range decodePaths(excludedRaw) {
		blocked[p] = true
	}

	added := 0
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" || have[p] || blocked[p] {
			continue
		}
		included = append(included, p)
		have[p] = true
		added++
	}

	if added == 0 {
		return 0, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET included_files = ?, updated_at = ? WHERE id = ?`,
		encodePaths(included), time.Now().UTC(), id); err != nil {
		return 0, fmt.Errorf("update included files: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit merge: %w", err)
	}
	return added, nil
}

// ClearSelection empties both path lists.
func (s *Store) ClearSelection(ctx context.Context, id string) error {
	return s.UpdateSelection(ctx, id, nil, nil)
}

// SaveHistory replaces the persisted undo/redo stacks for a session.
func (s *Store) SaveHistory(ctx context.Context, id string, past, future []history.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM selection_history WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("clear session history: %w", err)
	}

	insert := `INSERT INTO selection_history (session_id, stack, position, included_files, excluded_files)
		VALUES (?, ?, ?, ?, ?)`
	for i, snap := range past {
		if _, err := tx.ExecContext(ctx, insert, id, "past", i, encodePaths(snap.Included), encodePaths(snap.Excluded)); err != nil {
			return fmt.Errorf("insert past snapshot: %w", err)
		}
	}
	for i, snap := range future {
		if _, err := tx.ExecContext(ctx, insert, id, "future", i, encodePaths(snap.Included), encodePaths(snap.Excluded)); err != nil {
			return fmt.Errorf("insert future snapshot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

// LoadHistory fetches the persisted undo/redo stacks, oldest first.
func (s *Store) LoadHistory(ctx context.Context, id string) (past, future []history.Snapshot, err error) {
	query := `SELECT stack, included_files, excluded_files
		FROM selection_history WHERE session_id = ? ORDER BY stack, position ASC`
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, nil, fmt.Errorf("query session history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stack, includedRaw, excludedRaw string
		if err := rows.Scan(&stack, &includedRaw, &excludedRaw); err != nil {
			return nil, nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap := history.Snapshot{
			Included: decodePaths(includedRaw),
			Excluded: decodePaths(excludedRaw),
		}
		if stack == "past" {
			past = append(past, snap)
		} else {
			future = append(future, snap)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate session history: %w", err)
	}
	return past, future, nil
}

// updateColumn replaces one path-list column for a session.
func (s *Store) updateColumn(ctx context.Context, id, column, value string) error {
	// column is always a literal from this package, never user input
	query := fmt.Sprintf(`UPDATE sessions SET %s = ?, updated_at = ? WHERE id = ?`, column)
	result, err := s.db.ExecContext(ctx, query, value, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	return requireRow(result, id)
}

// requireRow converts a zero-row update into a not-found error.
func requireRow(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanSession reads one session row in column order id, name, directory,
// included_files, excluded_files, created_at, updated_at.
func scanSession(row rowScanner) (*models.Session, error) {
	sess := &models.Session{}
	var name sql.NullString
	var includedRaw, excludedRaw string
	if err := row.Scan(&sess.ID, &name, &sess.Directory, &includedRaw, &excludedRaw, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return nil, err
	}
	sess.Name = name.String
	sess.IncludedFiles = decodePaths(includedRaw)
	sess.ExcludedFiles = decodePaths(excludedRaw)
	return sess, nil
}
