package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/harrison/curator/internal/config"
	"github.com/harrison/curator/internal/history"
	"github.com/harrison/curator/internal/listing"
	"github.com/harrison/curator/internal/loader"
	"github.com/harrison/curator/internal/logger"
	"github.com/harrison/curator/internal/models"
	"github.com/harrison/curator/internal/selection"
	"github.com/harrison/curator/internal/session"
	"github.com/spf13/cobra"
)

// runLogger is the logging surface shared by the console and file loggers.
// It is a superset of the logging interfaces the loader, reconciler, session
// store, and relevance poller declare, so one logger serves them all.
type runLogger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogLoadStart(directory string)
	LogLoadComplete(directory string, fileCount int, duration time.Duration)
	LogLoadFailed(directory string, attempts int, err error)
	LogScanProgress(loaded, total int)
	LogSelectionSummary(total, included, excluded int, unmatched []string)
}

// loadCommandConfig loads configuration for a command invocation and merges
// any override flags the user set. The returned project root anchors relative
// data paths and is found by walking upward from the working directory.
func loadCommandConfig(cmd *cobra.Command) (*config.Config, string, error) {
	root := config.FindProjectRoot(".")

	configPath, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	var err error

	if configPath != "" {
		// Load from explicit config path
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		// Load from .curator/config.yaml at the project root
		cfg, err = config.LoadConfigFromDir(root)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
	}

	// Build flag pointers for merge (only values the user set)
	var includeStatsPtr *bool
	if cmd.Flags().Changed("stats") {
		includeStats, _ := cmd.Flags().GetBool("stats")
		includeStatsPtr = &includeStats
	}

	var timeoutPtr *time.Duration
	if cmd.Flags().Changed("timeout") {
		timeoutStr, _ := cmd.Flags().GetString("timeout")
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, "", fmt.Errorf("invalid timeout format %q: %w", timeoutStr, err)
		}
		timeoutPtr = &timeout
	}

	// The verbose flag overrides the configured log level
	var logLevelPtr *string
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level := "debug"
		logLevelPtr = &level
	}

	// Merge CLI flags with config (flags take precedence)
	cfg.MergeWithFlags(
		changedString(cmd, "backend"),
		changedString(cmd, "endpoint"),
		changedString(cmd, "pattern"),
		includeStatsPtr,
		timeoutPtr,
		changedString(cmd, "db"),
		changedString(cmd, "session-file"),
		logLevelPtr,
		changedString(cmd, "log-dir"),
	)

	// Validate merged configuration
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, root, nil
}

// changedString returns a pointer to a string flag's value when the user set
// it, nil otherwise. Flags a command does not define count as unset.
func changedString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	value, _ := cmd.Flags().GetString(name)
	return &value
}

// openStore opens the configured session store: the JSON file store when a
// session file is configured, the SQLite store otherwise. Relative paths are
// anchored at the project root.
func openStore(cfg *config.Config, root string) (session.SessionStore, error) {
	if cfg.SessionFile != "" {
		return session.NewFileStore(config.ResolvePath(root, cfg.SessionFile)), nil
	}

	store, err := session.NewStore(config.ResolvePath(root, cfg.DatabasePath))
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return store, nil
}

// newLoggers creates the file logger plus a fan-out pairing it with a console
// logger on the command's output stream. The fan-out already reaches both
// sinks, so callers log through it rather than the underlying loggers.
// Callers must Close the returned file logger.
func newLoggers(cfg *config.Config, root string, out io.Writer) (*logger.FileLogger, *multiLogger, error) {
	consoleLog := logger.NewConsoleLogger(out, cfg.LogLevel)

	fileLog, err := logger.NewFileLoggerWithDirAndLevel(config.ResolvePath(root, cfg.LogDir), cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file logger: %w", err)
	}

	multiLog := &multiLogger{loggers: []runLogger{consoleLog, fileLog}}
	return fileLog, multiLog, nil
}

// newLister builds the listing backend selected by the configuration.
func newLister(cfg *config.Config) listing.Lister {
	if cfg.Backend == config.BackendHTTP {
		return listing.NewHTTPLister(cfg.Endpoint, cfg.RequestTimeout)
	}
	return listing.NewLocalLister(cfg.ExcludeDirs)
}

// newLoader builds a directory loader over the configured listing backend.
func newLoader(cfg *config.Config, log loader.Logger) *loader.Loader {
	return loader.New(newLister(cfg), loader.Options{
		IncludeStats: cfg.IncludeStats,
		Pattern:      cfg.Pattern,
		MaxRetries:   cfg.MaxRetries,
		Logger:       log,
	})
}

// requireActiveSession returns the active session or an instructive error
// pointing the user at the commands that start one.
func requireActiveSession(ctx context.Context, store session.SessionStore) (*models.Session, error) {
	sess, err := store.ActiveSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up active session: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("no active session; run 'curator scan <directory>' or 'curator session new <directory>' first")
	}
	return sess, nil
}

// ensureSession returns a session managing dir, preferring the active one,
// then any existing session for the same directory (re-activated), and
// finally a freshly created session. The second return value reports whether
// a new session was created. Against the single-session file store the resume
// step only ever sees the stored session, so switching directories replaces it.
func ensureSession(ctx context.Context, store session.SessionStore, dir string) (*models.Session, bool, error) {
	active, err := store.ActiveSession(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up active session: %w", err)
	}
	if active != nil && active.Directory == dir {
		return active, false, nil
	}

	// A previous session for this directory is resumed, not duplicated
	sessions, err := store.ListSessions(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, sess := range sessions {
		if sess.Directory == dir {
			if err := store.SetActiveSession(ctx, sess.ID); err != nil {
				return nil, false, fmt.Errorf("failed to activate session: %w", err)
			}
			return sess, false, nil
		}
	}

	created, err := store.CreateSession(ctx, filepath.Base(dir), dir)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create session: %w", err)
	}
	return created, true, nil
}

// restoreReconciler builds a reconciler whose sink persists into the session
// store and whose undo/redo stacks are restored from the persisted history.
func restoreReconciler(ctx context.Context, store session.SessionStore, sess *models.Session, log runLogger) (*selection.Reconciler, error) {
	past, future, err := store.LoadHistory(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load selection history: %w", err)
	}

	sink := session.NewStoreSink(store, sess.ID, log)
	return selection.NewReconcilerWithHistory(sink, log, history.Restore(past, future)), nil
}

// loadAndReconcile loads the session's directory and rebuilds the managed
// file map against the persisted path lists. Session paths absent from the
// listing come back as unmatched warnings.
func loadAndReconcile(ctx context.Context, ld *loader.Loader, rec *selection.Reconciler, sess *models.Session) (selection.ApplyResult, error) {
	if !ld.Load(ctx, sess.Directory) {
		state := ld.State()
		if state.Err != "" {
			return selection.ApplyResult{}, fmt.Errorf("failed to load %s after %d attempts: %s", sess.Directory, state.RetryCount, state.Err)
		}
		return selection.ApplyResult{}, fmt.Errorf("failed to load %s: listing returned no files", sess.Directory)
	}

	return rec.Reconcile(ld.State().Files, sess.IncludedFiles, sess.ExcludedFiles), nil
}

// saveHistory persists the reconciler's undo/redo stacks for the session.
func saveHistory(ctx context.Context, store session.SessionStore, sessionID string, rec *selection.Reconciler) error {
	past, future := rec.History().Stacks()
	if err := store.SaveHistory(ctx, sessionID, past, future); err != nil {
		return fmt.Errorf("failed to save selection history: %w", err)
	}
	return nil
}

// multiLogger forwards every log call to all underlying loggers
type multiLogger struct {
	loggers []runLogger
}

// LogTrace forwards to all loggers
func (ml *multiLogger) LogTrace(message string) {
	for _, logger := range ml.loggers {
		logger.LogTrace(message)
	}
}

// LogDebug forwards to all loggers
func (ml *multiLogger) LogDebug(message string) {
	for _, logger := range ml.loggers {
		logger.LogDebug(message)
	}
}

// LogInfo forwards to all loggers
func (ml *multiLogger) LogInfo(message string) {
	for _, logger := range ml.loggers {
		logger.LogInfo(message)
	}
}

// LogWarn forwards to all loggers
func (ml *multiLogger) LogWarn(message string) {
	for _, logger := range ml.loggers {
		logger.LogWarn(message)
	}
}

// LogError forwards to all loggers
func (ml *multiLogger) LogError(message string) {
	for _, logger := range ml.loggers {
		logger.LogError(message)
	}
}

// LogLoadStart forwards to all loggers
func (ml *multiLogger) LogLoadStart(directory string) {
	for _, logger := range ml.loggers {
		logger.LogLoadStart(directory)
	}
}

// LogLoadComplete forwards to all loggers
func (ml *multiLogger) LogLoadComplete(directory string, fileCount int, duration time.Duration) {
	for _, logger := range ml.loggers {
		logger.LogLoadComplete(directory, fileCount, duration)
	}
}

// LogLoadFailed forwards to all loggers
func (ml *multiLogger) LogLoadFailed(directory string, attempts int, err error) {
	for _, logger := range ml.loggers {
		logger.LogLoadFailed(directory, attempts, err)
	}
}

// LogScanProgress forwards to all loggers
func (ml *multiLogger) LogScanProgress(loaded, total int) {
	for _, logger := range ml.loggers {
		logger.LogScanProgress(loaded, total)
	}
}

// LogSelectionSummary forwards to all loggers
func (ml *multiLogger) LogSelectionSummary(total, included, excluded int, unmatched []string) {
	for _, logger := range ml.loggers {
		logger.LogSelectionSummary(total, included, excluded, unmatched)
	}
}
