package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileLogger logs curator events to files in the .curator/logs/ directory.
// It creates timestamped per-run log files, per-session selection snapshots,
// and maintains a latest.log symlink pointing to the most recent run.
// It is thread-safe and supports log level filtering.
type FileLogger struct {
	logDir      string
	runLog      *os.File
	runFile     string
	sessionsDir string
	logLevel    string
	mu          sync.Mutex
}

// NewFileLogger creates a new FileLogger that writes to .curator/logs/.
// It creates the log directory if it doesn't exist, opens a timestamped
// run log file, and creates/updates the latest.log symlink.
// Uses default log level "info".
func NewFileLogger() (*FileLogger, error) {
	// Default log directory is .curator/logs/ in current working directory
	logDir := filepath.Join(".curator", "logs")
	return NewFileLoggerWithDirAndLevel(logDir, "info")
}

// NewFileLoggerWithDir creates a new FileLogger with a custom log directory.
// This is useful for testing or custom deployments.
// Uses default log level "info".
func NewFileLoggerWithDir(logDir string) (*FileLogger, error) {
	return NewFileLoggerWithDirAndLevel(logDir, "info")
}

// NewFileLoggerWithDirAndLevel creates a new FileLogger with a custom log directory and log level.
func NewFileLoggerWithDirAndLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Create sessions subdirectory for per-session selection snapshots
	sessionsDir := filepath.Join(logDir, "sessions")
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	// Generate timestamped filename: run-YYYYMMDD-HHMMSS.log
	timestamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", timestamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	// Create/update latest.log symlink
	symlinkPath := filepath.Join(logDir, "latest.log")

	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}

	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:      logDir,
		runLog:      file,
		runFile:     runFile,
		sessionsDir: sessionsDir,
		logLevel:    normalizeLogLevel(logLevel),
		mu:          sync.Mutex{},
	}

	// Write header to run log
	logger.writeRunLog("=== Curator Run Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// shouldLog checks if a message at the given level should be logged.
// Returns true if messageLevel >= configured logLevel.
func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

// logWithLevel is a helper that logs a message at the specified level if filtering allows it.
func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}

	formatted := fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format("15:04:05"), level, message)
	fl.writeRunLog(formatted)
}

// LogLoadStart logs the start of a directory load at INFO level.
func (fl *FileLogger) LogLoadStart(directory string) {
	if !fl.shouldLog("info") {
		return
	}

	message := fmt.Sprintf("[%s] Loading %s\n", time.Now().Format("15:04:05"), directory)
	fl.writeRunLog(message)
}

// LogLoadComplete logs the completion of a directory load at INFO level.
// It records the directory, the file count and the load duration.
func (fl *FileLogger) LogLoadComplete(directory string, fileCount int, duration time.Duration) {
	if !fl.shouldLog("info") {
		return
	}

	fileLabel := "file"
	if fileCount != 1 {
		fileLabel = "files"
	}

	message := fmt.Sprintf(
		"[%s] %s loaded: %d %s (duration %.1fs)\n",
		time.Now().Format("15:04:05"),
		directory,
		fileCount,
		fileLabel,
		duration.Seconds(),
	)

	fl.writeRunLog(message)
}

// LogLoadFailed logs a permanently failed directory load at ERROR level.
func (fl *FileLogger) LogLoadFailed(directory string, attempts int, err error) {
	if !fl.shouldLog("error") {
		return
	}

	message := fmt.Sprintf(
		"[%s] %s failed after %d attempts: %v\n",
		time.Now().Format("15:04:05"),
		directory,
		attempts,
		err,
	)

	fl.writeRunLog(message)
}

// LogScanProgress logs the current scan progress (no-op for file logger).
// Progress is displayed on console but not written to log files.
func (fl *FileLogger) LogScanProgress(loaded, total int) {
	// No-op: progress bars are console-only
}

// LogSelectionSummary logs the selection outcome with final counts at INFO level.
func (fl *FileLogger) LogSelectionSummary(total, included, excluded int, unmatched []string) {
	if !fl.shouldLog("info") {
		return
	}

	timestamp := time.Now().Format("15:04:05")

	message := fmt.Sprintf(
		"\n[%s] === SELECTION SUMMARY ===\n"+
			"[%s] Managed files: %d\n"+
			"[%s] Included:      %d\n"+
			"[%s] Excluded:      %d\n",
		timestamp,
		timestamp,
		total,
		timestamp,
		included,
		timestamp,
		excluded,
	)

	if len(unmatched) > 0 {
		message += fmt.Sprintf("[%s] Unmatched paths:\n", timestamp)
		for _, p := range unmatched {
			message += fmt.Sprintf("[%s]   - %s\n", timestamp, p)
		}
	}

	fl.writeRunLog(message)
}

// LogSelectionSnapshot writes the full selection of a session to a dedicated
// file in the sessions/ subdirectory. Each write replaces the previous
// snapshot for that session.
func (fl *FileLogger) LogSelectionSnapshot(sessionID string, included, excluded []string) error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	snapshotPath := filepath.Join(fl.sessionsDir, fmt.Sprintf("session-%s.log", sessionID))

	file, err := os.OpenFile(snapshotPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create session snapshot file: %w", err)
	}
	defer file.Close()

	content := fmt.Sprintf("=== Session %s ===\n", sessionID)
	content += fmt.Sprintf("Included (%d):\n", len(included))
	for _, p := range included {
		content += fmt.Sprintf("  %s\n", p)
	}
	content += fmt.Sprintf("Excluded (%d):\n", len(excluded))
	for _, p := range excluded {
		content += fmt.Sprintf("  %s\n", p)
	}
	content += fmt.Sprintf("\nSaved at: %s\n", time.Now().Format(time.RFC3339))

	if _, err := file.WriteString(content); err != nil {
		return fmt.Errorf("failed to write session snapshot: %w", err)
	}

	return nil
}

// Close flushes and closes the run log file.
// It should be called when the logger is no longer needed.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		// Flush after each write for real-time logging
		fl.runLog.Sync()
	}
}
