// Package logger provides logging implementations for curator operations.
//
// The logger package offers structured logging of directory loads and
// selection changes. Implementations are thread-safe and support various
// output destinations (console, file, etc.).
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs curator activity to a writer with timestamps and thread
// safety. All output is prefixed with [HH:MM:SS] timestamps.
// It supports log level filtering to control message verbosity.
// Color output is automatically enabled for terminal output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// logLevel determines the minimum log level for messages to be output.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
// Color output is automatically enabled when writing to os.Stdout or os.Stderr with TTY support.
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		mutex:       sync.Mutex{},
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
// Returns true for os.Stdout and os.Stderr when they are TTYs.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}

	if w == os.Stdout || w == os.Stderr {
		// The color library's built-in TTY detection also honors NO_COLOR
		return !color.NoColor
	}

	return false
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if validLevels[normalized] {
		return normalized
	}

	return "info" // Default level
}

// shouldLog checks if a message at the given level should be logged.
// Returns true if messageLevel >= configured logLevel.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo // Default to info if unknown
	}
}

// LogTrace logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
// Format: "[HH:MM:SS] [DEBUG] <message>"
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
// Format: "[HH:MM:SS] [WARN] <message>"
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
// Format: "[HH:MM:SS] [ERROR] <message>"
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// logWithLevel is a helper that logs a message at the specified level if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string

	if cl.colorOutput {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, colorizeLevel(level), message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// colorizeLevel wraps a level tag in its ANSI color.
func colorizeLevel(level string) string {
	switch strings.ToUpper(level) {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// LogLoadStart logs the start of a directory load at INFO level.
// Format: "[HH:MM:SS] Loading <directory>"
func (cl *ConsoleLogger) LogLoadStart(directory string) {
	if cl.writer == nil {
		return
	}

	// Load lifecycle logging is at INFO level
	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()

	var message string
	if cl.colorOutput {
		// Bold for directory names
		dirName := color.New(color.Bold).Sprint(directory)
		message = fmt.Sprintf("[%s] Loading %s\n", ts, dirName)
	} else {
		message = fmt.Sprintf("[%s] Loading %s\n", ts, directory)
	}

	cl.writer.Write([]byte(message))
}

// LogLoadComplete logs the completion of a directory load at INFO level.
// Format: "[HH:MM:SS] <directory> loaded: <count> files (<duration>)"
func (cl *ConsoleLogger) LogLoadComplete(directory string, fileCount int, duration time.Duration) {
	if cl.writer == nil {
		return
	}

	// Load lifecycle logging is at INFO level
	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	durationStr := formatDuration(duration)

	var message string
	if cl.colorOutput {
		// Green for successful completion
		dirName := color.New(color.Bold).Sprint(directory)
		loadedText := color.New(color.FgGreen).Sprint("loaded")
		message = fmt.Sprintf("[%s] %s %s: %d files (%s)\n", ts, dirName, loadedText, fileCount, durationStr)
	} else {
		message = fmt.Sprintf("[%s] %s loaded: %d files (%s)\n", ts, directory, fileCount, durationStr)
	}

	cl.writer.Write([]byte(message))
}

// LogLoadFailed logs a permanently failed directory load at ERROR level.
// Format: "[HH:MM:SS] <directory> failed after <attempts> attempts: <error>"
func (cl *ConsoleLogger) LogLoadFailed(directory string, attempts int, err error) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog("error") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()

	var message string
	if cl.colorOutput {
		dirName := color.New(color.Bold).Sprint(directory)
		failedText := color.New(color.FgRed).Sprint("failed")
		message = fmt.Sprintf("[%s] %s %s after %d attempts: %v\n", ts, dirName, failedText, attempts, err)
	} else {
		message = fmt.Sprintf("[%s] %s failed after %d attempts: %v\n", ts, directory, attempts, err)
	}

	cl.writer.Write([]byte(message))
}

// LogScanProgress logs real-time progress across a multi-directory scan.
// Format: "[HH:MM:SS] Progress: [====      ] 2/4 (50%)"
// Handles edge cases: zero directories, all loaded.
func (cl *ConsoleLogger) LogScanProgress(loaded, total int) {
	if cl.writer == nil {
		return
	}

	// Progress logging is at INFO level
	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()

	pb := NewProgressBar(total, 10, cl.colorOutput)
	pb.Update(loaded)

	output := fmt.Sprintf("[%s] Progress: %s\n", ts, pb.Render())
	cl.writer.Write([]byte(output))
}

// LogSelectionSummary logs the selection outcome with counts at INFO level.
// Unmatched paths, if any, are listed individually.
func (cl *ConsoleLogger) LogSelectionSummary(total, included, excluded int, unmatched []string) {
	if cl.writer == nil {
		return
	}

	// Summary logging is at INFO level
	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()

	var output string

	if cl.colorOutput {
		header := color.New(color.Bold).Sprint("=== Selection Summary ===")
		output = fmt.Sprintf("[%s] %s\n", ts, header)
		output += fmt.Sprintf("[%s] Managed files: %d\n", ts, total)

		// Green for included files
		includedText := color.New(color.FgGreen).Sprintf("Included: %d", included)
		output += fmt.Sprintf("[%s] %s\n", ts, includedText)

		// Yellow for excluded files if any, otherwise default color
		if excluded > 0 {
			excludedText := color.New(color.FgYellow).Sprintf("Excluded: %d", excluded)
			output += fmt.Sprintf("[%s] %s\n", ts, excludedText)
		} else {
			output += fmt.Sprintf("[%s] Excluded: %d\n", ts, excluded)
		}

		if len(unmatched) > 0 {
			unmatchedHeader := color.New(color.FgYellow).Sprint("Unmatched paths:")
			output += fmt.Sprintf("[%s] %s\n", ts, unmatchedHeader)
			for _, p := range unmatched {
				output += fmt.Sprintf("[%s]   - %s\n", ts, p)
			}
		}
	} else {
		output = fmt.Sprintf("[%s] === Selection Summary ===\n", ts)
		output += fmt.Sprintf("[%s] Managed files: %d\n", ts, total)
		output += fmt.Sprintf("[%s] Included: %d\n", ts, included)
		output += fmt.Sprintf("[%s] Excluded: %d\n", ts, excluded)

		if len(unmatched) > 0 {
			output += fmt.Sprintf("[%s] Unmatched paths:\n", ts)
			for _, p := range unmatched {
				output += fmt.Sprintf("[%s]   - %s\n", ts, p)
			}
		}
	}

	cl.writer.Write([]byte(output))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "250ms", "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	case d >= time.Second:
		if d%time.Second == 0 {
			return fmt.Sprintf("%ds", int64(d.Seconds()))
		}
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}

// NoOpLogger is a logger implementation that discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// LogTrace is a no-op implementation.
func (n *NoOpLogger) LogTrace(message string) {
}

// LogDebug is a no-op implementation.
func (n *NoOpLogger) LogDebug(message string) {
}

// LogInfo is a no-op implementation.
func (n *NoOpLogger) LogInfo(message string) {
}

// LogWarn is a no-op implementation.
func (n *NoOpLogger) LogWarn(message string) {
}

// LogError is a no-op implementation.
func (n *NoOpLogger) LogError(message string) {
}

// LogLoadStart is a no-op implementation.
func (n *NoOpLogger) LogLoadStart(directory string) {
}

// LogLoadComplete is a no-op implementation.
func (n *NoOpLogger) LogLoadComplete(directory string, fileCount int, duration time.Duration) {
}

// LogLoadFailed is a no-op implementation.
func (n *NoOpLogger) LogLoadFailed(directory string, attempts int, err error) {
}

// LogScanProgress is a no-op implementation.
func (n *NoOpLogger) LogScanProgress(loaded, total int) {
}

// LogSelectionSummary is a no-op implementation.
func (n *NoOpLogger) LogSelectionSummary(total, included, excluded int, unmatched []string) {
}
