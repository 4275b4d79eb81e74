package logger

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// TestNewConsoleLogger verifies the constructor creates a ConsoleLogger with the provided writer.
func TestNewConsoleLogger(t *testing.T) {
	t.Run("with valid writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, "info")

		if logger == nil {
			t.Fatal("expected non-nil logger")
		}
		if logger.writer != buf {
			t.Error("writer not set correctly")
		}
		if logger.logLevel != "info" {
			t.Errorf("expected log level %q, got %q", "info", logger.logLevel)
		}
	})

	t.Run("with nil writer", func(t *testing.T) {
		logger := NewConsoleLogger(nil, "info")
		if logger == nil {
			t.Fatal("expected non-nil logger even with nil writer")
		}
		if logger.writer != nil {
			t.Error("expected nil writer")
		}

		// Logging to a nil writer must not panic
		logger.LogInfo("discarded")
		logger.LogLoadStart("src")
		logger.LogSelectionSummary(0, 0, 0, nil)
	})

	t.Run("normalizes log level", func(t *testing.T) {
		tests := []struct {
			input    string
			expected string
		}{
			{"DEBUG", "debug"},
			{" Warn ", "warn"},
			{"", "info"},
			{"shouty", "info"},
		}

		for _, tt := range tests {
			logger := NewConsoleLogger(&bytes.Buffer{}, tt.input)
			if logger.logLevel != tt.expected {
				t.Errorf("NewConsoleLogger(%q): log level = %q, want %q", tt.input, logger.logLevel, tt.expected)
			}
		}
	})
}

// TestLogLevelFiltering verifies messages below the configured level are suppressed.
func TestLogLevelFiltering(t *testing.T) {
	tests := []struct {
		configured string
		logged     string
		expected   bool
	}{
		{"trace", "trace", true},
		{"trace", "error", true},
		{"info", "trace", false},
		{"info", "debug", false},
		{"info", "info", true},
		{"info", "warn", true},
		{"warn", "info", false},
		{"error", "warn", false},
		{"error", "error", true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s logger, %s message", tt.configured, tt.logged), func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, tt.configured)

			switch tt.logged {
			case "trace":
				logger.LogTrace("msg")
			case "debug":
				logger.LogDebug("msg")
			case "info":
				logger.LogInfo("msg")
			case "warn":
				logger.LogWarn("msg")
			case "error":
				logger.LogError("msg")
			}

			got := buf.Len() > 0
			if got != tt.expected {
				t.Errorf("output written = %v, want %v (got %q)", got, tt.expected, buf.String())
			}
		})
	}
}

// TestLogMessageFormat verifies the "[HH:MM:SS] [LEVEL] message" format.
func TestLogMessageFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "debug")

	logger.LogDebug("loading directory listing")

	output := buf.String()
	if !strings.HasPrefix(output, "[") {
		t.Error("expected output to start with timestamp [")
	}
	if !strings.Contains(output, "[DEBUG]") {
		t.Errorf("expected level tag in output, got %q", output)
	}
	if !strings.Contains(output, "loading directory listing") {
		t.Errorf("expected message in output, got %q", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("expected trailing newline")
	}
}

// TestLogLoadStart verifies load start messages are formatted correctly.
func TestLogLoadStart(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	logger.LogLoadStart("src/internal")

	output := buf.String()
	if !strings.Contains(output, "Loading src/internal") {
		t.Errorf("expected load start message, got %q", output)
	}
	if !strings.HasPrefix(output, "[") {
		t.Error("expected output to start with timestamp [")
	}
}

// TestLogLoadComplete verifies load completion messages are formatted correctly.
func TestLogLoadComplete(t *testing.T) {
	tests := []struct {
		name         string
		directory    string
		fileCount    int
		duration     time.Duration
		expectedText string
	}{
		{
			name:         "fast load",
			directory:    "src",
			fileCount:    42,
			duration:     250 * time.Millisecond,
			expectedText: "src loaded: 42 files (250ms)",
		},
		{
			name:         "seconds",
			directory:    "vendor",
			fileCount:    1700,
			duration:     5 * time.Second,
			expectedText: "vendor loaded: 1700 files (5s)",
		},
		{
			name:         "minutes",
			directory:    "monorepo",
			fileCount:    98000,
			duration:     90 * time.Second,
			expectedText: "monorepo loaded: 98000 files (1m30s)",
		},
		{
			name:         "empty directory",
			directory:    "docs",
			fileCount:    0,
			duration:     time.Second,
			expectedText: "docs loaded: 0 files (1s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, "info")

			logger.LogLoadComplete(tt.directory, tt.fileCount, tt.duration)

			output := buf.String()
			if !strings.Contains(output, tt.expectedText) {
				t.Errorf("expected output to contain %q, got %q", tt.expectedText, output)
			}
		})
	}
}

// TestLogLoadFailed verifies failure messages carry the attempt count and error.
func TestLogLoadFailed(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	logger.LogLoadFailed("src/missing", 3, errors.New("listing returned no entries"))

	output := buf.String()
	if !strings.Contains(output, "src/missing failed after 3 attempts") {
		t.Errorf("expected failure message, got %q", output)
	}
	if !strings.Contains(output, "listing returned no entries") {
		t.Errorf("expected error text in output, got %q", output)
	}
}

// TestLogScanProgress verifies progress bar rendering for multi-directory scans.
func TestLogScanProgress(t *testing.T) {
	tests := []struct {
		name         string
		loaded       int
		total        int
		expectedText string
	}{
		{"half done", 2, 4, "2/4 (50%)"},
		{"complete", 4, 4, "4/4 (100%)"},
		{"not started", 0, 4, "0/4 (0%)"},
		{"zero directories", 0, 0, "0/0 (0%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, "info")

			logger.LogScanProgress(tt.loaded, tt.total)

			output := buf.String()
			if !strings.Contains(output, "Progress: [") {
				t.Errorf("expected progress bar in output, got %q", output)
			}
			if !strings.Contains(output, tt.expectedText) {
				t.Errorf("expected output to contain %q, got %q", tt.expectedText, output)
			}
		})
	}
}

// TestLogSelectionSummary verifies summary formatting with and without unmatched paths.
func TestLogSelectionSummary(t *testing.T) {
	t.Run("clean selection", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, "info")

		logger.LogSelectionSummary(120, 15, 3, nil)

		output := buf.String()
		for _, want := range []string{
			"=== Selection Summary ===",
			"Managed files: 120",
			"Included: 15",
			"Excluded: 3",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got %q", want, output)
			}
		}
		if strings.Contains(output, "Unmatched") {
			t.Errorf("unexpected unmatched section in %q", output)
		}
	})

	t.Run("with unmatched paths", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, "info")

		logger.LogSelectionSummary(10, 2, 0, []string{"gone/old.go", "typo/file.ts"})

		output := buf.String()
		if !strings.Contains(output, "Unmatched paths:") {
			t.Errorf("expected unmatched header, got %q", output)
		}
		if !strings.Contains(output, "- gone/old.go") {
			t.Errorf("expected first unmatched path, got %q", output)
		}
		if !strings.Contains(output, "- typo/file.ts") {
			t.Errorf("expected second unmatched path, got %q", output)
		}
	})

	t.Run("suppressed below info", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, "warn")

		logger.LogSelectionSummary(10, 2, 0, nil)

		if buf.Len() != 0 {
			t.Errorf("expected no output at warn level, got %q", buf.String())
		}
	})
}

// TestFormatDuration verifies human-readable duration formatting.
func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{0, "0ms"},
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{5 * time.Second, "5s"},
		{60 * time.Second, "1m"},
		{90 * time.Second, "1m30s"},
		{time.Hour, "1h"},
		{time.Hour + 30*time.Minute, "1h30m"},
		{2*time.Hour + 15*time.Minute + 30*time.Second, "2h15m30s"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			got := formatDuration(tt.duration)
			if got != tt.expected {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, got, tt.expected)
			}
		})
	}
}

// TestConcurrentLogging verifies thread safety under concurrent writes.
func TestConcurrentLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	const goroutines = 20
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(n int) {
			defer wg.Done()
			logger.LogInfo(fmt.Sprintf("message %d", n))
		}(i)
	}

	wg.Wait()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != goroutines {
		t.Errorf("expected %d log lines, got %d", goroutines, len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "[") || !strings.Contains(line, "[INFO]") {
			t.Errorf("malformed log line under concurrency: %q", line)
		}
	}
}

// Logger is the full logging surface shared by the console, file and no-op
// implementations.
type Logger interface {
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

// TestConsoleLoggerSatisfiesInterface verifies ConsoleLogger implements Logger.
func TestConsoleLoggerSatisfiesInterface(t *testing.T) {
	var _ Logger = NewConsoleLogger(&bytes.Buffer{}, "info")
}

// TestNoOpLoggerSatisfiesInterface verifies NoOpLogger implements Logger.
func TestNoOpLoggerSatisfiesInterface(t *testing.T) {
	var _ Logger = NewNoOpLogger()
}
