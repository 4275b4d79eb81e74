package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for curator
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curator",
		Short: "File selection manager for project trees",
		Long: `Curator maintains a reviewed selection of files over a project tree.

It loads directory listings from a local scan or an HTTP endpoint,
reconciles them against a persisted session of included and excluded
paths, and keeps the selection consistent as files appear, move, and
disappear. Selections survive across runs in a SQLite database or a
JSON session file.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Flags shared by every subcommand
	cmd.PersistentFlags().String("config", "", "Path to config file (default: .curator/config.yaml at the project root)")
	cmd.PersistentFlags().String("db", "", "Path to the session database")
	cmd.PersistentFlags().String("session-file", "", "Path to a JSON session file (used instead of the database)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Show detailed progress information")
	cmd.PersistentFlags().String("log-dir", "", "Directory for log files")

	// Add subcommands
	cmd.AddCommand(NewScanCommand())
	cmd.AddCommand(NewToggleCommand())
	cmd.AddCommand(NewApplyCommand())
	cmd.AddCommand(NewUndoCommand())
	cmd.AddCommand(NewRedoCommand())
	cmd.AddCommand(NewFilterCommand())
	cmd.AddCommand(NewRelevantCommand())
	cmd.AddCommand(NewSessionCommand())
	cmd.AddCommand(NewWatchCommand())

	return cmd
}
