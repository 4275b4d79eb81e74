package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harrison/curator/internal/filelock"
	"github.com/harrison/curator/internal/logger"
	"github.com/harrison/curator/internal/pathutil"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewSessionCommand creates the session command and its subcommands
func NewSessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and manage selection sessions",
		Long: `Inspect and manage persisted selection sessions.

A session binds one project directory to its included and excluded path
lists. Exactly one session is active at a time; scan and session new
switch the active session.`,
	}

	cmd.AddCommand(newSessionShowCommand())
	cmd.AddCommand(newSessionNewCommand())
	cmd.AddCommand(newSessionClearCommand())
	cmd.AddCommand(newSessionExportCommand())

	return cmd
}

func newSessionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active session and its selection",
		Args:  cobra.NoArgs,
		RunE:  runSessionShow,
	}
}

func newSessionNewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <directory>",
		Short: "Create and activate a session for a directory",
		Long: `Create a session for a directory and make it active.

A new session always starts empty, even when another session already
manages the same directory. Use scan to resume an existing session
instead.

Examples:
  curator session new .
  curator session new ~/work/api --name api-review`,
		Args: cobra.ExactArgs(1),
		RunE: runSessionNew,
	}

	cmd.Flags().String("name", "", "Session label (default: the directory name)")

	return cmd
}

func newSessionClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the active session's selection",
		Long: `Empty the active session's included and excluded path lists.

The undo history is dropped with them; a cleared selection cannot be
undone.`,
		Args: cobra.NoArgs,
		RunE: runSessionClear,
	}
}

func newSessionExportCommand() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the active session as YAML",
		Long: `Export the active session as YAML to stdout or a file.

Writing to a file goes through the same advisory lock the file session
store uses, so an export never interleaves with a concurrent writer.

Examples:
  curator session export
  curator session export --output selection.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionExport(cmd, outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// runSessionShow implements the session show command logic
func runSessionShow(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadCommandConfig(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, root)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	sess, err := store.ActiveSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to look up active session: %w", err)
	}

	_, _, header := selectionColors()

	if sess == nil {
		fmt.Fprintf(out, "No active session.\n")
	} else {
		header.Fprintf(out, "Session: %s\n", sessionLabel(sess.Name, sess.ID))
		fmt.Fprintf(out, "  ID:        %s\n", sess.ID)
		fmt.Fprintf(out, "  Directory: %s\n", sess.Directory)
		fmt.Fprintf(out, "  Created:   %s\n", sess.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "  Updated:   %s\n", sess.UpdatedAt.Format("2006-01-02 15:04:05"))
		printSelection(out, sess.IncludedFiles, sess.ExcludedFiles)
	}

	sessions, err := store.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	var others []string
	for _, s := range sessions {
		if sess != nil && s.ID == sess.ID {
			continue
		}
		others = append(others, fmt.Sprintf("  %s  %s (%d included)", s.ID, s.Directory, len(s.IncludedFiles)))
	}
	if len(others) > 0 {
		fmt.Fprintf(out, "\nOther sessions:\n")
		for _, line := range others {
			fmt.Fprintf(out, "%s\n", line)
		}
	}

	return nil
}

// runSessionNew implements the session new command logic
func runSessionNew(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadCommandConfig(cmd)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve directory %q: %w", args[0], err)
	}
	dir := pathutil.NormalizeDirectory(abs)

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = filepath.Base(dir)
	}

	store, err := openStore(cfg, root)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := store.CreateSession(context.Background(), name, dir)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created session %s (%s) for %s\n", sess.Name, sess.ID, sess.Directory)
	return nil
}

// runSessionClear implements the session clear command logic
func runSessionClear(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadCommandConfig(cmd)
	if err != nil {
		return err
	}

	consoleLog := logger.NewConsoleLogger(os.Stdout, cfg.LogLevel)

	store, err := openStore(cfg, root)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	sess, err := requireActiveSession(ctx, store)
	if err != nil {
		return err
	}

	if err := store.ClearSelection(ctx, sess.ID); err != nil {
		return fmt.Errorf("failed to clear selection: %w", err)
	}
	// The persisted undo stacks describe the selection that was just
	// erased; keeping them would let undo resurrect it from another run.
	if err := store.SaveHistory(ctx, sess.ID, nil, nil); err != nil {
		consoleLog.LogWarn(fmt.Sprintf("Failed to drop selection history: %v", err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cleared selection for session %s\n", sessionLabel(sess.Name, sess.ID))
	return nil
}

// sessionExport is the YAML document written by session export
type sessionExport struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name,omitempty"`
	Directory     string   `yaml:"directory"`
	CreatedAt     string   `yaml:"created_at"`
	UpdatedAt     string   `yaml:"updated_at"`
	IncludedFiles []string `yaml:"included_files"`
	ExcludedFiles []string `yaml:"excluded_files"`
}

// runSessionExport implements the session export command logic
func runSessionExport(cmd *cobra.Command, outputPath string) error {
	cfg, root, err := loadCommandConfig(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, root)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := requireActiveSession(context.Background(), store)
	if err != nil {
		return err
	}

	doc := sessionExport{
		ID:            sess.ID,
		Name:          sess.Name,
		Directory:     sess.Directory,
		CreatedAt:     sess.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     sess.UpdatedAt.Format(time.RFC3339),
		IncludedFiles: sess.IncludedFiles,
		ExcludedFiles: sess.ExcludedFiles,
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if outputPath == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s", data)
		return nil
	}

	if err := filelock.LockAndWrite(outputPath, data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported session %s to %s\n", sessionLabel(sess.Name, sess.ID), outputPath)
	return nil
}

// sessionLabel prefers the human label and falls back to the id.
func sessionLabel(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
