package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/harrison/curator/internal/logger"
	"github.com/spf13/cobra"
)

// NewUndoCommand creates the undo command
func NewUndoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Revert the most recent selection change",
		Long: `Revert the most recent selection change in the active session.

The history survives across invocations, so undo reverses changes made
by earlier scan, toggle, apply, and relevant runs. A reverted change
stays available to redo until a new change is made.

Examples:
  # Take back an accidental toggle
  curator undo`,
		Args: cobra.NoArgs,
		RunE: runUndo,
	}
}

// NewRedoCommand creates the redo command
func NewRedoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Reapply the most recently undone selection change",
		Long: `Reapply the most recently undone selection change in the active session.

Examples:
  # Restore the change undone by the last undo
  curator redo`,
		Args: cobra.NoArgs,
		RunE: runRedo,
	}
}

// runUndo implements the undo command logic
func runUndo(cmd *cobra.Command, args []string) error {
	return runHistoryStep(cmd, "undo")
}

// runRedo implements the redo command logic
func runRedo(cmd *cobra.Command, args []string) error {
	return runHistoryStep(cmd, "redo")
}

// runHistoryStep primes the reconciler and walks the history one step in
// the given direction. Undo and redo differ only in the step taken.
func runHistoryStep(cmd *cobra.Command, direction string) error {
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

	rec, err := restoreReconciler(ctx, store, sess, consoleLog)
	if err != nil {
		return err
	}

	ld := newLoader(cfg, consoleLog)
	if _, err := loadAndReconcile(ctx, ld, rec, sess); err != nil {
		return err
	}

	var stepped bool
	if direction == "undo" {
		stepped = rec.Undo()
	} else {
		stepped = rec.Redo()
	}
	if !stepped {
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing to %s\n", direction)
		return nil
	}

	if err := saveHistory(ctx, store, sess.ID, rec); err != nil {
		return err
	}

	printSelection(cmd.OutOrStdout(), rec.IncludedPaths(), rec.ExcludedPaths())
	return nil
}
