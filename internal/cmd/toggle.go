package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/harrison/curator/internal/logger"
	"github.com/spf13/cobra"
)

// NewToggleCommand creates the toggle command
func NewToggleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle <path>...",
		Short: "Toggle files in or out of the selection",
		Long: `Toggle the inclusion state of one or more files in the active session.

Paths are matched against the session directory's listing, so relative
paths, absolute paths, and unambiguous suffixes all resolve to the same
file. Including a file clears any forced exclusion it carried.

With --exclude the toggle flips forced exclusion instead: an excluded
file stays out of the selection until the exclusion is toggled off, even
when a pasted path list or relevance result names it.

Examples:
  # Toggle two files into the selection
  curator toggle src/parser.go src/lexer.go

  # Force a generated file out of the selection
  curator toggle gen/schema.go --exclude

  # Loose paths resolve through the listing
  curator toggle parser.go`,
		Args: cobra.MinimumNArgs(1),
		RunE: runToggle,
	}

	cmd.Flags().Bool("exclude", false, "Toggle forced exclusion instead of inclusion")

	return cmd
}

// runToggle implements the toggle command logic
func runToggle(cmd *cobra.Command, args []string) error {
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

	exclude, _ := cmd.Flags().GetBool("exclude")

	failed := 0
	for _, arg := range args {
		key, ok := rec.ResolvePath(arg)
		if !ok {
			fmt.Fprintf(cmd.OutOrStderr(), "Warning: %q does not match any listed file\n", arg)
			failed++
			continue
		}

		if exclude {
			rec.ToggleExclude(key)
		} else {
			rec.ToggleInclude(key)
		}

		state, _ := rec.Get(key)
		switch {
		case state.ForceExcluded:
			fmt.Fprintf(cmd.OutOrStdout(), "Excluded: %s\n", key)
		case state.Selected():
			fmt.Fprintf(cmd.OutOrStdout(), "Included: %s\n", key)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "Unselected: %s\n", key)
		}
	}

	if err := saveHistory(ctx, store, sess.ID, rec); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nSelection: %d included, %d excluded\n", len(rec.IncludedPaths()), len(rec.ExcludedPaths()))

	if failed == len(args) {
		return fmt.Errorf("no given path matched a listed file")
	}
	return nil
}
