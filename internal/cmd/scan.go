package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/harrison/curator/internal/models"
	"github.com/harrison/curator/internal/pathutil"
	"github.com/spf13/cobra"
)

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <directory>",
		Short: "Load a directory listing and reconcile the selection",
		Long: `Load a directory listing through the configured backend and reconcile
it against the active session's included and excluded paths.

The first scan of a directory creates a session for it; later scans reuse
that session, so toggles and applied selections survive across runs. Session
paths that no longer match any listed file are reported as warnings and
dropped from the derived selection.

Configuration is loaded from .curator/config.yaml at the project root.
CLI flags override configuration file settings.

Examples:
  # Scan the current project tree
  curator scan .

  # Re-fetch the listing for the session's directory
  curator scan src/ --refresh

  # Scan through a listing endpoint instead of the local filesystem
  curator scan src/ --backend http --endpoint http://localhost:8831/files

  # Narrow the listing to Go files
  curator scan . --pattern '\.go$'

  # Other options
  curator scan . --stats=false         # Skip per-file size collection
  curator scan . --verbose             # Show detailed progress
  curator scan . --config custom.yaml  # Use custom config file`,
		Args: cobra.ExactArgs(1),
		RunE: runScan,
	}

	cmd.Flags().Bool("refresh", false, "Re-fetch the listing after reconciling (picks up files changed mid-scan)")
	cmd.Flags().String("backend", "", "Listing backend (local|http)")
	cmd.Flags().String("endpoint", "", "HTTP listing endpoint (http backend)")
	cmd.Flags().String("pattern", "", "Regex applied to relative paths while listing")
	cmd.Flags().Bool("stats", true, "Collect per-file sizes with the listing")
	cmd.Flags().String("timeout", "", "Timeout per listing request (e.g. 30s, 2m)")

	return cmd
}

// runScan implements the scan command logic
func runScan(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadCommandConfig(cmd)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve directory %s: %w", args[0], err)
	}
	dir := pathutil.NormalizeDirectory(abs)

	fileLog, multiLog, err := newLoggers(cfg, root, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer fileLog.Close()

	store, err := openStore(cfg, root)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	sess, created, err := ensureSession(ctx, store, dir)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "Created session %s for %s\n", sess.ID, dir)
	}

	rec, err := restoreReconciler(ctx, store, sess, multiLog)
	if err != nil {
		return err
	}

	ld := newLoader(cfg, multiLog)

	multiLog.LogLoadStart(dir)
	start := time.Now()
	if !ld.Load(ctx, dir) {
		return failLoad(multiLog, dir, ld.State())
	}
	result := rec.Reconcile(ld.State().Files, sess.IncludedFiles, sess.ExcludedFiles)

	// A long scan can race concurrent writers; --refresh fetches once more
	// and reconciles against the newer listing
	if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
		if !ld.Refresh(ctx, dir, true) {
			return failLoad(multiLog, dir, ld.State())
		}
		result = rec.Reconcile(ld.State().Files, sess.IncludedFiles, sess.ExcludedFiles)
	}
	multiLog.LogLoadComplete(dir, len(ld.State().Files), time.Since(start))

	included := rec.IncludedPaths()
	excluded := rec.ExcludedPaths()
	multiLog.LogSelectionSummary(rec.Len(), len(included), len(excluded), result.Unmatched)

	printSelection(cmd.OutOrStdout(), included, excluded)

	if err := saveHistory(ctx, store, sess.ID, rec); err != nil {
		return err
	}
	if err := fileLog.LogSelectionSnapshot(sess.ID, included, excluded); err != nil {
		fmt.Fprintf(cmd.OutOrStderr(), "Warning: failed to log selection snapshot: %v\n", err)
	}

	return nil
}

// failLoad reports a load that settled terminally without a listing.
func failLoad(log runLogger, dir string, state models.LoadState) error {
	err := fmt.Errorf("listing returned no files")
	if state.Err != "" {
		err = fmt.Errorf("%s", state.Err)
	}
	log.LogLoadFailed(dir, state.RetryCount, err)
	return fmt.Errorf("failed to load %s: %w", dir, err)
}
