package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/harrison/curator/internal/pathutil"
	"github.com/harrison/curator/internal/watch"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <directory>",
		Short: "Keep the selection reconciled as files change",
		Long: `Watch a directory tree and keep the active session's selection
reconciled as files appear, change, and disappear.

Each burst of filesystem events triggers one listing refresh. Files that
reappear under a known path get their previous selection state back;
removed files drop out of the derived sets without losing their history.
Selection changes written by other curator processes are picked up on
the next refresh.

Runs until interrupted.

Examples:
  curator watch .
  curator watch src --verbose`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}
}

// runWatch implements the watch command logic
func runWatch(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadCommandConfig(cmd)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve directory %q: %w", args[0], err)
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()

	sess, created, err := ensureSession(ctx, store, dir)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "Created session %s for %s\n", sess.Name, sess.Directory)
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
	rec.Reconcile(ld.State().Files, sess.IncludedFiles, sess.ExcludedFiles)
	multiLog.LogLoadComplete(dir, len(ld.State().Files), time.Since(start))

	// The listing pattern is a path regex; the watcher only takes basename
	// globs, so filtering stays with the lister and the watcher sees all.
	watcher, err := watch.New(dir, watch.Options{
		ExcludeDirs: cfg.ExcludeDirs,
		Debounce:    cfg.WatchDebounce,
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	defer watcher.Close()

	fmt.Fprintf(out, "Watching %s (%d files, %d included). Press Ctrl-C to stop.\n",
		dir, rec.Len(), len(rec.IncludedPaths()))

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(out, "\nStopped watching %s\n", dir)
			return nil

		case err := <-watcher.Errors():
			multiLog.LogWarn(fmt.Sprintf("Watch error: %v", err))

		case event := <-watcher.Events():
			events := []watch.Event{event}
		drain:
			for {
				select {
				case next := <-watcher.Events():
					events = append(events, next)
				default:
					break drain
				}
			}

			for _, e := range events {
				rel := e.Path
				if r, ok := pathutil.MakeRelative(e.Path, dir); ok {
					rel = r
				}
				fmt.Fprintf(out, "%s  %s %s\n", e.Timestamp.Format("15:04:05"), e.Op, rel)
			}

			if !ld.Refresh(ctx, dir, true) {
				if ctx.Err() != nil {
					continue
				}
				state := ld.State()
				loadErr := fmt.Errorf("listing returned no files")
				if state.Err != "" {
					loadErr = fmt.Errorf("%s", state.Err)
				}
				multiLog.LogLoadFailed(dir, state.RetryCount, loadErr)
				continue
			}

			// Another process may have changed the persisted selection
			// since the last event; reconcile against the stored lists.
			fresh, err := store.GetSession(ctx, sess.ID)
			if err != nil || fresh == nil {
				fresh = sess
			}
			rec.Reconcile(ld.State().Files, fresh.IncludedFiles, fresh.ExcludedFiles)

			fmt.Fprintf(out, "  %d files, %d included, %d excluded\n",
				rec.Len(), len(rec.IncludedPaths()), len(rec.ExcludedPaths()))
		}
	}
}
