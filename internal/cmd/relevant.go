package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/harrison/curator/internal/config"
	"github.com/harrison/curator/internal/models"
	"github.com/harrison/curator/internal/relevance"
	"github.com/spf13/cobra"
)

// NewRelevantCommand creates the relevant command
func NewRelevantCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relevant",
		Short: "Merge a relevant-files search result into the selection",
		Long: `Fetch a relevant-files search result and merge it into the active
session's selection.

The result comes from one of three sources: an asynchronous job polled
by id (--job, against the relevance endpoint), a local command whose
output is captured (--exec), or a saved result file (--from). Paths are
extracted from structured job metadata when present, otherwise parsed
out of the raw output text.

Extracted paths merge into the selection the way apply does: loose
matching against the session directory's listing, forced exclusions
respected, unmatched paths reported as warnings. With --apply=false
the paths are only printed.

Examples:
  # Poll a finished search job and merge its files
  curator relevant --job 7f3a81 --endpoint http://localhost:8600/jobs

  # Run a local search command and merge its output
  curator relevant --exec 'relfinder --format json src'

  # Merge a result saved earlier, without touching the selection
  curator relevant --from result.json --apply=false`,
		Args: cobra.NoArgs,
		RunE: runRelevant,
	}

	cmd.Flags().String("job", "", "Job id to poll until it completes")
	cmd.Flags().String("exec", "", "Command line to run for a result")
	cmd.Flags().String("from", "", "File holding a saved job result")
	cmd.Flags().String("endpoint", "", "Job-status endpoint (default: relevance.endpoint from config)")
	cmd.Flags().String("timeout", "", "Request timeout for job polling (e.g. 30s)")
	cmd.Flags().Bool("apply", true, "Merge extracted paths into the selection")

	return cmd
}

// runRelevant implements the relevant command logic
func runRelevant(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadCommandConfig(cmd)
	if err != nil {
		return err
	}

	fileLog, multiLog, err := newLoggers(cfg, root, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer fileLog.Close()

	ctx := context.Background()

	job, err := fetchJob(ctx, cmd, cfg, multiLog)
	if err != nil {
		return err
	}

	if job.Status == models.JobFailed {
		if job.Error != "" {
			return fmt.Errorf("job %s failed: %s", job.ID, job.Error)
		}
		return fmt.Errorf("job %s failed", job.ID)
	}

	paths := relevance.Extract(job.Metadata, job.RawOutput)
	if len(paths) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No relevant files reported.\n")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Found %d relevant files:\n", len(paths))
	for _, p := range paths {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", p)
	}

	apply := cfg.Relevance.AutoApply && relevance.AutoApplies(job.Kind)
	if cmd.Flags().Changed("apply") {
		apply, _ = cmd.Flags().GetBool("apply")
	}
	if !apply {
		return nil
	}

	store, err := openStore(cfg, root)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := requireActiveSession(ctx, store)
	if err != nil {
		return err
	}

	rec, err := restoreReconciler(ctx, store, sess, multiLog)
	if err != nil {
		return err
	}

	ld := newLoader(cfg, multiLog)
	if _, err := loadAndReconcile(ctx, ld, rec, sess); err != nil {
		// Without a listing the paths cannot be matched loosely, but the
		// store can still merge them verbatim into the persisted selection.
		multiLog.LogWarn(fmt.Sprintf("Listing unavailable, merging into stored selection: %v", err))
		added, mergeErr := store.MergeIncludedFiles(ctx, sess.ID, paths)
		if mergeErr != nil {
			return fmt.Errorf("failed to merge relevant files: %w", mergeErr)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nMerged %d new paths into the stored selection\n", added)
		return nil
	}

	result := rec.ApplyFromPaths(paths, true)
	for _, p := range result.Unmatched {
		fmt.Fprintf(cmd.OutOrStderr(), "Warning: %q does not match any listed file\n", p)
	}

	if err := saveHistory(ctx, store, sess.ID, rec); err != nil {
		return err
	}

	included := rec.IncludedPaths()
	excluded := rec.ExcludedPaths()
	multiLog.LogSelectionSummary(rec.Len(), len(included), len(excluded), result.Unmatched)
	printSelection(cmd.OutOrStdout(), included, excluded)
	return nil
}

// fetchJob produces a terminal job from whichever source the flags select:
// a polled remote job, a local command run, or a saved result file. The
// configured relevance command is the fallback when no flag names a source.
func fetchJob(ctx context.Context, cmd *cobra.Command, cfg *config.Config, log runLogger) (*models.Job, error) {
	jobID, _ := cmd.Flags().GetString("job")
	execLine, _ := cmd.Flags().GetString("exec")
	fromPath, _ := cmd.Flags().GetString("from")

	sources := 0
	for _, s := range []string{jobID, execLine, fromPath} {
		if s != "" {
			sources++
		}
	}
	if sources > 1 {
		return nil, fmt.Errorf("only one of --job, --exec, --from may be given")
	}
	if sources == 0 {
		if cfg.Relevance.Command == "" {
			return nil, fmt.Errorf("no result source; pass --job, --exec, or --from, or set relevance.command in the config")
		}
		execLine = cfg.Relevance.Command
	}

	switch {
	case jobID != "":
		endpoint := cfg.Relevance.Endpoint
		if flagEndpoint := changedString(cmd, "endpoint"); flagEndpoint != nil {
			endpoint = *flagEndpoint
		}
		if endpoint == "" {
			return nil, fmt.Errorf("no job endpoint; pass --endpoint or set relevance.endpoint in the config")
		}

		client := relevance.NewHTTPJobClient(endpoint, cfg.RequestTimeout)
		poller := relevance.NewPoller(client, cfg.Relevance.PollInterval, log)
		log.LogInfo(fmt.Sprintf("Waiting for job %s", jobID))
		return poller.Await(ctx, jobID)

	case fromPath != "":
		data, err := os.ReadFile(fromPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read result file: %w", err)
		}
		return &models.Job{
			ID:        fromPath,
			Kind:      relevance.KindRelevanceAssessment,
			Status:    models.JobCompleted,
			RawOutput: string(data),
		}, nil

	default:
		runner, err := relevance.NewCommandRunner(execLine, cfg.RequestTimeout)
		if err != nil {
			return nil, err
		}
		log.LogInfo(fmt.Sprintf("Running %s", execLine))
		return runner.Run(ctx)
	}
}
