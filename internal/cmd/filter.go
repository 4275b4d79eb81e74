package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrison/curator/internal/config"
	"github.com/harrison/curator/internal/fileutil"
	"github.com/harrison/curator/internal/filter"
	"github.com/harrison/curator/internal/logger"
	"github.com/harrison/curator/internal/pathutil"
	"github.com/harrison/curator/internal/selection"
	"github.com/spf13/cobra"
)

// NewFilterCommand creates the filter command
func NewFilterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter <directory> [term]",
		Short: "Search a directory listing without changing the selection",
		Long: `Filter a directory's file listing for display.

An optional search term matches paths case-insensitively. Four regex
slots narrow further: --title and --content keep matching files,
--no-title and --no-content remove them. Giving any slot switches the
mode to regex automatically. Content patterns read file contents from
disk; the other stages only look at paths.

With --mode selected, only files included in the active session's
selection pass through. Filtering never modifies the selection.

A malformed pattern disables its slot with a warning; the remaining
stages still run.

Examples:
  # All files under src/ whose path mentions parser
  curator filter src parser

  # Go files that declare a main function
  curator filter . --title '\.go$' --content 'func main\('

  # Currently selected files, minus generated code
  curator filter . --mode selected --no-title '_gen\.go$'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runFilter,
	}

	cmd.Flags().String("mode", "all", "Filter mode: all, selected, or regex")
	cmd.Flags().String("title", "", "Keep files whose path matches this regex")
	cmd.Flags().String("content", "", "Keep files whose content matches this regex")
	cmd.Flags().String("no-title", "", "Remove files whose path matches this regex")
	cmd.Flags().String("no-content", "", "Remove files whose content matches this regex")
	cmd.Flags().String("pattern", "", "Regex files must match to be listed at all")

	return cmd
}

// runFilter implements the filter command logic
func runFilter(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadCommandConfig(cmd)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve directory %q: %w", args[0], err)
	}
	dir := pathutil.NormalizeDirectory(abs)

	term := ""
	if len(args) == 2 {
		term = args[1]
	}

	patterns := filter.Patterns{}
	patterns.Title, _ = cmd.Flags().GetString("title")
	patterns.Content, _ = cmd.Flags().GetString("content")
	patterns.NegativeTitle, _ = cmd.Flags().GetString("no-title")
	patterns.NegativeContent, _ = cmd.Flags().GetString("no-content")

	modeStr, _ := cmd.Flags().GetString("mode")
	// A pattern slot implies regex mode unless the user pinned one explicitly
	if !cmd.Flags().Changed("mode") && !patterns.Empty() {
		modeStr = string(filter.ModeRegex)
	}
	mode, err := filter.ParseMode(modeStr)
	if err != nil {
		return err
	}

	consoleLog := logger.NewConsoleLogger(os.Stdout, cfg.LogLevel)

	ctx := context.Background()

	ld := newLoader(cfg, consoleLog)
	if !ld.Load(ctx, dir) {
		return failLoad(consoleLog, dir, ld.State())
	}

	rec := selection.NewReconciler(nil, consoleLog)
	included, excluded := sessionListsFor(ctx, cfg, root, dir)
	rec.Reconcile(ld.State().Files, included, excluded)

	files := rec.Files()

	// Content slots need file bytes; everything else runs off the listing
	var contents map[string]string
	if mode == filter.ModeRegex && (patterns.Content != "" || patterns.NegativeContent != "") {
		keys := make([]string, 0, len(files))
		for key := range files {
			keys = append(keys, key)
		}
		contents = fileutil.ReadContents(ld.Directory(), keys)
	}

	result := filter.Filter(files, contents, term, mode, patterns)

	for _, msg := range []string{
		result.Errors.Title,
		result.Errors.Content,
		result.Errors.NegativeTitle,
		result.Errors.NegativeContent,
	} {
		if msg != "" {
			fmt.Fprintf(cmd.OutOrStderr(), "Warning: %s\n", msg)
		}
	}

	if len(result.Files) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No files matched.\n")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d files matched:\n", len(result.Files), len(files))
	printFileTable(cmd.OutOrStdout(), result.Files, cfg.IncludeStats)
	return nil
}

// sessionListsFor returns the persisted selection lists when the active
// session manages the filtered directory, so --mode selected reflects it.
// Filtering works without any session; failures just mean empty lists.
func sessionListsFor(ctx context.Context, cfg *config.Config, root, dir string) ([]string, []string) {
	store, err := openStore(cfg, root)
	if err != nil {
		return nil, nil
	}
	defer store.Close()

	sess, err := store.ActiveSession(ctx)
	if err != nil || sess == nil {
		return nil, nil
	}
	if pathutil.NormalizeDirectory(sess.Directory) != dir {
		return nil, nil
	}
	return sess.IncludedFiles, sess.ExcludedFiles
}
