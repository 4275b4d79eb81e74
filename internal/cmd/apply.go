package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harrison/curator/internal/logger"
	"github.com/harrison/curator/internal/selection"
	"github.com/spf13/cobra"
)

// NewApplyCommand creates the apply command
func NewApplyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply [path]...",
		Short: "Apply a pasted path list to the selection",
		Long: `Apply a list of paths to the active session's selection.

Paths come from the arguments, from a file via --from, or from stdin via
--from -. Each path is matched against the session directory's listing
using the same loose matching as toggle; paths that match nothing are
reported as warnings, never errors. Matched files join the current
selection and always leave the excluded set.

By default the list merges into the selection. With --no-merge the list
becomes the selection: previously included files not on the list are
dropped. --replace is the same hard replacement spelled as an intent.

Examples:
  # Merge two files into the selection
  curator apply src/parser.go src/lexer.go

  # Replace the selection with a pasted list
  pbpaste | curator apply --from - --replace

  # Apply a saved list without merging
  curator apply --from selection.txt --no-merge`,
		RunE: runApply,
	}

	cmd.Flags().String("from", "", "Read paths from a file, or - for stdin")
	cmd.Flags().Bool("replace", false, "Replace the selection instead of merging")
	cmd.Flags().Bool("no-merge", false, "Do not merge; only listed paths stay included")

	return cmd
}

// runApply implements the apply command logic
func runApply(cmd *cobra.Command, args []string) error {
	paths, err := gatherPaths(cmd, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no paths given; pass arguments or --from")
	}

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

	replace, _ := cmd.Flags().GetBool("replace")
	noMerge, _ := cmd.Flags().GetBool("no-merge")

	var result selection.ApplyResult
	if replace {
		result = rec.ReplaceAllFromPaths(paths)
	} else {
		result = rec.ApplyFromPaths(paths, !noMerge)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Matched %d of %d paths\n", len(result.Matched), len(paths))
	for _, p := range result.Unmatched {
		fmt.Fprintf(cmd.OutOrStderr(), "Warning: %q does not match any listed file\n", p)
	}

	if err := saveHistory(ctx, store, sess.ID, rec); err != nil {
		return err
	}

	printSelection(cmd.OutOrStdout(), rec.IncludedPaths(), rec.ExcludedPaths())
	return nil
}

// gatherPaths collects input paths from the arguments and the --from source.
func gatherPaths(cmd *cobra.Command, args []string) ([]string, error) {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			paths = append(paths, trimmed)
		}
	}

	from, _ := cmd.Flags().GetString("from")
	if from == "" {
		return paths, nil
	}

	var reader io.Reader
	if from == "-" {
		reader = cmd.InOrStdin()
	} else {
		file, err := os.Open(from)
		if err != nil {
			return nil, fmt.Errorf("failed to open path list: %w", err)
		}
		defer file.Close()
		reader = file
	}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read path list: %w", err)
	}

	return paths, nil
}
