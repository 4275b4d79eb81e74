package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/harrison/curator/internal/models"
	"github.com/mattn/go-isatty"
)

// selectionColors returns the color set used for selection output. Colors
// are disabled when stdout is not a terminal so piped output stays clean.
func selectionColors() (included, excluded, header *color.Color) {
	included = color.New(color.FgGreen)
	excluded = color.New(color.FgYellow)
	header = color.New(color.Bold)

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		included.DisableColor()
		excluded.DisableColor()
		header.DisableColor()
	}
	return included, excluded, header
}

// printSelection renders the derived included and excluded path lists.
func printSelection(w io.Writer, included, excluded []string) {
	if len(included) == 0 && len(excluded) == 0 {
		fmt.Fprintf(w, "\nNo files selected.\n")
		return
	}

	green, yellow, header := selectionColors()

	if len(included) > 0 {
		header.Fprintf(w, "\nIncluded files:\n")
		for _, path := range included {
			green.Fprintf(w, "  + %s\n", path)
		}
	}
	if len(excluded) > 0 {
		header.Fprintf(w, "\nExcluded files:\n")
		for _, path := range excluded {
			yellow.Fprintf(w, "  - %s\n", path)
		}
	}
}

// printFileTable renders filter results with selection markers and sizes.
// The marker column mirrors the selection state: "+" included, "-" force
// excluded, " " unselected.
func printFileTable(w io.Writer, files []models.FileRecord, withSizes bool) {
	green, yellow, _ := selectionColors()

	for _, rec := range files {
		line := rec.Path
		if withSizes && rec.Size > 0 {
			line = fmt.Sprintf("%s (%s)", rec.Path, formatSize(rec.Size))
		}

		switch {
		case rec.ForceExcluded:
			yellow.Fprintf(w, "- %s\n", line)
		case rec.Selected():
			green.Fprintf(w, "+ %s\n", line)
		default:
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

// formatSize renders a byte count in a compact human form.
func formatSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
