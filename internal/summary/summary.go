// Package summary handles display of run results and statistics
package summary

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/bethropolis/rule-sieve/internal/walker"
)

// Logger defines the minimal logging interface required
type Logger interface {
	Info(format string, args ...interface{})
}

// Stats aggregates the outcome counts of one run across all environments.
type Stats struct {
	Files       int64
	Transformed int64
	Unchanged   int64
	NoRule      int64
	Failed      int64
	Duration    time.Duration
}

// DisplayResults shows the end results of a run
func DisplayResults(logger Logger, stats Stats, quiet bool) {
	if quiet {
		return
	}
	logger.Info("Processed %d files: %d transformed, %d unchanged, %d without matching rules, %d failed.",
		stats.Files, stats.Transformed, stats.Unchanged, stats.NoRule, stats.Failed)
	logger.Info("Run complete in %v.", stats.Duration.Round(time.Millisecond))
}

// DisplaySkippedItems formats and prints information about skipped items
func DisplaySkippedItems(
	logger Logger,
	skippedItems []walker.SkippedItem,
	output io.Writer,
	quiet bool,
) {
	infoLog := func(format string, args ...interface{}) {
		if !quiet {
			logger.Info(format, args...)
		}
	}

	infoLog("--- Skipped Items (%d) ---", len(skippedItems))
	if len(skippedItems) > 0 {
		// Sort for consistent output
		sort.Slice(skippedItems, func(i, j int) bool {
			return skippedItems[i].Path < skippedItems[j].Path
		})
		for _, item := range skippedItems {
			typeStr := "FILE"
			if item.IsDir {
				typeStr = "DIR " // Add space for alignment
			}
			// Print to stderr
			fmt.Fprintf(output, "Skipped %s: %-.*s [%s]\n",
				typeStr,
				50, // Max width for path column
				item.Path,
				item.Reason,
			)
		}
		for _, line := range reasonCounts(skippedItems) {
			fmt.Fprintln(output, line)
		}
	} else {
		infoLog("No items were skipped.")
	}
	infoLog("--- End Skipped Items ---")
}

// reasonCounts renders one "count x reason" line per skip reason, most
// frequent first.
func reasonCounts(items []walker.SkippedItem) []string {
	counts := make(map[walker.SkippedReason]int)
	for _, item := range items {
		counts[item.Reason]++
	}

	reasons := make([]walker.SkippedReason, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Slice(reasons, func(i, j int) bool {
		if counts[reasons[i]] != counts[reasons[j]] {
			return counts[reasons[i]] > counts[reasons[j]]
		}
		return reasons[i] < reasons[j]
	})

	lines := make([]string, 0, len(reasons)+1)
	lines = append(lines, "By reason:")
	for _, reason := range reasons {
		lines = append(lines, fmt.Sprintf("  %4d x %s", counts[reason], reason))
	}
	return lines
}
