// File: cmd/merge.go
package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vulnbench/internal/groundtruth"
	"github.com/xkilldash9x/vulnbench/internal/observability"
)

// newMergeCmd creates and configures the `merge` command.
func newMergeCmd() *cobra.Command {
	var buggyDir string
	var outputPath string

	mergeCmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge per-category bug logs into a single ground-truth CSV",
		Long: `Walks the per-category directories under the buggy-artifacts tree, merges
every BugLog_*.csv into one ground-truth CSV (bug_id, contract, line,
bug_type, approach) and prints a per-category breakdown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			stats, err := groundtruth.Merge(buggyDir, outputPath, logger)
			if err != nil {
				return err
			}
			printMergeStats(stats, outputPath)
			return nil
		},
	}

	mergeCmd.Flags().StringVar(&buggyDir, "buggy-dir", "buggy", "Directory holding per-category bug logs")
	mergeCmd.Flags().StringVarP(&outputPath, "output", "o", "merged_bug_logs.csv", "Merged ground-truth CSV path")

	return mergeCmd
}

func printMergeStats(stats *groundtruth.MergeStats, outputPath string) {
	w := os.Stderr
	fmt.Fprintln(w, "============================================================")
	fmt.Fprintln(w, "MERGED GROUND TRUTH STATISTICS")
	fmt.Fprintln(w, "============================================================")
	fmt.Fprintf(w, "Total bug instances: %d\n\n", stats.Total)
	fmt.Fprintf(w, "  %-25s %8s %12s\n", "Type", "Bugs", "Contracts")

	categories := make([]string, 0, len(stats.ByCategory))
	for c := range stats.ByCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		cs := stats.ByCategory[c]
		fmt.Fprintf(w, "  %-25s %8d %12d\n", c, cs.Bugs, cs.Artifacts)
	}
	fmt.Fprintf(w, "\nGround truth file created: %s\n", outputPath)

	observability.GetLogger().Debug("Merge complete.", zap.Int("total", stats.Total))
}
