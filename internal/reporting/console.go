// internal/reporting/console.go
package reporting

import (
	"fmt"
	"io"

	"github.com/xkilldash9x/vulnbench/api/schemas"
)

const rule = "============================================================"
const thinRule = "------------------------------------------------------------"

// PrintSummary renders the headline numbers of a comparison run as a
// human-readable block.
func PrintSummary(w io.Writer, summary *schemas.Summary) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "COMPARISON SUMMARY")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total Findings:        %d\n", summary.Counts.TotalFindings)
	fmt.Fprintf(w, "Total Ground Truth:    %d\n", summary.Counts.TotalGroundTruth)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "True Positives (TP):   %d\n", summary.Counts.TruePositives)
	fmt.Fprintf(w, "False Positives (FP):  %d\n", summary.Counts.FalsePositives)
	fmt.Fprintf(w, "False Negatives (FN):  %d\n", summary.Counts.FalseNegatives)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Precision:             %.2f%%\n", summary.Metrics.Precision*100)
	fmt.Fprintf(w, "Recall:                %.2f%%\n", summary.Metrics.Recall*100)
	fmt.Fprintf(w, "F1 Score:              %.4f\n", round4(summary.Metrics.F1))
	fmt.Fprintln(w, rule)
}

// PrintDetails lists the false positives and false negatives of a run, at
// most limit entries per table (0 means all).
func PrintDetails(w io.Writer, result *schemas.ComparisonResult, limit int) {
	fmt.Fprintln(w, thinRule)
	fmt.Fprintln(w, "FALSE POSITIVES (detected, but not in ground truth):")
	fmt.Fprintln(w, thinRule)
	shown := 0
	for _, fp := range result.FP {
		if limit > 0 && shown >= limit {
			break
		}
		fmt.Fprintf(w, "  %-20s | %-20s | Line %d\n", fp.Artifact, fp.Category, fp.Position)
		shown++
	}
	if rest := len(result.FP) - shown; rest > 0 {
		fmt.Fprintf(w, "  ... and %d more\n", rest)
	}

	fmt.Fprintln(w, thinRule)
	fmt.Fprintln(w, "FALSE NEGATIVES (ground truth missed):")
	fmt.Fprintln(w, thinRule)
	shown = 0
	for _, fn := range result.FN {
		if limit > 0 && shown >= limit {
			break
		}
		fmt.Fprintf(w, "  %-20s | %-20s | Line %d\n", fn.Artifact, fn.Category, fn.Position)
		shown++
	}
	if rest := len(result.FN) - shown; rest > 0 {
		fmt.Fprintf(w, "  ... and %d more\n", rest)
	}
}
