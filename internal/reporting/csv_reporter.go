// internal/reporting/csv_reporter.go
package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xkilldash9x/vulnbench/api/schemas"
)

// metricsHeader is the column layout of the per-category metrics table. TN is
// carried for spreadsheet compatibility and is always 0: true negatives are
// not measurable for this kind of dataset.
var metricsHeader = []string{"Bug_Type", "TP", "FP", "TN", "FN", "Precision", "Recall", "F1_Score"}

// csvReporter writes the per-category metrics breakdown as a CSV table, one
// row per category plus the Overall row.
type csvReporter struct {
	writer io.WriteCloser
}

// NewCSVReporter creates a CSV metrics reporter. It takes ownership of the
// writer.
func NewCSVReporter(writer io.WriteCloser) Reporter {
	return &csvReporter{writer: writer}
}

func (r *csvReporter) Write(summary *schemas.Summary) error {
	w := csv.NewWriter(r.writer)
	if err := w.Write(metricsHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range summary.ByCategory {
		record := []string{
			row.Category,
			strconv.Itoa(row.TP),
			strconv.Itoa(row.FP),
			"0",
			strconv.Itoa(row.FN),
			formatScore(row.Precision),
			formatScore(row.Recall),
			formatScore(row.F1),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", row.Category, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}
	return nil
}

func (r *csvReporter) Close() error {
	return r.writer.Close()
}

// WriteDetailCSVs writes the three partition detail tables next to each
// other: <prefix>_true_positives.csv, <prefix>_false_positives.csv and
// <prefix>_false_negatives.csv under dir.
func WriteDetailCSVs(dir, prefix string, result *schemas.ComparisonResult) error {
	tp := make([][]string, 0, len(result.TP))
	for _, t := range result.TP {
		tp = append(tp, []string{t.Artifact, t.Category,
			strconv.Itoa(t.CandidatePosition), strconv.Itoa(t.TruthPosition), strconv.Itoa(t.Offset)})
	}
	if err := writeDetailCSV(dir, prefix+"_true_positives.csv",
		[]string{"contract", "bug_type", "llm_line", "truth_line", "diff"}, tp); err != nil {
		return err
	}

	fp := make([][]string, 0, len(result.FP))
	for _, f := range result.FP {
		fp = append(fp, []string{f.Artifact, f.Category, strconv.Itoa(f.Position)})
	}
	if err := writeDetailCSV(dir, prefix+"_false_positives.csv",
		[]string{"contract", "bug_type", "line"}, fp); err != nil {
		return err
	}

	fn := make([][]string, 0, len(result.FN))
	for _, f := range result.FN {
		fn = append(fn, []string{f.Artifact, f.Category, strconv.Itoa(f.Position)})
	}
	return writeDetailCSV(dir, prefix+"_false_negatives.csv",
		[]string{"contract", "bug_type", "line"}, fn)
}

func writeDetailCSV(dir, name string, header []string, rows [][]string) error {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create detail CSV %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows of %s: %w", path, err)
	}
	w.Flush()
	return w.Error()
}

// formatScore renders a score rounded to four decimals, trimming the noise
// floats would otherwise print with.
func formatScore(f float64) string {
	return strconv.FormatFloat(round4(f), 'g', -1, 64)
}
