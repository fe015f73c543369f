// File: cmd/compare.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vulnbench/api/schemas"
	"github.com/xkilldash9x/vulnbench/internal/groundtruth"
	"github.com/xkilldash9x/vulnbench/internal/ingest"
	"github.com/xkilldash9x/vulnbench/internal/match"
	"github.com/xkilldash9x/vulnbench/internal/metrics"
	"github.com/xkilldash9x/vulnbench/internal/normalize"
	"github.com/xkilldash9x/vulnbench/internal/observability"
	"github.com/xkilldash9x/vulnbench/internal/reporting"
)

// compareOptions carries every input of one comparison run, so the core
// logic stays testable without cobra.
type compareOptions struct {
	groundTruthPath string
	resultsDir      string
	tolerance       int
	policy          string
	dedupe          bool
	format          string
	outputPath      string
	detailPrefix    string
	verbose         bool
	concurrency     int
}

// newCompareCmd creates and configures the `compare` command.
func newCompareCmd() *cobra.Command {
	var opts compareOptions

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare analyzer findings with a ground-truth defect set",
		Long: `Loads a ground-truth CSV and a directory of analyzer result files, recovers
and normalizes the findings, matches them against the ground truth within the
given line tolerance, and reports TP/FP/FN partitions with precision, recall
and F1 (overall and per defect category).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Flags not set explicitly fall back to the configured defaults.
			if !cmd.Flags().Changed("tolerance") {
				opts.tolerance = cfg.Evaluation.Tolerance
			}
			if !cmd.Flags().Changed("policy") {
				opts.policy = cfg.Evaluation.Policy
			}
			opts.concurrency = cfg.Evaluation.Concurrency

			return runCompare(cmd.Context(), observability.GetLogger(), opts)
		},
	}

	compareCmd.Flags().StringVar(&opts.groundTruthPath, "ground-truth", "", "Ground truth CSV path (columns: contract, line, bug_type) (required)")
	_ = compareCmd.MarkFlagRequired("ground-truth")
	compareCmd.Flags().StringVar(&opts.resultsDir, "results-dir", "", "Directory of analyzer result files (*.sol.json) (required)")
	_ = compareCmd.MarkFlagRequired("results-dir")
	compareCmd.Flags().IntVar(&opts.tolerance, "tolerance", 2, "Line number tolerance for matching")
	compareCmd.Flags().StringVar(&opts.policy, "policy", string(match.PolicyFirstFit), "Matching policy: 'first-fit' or 'closest'")
	compareCmd.Flags().BoolVar(&opts.dedupe, "dedupe", false, "Collapse same-line findings, keeping the highest confidence")
	compareCmd.Flags().StringVarP(&opts.format, "format", "f", "json", "Output format: 'json' or 'csv'")
	compareCmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Output file path. If unset, the report is printed to stdout.")
	compareCmd.Flags().StringVar(&opts.detailPrefix, "prefix", "", "If set, also write <prefix>_{true_positives,false_positives,false_negatives}.csv next to the output")
	compareCmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print detailed FP/FN lists")

	return compareCmd
}

// runCompare contains the core, testable logic of the compare command.
func runCompare(ctx context.Context, logger *zap.Logger, opts compareOptions) error {
	logger.Info("Loading ground truth.", zap.String("path", opts.groundTruthPath))
	truth, err := groundtruth.Load(opts.groundTruthPath, logger)
	if err != nil {
		return err
	}
	logger.Info("Ground truth loaded.", zap.Int("entries", len(truth)))

	logger.Info("Loading analyzer results.", zap.String("dir", opts.resultsDir))
	candidates, err := ingest.NewLoader(logger, opts.concurrency).LoadDir(ctx, opts.resultsDir)
	if err != nil {
		return err
	}
	if opts.dedupe {
		candidates = normalize.DedupeByLine(candidates)
	}
	logger.Info("Findings loaded.", zap.Int("findings", len(candidates)))

	logger.Info("Comparing findings with ground truth.",
		zap.Int("tolerance", opts.tolerance), zap.String("policy", opts.policy))
	result, err := match.CompareWithOptions(candidates, truth, match.Options{
		Tolerance: opts.tolerance,
		Policy:    match.Policy(opts.policy),
	})
	if err != nil {
		return err
	}

	tp, fp, fn := result.Counts()
	summary := &schemas.Summary{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Configuration: schemas.SummaryConfiguration{
			GroundTruth: opts.groundTruthPath,
			ResultsDir:  opts.resultsDir,
			Tolerance:   opts.tolerance,
			Policy:      opts.policy,
		},
		Counts: schemas.SummaryCounts{
			TotalFindings:    len(candidates),
			TotalGroundTruth: len(truth),
			TruePositives:    tp,
			FalsePositives:   fp,
			FalseNegatives:   fn,
		},
		Metrics:    metrics.Score(tp, fp, fn),
		ByCategory: metrics.ByCategory(result),
		Details:    result,
	}

	if err := writeSummary(logger, summary, opts); err != nil {
		return err
	}

	// The human-readable block goes to stderr so stdout stays parseable.
	reporting.PrintSummary(os.Stderr, summary)
	if opts.verbose {
		reporting.PrintDetails(os.Stderr, result, 10)
	}
	return nil
}

// writeSummary emits the report and, when requested, the detail CSVs.
func writeSummary(logger *zap.Logger, summary *schemas.Summary, opts compareOptions) error {
	reporter, err := reporting.New(opts.format, opts.outputPath)
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}
	defer func() {
		if err := reporter.Close(); err != nil {
			logger.Warn("Failed to close reporter cleanly.", zap.Error(err))
		}
	}()

	if err := reporter.Write(summary); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if opts.outputPath != "" {
		logger.Info("Report written.", zap.String("path", opts.outputPath), zap.String("format", opts.format))
	}

	if opts.detailPrefix != "" {
		dir := "."
		if opts.outputPath != "" {
			dir = filepath.Dir(opts.outputPath)
		}
		if err := reporting.WriteDetailCSVs(dir, opts.detailPrefix, summary.Details); err != nil {
			return fmt.Errorf("failed to write detail CSVs: %w", err)
		}
		logger.Info("Detail CSVs written.", zap.String("dir", dir), zap.String("prefix", opts.detailPrefix))
	}
	return nil
}
