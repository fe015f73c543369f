package schemas

import "time"

// -- Comparison Schemas --

// TruePositive records a candidate finding that matched a ground-truth entry
// within the configured position tolerance.
type TruePositive struct {
	Artifact          string `json:"contract"`
	Category          string `json:"bug_type"`
	CandidatePosition int    `json:"llm_line"`   // Line reported by the evaluated tool.
	TruthPosition     int    `json:"truth_line"` // Line of the matched ground-truth entry.
	Offset            int    `json:"diff"`       // Signed difference: candidate - truth.
}

// FalsePositive records a candidate finding with no in-tolerance ground-truth
// counterpart.
type FalsePositive struct {
	Artifact string `json:"contract"`
	Category string `json:"bug_type"`
	Position int    `json:"line"`
}

// FalseNegative records a ground-truth entry no candidate matched.
type FalseNegative struct {
	Artifact string `json:"contract"`
	Category string `json:"bug_type"`
	Position int    `json:"line"`
}

// ComparisonResult holds the three disjoint partitions produced by a single
// comparison run. Every candidate with a valid position lands in exactly one
// of TP or FP; every ground-truth entry lands in exactly one of TP (as the
// matched side) or FN. The struct is created fresh per run and never mutated
// afterwards.
type ComparisonResult struct {
	TP []TruePositive  `json:"TP"`
	FP []FalsePositive `json:"FP"`
	FN []FalseNegative `json:"FN"`
}

// Counts returns the sizes of the three partitions.
func (r *ComparisonResult) Counts() (tp, fp, fn int) {
	return len(r.TP), len(r.FP), len(r.FN)
}

// Metrics holds the three derived detection-quality scores, each in [0, 1].
type Metrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
}

// CategoryMetrics is one row of the per-category breakdown: the raw partition
// counts for a single defect category plus the scores derived from them. The
// breakdown always ends with an "Overall" row computed from summed counts.
type CategoryMetrics struct {
	Category string `json:"bug_type"`
	TP       int    `json:"tp"`
	FP       int    `json:"fp"`
	FN       int    `json:"fn"`
	Metrics
}

// -- Report Envelope --

// SummaryConfiguration echoes the inputs of a comparison run so a report is
// self-describing.
type SummaryConfiguration struct {
	GroundTruth string `json:"ground_truth"`
	ResultsDir  string `json:"results_dir"`
	Tolerance   int    `json:"line_tolerance"`
	Policy      string `json:"match_policy"`
}

// SummaryCounts aggregates the headline numbers of a comparison run.
type SummaryCounts struct {
	TotalFindings    int `json:"total_findings"`
	TotalGroundTruth int `json:"total_ground_truth"`
	TruePositives    int `json:"true_positives"`
	FalsePositives   int `json:"false_positives"`
	FalseNegatives   int `json:"false_negatives"`
}

// Summary is the full report envelope for one comparison run. It maps
// directly to the JSON summary file consumed by downstream analysis.
type Summary struct {
	RunID         string               `json:"run_id"`
	GeneratedAt   time.Time            `json:"generated_at"`
	Configuration SummaryConfiguration `json:"configuration"`
	Counts        SummaryCounts        `json:"counts"`
	Metrics       Metrics              `json:"metrics"`
	ByCategory    []CategoryMetrics    `json:"metrics_by_bug_type,omitempty"`
	Details       *ComparisonResult    `json:"details,omitempty"`
}
