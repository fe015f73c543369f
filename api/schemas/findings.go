package schemas

// -- Finding Schemas --

// Confidence represents how certain the reporting tool was about a finding.
// The values are lowercase to align with the JSON emitted by the analyzers.
type Confidence string

// Constants defining the standard confidence levels for findings.
const (
	ConfidenceHigh   Confidence = "high"   // The analyzer is certain about the finding.
	ConfidenceMedium Confidence = "medium" // The analyzer has moderate certainty.
	ConfidenceLow    Confidence = "low"    // The analyzer is guessing; default for unlabeled findings.
	ConfidenceUnset  Confidence = ""       // No confidence was supplied and no default applied.
)

// Rank maps a confidence level to an integer ordering, used when deduplicating
// findings that land on the same line (higher wins).
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Finding is a single normalized defect report attributed to an artifact.
// Artifact and Category together form the matching key used by the match
// engine; Position is a 1-based line number and is always > 0 after
// normalization.
type Finding struct {
	Artifact   string     `json:"contract"`               // The analyzed source unit (e.g., "buggy_12.sol").
	Category   string     `json:"bug_type"`               // The defect classification label (e.g., "Re-entrancy").
	Position   int        `json:"line_number"`            // 1-based line number of the finding.
	Confidence Confidence `json:"confidence,omitempty"`   // Reported confidence level.
	Snippet    string     `json:"code_snippet,omitempty"` // The offending source line, if reported.
}

// GroundTruthEntry is a single known defect from the ground-truth set.
// Duplicate (artifact, category, position) tuples collapse to one entry
// before matching.
type GroundTruthEntry struct {
	Artifact string `json:"contract"`
	Category string `json:"bug_type"`
	Position int    `json:"line"`
}
