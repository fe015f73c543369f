// internal/normalize/normalize.go
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/xkilldash9x/vulnbench/api/schemas"
)

// CoerceLine coerces a position-like value (integer, float, float-as-string
// or numeric string) to a strictly positive 1-based line number. The boolean
// is false when the value is missing, unparseable or <= 0.
func CoerceLine(v any) (int, bool) {
	var n int
	switch t := v.(type) {
	case nil:
		return 0, false
	case int:
		n = t
	case int64:
		n = int(t)
	case float64:
		n = int(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		n = int(f)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		// Parse through float64 so "42.0" coerces the same way "42" does.
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		n = int(f)
	default:
		return 0, false
	}
	if n <= 0 {
		return 0, false
	}
	return n, true
}

// Confidence trims and lowers a raw confidence label. Missing or unknown
// labels default to low, matching how unlabeled findings are treated
// downstream.
func Confidence(v any) schemas.Confidence {
	s, _ := v.(string)
	switch schemas.Confidence(strings.ToLower(strings.TrimSpace(s))) {
	case schemas.ConfidenceHigh:
		return schemas.ConfidenceHigh
	case schemas.ConfidenceMedium:
		return schemas.ConfidenceMedium
	default:
		return schemas.ConfidenceLow
	}
}

// Normalize validates and coerces raw finding records into canonical
// findings. Records whose position fails to coerce to a positive integer are
// dropped. The artifact is always taken from the enclosing report; the
// category falls back to the enclosing report's when a record omits its own.
// Output order matches input order, which the match engine's first-fit policy
// depends on. The transformation is pure.
func Normalize(raw []any, artifact, category string) []schemas.Finding {
	findings := make([]schemas.Finding, 0, len(raw))
	for _, r := range raw {
		rec, ok := r.(map[string]any)
		if !ok {
			continue
		}
		pos, ok := CoerceLine(rec["line_number"])
		if !ok {
			continue
		}
		cat := strings.TrimSpace(stringField(rec, "bug_type"))
		if cat == "" {
			cat = strings.TrimSpace(category)
		}
		findings = append(findings, schemas.Finding{
			Artifact:   strings.TrimSpace(artifact),
			Category:   cat,
			Position:   pos,
			Confidence: Confidence(rec["confidence"]),
			Snippet:    strings.TrimSpace(stringField(rec, "code_snippet")),
		})
	}
	return findings
}

// DedupeByLine collapses findings that share (artifact, category, position),
// keeping the highest-confidence record per line. First-seen order of the
// surviving lines is preserved.
func DedupeByLine(findings []schemas.Finding) []schemas.Finding {
	type key struct {
		artifact string
		category string
		position int
	}
	index := make(map[key]int, len(findings))
	out := make([]schemas.Finding, 0, len(findings))
	for _, f := range findings {
		k := key{f.Artifact, f.Category, f.Position}
		if i, seen := index[k]; seen {
			if f.Confidence.Rank() > out[i].Confidence.Rank() {
				out[i] = f
			}
			continue
		}
		index[k] = len(out)
		out = append(out, f)
	}
	return out
}

func stringField(rec map[string]any, name string) string {
	s, _ := rec[name].(string)
	return s
}
