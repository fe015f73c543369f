// internal/metrics/metrics.go
package metrics

import (
	"sort"

	"github.com/xkilldash9x/vulnbench/api/schemas"
)

// OverallCategory labels the final row of a per-category breakdown. Its
// scores are computed from the summed counts of all categories, not averaged
// from the per-category scores.
const OverallCategory = "Overall"

// Score derives precision, recall and F1 from raw partition counts. Each
// score is 0.0 when its denominator would be zero, so all three are in
// [0, 1] for any non-negative inputs.
func Score(tp, fp, fn int) schemas.Metrics {
	var m schemas.Metrics
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// ByCategory groups the TP/FP/FN partitions by category, scores each group,
// and appends the Overall row. Categories are sorted by name so the breakdown
// is stable across runs.
func ByCategory(result *schemas.ComparisonResult) []schemas.CategoryMetrics {
	type counts struct{ tp, fp, fn int }
	tally := make(map[string]*counts)
	bump := func(category string) *counts {
		c, ok := tally[category]
		if !ok {
			c = &counts{}
			tally[category] = c
		}
		return c
	}

	for _, tp := range result.TP {
		bump(tp.Category).tp++
	}
	for _, fp := range result.FP {
		bump(fp.Category).fp++
	}
	for _, fn := range result.FN {
		bump(fn.Category).fn++
	}

	categories := make([]string, 0, len(tally))
	for c := range tally {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	rows := make([]schemas.CategoryMetrics, 0, len(categories)+1)
	var totalTP, totalFP, totalFN int
	for _, category := range categories {
		c := tally[category]
		rows = append(rows, schemas.CategoryMetrics{
			Category: category,
			TP:       c.tp,
			FP:       c.fp,
			FN:       c.fn,
			Metrics:  Score(c.tp, c.fp, c.fn),
		})
		totalTP += c.tp
		totalFP += c.fp
		totalFN += c.fn
	}

	rows = append(rows, schemas.CategoryMetrics{
		Category: OverallCategory,
		TP:       totalTP,
		FP:       totalFP,
		FN:       totalFN,
		Metrics:  Score(totalTP, totalFP, totalFN),
	})
	return rows
}
