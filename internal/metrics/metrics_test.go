// internal/metrics/metrics_test.go
package metrics_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/vulnbench/api/schemas"
	"github.com/xkilldash9x/vulnbench/internal/match"
	"github.com/xkilldash9x/vulnbench/internal/metrics"
)

func TestScore(t *testing.T) {
	cases := []struct {
		name          string
		tp, fp, fn    int
		precision     float64
		recall        float64
		f1            float64
	}{
		{"perfect", 10, 0, 0, 1.0, 1.0, 1.0},
		{"balanced", 6, 2, 2, 0.75, 0.75, 0.75},
		{"all empty", 0, 0, 0, 0, 0, 0},
		{"no predictions", 0, 0, 5, 0, 0, 0},
		{"all wrong", 0, 5, 5, 0, 0, 0},
		{"no truth", 0, 5, 0, 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := metrics.Score(tc.tp, tc.fp, tc.fn)
			assert.InDelta(t, tc.precision, m.Precision, 1e-9)
			assert.InDelta(t, tc.recall, m.Recall, 1e-9)
			assert.InDelta(t, tc.f1, m.F1, 1e-9)
		})
	}
}

func TestScore_Bounds(t *testing.T) {
	for _, counts := range [][3]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {3, 7, 2}, {100, 1, 99}} {
		m := metrics.Score(counts[0], counts[1], counts[2])
		assert.GreaterOrEqual(t, m.Precision, 0.0)
		assert.LessOrEqual(t, m.Precision, 1.0)
		assert.GreaterOrEqual(t, m.Recall, 0.0)
		assert.LessOrEqual(t, m.Recall, 1.0)
		assert.GreaterOrEqual(t, m.F1, 0.0)
		assert.LessOrEqual(t, m.F1, 1.0)
	}
}

func TestScore_F1IsHarmonicMean(t *testing.T) {
	m := metrics.Score(9, 1, 10)
	assert.InDelta(t, 0.9, m.Precision, 1e-9)
	assert.InDelta(t, 9.0/19.0, m.Recall, 1e-9)
	want := 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	assert.InDelta(t, want, m.F1, 1e-9)
}

func TestByCategory(t *testing.T) {
	result := &schemas.ComparisonResult{
		TP: []schemas.TruePositive{
			{Artifact: "c1.sol", Category: "Re-entrancy", CandidatePosition: 11, TruthPosition: 10, Offset: 1},
			{Artifact: "c2.sol", Category: "Re-entrancy", CandidatePosition: 5, TruthPosition: 5},
			{Artifact: "c3.sol", Category: "TOD", CandidatePosition: 8, TruthPosition: 8},
		},
		FP: []schemas.FalsePositive{
			{Artifact: "c1.sol", Category: "TOD", Position: 40},
		},
		FN: []schemas.FalseNegative{
			{Artifact: "c4.sol", Category: "tx.origin", Position: 3},
		},
	}

	rows := metrics.ByCategory(result)
	require.Len(t, rows, 4) // three categories plus the Overall row

	// Alphabetical category order, Overall last.
	assert.Equal(t, "Re-entrancy", rows[0].Category)
	assert.Equal(t, "TOD", rows[1].Category)
	assert.Equal(t, "tx.origin", rows[2].Category)
	assert.Equal(t, metrics.OverallCategory, rows[3].Category)

	assert.Equal(t, 2, rows[0].TP)
	assert.Equal(t, 0, rows[0].FP)
	assert.InDelta(t, 1.0, rows[0].Precision, 1e-9)

	assert.Equal(t, 1, rows[1].TP)
	assert.Equal(t, 1, rows[1].FP)
	assert.InDelta(t, 0.5, rows[1].Precision, 1e-9)

	assert.Equal(t, 0, rows[2].TP)
	assert.Equal(t, 1, rows[2].FN)
	assert.InDelta(t, 0.0, rows[2].Recall, 1e-9)

	overall := rows[3]
	assert.Equal(t, 3, overall.TP)
	assert.Equal(t, 1, overall.FP)
	assert.Equal(t, 1, overall.FN)
}

func TestByCategory_OverallUsesSummedCountsNotAveragedScores(t *testing.T) {
	// catA: tp=9 fp=1 fn=0, catB: tp=0 fp=0 fn=10. Averaging the per-category
	// F1 scores would give ~0.47; pooling the counts gives ~0.62.
	result := &schemas.ComparisonResult{FP: []schemas.FalsePositive{{Artifact: "a", Category: "catA", Position: 1}}}
	for i := 0; i < 9; i++ {
		result.TP = append(result.TP, schemas.TruePositive{Artifact: "a", Category: "catA", CandidatePosition: i + 1, TruthPosition: i + 1})
	}
	for i := 0; i < 10; i++ {
		result.FN = append(result.FN, schemas.FalseNegative{Artifact: "b", Category: "catB", Position: i + 1})
	}

	rows := metrics.ByCategory(result)
	require.Len(t, rows, 3)

	overall := rows[len(rows)-1]
	require.Equal(t, metrics.OverallCategory, overall.Category)
	assert.InDelta(t, 0.9, overall.Precision, 1e-9)
	assert.InDelta(t, 9.0/19.0, overall.Recall, 1e-9)

	pooled := metrics.Score(9, 1, 10)
	assert.InDelta(t, pooled.F1, overall.F1, 1e-9)

	averaged := (rows[0].F1 + rows[1].F1) / 2
	assert.Greater(t, math.Abs(averaged-overall.F1), 0.05)
}

func TestByCategory_EmptyResult(t *testing.T) {
	rows := metrics.ByCategory(&schemas.ComparisonResult{})
	require.Len(t, rows, 1)
	assert.Equal(t, metrics.OverallCategory, rows[0].Category)
	assert.Zero(t, rows[0].TP)
	assert.Zero(t, rows[0].F1)
}

func TestByCategory_AgreesWithCompare(t *testing.T) {
	candidates := []schemas.Finding{
		{Artifact: "c1.sol", Category: "TOD", Position: 6},
		{Artifact: "c1.sol", Category: "TOD", Position: 25},
	}
	gt := []schemas.GroundTruthEntry{
		{Artifact: "c1.sol", Category: "TOD", Position: 5},
		{Artifact: "c1.sol", Category: "TOD", Position: 50},
	}

	result, err := match.Compare(candidates, gt, 2)
	require.NoError(t, err)

	rows := metrics.ByCategory(result)
	require.Len(t, rows, 2)
	tp, fp, fn := result.Counts()
	overall := rows[len(rows)-1]
	assert.Equal(t, tp, overall.TP)
	assert.Equal(t, fp, overall.FP)
	assert.Equal(t, fn, overall.FN)
}
