// internal/match/match.go
package match

import (
	"fmt"

	"github.com/xkilldash9x/vulnbench/api/schemas"
)

// Policy selects how a candidate picks among multiple unconsumed truth
// entries within tolerance. The historical behavior is first-fit in truth
// order; closest-distance is offered because first-fit can prefer a farther
// line when truth entries cluster, which surprises some consumers. Changing
// the policy changes historical metrics, so it is explicit, never implied.
type Policy string

const (
	// PolicyFirstFit matches the earliest unconsumed in-tolerance truth entry
	// in bucket order, even when a later entry is a closer line match.
	PolicyFirstFit Policy = "first-fit"
	// PolicyClosest matches the unconsumed in-tolerance truth entry with the
	// smallest absolute position difference; ties go to the earlier entry.
	PolicyClosest Policy = "closest"
)

// Valid reports whether p names a known matching policy.
func (p Policy) Valid() bool {
	return p == PolicyFirstFit || p == PolicyClosest
}

// Options configures a single comparison run.
type Options struct {
	// Tolerance is the maximum allowed absolute difference between a
	// candidate's position and a truth entry's position. Zero degenerates to
	// exact-position matching. Always caller-supplied; there is no default.
	Tolerance int
	// Policy selects the tie-break rule. Empty means PolicyFirstFit.
	Policy Policy
}

// matchKey identifies a ground-truth bucket. Artifact and category identity
// is exact-string equality, never fuzzy.
type matchKey struct {
	artifact string
	category string
}

// truthEntry is one bucketed ground-truth position plus its consumed marker.
// The slice of entries and the buckets pointing into it live only for the
// duration of one Compare call, so concurrent comparisons never share state.
type truthEntry struct {
	schemas.GroundTruthEntry
	consumed bool
}

// Compare correlates candidates against the ground-truth set using the
// historical first-fit policy. See CompareWithOptions.
func Compare(candidates []schemas.Finding, truth []schemas.GroundTruthEntry, tolerance int) (*schemas.ComparisonResult, error) {
	return CompareWithOptions(candidates, truth, Options{Tolerance: tolerance, Policy: PolicyFirstFit})
}

// CompareWithOptions partitions the candidates and the ground truth into
// disjoint TP/FP/FN lists.
//
// Ground truth is bucketed by (artifact, category) in input order, with exact
// duplicate tuples collapsed (set semantics). Candidates are processed in
// input order; each consumes at most one truth entry and each truth entry
// matches at most one candidate. A candidate with no unconsumed in-tolerance
// entry in its bucket becomes an FP; truth entries left unconsumed become
// FNs, in input order.
//
// A negative tolerance is a programmer error and fails fast.
func CompareWithOptions(candidates []schemas.Finding, truth []schemas.GroundTruthEntry, opts Options) (*schemas.ComparisonResult, error) {
	if opts.Tolerance < 0 {
		return nil, fmt.Errorf("match: tolerance must be >= 0, got %d", opts.Tolerance)
	}
	policy := opts.Policy
	if policy == "" {
		policy = PolicyFirstFit
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("match: unknown policy %q", policy)
	}

	// Bucket the truth set, preserving input order and collapsing duplicates.
	entries := make([]*truthEntry, 0, len(truth))
	buckets := make(map[matchKey][]*truthEntry, len(truth))
	seen := make(map[schemas.GroundTruthEntry]struct{}, len(truth))
	for _, gt := range truth {
		if _, dup := seen[gt]; dup {
			continue
		}
		seen[gt] = struct{}{}
		e := &truthEntry{GroundTruthEntry: gt}
		entries = append(entries, e)
		k := matchKey{gt.Artifact, gt.Category}
		buckets[k] = append(buckets[k], e)
	}

	result := &schemas.ComparisonResult{
		TP: []schemas.TruePositive{},
		FP: []schemas.FalsePositive{},
		FN: []schemas.FalseNegative{},
	}

	for _, cand := range candidates {
		bucket := buckets[matchKey{cand.Artifact, cand.Category}]
		if hit := pick(bucket, cand.Position, opts.Tolerance, policy); hit != nil {
			hit.consumed = true
			result.TP = append(result.TP, schemas.TruePositive{
				Artifact:          cand.Artifact,
				Category:          cand.Category,
				CandidatePosition: cand.Position,
				TruthPosition:     hit.Position,
				Offset:            cand.Position - hit.Position,
			})
			continue
		}
		result.FP = append(result.FP, schemas.FalsePositive{
			Artifact: cand.Artifact,
			Category: cand.Category,
			Position: cand.Position,
		})
	}

	for _, e := range entries {
		if e.consumed {
			continue
		}
		result.FN = append(result.FN, schemas.FalseNegative{
			Artifact: e.Artifact,
			Category: e.Category,
			Position: e.Position,
		})
	}

	return result, nil
}

// pick selects the truth entry a candidate at the given position consumes, or
// nil when the bucket holds no unconsumed entry within tolerance.
func pick(bucket []*truthEntry, position, tolerance int, policy Policy) *truthEntry {
	var best *truthEntry
	bestDist := 0
	for _, e := range bucket {
		if e.consumed {
			continue
		}
		dist := absInt(position - e.Position)
		if dist > tolerance {
			continue
		}
		if policy == PolicyFirstFit {
			return e
		}
		// Closest-distance with earlier-entry tie-break.
		if best == nil || dist < bestDist {
			best = e
			bestDist = dist
		}
	}
	return best
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
