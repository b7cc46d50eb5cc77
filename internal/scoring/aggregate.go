// Package scoring implements the deterministic aggregation primitives and
// the assessment risk scorer. Everything here is a pure function over its
// arguments: no I/O, no ambient state, safe to call concurrently.
package scoring

import (
	"sort"

	"github.com/rotisserie/eris"
)

// ErrLengthMismatch is returned when values and weights have different
// non-zero lengths. Mismatched inputs are a programmer error and are never
// silently coerced.
var ErrLengthMismatch = eris.New("scoring: values and weights length mismatch")

// WeightedSum returns the elementwise product-sum of values and weights.
// Empty or nil inputs yield 0; a length mismatch between two non-empty
// slices is an error.
func WeightedSum(values, weights []float64) (float64, error) {
	if len(values) == 0 || len(weights) == 0 {
		return 0, nil
	}
	if len(values) != len(weights) {
		return 0, eris.Wrapf(ErrLengthMismatch, "got %d values, %d weights", len(values), len(weights))
	}
	var sum float64
	for i, v := range values {
		sum += v * weights[i]
	}
	return sum, nil
}

// WeightedAverage returns WeightedSum divided by the total weight. A zero
// total weight yields 0 rather than dividing by zero; sections with no
// answered questions reach this path in practice.
func WeightedAverage(values, weights []float64) (float64, error) {
	sum, err := WeightedSum(values, weights)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return 0, nil
	}
	return sum / total, nil
}

// ScaleScore linearly rescales score from [fromMin, fromMax] onto
// [toMin, toMax], clamping score into the source range first. A degenerate
// source range yields toMin.
func ScaleScore(score, fromMin, fromMax, toMin, toMax float64) float64 {
	if fromMax == fromMin {
		return toMin
	}
	if score < fromMin {
		score = fromMin
	}
	if score > fromMax {
		score = fromMax
	}
	return toMin + (score-fromMin)/(fromMax-fromMin)*(toMax-toMin)
}

// ScoreStats summarizes a score distribution.
type ScoreStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Count  int     `json:"count"`
}

// Stats computes min/max/mean/median over the scores. All fields are zero
// for empty input. The median uses the standard midpoint rule on a sorted
// copy; the input slice is not modified.
func Stats(scores []float64) ScoreStats {
	if len(scores) == 0 {
		return ScoreStats{}
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	var sum float64
	for _, s := range sorted {
		sum += s
	}

	n := len(sorted)
	var median float64
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return ScoreStats{
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   sum / float64(n),
		Median: median,
		Count:  n,
	}
}
