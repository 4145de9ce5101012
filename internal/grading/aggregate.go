package grading

import (
	"math"

	"github.com/invigil/invigil/internal/exam"
)

// Total sums a grade vector. NaN and infinite entries count as zero so a
// malformed vector can never abort aggregation.
func Total(scores []float64) float64 {
	total := 0.0
	for _, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			continue
		}
		total += s
	}
	return total
}

// MaxTotal sums the point values of a question sequence.
func MaxTotal(questions []exam.Question) float64 {
	total := 0.0
	for _, q := range questions {
		total += q.Points
	}
	return total
}

// ClampScore truncates a score input to [0, max]. Out-of-range input degrades
// to a valid score rather than erroring; NaN collapses to zero.
func ClampScore(v, max float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
