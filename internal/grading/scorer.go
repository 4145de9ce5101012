package grading

import (
	"github.com/invigil/invigil/internal/exam"
)

// Result is the outcome of scoring a single question response.
type Result struct {
	AutoPoints  float64 // points awarded automatically
	MaxPoints   float64 // the question's max points
	NeedsManual bool    // true if a human must assign the real score
}

// Strategy scores one question type. Strategies are pure: no side effects,
// same inputs always give the same Result.
type Strategy interface {
	Score(q exam.Question, a exam.Answer) Result
}

// Scorer routes by question type to the correct Strategy.
type Scorer struct {
	strategies map[string]Strategy
}

// NewScorer installs the built-in strategies for the four question types.
func NewScorer() *Scorer {
	return &Scorer{
		strategies: map[string]Strategy{
			exam.QuestionSingleChoice: keyMatchStrategy{},
			exam.QuestionBoolean:      keyMatchStrategy{},
			exam.QuestionShortText:    keyMatchStrategy{},
			exam.QuestionFreeText:     manualStrategy{},
		},
	}
}

// Score returns the auto-awarded points for the answer: full points on a
// canonical match, zero otherwise. Unknown question types score zero and are
// flagged for manual review via Grade.
func (s *Scorer) Score(q exam.Question, a exam.Answer) float64 {
	return s.Grade(q, a).AutoPoints
}

func (s *Scorer) Grade(q exam.Question, a exam.Answer) Result {
	st, ok := s.strategies[q.Type]
	if !ok {
		return Result{MaxPoints: q.Points, NeedsManual: true}
	}
	return st.Score(q, a)
}

// keyMatchStrategy awards full points iff the normalized answer equals the
// normalized key. Binary; no partial credit.
type keyMatchStrategy struct{}

func (keyMatchStrategy) Score(q exam.Question, a exam.Answer) Result {
	res := Result{MaxPoints: q.Points}
	if NormalizeAnswer(q, a) == NormalizeKey(q) {
		res.AutoPoints = q.Points
	}
	return res
}

// manualStrategy covers free_text: the auto-grade is a zero placeholder until
// a grader assigns the real score.
type manualStrategy struct{}

func (manualStrategy) Score(q exam.Question, _ exam.Answer) Result {
	return Result{MaxPoints: q.Points, NeedsManual: true}
}
