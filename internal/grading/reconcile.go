package grading

import (
	"github.com/invigil/invigil/internal/exam"
)

// Vectors holds the three parallel per-question sequences a grading session
// edits: scores, comments, and override flags.
type Vectors struct {
	Scores    []float64
	Comments  []string
	Overrides []bool
}

// InitialVectors builds the vectors for a submission opened for the first
// time: every score is the current auto-grade, no overrides, empty comments.
func InitialVectors(sc *Scorer, questions []exam.Question, answers []exam.Answer) Vectors {
	n := len(questions)
	v := Vectors{
		Scores:    make([]float64, n),
		Comments:  make([]string, n),
		Overrides: make([]bool, n),
	}
	for i, q := range questions {
		v.Scores[i] = sc.Score(q, answerAt(answers, i))
	}
	return v
}

// Reconcile builds the vectors for a previously graded submission. Stored
// scores and comments are authoritative and loaded verbatim; override flags
// are re-derived, not loaded: an auto-gradable question is overridden iff its
// stored score disagrees with what the scorer would produce right now.
// Non-auto-gradable questions start with override=false; they are inherently
// manual, which is a distinct state from "overridden".
//
// A side effect of re-deriving: editing an answer key after grading makes the
// stored score look overridden. The stored score still wins until the grader
// acts.
func Reconcile(sc *Scorer, questions []exam.Question, answers []exam.Answer, stored exam.GradeRecord) Vectors {
	n := len(questions)
	v := Vectors{
		Scores:    make([]float64, n),
		Comments:  make([]string, n),
		Overrides: make([]bool, n),
	}
	for i, q := range questions {
		if i < len(stored.Scores) {
			v.Scores[i] = stored.Scores[i]
		}
		if i < len(stored.Comments) {
			v.Comments[i] = stored.Comments[i]
		}
		if q.AutoGradable() {
			v.Overrides[i] = v.Scores[i] != sc.Score(q, answerAt(answers, i))
		}
	}
	return v
}

func answerAt(answers []exam.Answer, i int) exam.Answer {
	if i < len(answers) {
		return answers[i]
	}
	return exam.Answer{}
}
