package grading

import (
	"strings"

	"github.com/invigil/invigil/internal/exam"
)

// Canonical is the comparable form shared by a candidate answer and a
// question's answer key. Two canonicals compare equal iff the answer earns
// the points.
type Canonical struct {
	Kind   string
	Option int
	Bool   bool
	Text   string
}

// NormalizeAnswer converts a raw answer into its canonical form for the
// question's type. It is the single place that destructures the Answer union.
//
//   - single_choice: identity on the option index; unanswered maps to -1 so it
//     never matches a key.
//   - boolean: bool true or the string "true" coerce to true, anything else to
//     false, so a bool true key and a "true" text answer compare equal.
//   - short_text: lower-cased, leading/trailing whitespace trimmed; unanswered
//     normalizes to the empty string.
//   - free_text: never compared; the canonical form is unspecified.
func NormalizeAnswer(q exam.Question, a exam.Answer) Canonical {
	switch q.Type {
	case exam.QuestionSingleChoice:
		opt := a.Option
		if !a.Answered {
			opt = -1
		}
		return Canonical{Kind: q.Type, Option: opt}
	case exam.QuestionBoolean:
		return Canonical{Kind: q.Type, Bool: truthy(a)}
	case exam.QuestionShortText:
		return Canonical{Kind: q.Type, Text: foldText(a.Text)}
	default:
		return Canonical{Kind: q.Type}
	}
}

// NormalizeKey converts the question's answer key through the same rules.
func NormalizeKey(q exam.Question) Canonical {
	switch q.Type {
	case exam.QuestionSingleChoice:
		return Canonical{Kind: q.Type, Option: q.CorrectOption}
	case exam.QuestionBoolean:
		return Canonical{Kind: q.Type, Bool: q.CorrectBool}
	case exam.QuestionShortText:
		return Canonical{Kind: q.Type, Text: foldText(q.CorrectText)}
	default:
		return Canonical{Kind: q.Type}
	}
}

func truthy(a exam.Answer) bool {
	if !a.Answered {
		return false
	}
	return a.Bool || a.Text == "true"
}

func foldText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
