package grading_test

import (
	"math"
	"testing"

	"github.com/invigil/invigil/internal/exam"
	"github.com/invigil/invigil/internal/grading"
)

func singleChoice(points float64, correct int) exam.Question {
	return exam.Question{
		Type:          exam.QuestionSingleChoice,
		Text:          "pick one",
		Points:        points,
		Options:       []string{"a", "b", "c"},
		CorrectOption: correct,
	}
}

func boolean(points float64, key bool) exam.Question {
	return exam.Question{Type: exam.QuestionBoolean, Text: "true or false", Points: points, CorrectBool: key}
}

func shortText(points float64, key string) exam.Question {
	return exam.Question{Type: exam.QuestionShortText, Text: "fill in", Points: points, CorrectText: key}
}

func freeText(points float64) exam.Question {
	return exam.Question{Type: exam.QuestionFreeText, Text: "essay", Points: points}
}

func optionAnswer(i int) exam.Answer {
	return exam.Answer{Kind: exam.QuestionSingleChoice, Answered: true, Option: i}
}

func textAnswer(s string) exam.Answer {
	return exam.Answer{Kind: exam.QuestionShortText, Answered: true, Text: s}
}

func TestScoreSingleChoice(t *testing.T) {
	sc := grading.NewScorer()
	q := singleChoice(5, 1)

	if got := sc.Score(q, optionAnswer(1)); got != 5 {
		t.Fatalf("correct option: got %v, want 5", got)
	}
	if got := sc.Score(q, optionAnswer(2)); got != 0 {
		t.Fatalf("wrong option: got %v, want 0", got)
	}
	if got := sc.Score(q, exam.Answer{}); got != 0 {
		t.Fatalf("unanswered: got %v, want 0", got)
	}
}

func TestScoreBooleanCoercion(t *testing.T) {
	sc := grading.NewScorer()
	q := boolean(4, true)

	// A "true" string answer and a bool true key compare equal.
	strTrue := exam.Answer{Kind: exam.QuestionBoolean, Answered: true, Text: "true"}
	if got := sc.Score(q, strTrue); got != 4 {
		t.Fatalf(`string "true" answer: got %v, want 4`, got)
	}
	boolTrue := exam.Answer{Kind: exam.QuestionBoolean, Answered: true, Bool: true}
	if got := sc.Score(q, boolTrue); got != 4 {
		t.Fatalf("bool true answer: got %v, want 4", got)
	}
	boolFalse := exam.Answer{Kind: exam.QuestionBoolean, Answered: true, Bool: false}
	if got := sc.Score(q, boolFalse); got != 0 {
		t.Fatalf("false answer against true key: got %v, want 0", got)
	}
	// Anything that is not a truthy representation coerces to false.
	garbage := exam.Answer{Kind: exam.QuestionBoolean, Answered: true, Text: "yes"}
	if got := sc.Score(q, garbage); got != 0 {
		t.Fatalf("non-true text answer: got %v, want 0", got)
	}
}

func TestScoreShortTextTrimAndFold(t *testing.T) {
	sc := grading.NewScorer()
	q := shortText(3, "Paris")

	if got := sc.Score(q, textAnswer(" paris ")); got != 3 {
		t.Fatalf("trimmed folded answer: got %v, want 3", got)
	}
	if got := sc.Score(q, textAnswer("PARIS")); got != 3 {
		t.Fatalf("upper-case answer: got %v, want 3", got)
	}
	if got := sc.Score(q, textAnswer("lyon")); got != 0 {
		t.Fatalf("wrong answer: got %v, want 0", got)
	}
	if got := sc.Score(q, exam.Answer{}); got != 0 {
		t.Fatalf("unanswered: got %v, want 0", got)
	}
}

func TestFreeTextNeverAutoGraded(t *testing.T) {
	sc := grading.NewScorer()
	q := freeText(10)
	a := exam.Answer{Kind: exam.QuestionFreeText, Answered: true, Text: "a long essay"}

	res := sc.Grade(q, a)
	if res.AutoPoints != 0 {
		t.Fatalf("auto points: got %v, want 0", res.AutoPoints)
	}
	if !res.NeedsManual {
		t.Fatal("free_text must need manual grading")
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	sc := grading.NewScorer()
	q := shortText(2, "answer")
	a := textAnswer("  Answer ")
	first := sc.Score(q, a)
	for i := 0; i < 100; i++ {
		if got := sc.Score(q, a); got != first {
			t.Fatalf("run %d: got %v, want %v", i, got, first)
		}
	}
}

func TestTotalSkipsNonFinite(t *testing.T) {
	scores := []float64{2, math.NaN(), 3, math.Inf(1), 0.5}
	if got := grading.Total(scores); got != 5.5 {
		t.Fatalf("total: got %v, want 5.5", got)
	}
}

func TestMaxTotal(t *testing.T) {
	qs := []exam.Question{singleChoice(5, 0), freeText(10), boolean(2, true)}
	if got := grading.MaxTotal(qs); got != 17 {
		t.Fatalf("max total: got %v, want 17", got)
	}
}

func TestClampScore(t *testing.T) {
	cases := []struct {
		in, max, want float64
	}{
		{7, 5, 5},
		{-2, 5, 0},
		{3.5, 5, 3.5},
		{math.NaN(), 5, 0},
		{5, 5, 5},
		{0, 5, 0},
	}
	for _, c := range cases {
		if got := grading.ClampScore(c.in, c.max); got != c.want {
			t.Errorf("ClampScore(%v, %v) = %v, want %v", c.in, c.max, got, c.want)
		}
	}
}
