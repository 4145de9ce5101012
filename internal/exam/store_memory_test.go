package exam_test

import (
	"context"
	"errors"
	"testing"

	"github.com/invigil/invigil/internal/exam"
)

func geographyExam() exam.Exam {
	return exam.Exam{
		ID:    "geo-101",
		Title: "Geography",
		Questions: []exam.Question{
			{Type: exam.QuestionSingleChoice, Text: "capital?", Points: 5, Options: []string{"Lyon", "Paris"}, CorrectOption: 1},
			{Type: exam.QuestionBoolean, Text: "is it in Europe?", Points: 2, CorrectBool: true},
			{Type: exam.QuestionShortText, Text: "river?", Points: 3, CorrectText: "Seine"},
			{Type: exam.QuestionFreeText, Text: "essay", Points: 10},
		},
	}
}

func TestMemoryStoreExamRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := exam.NewInMemoryStore()

	if err := st.PutExam(ctx, geographyExam()); err != nil {
		t.Fatalf("PutExam: %v", err)
	}

	full, err := st.GetExamFull(ctx, "geo-101")
	if err != nil {
		t.Fatalf("GetExamFull: %v", err)
	}
	if full.Questions[0].CorrectOption != 1 || full.Questions[2].CorrectText != "Seine" {
		t.Fatalf("full exam lost its keys: %+v", full.Questions)
	}

	safe, err := st.GetExam(ctx, "geo-101")
	if err != nil {
		t.Fatalf("GetExam: %v", err)
	}
	for i, q := range safe.Questions {
		if q.CorrectOption != 0 || q.CorrectBool || q.CorrectText != "" {
			t.Fatalf("question %d served to candidate with key intact: %+v", i, q)
		}
	}
	if len(safe.Questions[0].Options) != 2 {
		t.Fatal("stripping keys must not drop the option texts")
	}

	if _, err := st.GetExam(ctx, "nope"); !errors.Is(err, exam.ErrExamNotFound) {
		t.Fatalf("missing exam: got %v, want ErrExamNotFound", err)
	}
}

func TestMemoryStoreSubmissionNeedsExam(t *testing.T) {
	ctx := context.Background()
	st := exam.NewInMemoryStore()

	err := st.PutSubmission(ctx, exam.Submission{ID: "sub-1", ExamID: "ghost"})
	if !errors.Is(err, exam.ErrExamNotFound) {
		t.Fatalf("orphan submission: got %v, want ErrExamNotFound", err)
	}
}

func TestMemoryStoreListSubmissions(t *testing.T) {
	ctx := context.Background()
	st := exam.NewInMemoryStore()
	if err := st.PutExam(ctx, geographyExam()); err != nil {
		t.Fatal(err)
	}
	other := geographyExam()
	other.ID = "geo-102"
	if err := st.PutExam(ctx, other); err != nil {
		t.Fatal(err)
	}

	subs := []exam.Submission{
		{ID: "a", ExamID: "geo-101", Candidate: "ada", SubmittedAt: 100},
		{ID: "b", ExamID: "geo-101", Candidate: "bob", SubmittedAt: 300},
		{ID: "c", ExamID: "geo-102", Candidate: "cyn", SubmittedAt: 200},
	}
	for _, s := range subs {
		if err := st.PutSubmission(ctx, s); err != nil {
			t.Fatalf("PutSubmission(%s): %v", s.ID, err)
		}
	}

	all, err := st.ListSubmissions(ctx, exam.SubmissionListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != "b" || all[1].ID != "c" || all[2].ID != "a" {
		t.Fatalf("want newest-first [b c a], got %+v", ids(all))
	}

	filtered, err := st.ListSubmissions(ctx, exam.SubmissionListOpts{ExamID: "geo-101"})
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 2 || filtered[0].ID != "b" || filtered[1].ID != "a" {
		t.Fatalf("exam filter: want [b a], got %v", ids(filtered))
	}

	page, err := st.ListSubmissions(ctx, exam.SubmissionListOpts{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ID != "c" {
		t.Fatalf("page limit=1 offset=1: want [c], got %v", ids(page))
	}

	empty, err := st.ListSubmissions(ctx, exam.SubmissionListOpts{Offset: 10})
	if err != nil || len(empty) != 0 {
		t.Fatalf("offset past end: got %v, %v", ids(empty), err)
	}
}

func TestMemoryStoreSaveGrades(t *testing.T) {
	ctx := context.Background()
	st := exam.NewInMemoryStore()
	if err := st.PutExam(ctx, geographyExam()); err != nil {
		t.Fatal(err)
	}
	if err := st.PutSubmission(ctx, exam.Submission{ID: "sub-1", ExamID: "geo-101"}); err != nil {
		t.Fatal(err)
	}

	patch := exam.GradePatch{
		Scores:     []float64{5, 2, 0, 8},
		Comments:   []string{"", "", "wrong river", "good argument"},
		TotalScore: 15,
		MaxScore:   20,
		Graded:     true,
		GradedAt:   1234,
	}
	if err := st.SaveGrades(ctx, "sub-1", patch); err != nil {
		t.Fatalf("SaveGrades: %v", err)
	}

	got, err := st.GetSubmission(ctx, "sub-1")
	if err != nil {
		t.Fatal(err)
	}
	g := got.Grade
	if !g.Graded || g.TotalScore != 15 || g.MaxScore != 20 || g.GradedAt != 1234 {
		t.Fatalf("grade record = %+v", g)
	}
	if len(g.Scores) != 4 || g.Scores[3] != 8 || g.Comments[2] != "wrong river" {
		t.Fatalf("vectors not stored: %+v", g)
	}

	// The stored record holds its own copies of the vectors.
	patch.Scores[0] = 999
	got, _ = st.GetSubmission(ctx, "sub-1")
	if got.Grade.Scores[0] != 5 {
		t.Fatal("stored scores alias the caller's slice")
	}

	if err := st.SaveGrades(ctx, "ghost", patch); !errors.Is(err, exam.ErrSubmissionNotFound) {
		t.Fatalf("missing submission: got %v, want ErrSubmissionNotFound", err)
	}
}

func ids(subs []exam.Submission) []string {
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.ID
	}
	return out
}
