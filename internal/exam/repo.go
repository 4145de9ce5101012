package exam

import (
	"context"
	"errors"
)

var (
	ErrExamNotFound       = errors.New("exam not found")
	ErrSubmissionNotFound = errors.New("submission not found")
)

type SubmissionListOpts struct {
	ExamID string
	Limit  int
	Offset int
}

// Store is the persistence surface consumed by the handlers and the grading
// session. Implementations must apply SaveGrades atomically: either every
// field of the patch lands or none does.
type Store interface {
	PutExam(ctx context.Context, e Exam) error
	GetExam(ctx context.Context, id string) (Exam, error)     // student-safe: answer keys stripped
	GetExamFull(ctx context.Context, id string) (Exam, error) // with keys, for grading

	PutSubmission(ctx context.Context, s Submission) error
	GetSubmission(ctx context.Context, id string) (Submission, error)
	ListSubmissions(ctx context.Context, opts SubmissionListOpts) ([]Submission, error)

	SaveGrades(ctx context.Context, submissionID string, p GradePatch) error
}

// StripKeys blanks every answer key on the exam before it is served to a
// candidate.
func StripKeys(e Exam) Exam {
	qs := make([]Question, len(e.Questions))
	copy(qs, e.Questions)
	for i := range qs {
		qs[i].CorrectOption = 0
		qs[i].CorrectBool = false
		qs[i].CorrectText = ""
	}
	e.Questions = qs
	return e
}
