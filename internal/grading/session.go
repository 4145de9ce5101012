package grading

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/invigil/invigil/internal/exam"
)

// Phase of a grading session. Saved is terminal for the editing session;
// SaveFailed is Ready-equivalent and allows retry with all edits intact.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseSaving
	PhaseSaved
	PhaseSaveFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseSaving:
		return "saving"
	case PhaseSaved:
		return "saved"
	case PhaseSaveFailed:
		return "save_failed"
	default:
		return "unknown"
	}
}

var (
	ErrNotReady        = errors.New("session not ready")
	ErrSaveInFlight    = errors.New("save already in flight")
	ErrIndexOutOfRange = errors.New("question index out of range")
	ErrScoreLocked     = errors.New("score locked: toggle override to edit an auto-graded question")
	ErrNotAutoGradable = errors.New("question is not auto-gradable")
	// ErrPersistence wraps store failures; the session stays editable and the
	// save can be retried.
	ErrPersistence = errors.New("persistence failure")
)

// QuestionSource and SubmissionStore are the narrow store views a session
// needs; exam.Store satisfies both.
type QuestionSource interface {
	GetExamFull(ctx context.Context, id string) (exam.Exam, error)
}

type SubmissionStore interface {
	GetSubmission(ctx context.Context, id string) (exam.Submission, error)
	SaveGrades(ctx context.Context, submissionID string, p exam.GradePatch) error
}

// Session drives the grading of a single submission:
// Loading -> Ready -> Saving -> Saved | SaveFailed. All mutation operations
// apply in Ready (and SaveFailed, which is Ready with a pending retry). The
// caller is assumed to be the submission's only active editor; concurrent use
// of one Session is still safe, serialized by an internal mutex.
type Session struct {
	exams  QuestionSource
	subs   SubmissionStore
	scorer *Scorer
	now    func() time.Time

	mu           sync.Mutex
	phase        Phase
	submissionID string
	exam         exam.Exam
	sub          exam.Submission
	vec          Vectors
}

type SessionOption func(*Session)

// WithNow injects the clock used for GradedAt timestamps.
func WithNow(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

func NewSession(exams QuestionSource, subs SubmissionStore, submissionID string, opts ...SessionOption) *Session {
	s := &Session{
		exams:        exams,
		subs:         subs,
		scorer:       NewScorer(),
		now:          time.Now,
		phase:        PhaseLoading,
		submissionID: submissionID,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open loads the submission and its question set and builds the grading
// vectors. A missing submission or exam aborts the session before any grading
// computation.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseLoading {
		return ErrNotReady
	}
	sub, err := s.subs.GetSubmission(ctx, s.submissionID)
	if err != nil {
		return fmt.Errorf("load submission: %w", err)
	}
	ex, err := s.exams.GetExamFull(ctx, sub.ExamID)
	if err != nil {
		return fmt.Errorf("load exam: %w", err)
	}
	s.sub = sub
	s.exam = ex
	if sub.Grade.Graded {
		s.vec = Reconcile(s.scorer, ex.Questions, sub.Answers, sub.Grade)
	} else {
		s.vec = InitialVectors(s.scorer, ex.Questions, sub.Answers)
	}
	s.phase = PhaseReady
	return nil
}

// SetScore assigns a per-question score, clamped to [0, points]. An
// auto-gradable question must be unlocked (override on) first;
// non-auto-gradable questions are always editable.
func (s *Session) SetScore(i int, v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(i); err != nil {
		return err
	}
	q := s.exam.Questions[i]
	if q.AutoGradable() && !s.vec.Overrides[i] {
		return ErrScoreLocked
	}
	s.vec.Scores[i] = ClampScore(v, q.Points)
	return nil
}

func (s *Session) SetComment(i int, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(i); err != nil {
		return err
	}
	s.vec.Comments[i] = comment
	return nil
}

// ToggleOverride flips the override flag of an auto-gradable question.
// Turning it off forces the score back to the current auto-grade, discarding
// any manual edit; turning it on only unlocks manual editing and leaves the
// score untouched.
func (s *Session) ToggleOverride(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(i); err != nil {
		return err
	}
	q := s.exam.Questions[i]
	if !q.AutoGradable() {
		return ErrNotAutoGradable
	}
	s.vec.Overrides[i] = !s.vec.Overrides[i]
	if !s.vec.Overrides[i] {
		s.vec.Scores[i] = s.scorer.Score(q, answerAt(s.sub.Answers, i))
	}
	return nil
}

// Save recomputes the totals fresh from the current vectors and writes the
// full grade patch. At most one save is in flight; a second request while
// Saving is rejected. Failure leaves every in-memory edit intact and the
// session retryable.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	switch s.phase {
	case PhaseReady, PhaseSaveFailed:
	case PhaseSaving:
		s.mu.Unlock()
		return ErrSaveInFlight
	default:
		s.mu.Unlock()
		return ErrNotReady
	}
	s.phase = PhaseSaving
	patch := exam.GradePatch{
		Scores:     append([]float64(nil), s.vec.Scores...),
		Comments:   append([]string(nil), s.vec.Comments...),
		TotalScore: Total(s.vec.Scores),
		MaxScore:   MaxTotal(s.exam.Questions),
		Graded:     true,
		GradedAt:   s.now().Unix(),
	}
	s.mu.Unlock()

	err := s.subs.SaveGrades(ctx, s.submissionID, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.phase = PhaseSaveFailed
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.phase = PhaseSaved
	s.sub.Grade = exam.GradeRecord{
		Scores:     patch.Scores,
		Comments:   patch.Comments,
		TotalScore: patch.TotalScore,
		MaxScore:   patch.MaxScore,
		Graded:     true,
		GradedAt:   patch.GradedAt,
	}
	return nil
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Snapshot returns the current grading state with totals computed fresh.
func (s *Session) Snapshot() (exam.GradeRecord, Vectors) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vec := Vectors{
		Scores:    append([]float64(nil), s.vec.Scores...),
		Comments:  append([]string(nil), s.vec.Comments...),
		Overrides: append([]bool(nil), s.vec.Overrides...),
	}
	rec := exam.GradeRecord{
		Scores:     vec.Scores,
		Comments:   vec.Comments,
		TotalScore: Total(vec.Scores),
		MaxScore:   MaxTotal(s.exam.Questions),
		Graded:     s.phase == PhaseSaved || s.sub.Grade.Graded,
		GradedAt:   s.sub.Grade.GradedAt,
	}
	return rec, vec
}

// Submission returns the loaded submission (integrity log included) for
// display beside the grading vectors.
func (s *Session) Submission() exam.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub
}

func (s *Session) Exam() exam.Exam {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exam
}

func (s *Session) editable(i int) error {
	if s.phase != PhaseReady && s.phase != PhaseSaveFailed {
		if s.phase == PhaseSaving {
			return ErrSaveInFlight
		}
		return ErrNotReady
	}
	if i < 0 || i >= len(s.exam.Questions) {
		return ErrIndexOutOfRange
	}
	return nil
}
