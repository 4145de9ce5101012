package exam

import (
	"github.com/invigil/invigil/internal/integrity"
)

// Question types. An exam is a fixed ordered sequence of these; questions are
// immutable once the exam is published.
const (
	QuestionSingleChoice = "single_choice"
	QuestionBoolean      = "boolean"
	QuestionShortText    = "short_text"
	QuestionFreeText     = "free_text"
)

type Question struct {
	Type   string  `json:"type"`
	Text   string  `json:"text"`
	Points float64 `json:"points"`

	// Type-specific answer key.
	Options       []string `json:"options,omitempty"`        // single_choice
	CorrectOption int      `json:"correct_option,omitempty"` // single_choice
	CorrectBool   bool     `json:"correct_bool,omitempty"`   // boolean
	CorrectText   string   `json:"correct_text,omitempty"`   // short_text
}

// AutoGradable reports whether the question has a deterministic answer key.
// free_text never does; it always needs a human score.
func (q Question) AutoGradable() bool {
	switch q.Type {
	case QuestionSingleChoice, QuestionBoolean, QuestionShortText:
		return true
	default:
		return false
	}
}

type Exam struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	CreatedAt int64      `json:"created_at,omitempty"`
}

// MaxScore is the sum of all question point values.
func (e Exam) MaxScore() float64 {
	total := 0.0
	for _, q := range e.Questions {
		total += q.Points
	}
	return total
}

// Answer is a tagged union keyed by the question type. Exactly one payload
// field is meaningful; the grading normalizer is the only place that
// destructures it. Answered=false marks a skipped question regardless of the
// payload fields.
type Answer struct {
	Kind     string `json:"kind,omitempty"`
	Answered bool   `json:"answered"`
	Option   int    `json:"option,omitempty"`
	Bool     bool   `json:"bool,omitempty"`
	Text     string `json:"text,omitempty"`
}

// GradeRecord is the grader-owned part of a submission. The score and comment
// vectors are parallel to the exam's question sequence. Override flags are
// derived on load, never persisted.
type GradeRecord struct {
	Scores     []float64 `json:"scores"`
	Comments   []string  `json:"comments"`
	TotalScore float64   `json:"total_score"`
	MaxScore   float64   `json:"max_score"`
	Graded     bool      `json:"graded"`
	GradedAt   int64     `json:"graded_at,omitempty"`
}

// GradePatch is the atomic write emitted by a grading session save. It
// overwrites exactly these fields on the submission, all or nothing.
type GradePatch struct {
	Scores     []float64 `json:"scores"`
	Comments   []string  `json:"comments"`
	TotalScore float64   `json:"total_score"`
	MaxScore   float64   `json:"max_score"`
	Graded     bool      `json:"graded"`
	GradedAt   int64     `json:"graded_at"`
}

// Submission is created once at submit time and read-only afterwards except
// for its grade record. Answers align 1:1 with the exam's questions. The
// warning/defocus/terminated counters duplicate what the integrity log says,
// kept as columns for query convenience.
type Submission struct {
	ID          string   `json:"id"`
	ExamID      string   `json:"exam_id"`
	Candidate   string   `json:"candidate"`
	Answers     []Answer `json:"answers"`
	SubmittedAt int64    `json:"submitted_at"`

	IntegrityLog      []integrity.Event `json:"integrity_log"`
	WarningCount      int               `json:"warning_count"`
	TotalDefocusCount int               `json:"total_defocus_count"`
	Terminated        bool              `json:"terminated"`

	Grade GradeRecord `json:"grade"`
}
