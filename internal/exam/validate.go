package exam

import (
	"errors"
	"fmt"
)

// Validate checks an exam before publication. Published questions are
// immutable, so everything the graders and scorers rely on is enforced here.
func (e Exam) Validate() error {
	if e.Title == "" {
		return errors.New("exam title required")
	}
	if len(e.Questions) == 0 {
		return errors.New("exam needs at least one question")
	}
	for i, q := range e.Questions {
		if err := q.validate(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

func (q Question) validate() error {
	if q.Text == "" {
		return errors.New("text required")
	}
	if q.Points <= 0 {
		return errors.New("points must be positive")
	}
	switch q.Type {
	case QuestionSingleChoice:
		if len(q.Options) < 2 {
			return errors.New("single_choice needs at least two options")
		}
		if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
			return errors.New("correct_option out of range")
		}
	case QuestionBoolean:
		// key is the CorrectBool zero value or true; nothing to check
	case QuestionShortText:
		if q.CorrectText == "" {
			return errors.New("short_text needs a correct_text key")
		}
	case QuestionFreeText:
		// no key; always manually graded
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	return nil
}
