package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/invigil/invigil/internal/audit"
)

type SQLStore struct {
	db    *sql.DB
	audit *audit.EventRepo // optional
}

func NewSQLStore(db *sql.DB, auditRepo *audit.EventRepo) *SQLStore {
	return &SQLStore{db: db, audit: auditRepo}
}

func (s *SQLStore) PutExam(ctx context.Context, e Exam) error {
	qj, err := json.Marshal(e.Questions)
	if err != nil {
		return err
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO exams (id,title,questions_json,created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, questions_json=EXCLUDED.questions_json`,
		e.ID, e.Title, string(qj), e.CreatedAt)
	return err
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	e, err := s.GetExamFull(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	return StripKeys(e), nil
}

func (s *SQLStore) GetExamFull(ctx context.Context, id string) (Exam, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,questions_json,created_at FROM exams WHERE id=$1`, id)
	var e Exam
	var qjson string
	if err := row.Scan(&e.ID, &e.Title, &qjson, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, ErrExamNotFound
		}
		return Exam{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &e.Questions); err != nil {
		return Exam{}, fmt.Errorf("decode questions: %w", err)
	}
	return e, nil
}

func (s *SQLStore) PutSubmission(ctx context.Context, sub Submission) error {
	var exist int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM exams WHERE id=$1`, sub.ExamID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrExamNotFound
		}
		return err
	}
	aj, err := json.Marshal(sub.Answers)
	if err != nil {
		return err
	}
	ij, err := json.Marshal(sub.IntegrityLog)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO submissions
		(id,exam_id,candidate,answers_json,integrity_json,warning_count,defocus_count,terminated,submitted_at,graded)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,FALSE)`,
		sub.ID, sub.ExamID, sub.Candidate, string(aj), string(ij),
		sub.WarningCount, sub.TotalDefocusCount, sub.Terminated, sub.SubmittedAt)
	if err != nil {
		return err
	}
	s.record(ctx, audit.TypeSubmissionCreated, sub.ID, map[string]any{
		"exam_id": sub.ExamID, "warnings": sub.WarningCount, "terminated": sub.Terminated,
	})
	if sub.Terminated {
		s.record(ctx, audit.TypeSessionTerminated, sub.ID, map[string]any{"exam_id": sub.ExamID})
	}
	return nil
}

func (s *SQLStore) GetSubmission(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,exam_id,candidate,answers_json,integrity_json,
		warning_count,defocus_count,terminated,submitted_at,
		scores_json,comments_json,total_score,max_score,graded,graded_at
		FROM submissions WHERE id=$1`, id)
	return scanSubmission(row)
}

func (s *SQLStore) ListSubmissions(ctx context.Context, opts SubmissionListOpts) ([]Submission, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,exam_id,candidate,answers_json,integrity_json,
		warning_count,defocus_count,terminated,submitted_at,
		scores_json,comments_json,total_score,max_score,graded,graded_at
		FROM submissions WHERE ($1 = '' OR exam_id = $1)
		ORDER BY submitted_at DESC LIMIT $2 OFFSET $3`, opts.ExamID, limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// SaveGrades overwrites the grade fields in a single statement so the patch
// lands atomically or not at all.
func (s *SQLStore) SaveGrades(ctx context.Context, submissionID string, p GradePatch) error {
	sj, err := json.Marshal(p.Scores)
	if err != nil {
		return err
	}
	cj, err := json.Marshal(p.Comments)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE submissions
		SET scores_json=$1, comments_json=$2, total_score=$3, max_score=$4, graded=$5, graded_at=$6
		WHERE id=$7`,
		string(sj), string(cj), p.TotalScore, p.MaxScore, p.Graded, p.GradedAt, submissionID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSubmissionNotFound
	}
	s.record(ctx, audit.TypeGradesSaved, submissionID, map[string]any{
		"total_score": p.TotalScore, "max_score": p.MaxScore,
	})
	return nil
}

func (s *SQLStore) record(ctx context.Context, typ, key string, data map[string]any) {
	if s.audit == nil {
		return
	}
	buf, _ := json.Marshal(data)
	// Audit is best-effort; a failed append never fails the write it describes.
	_ = s.audit.Append(ctx, audit.Event{Type: typ, Key: key, DataJSON: string(buf)})
}

type rowScanner interface{ Scan(dest ...any) error }

func scanSubmission(row rowScanner) (Submission, error) {
	var sub Submission
	var ajson, ijson string
	var sjson, cjson sql.NullString
	var gradedAt sql.NullInt64
	err := row.Scan(&sub.ID, &sub.ExamID, &sub.Candidate, &ajson, &ijson,
		&sub.WarningCount, &sub.TotalDefocusCount, &sub.Terminated, &sub.SubmittedAt,
		&sjson, &cjson, &sub.Grade.TotalScore, &sub.Grade.MaxScore, &sub.Grade.Graded, &gradedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, ErrSubmissionNotFound
		}
		return Submission{}, err
	}
	if err := json.Unmarshal([]byte(ajson), &sub.Answers); err != nil {
		return Submission{}, fmt.Errorf("decode answers: %w", err)
	}
	if ijson != "" {
		if err := json.Unmarshal([]byte(ijson), &sub.IntegrityLog); err != nil {
			return Submission{}, fmt.Errorf("decode integrity log: %w", err)
		}
	}
	if sjson.Valid && sjson.String != "" {
		if err := json.Unmarshal([]byte(sjson.String), &sub.Grade.Scores); err != nil {
			return Submission{}, fmt.Errorf("decode scores: %w", err)
		}
	}
	if cjson.Valid && cjson.String != "" {
		if err := json.Unmarshal([]byte(cjson.String), &sub.Grade.Comments); err != nil {
			return Submission{}, fmt.Errorf("decode comments: %w", err)
		}
	}
	sub.Grade.GradedAt = gradedAt.Int64
	return sub, nil
}
