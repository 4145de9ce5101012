package audit

import (
	"context"
	"database/sql"
	"time"
)

// Event is one row of the audit trail: submissions arriving, sessions
// terminating, grades being saved.
type Event struct {
	Offset    int64
	Type      string
	Key       string // natural key, e.g. submission ID
	DataJSON  string
	CreatedAt int64
}

const (
	TypeSubmissionCreated = "SubmissionCreated"
	TypeSessionTerminated = "SessionTerminated"
	TypeGradesSaved       = "GradesSaved"
)

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}

func (r *EventRepo) List(ctx context.Context, key string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT offset_id, typ, key, data, created_at FROM audit_log
		 WHERE $1 = '' OR key = $1
		 ORDER BY offset_id DESC LIMIT $2`, key, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
