package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/invigil/invigil/internal/audit"
	"github.com/invigil/invigil/internal/exam"
)

// GET /submissions?exam_id=...&limit=...&offset=...
func ListSubmissionsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		subs, err := store.ListSubmissions(r.Context(), exam.SubmissionListOpts{
			ExamID: q.Get("exam_id"),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if subs == nil {
			subs = []exam.Submission{}
		}
		_ = json.NewEncoder(w).Encode(subs)
	}
}

// GET /submissions/{submissionID}
func GetSubmissionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "submissionID")
		sub, err := store.GetSubmission(r.Context(), id)
		if err != nil {
			if errors.Is(err, exam.ErrSubmissionNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(sub)
	}
}

// GET /audit?key=...&limit=...
func AuditLogHandler(repo *audit.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			http.Error(w, "audit log not enabled", http.StatusNotFound)
			return
		}
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		events, err := repo.List(r.Context(), q.Get("key"), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if events == nil {
			events = []audit.Event{}
		}
		_ = json.NewEncoder(w).Encode(events)
	}
}
