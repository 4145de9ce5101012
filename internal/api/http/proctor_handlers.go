package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/invigil/invigil/internal/exam"
	"github.com/invigil/invigil/internal/proctor"
)

// POST /attempts  { "exam_id": "..." }
// Opens a proctored attempt: the integrity monitor starts watching focus
// signals from this point on.
func OpenAttemptHandler(hub *proctor.Hub, store exam.Store, candidateOf func(r *http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ExamID string `json:"exam_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.ExamID == "" {
			http.Error(w, "exam_id required", http.StatusBadRequest)
			return
		}
		candidate := candidateOf(r)
		if candidate == "" {
			http.Error(w, "candidate identity missing", http.StatusUnauthorized)
			return
		}
		id, err := hub.Open(r.Context(), req.ExamID, candidate)
		if err != nil {
			if errors.Is(err, exam.ErrExamNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		e, err := store.GetExam(r.Context(), req.ExamID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"attempt_id": id, "exam": e})
	}
}

// POST /attempts/{attemptID}/focus  { "focused": true|false }
func FocusSignalHandler(hub *proctor.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		var req struct {
			Focused bool `json:"focused"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := hub.Signal(id, req.Focused); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		snap, err := hub.Status(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(snap)
	}
}

// PUT /attempts/{attemptID}/answers  { "answers": [...] }
func StageAnswersHandler(hub *proctor.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		var req struct {
			Answers []exam.Answer `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := hub.StageAnswers(id, req.Answers); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /attempts/{attemptID}/submit
func SubmitAttemptHandler(hub *proctor.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		sub, err := hub.Submit(r.Context(), id)
		if err != nil {
			if errors.Is(err, proctor.ErrAttemptNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(sub)
	}
}
