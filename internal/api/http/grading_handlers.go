package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/invigil/invigil/internal/exam"
	"github.com/invigil/invigil/internal/grading"
)

type gradingView struct {
	Phase      string           `json:"phase"`
	Exam       exam.Exam        `json:"exam"`
	Submission exam.Submission  `json:"submission"`
	Record     exam.GradeRecord `json:"record"`
	Overrides  []bool           `json:"overrides"`
}

type gradeItem struct {
	Index    int      `json:"index"`
	Override *bool    `json:"override,omitempty"`
	Score    *float64 `json:"score,omitempty"`
	Comment  *string  `json:"comment,omitempty"`
}

type saveGradesReq struct {
	Items []gradeItem `json:"items"`
}

// GET /submissions/{submissionID}/grading
// Opens a grading session and returns the initial vectors: auto-scores on the
// first visit, stored scores with re-derived override flags afterwards.
func GetGradingHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "submissionID")
		sess := grading.NewSession(store, store, id)
		if err := sess.Open(r.Context()); err != nil {
			writeGradingErr(w, err)
			return
		}
		rec, vec := sess.Snapshot()
		_ = json.NewEncoder(w).Encode(gradingView{
			Phase:      sess.Phase().String(),
			Exam:       sess.Exam(),
			Submission: sess.Submission(),
			Record:     rec,
			Overrides:  vec.Overrides,
		})
	}
}

// PUT /submissions/{submissionID}/grading
// Applies the grader's edits through a fresh session and saves the grade
// record in one atomic patch.
func SaveGradesHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "submissionID")
		var req saveGradesReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		sess := grading.NewSession(store, store, id)
		if err := sess.Open(r.Context()); err != nil {
			writeGradingErr(w, err)
			return
		}
		for _, item := range req.Items {
			if err := applyItem(sess, item); err != nil {
				http.Error(w, "item "+strconv.Itoa(item.Index)+": "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		if err := sess.Save(r.Context()); err != nil {
			writeGradingErr(w, err)
			return
		}
		rec, vec := sess.Snapshot()
		_ = json.NewEncoder(w).Encode(gradingView{
			Phase:     sess.Phase().String(),
			Record:    rec,
			Overrides: vec.Overrides,
		})
	}
}

func applyItem(sess *grading.Session, item gradeItem) error {
	if item.Override != nil {
		_, vec := sess.Snapshot()
		if item.Index >= 0 && item.Index < len(vec.Overrides) && vec.Overrides[item.Index] != *item.Override {
			if err := sess.ToggleOverride(item.Index); err != nil {
				return err
			}
		}
	}
	if item.Score != nil {
		if err := sess.SetScore(item.Index, *item.Score); err != nil {
			return err
		}
	}
	if item.Comment != nil {
		if err := sess.SetComment(item.Index, *item.Comment); err != nil {
			return err
		}
	}
	return nil
}

func writeGradingErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exam.ErrSubmissionNotFound), errors.Is(err, exam.ErrExamNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, grading.ErrPersistence):
		// Retryable: the session kept every edit; the client may resubmit.
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, grading.ErrSaveInFlight):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
