package proctor

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/invigil/invigil/internal/exam"
	"github.com/invigil/invigil/internal/integrity"
)

var ErrAttemptNotFound = errors.New("attempt not found")

// Hub owns the live proctored attempts: one integrity monitor per attempt plus
// the answers staged so far. When a monitor terminates, the hub finalizes the
// attempt on its own: a terminated session submits automatically instead of
// stalling on user action.
type Hub struct {
	store exam.Store
	clock integrity.Clock
	grace int

	mu       sync.Mutex
	attempts map[string]*attempt
}

type attempt struct {
	id        string
	examID    string
	candidate string
	questions int
	monitor   *integrity.Monitor

	mu        sync.Mutex
	answers   []exam.Answer
	finalized bool
	settled   chan struct{} // closed once finalized; releases the watcher
	sub       exam.Submission
}

func NewHub(store exam.Store, clock integrity.Clock, graceSeconds int) *Hub {
	return &Hub{
		store:    store,
		clock:    clock,
		grace:    graceSeconds,
		attempts: map[string]*attempt{},
	}
}

// Open starts a proctored attempt for the exam and returns its ID. The
// attempt's monitor begins in Focused.
func (h *Hub) Open(ctx context.Context, examID, candidate string) (string, error) {
	ex, err := h.store.GetExam(ctx, examID)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	at := &attempt{
		id:        id,
		examID:    examID,
		candidate: candidate,
		questions: len(ex.Questions),
		monitor:   integrity.NewMonitor(h.clock, h.grace),
		settled:   make(chan struct{}),
	}
	h.mu.Lock()
	h.attempts[id] = at
	h.mu.Unlock()

	go h.watch(id, at)
	return id, nil
}

// Signal forwards a window focus edge to the attempt's monitor.
func (h *Hub) Signal(id string, focused bool) error {
	at, err := h.get(id)
	if err != nil {
		return err
	}
	at.monitor.Signal(focused)
	return nil
}

// StageAnswers replaces the answers held for the attempt. Staging after
// finalization is dropped silently; the submission is already immutable.
func (h *Hub) StageAnswers(id string, answers []exam.Answer) error {
	at, err := h.get(id)
	if err != nil {
		return err
	}
	at.mu.Lock()
	defer at.mu.Unlock()
	if at.finalized {
		return nil
	}
	at.answers = append([]exam.Answer(nil), answers...)
	return nil
}

// Status reports the monitor's current state alongside the attempt.
func (h *Hub) Status(id string) (integrity.Snapshot, error) {
	at, err := h.get(id)
	if err != nil {
		return integrity.Snapshot{}, err
	}
	return at.monitor.Snapshot(), nil
}

// Submit finalizes the attempt into a stored Submission. Idempotent: if the
// monitor already terminated the session and the hub finalized it, the
// existing submission is returned.
func (h *Hub) Submit(ctx context.Context, id string) (exam.Submission, error) {
	at, err := h.get(id)
	if err != nil {
		return exam.Submission{}, err
	}
	return h.finalize(ctx, at)
}

func (h *Hub) watch(id string, at *attempt) {
	select {
	case <-at.monitor.Done():
		if _, err := h.finalize(context.Background(), at); err != nil {
			log.Printf("proctor: auto-submit attempt %s: %v", id, err)
		}
	case <-at.settled:
	}
}

func (h *Hub) finalize(ctx context.Context, at *attempt) (exam.Submission, error) {
	at.mu.Lock()
	defer at.mu.Unlock()
	if at.finalized {
		return at.sub, nil
	}
	at.monitor.Close()
	snap := at.monitor.Snapshot()

	answers := at.answers
	if len(answers) != at.questions {
		padded := make([]exam.Answer, at.questions)
		copy(padded, answers)
		answers = padded
	}
	sub := exam.Submission{
		ID:                at.id,
		ExamID:            at.examID,
		Candidate:         at.candidate,
		Answers:           answers,
		SubmittedAt:       h.clock.Now().Unix(),
		IntegrityLog:      snap.Events,
		WarningCount:      snap.Warnings,
		TotalDefocusCount: snap.DefocusCount,
		Terminated:        snap.Terminated,
	}
	if err := h.store.PutSubmission(ctx, sub); err != nil {
		return exam.Submission{}, err
	}
	at.finalized = true
	at.sub = sub
	close(at.settled)
	return sub, nil
}

func (h *Hub) get(id string) (*attempt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	at, ok := h.attempts[id]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	return at, nil
}
