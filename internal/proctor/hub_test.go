package proctor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/invigil/invigil/internal/exam"
	"github.com/invigil/invigil/internal/integrity"
	"github.com/invigil/invigil/internal/proctor"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time

	ticks   chan time.Time
	created chan struct{}
}

func newFakeClock() *fakeClock {
	return &fakeClock{
		now:     time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		ticks:   make(chan time.Time, 64),
		created: make(chan struct{}, 4),
	}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(time.Duration) integrity.Ticker {
	c.created <- struct{}{}
	return fakeTicker{clock: c}
}

func (c *fakeClock) tick() {
	c.mu.Lock()
	c.now = c.now.Add(time.Second)
	now := c.now
	c.mu.Unlock()
	c.ticks <- now
}

type fakeTicker struct{ clock *fakeClock }

func (t fakeTicker) C() <-chan time.Time { return t.clock.ticks }
func (t fakeTicker) Stop()               {}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func seedStore(t *testing.T) exam.Store {
	t.Helper()
	st := exam.NewInMemoryStore()
	err := st.PutExam(context.Background(), exam.Exam{
		ID:    "geo-101",
		Title: "Geography",
		Questions: []exam.Question{
			{Type: exam.QuestionSingleChoice, Text: "capital?", Points: 5, Options: []string{"Lyon", "Paris"}, CorrectOption: 1},
			{Type: exam.QuestionShortText, Text: "river?", Points: 3, CorrectText: "Seine"},
			{Type: exam.QuestionFreeText, Text: "essay", Points: 10},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestHubOpenUnknownExam(t *testing.T) {
	hub := proctor.NewHub(seedStore(t), newFakeClock(), 60)
	_, err := hub.Open(context.Background(), "ghost", "ada")
	if !errors.Is(err, exam.ErrExamNotFound) {
		t.Fatalf("got %v, want ErrExamNotFound", err)
	}
}

func TestHubUnknownAttempt(t *testing.T) {
	hub := proctor.NewHub(seedStore(t), newFakeClock(), 60)
	if err := hub.Signal("ghost", false); !errors.Is(err, proctor.ErrAttemptNotFound) {
		t.Fatalf("Signal: got %v, want ErrAttemptNotFound", err)
	}
	if _, err := hub.Status("ghost"); !errors.Is(err, proctor.ErrAttemptNotFound) {
		t.Fatalf("Status: got %v, want ErrAttemptNotFound", err)
	}
	if _, err := hub.Submit(context.Background(), "ghost"); !errors.Is(err, proctor.ErrAttemptNotFound) {
		t.Fatalf("Submit: got %v, want ErrAttemptNotFound", err)
	}
}

func TestHubManualSubmit(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t)
	hub := proctor.NewHub(st, newFakeClock(), 60)

	id, err := hub.Open(ctx, "geo-101", "ada")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Only the first two questions answered; submit pads the rest.
	staged := []exam.Answer{
		{Kind: exam.QuestionSingleChoice, Answered: true, Option: 1},
		{Kind: exam.QuestionShortText, Answered: true, Text: "Seine"},
	}
	if err := hub.StageAnswers(id, staged); err != nil {
		t.Fatalf("StageAnswers: %v", err)
	}

	hub.Signal(id, false)
	hub.Signal(id, true)
	waitFor(t, "focus edges to register", func() bool {
		snap, err := hub.Status(id)
		return err == nil && snap.Warnings == 1 && snap.State == integrity.StateFocused
	})

	sub, err := hub.Submit(ctx, id)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.ID != id || sub.ExamID != "geo-101" || sub.Candidate != "ada" {
		t.Fatalf("submission identity: %+v", sub)
	}
	if len(sub.Answers) != 3 {
		t.Fatalf("answers = %d, want padded to 3", len(sub.Answers))
	}
	if sub.Answers[2].Answered {
		t.Fatal("padded answer must read as unanswered")
	}
	if sub.Terminated || sub.WarningCount != 1 || sub.TotalDefocusCount != 1 {
		t.Fatalf("integrity counters: %+v", sub)
	}
	if len(sub.IntegrityLog) != 2 {
		t.Fatalf("integrity log = %d events, want 2", len(sub.IntegrityLog))
	}

	stored, err := st.GetSubmission(ctx, id)
	if err != nil {
		t.Fatalf("submission not persisted: %v", err)
	}
	if stored.Candidate != "ada" {
		t.Fatalf("stored = %+v", stored)
	}

	// Second submit returns the same submission instead of writing twice.
	again, err := hub.Submit(ctx, id)
	if err != nil || again.ID != sub.ID || again.SubmittedAt != sub.SubmittedAt {
		t.Fatalf("repeat submit: %+v, %v", again, err)
	}

	// Late staging is dropped once the submission exists.
	if err := hub.StageAnswers(id, nil); err != nil {
		t.Fatalf("late StageAnswers: %v", err)
	}
	stored, _ = st.GetSubmission(ctx, id)
	if !stored.Answers[0].Answered {
		t.Fatal("finalized answers were mutated")
	}
}

func TestHubAutoSubmitsOnTermination(t *testing.T) {
	ctx := context.Background()
	st := seedStore(t)
	clock := newFakeClock()
	hub := proctor.NewHub(st, clock, 2)

	id, err := hub.Open(ctx, "geo-101", "bob")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := hub.StageAnswers(id, []exam.Answer{{Kind: exam.QuestionSingleChoice, Answered: true, Option: 0}}); err != nil {
		t.Fatal(err)
	}

	hub.Signal(id, false)
	select {
	case <-clock.created:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown ticker never started")
	}
	clock.tick()
	clock.tick()

	var sub exam.Submission
	waitFor(t, "terminated attempt to auto-submit", func() bool {
		s, err := st.GetSubmission(ctx, id)
		if err != nil {
			return false
		}
		sub = s
		return true
	})

	if !sub.Terminated {
		t.Fatal("submission must record termination")
	}
	if sub.WarningCount != 1 || sub.TotalDefocusCount != 1 {
		t.Fatalf("counters: %+v", sub)
	}
	if len(sub.Answers) != 3 || !sub.Answers[0].Answered {
		t.Fatalf("staged answers lost: %+v", sub.Answers)
	}
	var terms int
	for _, e := range sub.IntegrityLog {
		if e.Kind == integrity.KindTerminate {
			terms++
		}
	}
	if terms != 1 {
		t.Fatalf("terminate events = %d, want 1", terms)
	}

	// Submitting after auto-finalization hands back the stored submission.
	again, err := hub.Submit(ctx, id)
	if err != nil || again.ID != sub.ID || !again.Terminated {
		t.Fatalf("submit after termination: %+v, %v", again, err)
	}
}
