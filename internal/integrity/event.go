package integrity

import "time"

// Kind identifies a session-integrity event.
type Kind string

const (
	KindFocus     Kind = "focus"
	KindBlur      Kind = "blur"
	KindTerminate Kind = "terminate"
)

// Event is one entry of a session's integrity log. Events are appended in
// occurrence order and never mutated or removed afterwards.
type Event struct {
	Kind            Kind      `json:"kind"`
	At              time.Time `json:"at"`
	WarningNumber   int       `json:"warning_number,omitempty"`
	TimeAwaySeconds int       `json:"time_away_seconds,omitempty"`
	Reason          string    `json:"reason,omitempty"`
}

// Log is an append-only ordered record of integrity events. The redundant
// counters persisted alongside a submission are all derived from it.
type Log struct {
	events []Event
}

func (l *Log) Append(e Event) {
	l.events = append(l.events, e)
}

// Events returns a copy; the log itself stays append-only.
func (l *Log) Events() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

func (l *Log) Len() int { return len(l.events) }

// WarningCount is the number of blur events recorded.
func (l *Log) WarningCount() int { return l.count(KindBlur) }

// DefocusCount is the number of times focus was lost during the session.
func (l *Log) DefocusCount() int { return l.count(KindBlur) }

// Terminated reports whether the log contains a terminate event.
func (l *Log) Terminated() bool { return l.count(KindTerminate) > 0 }

func (l *Log) count(k Kind) int {
	n := 0
	for _, e := range l.events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Derive recomputes the redundant submission counters from an event sequence,
// e.g. one received over the wire rather than built by a local Machine.
func Derive(events []Event) (warnings, defocusCount int, terminated bool) {
	for _, e := range events {
		switch e.Kind {
		case KindBlur:
			warnings++
			defocusCount++
		case KindTerminate:
			terminated = true
		}
	}
	return
}
