package integrity

import "time"

// State of the defocus countdown machine.
type State int

const (
	StateFocused State = iota
	StateUnfocused
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateFocused:
		return "focused"
	case StateUnfocused:
		return "unfocused"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// DefaultGraceSeconds is the consecutive time a candidate may stay away from
// the session window before it is terminated.
const DefaultGraceSeconds = 60

const terminateReason = "exceeded defocus grace period"

// Machine is the pure defocus countdown state machine. All state lives in the
// struct and every transition is an explicit method; there are no hidden
// captures and no timers here. Machine is not safe for concurrent use; the
// Monitor serializes access to it.
type Machine struct {
	state     State
	grace     int
	remaining int
	warnings  int
	log       Log
}

// NewMachine starts in Focused with the given grace window in seconds.
// grace <= 0 falls back to DefaultGraceSeconds.
func NewMachine(grace int) *Machine {
	if grace <= 0 {
		grace = DefaultGraceSeconds
	}
	return &Machine{state: StateFocused, grace: grace}
}

// LoseFocus transitions Focused -> Unfocused(grace), issues the next warning
// and records a blur event. Ignored in any other state: a repeated blur while
// already unfocused carries no information, and Terminated accepts nothing.
func (m *Machine) LoseFocus(now time.Time) {
	if m.state != StateFocused {
		return
	}
	m.state = StateUnfocused
	m.remaining = m.grace
	m.warnings++
	m.log.Append(Event{Kind: KindBlur, At: now, WarningNumber: m.warnings})
}

// RegainFocus transitions Unfocused -> Focused, recording how long the
// candidate was away. The grace window resets fully; only consecutive away
// time counts toward termination.
func (m *Machine) RegainFocus(now time.Time) {
	if m.state != StateUnfocused {
		return
	}
	m.log.Append(Event{Kind: KindFocus, At: now, TimeAwaySeconds: m.grace - m.remaining})
	m.state = StateFocused
	m.remaining = 0
}

// Tick consumes one second of the grace window. When the window reaches zero
// the machine terminates irreversibly. Ticks outside Unfocused are ignored.
func (m *Machine) Tick(now time.Time) {
	if m.state != StateUnfocused {
		return
	}
	m.remaining--
	if m.remaining > 0 {
		return
	}
	m.state = StateTerminated
	m.remaining = 0
	m.log.Append(Event{Kind: KindTerminate, At: now, Reason: terminateReason})
}

func (m *Machine) State() State      { return m.state }
func (m *Machine) Remaining() int    { return m.remaining }
func (m *Machine) Warnings() int     { return m.warnings }
func (m *Machine) Terminated() bool  { return m.state == StateTerminated }
func (m *Machine) Events() []Event   { return m.log.Events() }
func (m *Machine) DefocusCount() int { return m.log.DefocusCount() }
