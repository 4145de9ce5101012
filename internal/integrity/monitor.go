package integrity

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of a monitor's observable state.
type Snapshot struct {
	State        State   `json:"state"`
	Remaining    int     `json:"remaining_seconds"`
	Warnings     int     `json:"warning_count"`
	DefocusCount int     `json:"defocus_count"`
	Terminated   bool    `json:"terminated"`
	Events       []Event `json:"events"`
}

// Monitor runs a Machine. A single goroutine consumes focus signals and
// countdown ticks from one select loop, so no tick is ever processed while a
// focus/blur transition is in flight. The countdown ticker is owned here and
// stopped deterministically whenever the machine leaves Unfocused or the
// monitor shuts down.
type Monitor struct {
	clock Clock

	mu   sync.Mutex
	mach *Machine

	signals chan bool
	stop    chan struct{}
	done    chan struct{}

	closeOnce sync.Once
}

// NewMonitor starts the monitor goroutine. grace <= 0 uses the default
// 60-second window.
func NewMonitor(clock Clock, grace int) *Monitor {
	m := &Monitor{
		clock:   clock,
		mach:    NewMachine(grace),
		signals: make(chan bool, 16),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go m.run()
	return m
}

// Signal delivers a window focus edge: false for blur, true for focus.
// Signals arriving after termination or shutdown are dropped.
func (m *Monitor) Signal(focused bool) {
	select {
	case m.signals <- focused:
	case <-m.stop:
	case <-m.done:
	}
}

// Done is closed once the machine terminates. The submission flow listens on
// it so a terminated session submits automatically instead of stalling.
func (m *Monitor) Done() <-chan struct{} { return m.done }

// Close stops the goroutine and any live ticker. The machine keeps its final
// state and log; Snapshot stays valid after Close.
func (m *Monitor) Close() {
	m.closeOnce.Do(func() { close(m.stop) })
}

func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		State:        m.mach.State(),
		Remaining:    m.mach.Remaining(),
		Warnings:     m.mach.Warnings(),
		DefocusCount: m.mach.DefocusCount(),
		Terminated:   m.mach.Terminated(),
		Events:       m.mach.Events(),
	}
}

func (m *Monitor) run() {
	var ticker Ticker
	var tick <-chan time.Time

	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tick = nil
		}
	}
	defer stopTicker()

	for {
		select {
		case focused := <-m.signals:
			m.mu.Lock()
			if focused {
				m.mach.RegainFocus(m.clock.Now())
			} else {
				m.mach.LoseFocus(m.clock.Now())
			}
			state := m.mach.State()
			m.mu.Unlock()

			switch state {
			case StateUnfocused:
				if ticker == nil {
					ticker = m.clock.NewTicker(time.Second)
					tick = ticker.C()
				}
			default:
				stopTicker()
			}

		case now := <-tick:
			m.mu.Lock()
			m.mach.Tick(now)
			terminated := m.mach.Terminated()
			m.mu.Unlock()

			if terminated {
				stopTicker()
				close(m.done)
				return
			}

		case <-m.stop:
			return
		}
	}
}
