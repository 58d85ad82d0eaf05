// Package readiness decides when the Kolibri server is up and what the
// window should show while it is not.
package readiness

import "time"

// State of the readiness check.
type State int

const (
	// StatePolling means probes are being issued on the tick interval.
	StatePolling State = iota
	// StateRetrying means a wait window expired and a fresh one began.
	StateRetrying
	// StateLoaded means the server answered and the app page is live. Terminal.
	StateLoaded
	// StateFailed means every retry window expired. Terminal.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateRetrying:
		return "retrying"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Effect is what the UI should do after a step.
type Effect int

const (
	EffectNone Effect = iota
	// EffectNavigate leaves the loading page for the live server.
	EffectNavigate
	// EffectShowRetry surfaces the retry notice on the loading page.
	EffectShowRetry
	// EffectShowError surfaces the permanent failure notice.
	EffectShowError
)

// Transition is the result of feeding one probe outcome to the machine.
type Transition struct {
	State  State
	Effect Effect
}

// Machine turns a sequence of probe outcomes into states and UI effects.
// It is pure bookkeeping: the poller owns timing and probing, the machine
// owns the budget arithmetic, so the whole budget is testable without a
// server or a clock.
type Machine struct {
	interval   time.Duration
	window     time.Duration
	maxRetries int

	state   State
	elapsed time.Duration
	retries int
}

// NewMachine builds a machine with the given probe interval, wait window
// per attempt, and number of extra windows granted before giving up.
func NewMachine(interval, window time.Duration, maxRetries int) *Machine {
	return &Machine{interval: interval, window: window, maxRetries: maxRetries}
}

// Interval is the probe cadence the poller should use.
func (m *Machine) Interval() time.Duration { return m.interval }

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Retries returns how many wait windows have expired so far.
func (m *Machine) Retries() int { return m.retries }

// Done reports whether the machine reached a terminal state.
func (m *Machine) Done() bool {
	return m.state == StateLoaded || m.state == StateFailed
}

// Step feeds one probe outcome and returns the resulting transition.
// Terminal states absorb further steps without effects.
func (m *Machine) Step(up bool) Transition {
	if m.Done() {
		return Transition{State: m.state, Effect: EffectNone}
	}
	if up {
		m.state = StateLoaded
		return Transition{State: StateLoaded, Effect: EffectNavigate}
	}

	m.elapsed += m.interval
	if m.elapsed <= m.window {
		m.state = StatePolling
		return Transition{State: StatePolling, Effect: EffectNone}
	}
	if m.retries < m.maxRetries {
		m.retries++
		m.elapsed = 0
		m.state = StateRetrying
		return Transition{State: StateRetrying, Effect: EffectShowRetry}
	}
	m.state = StateFailed
	return Transition{State: StateFailed, Effect: EffectShowError}
}
