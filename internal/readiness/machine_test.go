package readiness

import (
	"testing"
	"time"
)

func TestMachineImmediateSuccess(t *testing.T) {
	m := NewMachine(time.Second, 20*time.Second, 3)

	got := m.Step(true)
	if got.State != StateLoaded || got.Effect != EffectNavigate {
		t.Errorf("Step(true) = %v/%v, want loaded/navigate", got.State, got.Effect)
	}
	if !m.Done() {
		t.Error("Done() = false after success, want true")
	}
}

func TestMachineBudgetSequence(t *testing.T) {
	// Window of 3 ticks at 1s: retry fires on the step that pushes
	// elapsed past the window, after three in-window failures.
	m := NewMachine(time.Second, 3*time.Second, 2)

	want := []Transition{
		{StatePolling, EffectNone},
		{StatePolling, EffectNone},
		{StatePolling, EffectNone},
		{StateRetrying, EffectShowRetry},
		{StatePolling, EffectNone},
		{StatePolling, EffectNone},
		{StatePolling, EffectNone},
		{StateRetrying, EffectShowRetry},
		{StatePolling, EffectNone},
		{StatePolling, EffectNone},
		{StatePolling, EffectNone},
		{StateFailed, EffectShowError},
	}
	for i, w := range want {
		got := m.Step(false)
		if got != w {
			t.Fatalf("step %d: Step(false) = %v/%v, want %v/%v", i+1, got.State, got.Effect, w.State, w.Effect)
		}
	}
	if m.Retries() != 2 {
		t.Errorf("Retries() = %d, want 2", m.Retries())
	}
}

func TestMachineDefaultBudgetLength(t *testing.T) {
	// 1s interval, 20s window, 3 retries: each window absorbs 21 failed
	// probes (retry fires strictly past the window), four windows total.
	m := NewMachine(time.Second, 20*time.Second, 3)

	steps := 0
	for !m.Done() {
		m.Step(false)
		steps++
		if steps > 1000 {
			t.Fatal("machine never reached a terminal state")
		}
	}
	if steps != 84 {
		t.Errorf("failed after %d probes, want 84", steps)
	}
	if m.State() != StateFailed {
		t.Errorf("State() = %v, want failed", m.State())
	}
	if m.Retries() != 3 {
		t.Errorf("Retries() = %d, want 3", m.Retries())
	}
}

func TestMachineSuccessAfterRetry(t *testing.T) {
	m := NewMachine(time.Second, 2*time.Second, 3)

	for i := 0; i < 3; i++ {
		m.Step(false)
	}
	if m.State() != StateRetrying {
		t.Fatalf("State() = %v after window expiry, want retrying", m.State())
	}

	got := m.Step(true)
	if got.State != StateLoaded || got.Effect != EffectNavigate {
		t.Errorf("Step(true) = %v/%v, want loaded/navigate", got.State, got.Effect)
	}
}

func TestMachineTerminalStatesAbsorb(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *Machine)
		want  State
	}{
		{
			name:  "loaded",
			setup: func(m *Machine) { m.Step(true) },
			want:  StateLoaded,
		},
		{
			name: "failed",
			setup: func(m *Machine) {
				for !m.Done() {
					m.Step(false)
				}
			},
			want: StateFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(time.Second, time.Second, 1)
			tt.setup(m)

			for _, up := range []bool{true, false} {
				got := m.Step(up)
				if got.State != tt.want || got.Effect != EffectNone {
					t.Errorf("Step(%v) after terminal = %v/%v, want %v/none", up, got.State, got.Effect, tt.want)
				}
			}
		})
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StatePolling, "polling"},
		{StateRetrying, "retrying"},
		{StateLoaded, "loaded"},
		{StateFailed, "failed"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
