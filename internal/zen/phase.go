package zen

import "time"

// Phase is one step of the box-breathing automaton.
type Phase int

const (
	PhaseInhale Phase = iota
	PhaseHoldIn
	PhaseExhale
	PhaseHoldOut
)

const (
	// CompletionThreshold is the number of full cycles a session needs to be
	// credited as complete.
	CompletionThreshold = 3
	// CycleDuration is the length of one inhale, hold, exhale, hold cycle.
	CycleDuration = 12 * time.Second
)

var phaseDurations = [...]time.Duration{
	PhaseInhale:  4 * time.Second,
	PhaseHoldIn:  2 * time.Second,
	PhaseExhale:  4 * time.Second,
	PhaseHoldOut: 2 * time.Second,
}

var phaseNames = [...]string{
	PhaseInhale:  "inhale",
	PhaseHoldIn:  "hold-in",
	PhaseExhale:  "exhale",
	PhaseHoldOut: "hold-out",
}

func (p Phase) valid() bool { return p >= PhaseInhale && p <= PhaseHoldOut }

// Duration is how long the phase lasts before the automaton advances.
func (p Phase) Duration() time.Duration {
	if !p.valid() {
		return 0
	}
	return phaseDurations[p]
}

// Next returns the phase that follows p. Leaving PhaseHoldOut completes a cycle.
func (p Phase) Next() Phase {
	if !p.valid() || p == PhaseHoldOut {
		return PhaseInhale
	}
	return p + 1
}

func (p Phase) String() string {
	if !p.valid() {
		return "unknown"
	}
	return phaseNames[p]
}

// PhaseEvent is emitted on every phase entry.
type PhaseEvent struct {
	Phase           Phase
	CyclesCompleted int
	Duration        time.Duration
}

// SessionResult is what a stopped session reports.
type SessionResult struct {
	CyclesCompleted int
}

// Credited reports whether the session reached CompletionThreshold.
func (r SessionResult) Credited() bool { return r.CyclesCompleted >= CompletionThreshold }
