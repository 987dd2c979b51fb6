package model

import "fmt"

const (
	PhaseIdle      = "idle"
	PhaseRunning   = "running"
	PhaseCompleted = "completed"
	PhaseCancelled = "cancelled"
	PhaseError     = "error"
)

// The terminal phases double as the resting state between runs: a new run
// may start from any phase except running.
var allowedTransitions = map[string]map[string]bool{
	PhaseIdle: {
		PhaseRunning: true,
	},
	PhaseRunning: {
		PhaseCompleted: true,
		PhaseCancelled: true,
		PhaseError:     true,
	},
	PhaseCompleted: {
		PhaseRunning: true,
	},
	PhaseCancelled: {
		PhaseRunning: true,
	},
	PhaseError: {
		PhaseRunning: true,
	},
}

func IsKnownPhase(phase string) bool {
	_, ok := allowedTransitions[phase]
	return ok
}

func CanTransition(from, to string) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

func Transition(from, to string) (string, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("invalid run phase transition: %q -> %q", from, to)
	}
	return to, nil
}
