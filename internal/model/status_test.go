package model

import "testing"

func TestCanTransition_AllowsExpectedPaths(t *testing.T) {
	cases := []struct {
		from string
		to   string
	}{
		{PhaseIdle, PhaseRunning},
		{PhaseRunning, PhaseCompleted},
		{PhaseRunning, PhaseCancelled},
		{PhaseRunning, PhaseError},
		{PhaseCompleted, PhaseRunning},
		{PhaseCancelled, PhaseRunning},
		{PhaseError, PhaseRunning},
	}
	for _, tc := range cases {
		if !CanTransition(tc.from, tc.to) {
			t.Fatalf("expected transition %q -> %q to be allowed", tc.from, tc.to)
		}
	}
}

func TestCanTransition_RejectsInvalidPaths(t *testing.T) {
	cases := []struct {
		from string
		to   string
	}{
		{PhaseIdle, PhaseCompleted},
		{PhaseRunning, PhaseRunning},
		{PhaseCompleted, PhaseError},
		{"not_a_phase", PhaseRunning},
	}
	for _, tc := range cases {
		if CanTransition(tc.from, tc.to) {
			t.Fatalf("expected transition %q -> %q to be rejected", tc.from, tc.to)
		}
	}
}

func TestTransitionReturnsCurrentOnFailure(t *testing.T) {
	got, err := Transition(PhaseIdle, PhaseError)
	if err == nil {
		t.Fatal("expected illegal transition error")
	}
	if got != PhaseIdle {
		t.Fatalf("failed transition must keep the current phase, got %q", got)
	}
}

func TestIsKnownPhase(t *testing.T) {
	for _, phase := range []string{PhaseIdle, PhaseRunning, PhaseCompleted, PhaseCancelled, PhaseError} {
		if !IsKnownPhase(phase) {
			t.Fatalf("phase %q must be known", phase)
		}
	}
	if IsKnownPhase("paused") {
		t.Fatal("unknown phase accepted")
	}
}
