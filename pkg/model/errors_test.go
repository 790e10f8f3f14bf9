package model

import (
	"errors"
	"testing"
)

func TestConflictError_Error(t *testing.T) {
	err := &ConflictError{Action: "fire", Resource: "cannon", Owner: "revolve"}
	want := "conflict: fire requires cannon, held by non-interruptible revolve"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("parallel", "resource %s required by %d children", "cannon", 2)
	want := "config: parallel: resource cannon required by 2 children"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := &ConfigError{Message: "no resources"}
	if got := bare.Error(); got != "config: no resources" {
		t.Errorf("Error() = %q, want %q", got, "config: no resources")
	}
}

func TestHookFault_Unwrap(t *testing.T) {
	cause := errors.New("valve stuck")
	err := &HookFault{Action: "reload", Hook: HookDrive, Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(fault, cause) = false, want true")
	}
	want := "hook fault: reload drive: valve stuck"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	p := &HookFault{Action: "aim", Hook: HookStart, Cause: errors.New("nil motor"), Panic: true}
	want = "hook fault: aim start (panic): nil motor"
	if got := p.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
