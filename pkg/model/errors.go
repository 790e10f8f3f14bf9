package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrActionReused is returned when a finished action, or an action already
// bound to a composite, is handed to the scheduler.
var ErrActionReused = errors.New("action cannot be scheduled: finished or owned by a composite")

// ConflictError is returned when an action cannot be scheduled because a
// non-interruptible action already owns one of its resources. Scheduling is
// rejected and no ownership changes.
type ConflictError struct {
	Action   string
	Resource ResourceID
	Owner    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s requires %s, held by non-interruptible %s", e.Action, e.Resource, e.Owner)
}

// ConfigError describes a structural misconfiguration detected while building
// actions or registering resources and fallbacks.
type ConfigError struct {
	Component string
	Message   string
}

func (e *ConfigError) Error() string {
	if e.Component == "" {
		return "config: " + e.Message
	}
	return fmt.Sprintf("config: %s: %s", e.Component, e.Message)
}

// NewConfigError creates a ConfigError with a formatted message.
func NewConfigError(component, format string, args ...any) *ConfigError {
	return &ConfigError{Component: component, Message: fmt.Sprintf(format, args...)}
}

// Hook names an action lifecycle hook.
type Hook string

const (
	HookStart Hook = "start"
	HookDrive Hook = "drive"
	HookStop  Hook = "stop"
)

// HookFault wraps a failure raised by an action hook, either a returned
// error or a recovered panic.
type HookFault struct {
	Action string
	Hook   Hook
	Cause  error
	Panic  bool
}

func (e *HookFault) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "hook fault: %s %s", e.Action, e.Hook)
	if e.Panic {
		b.WriteString(" (panic)")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *HookFault) Unwrap() error {
	return e.Cause
}
