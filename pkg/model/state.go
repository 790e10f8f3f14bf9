package model

// ActionState represents the lifecycle state of an Action.
type ActionState string

const (
	ActionStateIdle     ActionState = "IDLE"
	ActionStateRunning  ActionState = "RUNNING"
	ActionStateFinished ActionState = "FINISHED"
)

// String returns the string representation of the action state.
func (s ActionState) String() string {
	return string(s)
}

// IsTerminal returns true if the action can no longer run.
func (s ActionState) IsTerminal() bool {
	return s == ActionStateFinished
}

// ValidActionTransitions defines the allowed state transitions for Actions.
// There is no way back from FINISHED: a finished action is discarded and
// re-scheduling requires a fresh instance.
var ValidActionTransitions = map[ActionState][]ActionState{
	ActionStateIdle:    {ActionStateRunning},
	ActionStateRunning: {ActionStateFinished},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s ActionState) CanTransitionTo(next ActionState) bool {
	for _, allowed := range ValidActionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ResourceID identifies one physical actuator group ("cannon", "drivetrain").
type ResourceID string

// String returns the resource name.
func (r ResourceID) String() string {
	return string(r)
}
