package action

import (
	"errors"
	"fmt"

	"github.com/me/cannonbot/pkg/model"
)

// Start moves a from IDLE to RUNNING and invokes its start hook. A hook
// error or panic is returned as *model.HookFault; the action stays RUNNING so
// the caller can force-stop it.
func Start(a Action, t Tick) (err error) {
	c := a.base()
	if !c.state.CanTransitionTo(model.ActionStateRunning) {
		return fmt.Errorf("start %s: %w", c.name, model.ErrActionReused)
	}
	c.state = model.ActionStateRunning
	defer recoverHook(a, model.HookStart, &err)
	return asFault(a, model.HookStart, a.onStart(t))
}

// Drive invokes the drive hook of a running action and then its termination
// test. A finished action is reported with done=true and must be passed to
// Stop by the caller. Drive on an action that is not running is a no-op.
func Drive(a Action, t Tick) (done bool, err error) {
	c := a.base()
	if c.state != model.ActionStateRunning {
		return c.state.IsTerminal(), nil
	}
	defer recoverHook(a, model.HookDrive, &err)
	if err := a.onDrive(t); err != nil {
		return false, asFault(a, model.HookDrive, err)
	}
	return a.isDone(t), nil
}

// Stop moves a running action to FINISHED and invokes its stop hook with the
// interrupted flag. The transition happens even if the hook fails. Stop on an
// action that is not running is a no-op.
func Stop(a Action, t Tick, interrupted bool) (err error) {
	c := a.base()
	if c.state != model.ActionStateRunning {
		return nil
	}
	c.state = model.ActionStateFinished
	defer recoverHook(a, model.HookStop, &err)
	return asFault(a, model.HookStop, a.onStop(t, interrupted))
}

// asFault wraps err as a HookFault of a unless it already is one raised by a
// descendant.
func asFault(a Action, hook model.Hook, err error) error {
	if err == nil {
		return nil
	}
	var hf *model.HookFault
	if errors.As(err, &hf) {
		return err
	}
	return &model.HookFault{Action: a.Name(), Hook: hook, Cause: err}
}

func recoverHook(a Action, hook model.Hook, err *error) {
	r := recover()
	if r == nil {
		return
	}
	cause, ok := r.(error)
	if !ok {
		cause = fmt.Errorf("%v", r)
	}
	*err = &model.HookFault{Action: a.Name(), Hook: hook, Cause: cause, Panic: true}
}

// stopRunning stops every running child with the given flag and returns the
// first failure. Every child is attempted.
func stopRunning(children []Action, t Tick, interrupted bool) error {
	var first error
	for _, c := range children {
		if c.State() != model.ActionStateRunning {
			continue
		}
		if err := Stop(c, t, interrupted); err != nil && first == nil {
			first = err
		}
	}
	return first
}
