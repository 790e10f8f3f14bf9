// Package trigger binds gamepad buttons to actions. Bindings are polled at
// the start of every scheduler tick.
package trigger

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/me/cannonbot/internal/action"
	"github.com/me/cannonbot/internal/hardware"
	"github.com/me/cannonbot/internal/scheduler"
	"github.com/me/cannonbot/pkg/model"
)

// Scheduler is the part of the scheduler bindings need.
type Scheduler interface {
	Schedule(a action.Action) (scheduler.Handle, error)
	Cancel(h scheduler.Handle) bool
	IsActive(h scheduler.Handle) bool
}

// Mode selects when a binding schedules and cancels its action.
type Mode int

const (
	// OnTrue schedules a fresh action on every rising edge.
	OnTrue Mode = iota
	// WhileHeld schedules on the rising edge and cancels on release.
	WhileHeld
)

func (m Mode) String() string {
	if m == WhileHeld {
		return "while_held"
	}
	return "on_true"
}

type binding struct {
	button  hardware.Button
	mode    Mode
	factory action.Factory
	name    string
	handle  scheduler.Handle
}

// Binding describes one registered binding.
type Binding struct {
	Button hardware.Button `json:"button"`
	Mode   string          `json:"mode"`
	Action string          `json:"action"`
}

// Bindings polls an input source and schedules bound actions.
type Bindings struct {
	sched    Scheduler
	input    hardware.InputSource
	logger   *slog.Logger
	bindings []*binding
	rejected int
}

// New creates an empty set of bindings.
func New(sched Scheduler, input hardware.InputSource, logger *slog.Logger) *Bindings {
	return &Bindings{
		sched:  sched,
		input:  input,
		logger: logger.With("component", "trigger"),
	}
}

// OnTrue schedules a fresh action from factory on every press of button.
func (b *Bindings) OnTrue(button hardware.Button, factory action.Factory) error {
	return b.add(button, OnTrue, factory)
}

// WhileHeld runs an action from factory for as long as button is held.
func (b *Bindings) WhileHeld(button hardware.Button, factory action.Factory) error {
	return b.add(button, WhileHeld, factory)
}

// add validates factory by building one instance, so a broken composition
// fails at setup rather than on the first press.
func (b *Bindings) add(button hardware.Button, mode Mode, factory action.Factory) error {
	if factory == nil {
		return model.NewConfigError("trigger", "nil factory for button %s", button)
	}
	a, err := factory()
	if err != nil {
		return fmt.Errorf("bind %s: %w", button, err)
	}
	if a == nil {
		return model.NewConfigError("trigger", "factory for button %s returned nil", button)
	}
	b.bindings = append(b.bindings, &binding{button: button, mode: mode, factory: factory, name: a.Name()})
	return nil
}

// List returns the registered bindings in registration order.
func (b *Bindings) List() []Binding {
	out := make([]Binding, 0, len(b.bindings))
	for _, bd := range b.bindings {
		out = append(out, Binding{Button: bd.button, Mode: bd.mode.String(), Action: bd.name})
	}
	return out
}

// Rejected returns how many presses were refused by the scheduler.
func (b *Bindings) Rejected() int { return b.rejected }

// Poll implements scheduler.Poller. Each button edge is read once per tick
// and shared by every binding on that button.
func (b *Bindings) Poll(t action.Tick) {
	edges := make(map[hardware.Button]bool)
	for _, bd := range b.bindings {
		edge, seen := edges[bd.button]
		if !seen {
			edge = b.input.ButtonEdge(bd.button)
			edges[bd.button] = edge
		}
		if edge {
			b.fire(bd, t)
		}
		if bd.mode == WhileHeld && bd.handle != 0 && !b.input.ButtonHeld(bd.button) {
			b.sched.Cancel(bd.handle)
			bd.handle = 0
		}
	}
}

func (b *Bindings) fire(bd *binding, t action.Tick) {
	if bd.mode == WhileHeld && bd.handle != 0 && b.sched.IsActive(bd.handle) {
		return
	}
	a, err := bd.factory()
	if err != nil {
		b.logger.Error("build bound action", "button", bd.button, "error", err)
		return
	}
	h, err := b.sched.Schedule(a)
	var conflict *model.ConflictError
	switch {
	case errors.As(err, &conflict):
		b.rejected++
		b.logger.Warn("button press rejected", "button", bd.button, "action", a.Name(), "owner", conflict.Owner, "tick", t.Seq)
		return
	case err != nil:
		b.logger.Error("schedule bound action", "button", bd.button, "action", a.Name(), "error", err)
		return
	}
	b.logger.Debug("button pressed", "button", bd.button, "action", a.Name(), "tick", t.Seq)
	bd.handle = h
}
