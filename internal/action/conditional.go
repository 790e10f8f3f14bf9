package action

import (
	"github.com/me/cannonbot/pkg/model"
)

// Conditional selects one of two branches when it starts. The predicate is
// evaluated exactly once per run; the selection never changes mid-run.
// Re-evaluating requires scheduling a fresh instance.
type Conditional struct {
	core
	predicate func() bool
	onTrue    Action
	onFalse   Action
	selected  Action
}

// NewConditional builds a branch on predicate. Its requirements are the
// union of both branches so that whichever branch runs already owns what it
// needs.
func NewConditional(predicate func() bool, onTrue, onFalse Action) (*Conditional, error) {
	if predicate == nil {
		return nil, model.NewConfigError("conditional", "predicate is nil")
	}
	branches := []Action{onTrue, onFalse}
	c, err := newComposite("conditional", branches, false)
	if err != nil {
		return nil, err
	}
	return &Conditional{core: c, predicate: predicate, onTrue: onTrue, onFalse: onFalse}, nil
}

func (c *Conditional) Kind() Kind         { return KindConditional }
func (c *Conditional) Children() []Action { return []Action{c.onTrue, c.onFalse} }

// Selected returns the branch chosen at start, or nil before start.
func (c *Conditional) Selected() Action { return c.selected }

func (c *Conditional) onStart(t Tick) error {
	if c.predicate() {
		c.selected = c.onTrue
	} else {
		c.selected = c.onFalse
	}
	return Start(c.selected, t)
}

func (c *Conditional) onDrive(t Tick) error {
	done, err := Drive(c.selected, t)
	if err != nil {
		return err
	}
	if done {
		return Stop(c.selected, t, false)
	}
	return nil
}

func (c *Conditional) isDone(Tick) bool {
	return c.selected != nil && c.selected.State() == model.ActionStateFinished
}

func (c *Conditional) onStop(t Tick, interrupted bool) error {
	if c.selected == nil {
		return nil
	}
	return Stop(c.selected, t, interrupted)
}
