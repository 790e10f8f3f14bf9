package action

import (
	"github.com/me/cannonbot/pkg/model"
)

// ParallelAll runs all children at once and finishes when every child has
// finished.
type ParallelAll struct {
	core
	children []Action
}

// NewParallelAll composes children that run together. Children must not
// share a resource and at least one child is required.
func NewParallelAll(children ...Action) (*ParallelAll, error) {
	if len(children) == 0 {
		return nil, model.NewConfigError("parallel_all", "at least one child is required")
	}
	c, err := newComposite("parallel_all", children, true)
	if err != nil {
		return nil, err
	}
	return &ParallelAll{core: c, children: children}, nil
}

func (p *ParallelAll) Kind() Kind         { return KindParallelAll }
func (p *ParallelAll) Children() []Action { return p.children }

func (p *ParallelAll) onStart(t Tick) error {
	for _, c := range p.children {
		if err := Start(c, t); err != nil {
			return err
		}
	}
	return nil
}

func (p *ParallelAll) onDrive(t Tick) error {
	for _, c := range p.children {
		if c.State() != model.ActionStateRunning {
			continue
		}
		done, err := Drive(c, t)
		if err != nil {
			return err
		}
		if done {
			if err := Stop(c, t, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *ParallelAll) isDone(Tick) bool {
	for _, c := range p.children {
		if c.State() != model.ActionStateFinished {
			return false
		}
	}
	return true
}

func (p *ParallelAll) onStop(t Tick, _ bool) error {
	return stopRunning(p.children, t, true)
}

// ParallelRace runs all children at once and finishes as soon as one of them
// finishes. The others are stopped as interrupted in that same tick.
type ParallelRace struct {
	core
	children []Action
	winner   Action
}

// NewParallelRace composes children that race each other. Children must not
// share a resource and at least one child is required.
func NewParallelRace(children ...Action) (*ParallelRace, error) {
	if len(children) == 0 {
		return nil, model.NewConfigError("parallel_race", "at least one child is required")
	}
	c, err := newComposite("parallel_race", children, true)
	if err != nil {
		return nil, err
	}
	return &ParallelRace{core: c, children: children}, nil
}

func (r *ParallelRace) Kind() Kind         { return KindParallelRace }
func (r *ParallelRace) Children() []Action { return r.children }

// Winner returns the child that finished first, or nil.
func (r *ParallelRace) Winner() Action { return r.winner }

func (r *ParallelRace) onStart(t Tick) error {
	r.winner = nil
	for _, c := range r.children {
		if err := Start(c, t); err != nil {
			return err
		}
	}
	return nil
}

func (r *ParallelRace) onDrive(t Tick) error {
	for _, c := range r.children {
		if c.State() != model.ActionStateRunning {
			continue
		}
		done, err := Drive(c, t)
		if err != nil {
			return err
		}
		if !done {
			continue
		}
		r.winner = c
		if err := Stop(c, t, false); err != nil {
			return err
		}
		return stopRunning(r.children, t, true)
	}
	return nil
}

func (r *ParallelRace) isDone(Tick) bool {
	return r.winner != nil
}

func (r *ParallelRace) onStop(t Tick, _ bool) error {
	return stopRunning(r.children, t, true)
}
