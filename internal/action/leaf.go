package action

import (
	"time"

	"github.com/me/cannonbot/pkg/model"
)

// Behavior supplies the hooks of a Leaf. Hooks must not block: the scheduler
// calls them from its single tick goroutine.
type Behavior interface {
	Start(t Tick) error
	Drive(t Tick) error
	Done(t Tick) bool
	Stop(t Tick, interrupted bool) error
}

// Funcs adapts plain functions to Behavior. Nil hooks are no-ops; a nil
// IsDone never finishes.
type Funcs struct {
	OnStart func(t Tick) error
	OnDrive func(t Tick) error
	IsDone  func(t Tick) bool
	OnStop  func(t Tick, interrupted bool) error
}

func (f Funcs) Start(t Tick) error {
	if f.OnStart == nil {
		return nil
	}
	return f.OnStart(t)
}

func (f Funcs) Drive(t Tick) error {
	if f.OnDrive == nil {
		return nil
	}
	return f.OnDrive(t)
}

func (f Funcs) Done(t Tick) bool {
	if f.IsDone == nil {
		return false
	}
	return f.IsDone(t)
}

func (f Funcs) Stop(t Tick, interrupted bool) error {
	if f.OnStop == nil {
		return nil
	}
	return f.OnStop(t, interrupted)
}

// Leaf is an action whose hooks are supplied by a Behavior.
type Leaf struct {
	core
	behavior Behavior
}

// NewLeaf creates a leaf action. A nil behavior runs forever and does nothing.
func NewLeaf(name string, b Behavior, opts ...Option) *Leaf {
	if b == nil {
		b = Funcs{}
	}
	l := &Leaf{core: newCore(name), behavior: b}
	for _, opt := range opts {
		opt(&l.core)
	}
	return l
}

// Behavior returns the hooks backing the leaf.
func (l *Leaf) Behavior() Behavior { return l.behavior }

func (l *Leaf) Kind() Kind         { return KindLeaf }
func (l *Leaf) Children() []Action { return nil }

func (l *Leaf) onStart(t Tick) error                  { return l.behavior.Start(t) }
func (l *Leaf) onDrive(t Tick) error                  { return l.behavior.Drive(t) }
func (l *Leaf) isDone(t Tick) bool                    { return l.behavior.Done(t) }
func (l *Leaf) onStop(t Tick, interrupted bool) error { return l.behavior.Stop(t, interrupted) }

// NewRun creates a leaf that calls fn once when started and finishes on its
// first poll.
func NewRun(name string, fn func() error, opts ...Option) *Leaf {
	return NewLeaf(name, Funcs{
		OnStart: func(Tick) error {
			if fn == nil {
				return nil
			}
			return fn()
		},
		IsDone: func(Tick) bool { return true },
	}, opts...)
}

// NewIdle creates a leaf that owns reqs and never finishes. It is the
// do-nothing fallback for resources without a meaningful default.
func NewIdle(name string, reqs ...model.ResourceID) *Leaf {
	return NewLeaf(name, nil, Requires(reqs...))
}

type wait struct {
	d     time.Duration
	start time.Duration
}

func (w *wait) Start(t Tick) error {
	w.start = t.Now
	return nil
}

func (w *wait) Drive(Tick) error      { return nil }
func (w *wait) Done(t Tick) bool      { return t.Now-w.start >= w.d }
func (w *wait) Stop(Tick, bool) error { return nil }

// NewWait creates a timing action with no requirements that finishes once d
// has elapsed on the scheduler clock.
func NewWait(d time.Duration) *Leaf {
	return NewLeaf("wait("+d.String()+")", &wait{d: d})
}
