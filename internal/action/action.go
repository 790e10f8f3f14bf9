// Package action defines the schedulable unit of work and the closed set of
// combinators that build larger actions out of smaller ones.
//
// Every action moves through IDLE → RUNNING → FINISHED exactly once. The
// lifecycle is driven through Start, Drive and Stop, which are used both by
// the scheduler for top-level actions and by composites for their children.
package action

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/me/cannonbot/pkg/model"
)

// Kind enumerates the fixed set of action implementations.
type Kind int

const (
	KindLeaf Kind = iota
	KindSequential
	KindParallelAll
	KindParallelRace
	KindConditional
	KindTimeout
	KindInstant
)

var kindNames = [...]string{
	KindLeaf:         "leaf",
	KindSequential:   "sequential",
	KindParallelAll:  "parallel_all",
	KindParallelRace: "parallel_race",
	KindConditional:  "conditional",
	KindTimeout:      "timeout",
	KindInstant:      "instant",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Tick is the clock information handed to every hook. Now is the scheduler's
// accumulated clock, not a wall-clock sample.
type Tick struct {
	Seq   uint64
	Now   time.Duration
	Delta time.Duration
}

// Action is a schedulable unit of work. The interface is sealed: the only
// implementations are the ones in this package, enumerated by Kind. Custom
// behaviour is plugged in through a Leaf.
type Action interface {
	Name() string
	Requirements() []model.ResourceID
	Interruptible() bool
	State() model.ActionState
	Kind() Kind
	Children() []Action

	base() *core
	onStart(t Tick) error
	onDrive(t Tick) error
	isDone(t Tick) bool
	onStop(t Tick, interrupted bool) error
}

// Factory builds a fresh action instance. Finished actions are never reused,
// so anything scheduled repeatedly (bindings, fallbacks) is held as a Factory.
type Factory func() (Action, error)

// core carries the state shared by every kind.
type core struct {
	name          string
	reqs          []model.ResourceID
	interruptible bool
	state         model.ActionState
	bound         bool
}

func newCore(name string) core {
	return core{name: name, interruptible: true, state: model.ActionStateIdle}
}

func (c *core) Name() string             { return c.name }
func (c *core) Interruptible() bool      { return c.interruptible }
func (c *core) State() model.ActionState { return c.state }
func (c *core) base() *core              { return c }

// Requirements returns the sorted set of resources the action must own while
// running. The returned slice is a copy.
func (c *core) Requirements() []model.ResourceID {
	out := make([]model.ResourceID, len(c.reqs))
	copy(out, c.reqs)
	return out
}

// Bound reports whether a is attached to a composite. Bound actions may only
// be driven by their parent.
func Bound(a Action) bool {
	return a.base().bound
}

// Option configures a leaf action.
type Option func(*core)

// Requires declares the resources a leaf must own while running.
func Requires(ids ...model.ResourceID) Option {
	return func(c *core) {
		c.reqs = normalize(append(c.reqs, ids...))
	}
}

// Uninterruptible marks the action as one that conflicting schedule requests
// cannot pre-empt.
func Uninterruptible() Option {
	return func(c *core) {
		c.interruptible = false
	}
}

// Rename replaces the display name of a and returns it.
func Rename[T Action](a T, name string) T {
	a.base().name = name
	return a
}

// Must panics if err is non-nil. Intended for package-level wiring and tests
// where a ConfigError is a programming mistake.
func Must[T Action](a T, err error) T {
	if err != nil {
		panic(err)
	}
	return a
}

// normalize sorts and de-duplicates resource ids.
func normalize(ids []model.ResourceID) []model.ResourceID {
	if len(ids) == 0 {
		return nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}

// bind attaches children to a composite. Either every child is attached or
// none is.
func bind(component string, children []Action) error {
	for i, c := range children {
		if c == nil {
			return model.NewConfigError(component, "child %d is nil", i)
		}
		b := c.base()
		if b.bound {
			return model.NewConfigError(component, "child %q already belongs to another composite", b.name)
		}
		if b.state != model.ActionStateIdle {
			return model.NewConfigError(component, "child %q is %s, want IDLE", b.name, b.state)
		}
		for _, prev := range children[:i] {
			if prev == c {
				return model.NewConfigError(component, "child %q listed twice", b.name)
			}
		}
	}
	for _, c := range children {
		c.base().bound = true
	}
	return nil
}

// union merges the requirements of children. When exclusive is set, a
// resource claimed by two children is rejected.
func union(component string, children []Action, exclusive bool) ([]model.ResourceID, error) {
	seen := make(map[model.ResourceID]string)
	var out []model.ResourceID
	for _, c := range children {
		for _, r := range c.base().reqs {
			if owner, dup := seen[r]; dup {
				if exclusive {
					return nil, model.NewConfigError(component, "resource %s required by both %q and %q", r, owner, c.Name())
				}
				continue
			}
			seen[r] = c.Name()
			out = append(out, r)
		}
	}
	return normalize(out), nil
}

func allInterruptible(children []Action) bool {
	for _, c := range children {
		if !c.Interruptible() {
			return false
		}
	}
	return true
}

func joinNames(kind string, children []Action) string {
	names := make([]string, len(children))
	for i, c := range children {
		names[i] = c.Name()
	}
	return kind + "(" + strings.Join(names, ",") + ")"
}

// newComposite validates and binds children and derives the shared fields.
func newComposite(kind string, children []Action, exclusive bool) (core, error) {
	if err := bind(kind, children); err != nil {
		return core{}, err
	}
	reqs, err := union(kind, children, exclusive)
	if err != nil {
		for _, c := range children {
			c.base().bound = false
		}
		return core{}, err
	}
	c := newCore(joinNames(kind, children))
	c.reqs = reqs
	c.interruptible = allInterruptible(children)
	return c, nil
}
