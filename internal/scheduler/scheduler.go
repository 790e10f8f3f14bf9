// Package scheduler arbitrates actions over exclusive resources and drives
// them from a cooperative, fixed-period tick.
//
// All state is owned by the goroutine that calls Schedule, Cancel and Tick.
// Other goroutines may only read the published Snapshot.
package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/me/cannonbot/internal/action"
	"github.com/me/cannonbot/pkg/model"
)

// Handle identifies one scheduled action instance. Zero is never used.
type Handle uint64

// Config holds scheduler configuration.
type Config struct {
	Period time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Period: 20 * time.Millisecond}
}

// Option configures optional Scheduler dependencies.
type Option func(*Scheduler)

// WithObserver adds an event observer.
func WithObserver(obs Observer) Option {
	return func(s *Scheduler) {
		s.observers = append(s.observers, obs)
	}
}

// WithPoller adds a poller that runs at the start of every tick.
func WithPoller(p Poller) Option {
	return func(s *Scheduler) {
		s.pollers = append(s.pollers, p)
	}
}

// WithClock overrides the wall clock used to timestamp events.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// resource is the ownership record of one actuator group. owner is a handle
// into the active table, never a pointer to the action.
type resource struct {
	id       model.ResourceID
	owner    Handle
	fallback action.Factory
	name     string
	prebuilt action.Action
	// fallbackHandle is the active fallback instance, if any.
	fallbackHandle Handle
	terminalSeen   bool
	buildFailed    bool
}

// entry is one active top-level action. An action scheduled while a tick is
// in progress is first driven on the following tick.
type entry struct {
	handle      Handle
	action      action.Action
	startedTick uint64
	midTick     bool
	fallbackFor model.ResourceID
}

// Scheduler owns the resources, the active actions and the tick clock.
type Scheduler struct {
	config    Config
	logger    *slog.Logger
	observers Observers
	pollers   []Poller
	now       func() time.Time

	resources map[model.ResourceID]*resource
	resOrder  []model.ResourceID
	active    map[Handle]*entry
	order     []Handle
	next      Handle
	clock     action.Tick
	ticking   bool

	mu       sync.RWMutex
	snapshot Snapshot
}

// New creates a Scheduler with no resources.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Scheduler {
	if cfg.Period <= 0 {
		cfg.Period = DefaultConfig().Period
	}
	s := &Scheduler{
		config:    cfg,
		logger:    logger.With("component", "scheduler"),
		now:       time.Now,
		resources: make(map[model.ResourceID]*resource),
		active:    make(map[Handle]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.publish()
	return s
}

// Config returns the scheduler configuration.
func (s *Scheduler) Config() Config { return s.config }

// Clock returns the clock of the most recent tick. Seq is the number of the
// next tick to run.
func (s *Scheduler) Clock() action.Tick { return s.clock }

// AddPoller registers p to run at the start of every tick.
func (s *Scheduler) AddPoller(p Poller) {
	s.pollers = append(s.pollers, p)
}

// AddResource registers an actuator group. Resources live for the lifetime
// of the scheduler.
func (s *Scheduler) AddResource(id model.ResourceID) error {
	if id == "" {
		return model.NewConfigError("scheduler", "empty resource id")
	}
	if _, dup := s.resources[id]; dup {
		return model.NewConfigError("scheduler", "resource %s registered twice", id)
	}
	s.resources[id] = &resource{id: id}
	s.resOrder = append(s.resOrder, id)
	s.publish()
	return nil
}

// RegisterFallback sets the action a resource runs whenever it has no owner.
// The factory is invoked once here so that misconfiguration surfaces at
// setup: the fallback must require exactly its resource and be
// interruptible.
func (s *Scheduler) RegisterFallback(id model.ResourceID, factory action.Factory) error {
	rs, ok := s.resources[id]
	if !ok {
		return model.NewConfigError("fallback", "unknown resource %s", id)
	}
	if factory == nil {
		return model.NewConfigError("fallback", "nil factory for %s", id)
	}
	if rs.fallback != nil {
		return model.NewConfigError("fallback", "resource %s already has fallback %s", id, rs.name)
	}
	a, err := factory()
	if err != nil {
		return fmt.Errorf("build fallback for %s: %w", id, err)
	}
	if a == nil {
		return model.NewConfigError("fallback", "factory for %s returned nil", id)
	}
	if err := checkFallback(id, a); err != nil {
		return err
	}
	rs.fallback = factory
	rs.name = a.Name()
	rs.prebuilt = a
	s.logger.Debug("fallback registered", "resource", id, "action", rs.name)
	s.publish()
	return nil
}

// checkFallback enforces the fallback contract on one built instance.
func checkFallback(id model.ResourceID, a action.Action) error {
	reqs := a.Requirements()
	if len(reqs) != 1 || reqs[0] != id {
		return model.NewConfigError("fallback", "%s must require exactly %s, requires %v", a.Name(), id, reqs)
	}
	if !a.Interruptible() {
		return model.NewConfigError("fallback", "%s for %s must be interruptible", a.Name(), id)
	}
	return nil
}

// Schedule arbitrates a against the active actions and starts it.
//
// If any resource a requires is owned by a non-interruptible action, a
// *model.ConflictError is returned and nothing changes. Otherwise every
// conflicting owner is stopped as interrupted and released before a takes
// ownership and its start hook runs. Scheduling an action that is already
// active returns its handle.
func (s *Scheduler) Schedule(a action.Action) (Handle, error) {
	h, err := s.schedule(a, "")
	s.publish()
	return h, err
}

func (s *Scheduler) schedule(a action.Action, fallbackFor model.ResourceID) (Handle, error) {
	if a == nil {
		return 0, fmt.Errorf("schedule: nil action")
	}
	for _, h := range s.order {
		if s.active[h].action == a {
			return h, nil
		}
	}
	if action.Bound(a) || a.State() != model.ActionStateIdle {
		return 0, fmt.Errorf("schedule %s: %w", a.Name(), model.ErrActionReused)
	}

	reqs := a.Requirements()
	var victims []*entry
	for _, id := range reqs {
		rs, ok := s.resources[id]
		if !ok {
			return 0, model.NewConfigError("scheduler", "%s requires unknown resource %s", a.Name(), id)
		}
		if rs.owner == 0 {
			continue
		}
		owner := s.active[rs.owner]
		if !owner.action.Interruptible() {
			err := &model.ConflictError{Action: a.Name(), Resource: id, Owner: owner.action.Name()}
			s.logger.Warn("schedule rejected", "action", a.Name(), "resource", id, "owner", owner.action.Name())
			s.emit(model.EventRejected, a.Name(), 0, reqs, err.Error())
			return 0, err
		}
		if !containsEntry(victims, owner) {
			victims = append(victims, owner)
		}
	}

	for _, v := range victims {
		s.interrupt(v, "preempted by "+a.Name())
	}

	s.next++
	e := &entry{handle: s.next, action: a, startedTick: s.clock.Seq, midTick: s.ticking, fallbackFor: fallbackFor}
	s.active[e.handle] = e
	s.order = append(s.order, e.handle)
	for _, id := range reqs {
		s.resources[id].owner = e.handle
	}
	if fallbackFor != "" {
		s.resources[fallbackFor].fallbackHandle = e.handle
		s.emit(model.EventFallback, a.Name(), e.handle, reqs, "")
	} else {
		s.emit(model.EventScheduled, a.Name(), e.handle, reqs, "")
	}
	s.logger.Debug("action started", "action", a.Name(), "handle", e.handle, "tick", s.clock.Seq)

	if err := action.Start(a, s.clock); err != nil {
		s.fault(e, err)
		return 0, err
	}
	return e.handle, nil
}

// Cancel stops the action with handle h as interrupted. It reports whether
// the action was active.
func (s *Scheduler) Cancel(h Handle) bool {
	e, ok := s.active[h]
	if !ok {
		return false
	}
	s.interrupt(e, "cancelled")
	s.publish()
	return true
}

// CancelAll interrupts every active action, fallbacks included. Fallbacks
// are installed again on the next tick; call it on shutdown so every
// actuator receives its stop hook.
func (s *Scheduler) CancelAll() {
	for _, h := range append([]Handle(nil), s.order...) {
		if e, ok := s.active[h]; ok {
			s.interrupt(e, "cancel all")
		}
	}
	s.publish()
}

// IsActive reports whether h refers to a running action.
func (s *Scheduler) IsActive(h Handle) bool {
	_, ok := s.active[h]
	return ok
}

// Action returns the running action for h.
func (s *Scheduler) Action(h Handle) (action.Action, bool) {
	e, ok := s.active[h]
	if !ok {
		return nil, false
	}
	return e.action, true
}

// Owner returns the action currently owning id.
func (s *Scheduler) Owner(id model.ResourceID) (action.Action, bool) {
	rs, ok := s.resources[id]
	if !ok || rs.owner == 0 {
		return nil, false
	}
	return s.active[rs.owner].action, true
}

// Active returns the running top-level actions in activation order.
func (s *Scheduler) Active() []action.Action {
	out := make([]action.Action, 0, len(s.order))
	for _, h := range s.order {
		out = append(out, s.active[h].action)
	}
	return out
}

// interrupt stops e with interrupted=true and releases its resources. A stop
// fault is reported but does not prevent the release.
func (s *Scheduler) interrupt(e *entry, reason string) {
	err := action.Stop(e.action, s.clock, true)
	s.release(e)
	s.emit(model.EventInterrupted, e.action.Name(), e.handle, e.action.Requirements(), reason)
	s.logger.Debug("action interrupted", "action", e.action.Name(), "handle", e.handle, "reason", reason)
	if err != nil {
		s.reportFault(e, err)
	}
}

// fault force-stops e after a hook failure. Secondary faults from the stop
// hook are logged and dropped.
func (s *Scheduler) fault(e *entry, err error) {
	s.reportFault(e, err)
	if stopErr := action.Stop(e.action, s.clock, true); stopErr != nil {
		s.logger.Debug("stop after fault failed", "action", e.action.Name(), "error", stopErr)
	}
	s.release(e)
}

func (s *Scheduler) reportFault(e *entry, err error) {
	s.logger.Error("action hook fault", "action", e.action.Name(), "handle", e.handle, "error", err)
	s.emit(model.EventFault, e.action.Name(), e.handle, e.action.Requirements(), err.Error())
}

// release clears ownership held by e and removes it from the active set.
func (s *Scheduler) release(e *entry) {
	if _, ok := s.active[e.handle]; !ok {
		return
	}
	for _, id := range e.action.Requirements() {
		if rs := s.resources[id]; rs != nil && rs.owner == e.handle {
			rs.owner = 0
		}
	}
	if e.fallbackFor != "" {
		if rs := s.resources[e.fallbackFor]; rs.fallbackHandle == e.handle {
			rs.fallbackHandle = 0
		}
	}
	delete(s.active, e.handle)
	for i, h := range s.order {
		if h == e.handle {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Scheduler) emit(kind model.EventKind, name string, h Handle, reqs []model.ResourceID, detail string) {
	if len(s.observers) == 0 {
		return
	}
	s.observers.Observe(model.Event{
		Tick:      s.clock.Seq,
		Clock:     s.clock.Now,
		Kind:      kind,
		Action:    name,
		Handle:    uint64(h),
		Resources: reqs,
		Detail:    detail,
		Time:      s.now().UTC(),
	})
}

func containsEntry(list []*entry, e *entry) bool {
	for _, x := range list {
		if x == e {
			return true
		}
	}
	return false
}
