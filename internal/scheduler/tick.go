package scheduler

import (
	"context"
	"time"

	"github.com/me/cannonbot/internal/action"
	"github.com/me/cannonbot/pkg/model"
)

// Tick runs a single scheduling iteration of one configured period.
func (s *Scheduler) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Step(s.config.Period)
	return nil
}

// Step runs one tick with an explicit clock delta. Hook faults never escape:
// the faulting action is force-stopped and the tick continues.
func (s *Scheduler) Step(dt time.Duration) {
	s.clock.Delta = dt
	s.clock.Now += dt
	t := s.clock
	s.ticking = true
	defer func() { s.ticking = false }()

	// Phase 0: Poll inputs. Actions scheduled here are started before the
	// drive pass and first driven next tick.
	for _, p := range s.pollers {
		s.poll(p, t)
	}

	// Phase 1: Drive actions that were running before this tick began.
	var finished []*entry
	for _, h := range append([]Handle(nil), s.order...) {
		e, ok := s.active[h]
		if !ok || (e.midTick && e.startedTick == t.Seq) {
			continue
		}
		done, err := action.Drive(e.action, t)
		if err != nil {
			s.fault(e, err)
			continue
		}
		if done {
			finished = append(finished, e)
		}
	}

	// Phase 2: Retire finished actions.
	for _, e := range finished {
		if _, ok := s.active[e.handle]; !ok {
			continue
		}
		s.retire(e, t)
	}

	// Phase 3: Re-install fallbacks on idle resources.
	s.installFallbacks()

	s.clock.Seq++
	s.publish()
}

func (s *Scheduler) poll(p Poller, t action.Tick) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("poller panic", "tick", t.Seq, "panic", r)
		}
	}()
	p.Poll(t)
}

func (s *Scheduler) retire(e *entry, t action.Tick) {
	err := action.Stop(e.action, t, false)
	s.release(e)
	s.emit(model.EventFinished, e.action.Name(), e.handle, e.action.Requirements(), "")
	s.logger.Debug("action finished", "action", e.action.Name(), "handle", e.handle, "tick", t.Seq)
	if err != nil {
		s.reportFault(e, err)
	}
	if e.fallbackFor == "" {
		return
	}
	rs := s.resources[e.fallbackFor]
	if rs.terminalSeen {
		return
	}
	rs.terminalSeen = true
	cfgErr := model.NewConfigError("fallback", "%s for %s finished on its own; fallbacks must not terminate", e.action.Name(), rs.id)
	s.logger.Error("terminal fallback", "resource", rs.id, "action", e.action.Name())
	s.emit(model.EventConfigFault, e.action.Name(), e.handle, e.action.Requirements(), cfgErr.Error())
}

// installFallbacks schedules the fallback of every resource that has no
// owner. The resource is free, so no conflict can arise.
func (s *Scheduler) installFallbacks() {
	for _, id := range s.resOrder {
		rs := s.resources[id]
		if rs.fallback == nil || rs.owner != 0 || rs.fallbackHandle != 0 {
			continue
		}
		a, err := s.buildFallback(rs)
		if err != nil {
			if !rs.buildFailed {
				rs.buildFailed = true
				s.logger.Error("build fallback", "resource", id, "error", err)
				s.emit(model.EventConfigFault, rs.name, 0, []model.ResourceID{id}, err.Error())
			}
			continue
		}
		rs.buildFailed = false
		if _, err := s.schedule(a, id); err != nil {
			s.logger.Debug("fallback not installed", "resource", id, "error", err)
		}
	}
}

func (s *Scheduler) buildFallback(rs *resource) (action.Action, error) {
	if a := rs.prebuilt; a != nil {
		rs.prebuilt = nil
		return a, nil
	}
	a, err := rs.fallback()
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, model.NewConfigError("fallback", "factory for %s returned nil", rs.id)
	}
	if err := checkFallback(rs.id, a); err != nil {
		return nil, err
	}
	return a, nil
}
