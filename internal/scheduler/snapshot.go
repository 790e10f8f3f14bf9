package scheduler

import (
	"time"

	"github.com/me/cannonbot/internal/action"
	"github.com/me/cannonbot/pkg/model"
)

// Snapshot is a read-only copy of the scheduler state, safe to hand to
// other goroutines.
type Snapshot struct {
	Tick      uint64           `json:"tick"`
	Clock     time.Duration    `json:"clock"`
	Resources []ResourceStatus `json:"resources"`
	Actions   []ActionStatus   `json:"actions"`
}

// ResourceStatus describes the ownership of one resource.
type ResourceStatus struct {
	ID          model.ResourceID `json:"id"`
	Owner       string           `json:"owner,omitempty"`
	OwnerHandle Handle           `json:"owner_handle,omitempty"`
	Fallback    string           `json:"fallback,omitempty"`
	InFallback  bool             `json:"in_fallback"`
}

// ActionStatus describes one active top-level action.
type ActionStatus struct {
	Handle      Handle           `json:"handle"`
	StartedTick uint64           `json:"started_tick"`
	FallbackFor model.ResourceID `json:"fallback_for,omitempty"`
	Tree        action.Node      `json:"tree"`
}

// Snapshot returns the state published at the end of the last tick or
// schedule call. It is safe for concurrent use.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *Scheduler) publish() {
	snap := Snapshot{
		Tick:      s.clock.Seq,
		Clock:     s.clock.Now,
		Resources: make([]ResourceStatus, 0, len(s.resOrder)),
		Actions:   make([]ActionStatus, 0, len(s.order)),
	}
	for _, id := range s.resOrder {
		rs := s.resources[id]
		st := ResourceStatus{ID: id, Fallback: rs.name}
		if rs.owner != 0 {
			st.OwnerHandle = rs.owner
			st.Owner = s.active[rs.owner].action.Name()
			st.InFallback = rs.owner == rs.fallbackHandle
		}
		snap.Resources = append(snap.Resources, st)
	}
	for _, h := range s.order {
		e := s.active[h]
		snap.Actions = append(snap.Actions, ActionStatus{
			Handle:      h,
			StartedTick: e.startedTick,
			FallbackFor: e.fallbackFor,
			Tree:        action.Describe(e.action, s.clock.Now),
		})
	}
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
}
