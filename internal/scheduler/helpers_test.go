package scheduler

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/me/cannonbot/internal/action"
	"github.com/me/cannonbot/pkg/model"
)

const (
	resCannon     model.ResourceID = "cannon"
	resDrivetrain model.ResourceID = "drivetrain"
	resAngle      model.ResourceID = "cannon-angle"
)

// trace collects hook invocations across stubs.
type trace struct {
	entries []string
}

func (tr *trace) add(format string, args ...any) {
	tr.entries = append(tr.entries, fmt.Sprintf(format, args...))
}

func (tr *trace) reset()         { tr.entries = nil }
func (tr *trace) String() string { return strings.Join(tr.entries, " ") }

func (tr *trace) has(entry string) bool {
	return tr.index(entry) >= 0
}

func (tr *trace) index(entry string) int {
	for i, e := range tr.entries {
		if e == entry {
			return i
		}
	}
	return -1
}

// stub finishes after ticks drives; runs forever when ticks < 0.
type stub struct {
	name   string
	ticks  int
	drives int
	tr     *trace
	onDrv  func() error
}

func (p *stub) Start(action.Tick) error {
	p.tr.add("%s:start", p.name)
	return nil
}

func (p *stub) Drive(action.Tick) error {
	p.drives++
	p.tr.add("%s:drive", p.name)
	if p.onDrv != nil {
		return p.onDrv()
	}
	return nil
}

func (p *stub) Done(action.Tick) bool {
	return p.ticks >= 0 && p.drives >= p.ticks
}

func (p *stub) Stop(_ action.Tick, interrupted bool) error {
	if interrupted {
		p.tr.add("%s:interrupted", p.name)
	} else {
		p.tr.add("%s:end", p.name)
	}
	return nil
}

func newStub(tr *trace, name string, ticks int, opts ...action.Option) *action.Leaf {
	return action.NewLeaf(name, &stub{name: name, ticks: ticks, tr: tr}, opts...)
}

// events records every observed event.
type events struct {
	list []model.Event
}

func (ev *events) Observe(e model.Event) { ev.list = append(ev.list, e) }

func (ev *events) kinds(kind model.EventKind) []model.Event {
	var out []model.Event
	for _, e := range ev.list {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// testSetup creates a scheduler with the given resources and an event recorder.
func testSetup(t *testing.T, ids ...model.ResourceID) (*Scheduler, *events) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ev := &events{}
	fixed := time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC)
	s := New(DefaultConfig(), logger, WithObserver(ev), WithClock(func() time.Time { return fixed }))
	for _, id := range ids {
		if err := s.AddResource(id); err != nil {
			t.Fatalf("AddResource(%s): %v", id, err)
		}
	}
	return s, ev
}

// mustSchedule schedules a and fails the test on error.
func mustSchedule(t *testing.T, s *Scheduler, a action.Action) Handle {
	t.Helper()
	h, err := s.Schedule(a)
	if err != nil {
		t.Fatalf("Schedule(%s): %v", a.Name(), err)
	}
	return h
}

// checkOwnership asserts the ownership invariants: every owner is active and
// requires the resource, and every requirement of an active action is owned
// by it.
func checkOwnership(t *testing.T, s *Scheduler) {
	t.Helper()
	for id, rs := range s.resources {
		if rs.owner == 0 {
			continue
		}
		e, ok := s.active[rs.owner]
		if !ok {
			t.Fatalf("resource %s owned by inactive handle %d", id, rs.owner)
		}
		found := false
		for _, r := range e.action.Requirements() {
			if r == id {
				found = true
			}
		}
		if !found {
			t.Fatalf("resource %s owned by %s which does not require it", id, e.action.Name())
		}
	}
	for h, e := range s.active {
		if e.action.State() != model.ActionStateRunning {
			t.Fatalf("active action %s is %s", e.action.Name(), e.action.State())
		}
		for _, r := range e.action.Requirements() {
			if owner := s.resources[r].owner; owner != h {
				t.Fatalf("%s requires %s but owner is handle %d", e.action.Name(), r, owner)
			}
		}
	}
	if len(s.order) != len(s.active) {
		t.Fatalf("order has %d handles, active has %d", len(s.order), len(s.active))
	}
}

func ownerName(s *Scheduler, id model.ResourceID) string {
	a, ok := s.Owner(id)
	if !ok {
		return ""
	}
	return a.Name()
}
