package action

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/me/cannonbot/pkg/model"
)

const period = 20 * time.Millisecond

// trace collects hook invocations across several stubs.
type trace struct {
	entries []string
}

func (tr *trace) add(format string, args ...any) {
	tr.entries = append(tr.entries, fmt.Sprintf(format, args...))
}

func (tr *trace) String() string {
	return strings.Join(tr.entries, " ")
}

func (tr *trace) has(entry string) bool {
	for _, e := range tr.entries {
		if e == entry {
			return true
		}
	}
	return false
}

// stub finishes after a fixed number of drives; runs forever when ticks < 0.
type stub struct {
	name   string
	ticks  int
	drives int
	tr     *trace
}

func (p *stub) Start(Tick) error {
	p.tr.add("%s:start", p.name)
	return nil
}

func (p *stub) Drive(Tick) error {
	p.drives++
	p.tr.add("%s:drive", p.name)
	return nil
}

func (p *stub) Done(Tick) bool {
	return p.ticks >= 0 && p.drives >= p.ticks
}

func (p *stub) Stop(_ Tick, interrupted bool) error {
	if interrupted {
		p.tr.add("%s:interrupted", p.name)
	} else {
		p.tr.add("%s:end", p.name)
	}
	return nil
}

func newStub(tr *trace, name string, ticks int, opts ...Option) *Leaf {
	return NewLeaf(name, &stub{name: name, ticks: ticks, tr: tr}, opts...)
}

// runner drives a top-level action the way the scheduler does: started at
// tick 0, driven from tick 1 on, stopped normally when done.
type runner struct {
	t    *testing.T
	a    Action
	tick Tick
}

func start(t *testing.T, a Action) *runner {
	t.Helper()
	r := &runner{t: t, a: a, tick: Tick{Delta: period}}
	if err := Start(a, r.tick); err != nil {
		t.Fatalf("Start(%s): %v", a.Name(), err)
	}
	return r
}

// step advances the clock by one period and drives the action. It returns
// true once the action finished and was stopped.
func (r *runner) step() bool {
	r.t.Helper()
	r.tick.Seq++
	r.tick.Now += period
	done, err := Drive(r.a, r.tick)
	if err != nil {
		r.t.Fatalf("Drive(%s) tick %d: %v", r.a.Name(), r.tick.Seq, err)
	}
	if done {
		if err := Stop(r.a, r.tick, false); err != nil {
			r.t.Fatalf("Stop(%s): %v", r.a.Name(), err)
		}
	}
	return done
}

// until steps until the action finishes, failing after max ticks.
func (r *runner) until(max int) int {
	r.t.Helper()
	for i := 1; i <= max; i++ {
		if r.step() {
			return i
		}
	}
	r.t.Fatalf("%s did not finish within %d ticks", r.a.Name(), max)
	return 0
}

func (r *runner) interrupt() {
	r.t.Helper()
	if err := Stop(r.a, r.tick, true); err != nil {
		r.t.Fatalf("Stop(%s, interrupted): %v", r.a.Name(), err)
	}
}

func wantState(t *testing.T, a Action, want model.ActionState) {
	t.Helper()
	if got := a.State(); got != want {
		t.Errorf("%s state = %s, want %s", a.Name(), got, want)
	}
}
