package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/me/cannonbot/internal/action"
)

// loopSetup returns a loop whose ticks are fed manually through the
// returned channel.
func loopSetup(t *testing.T) (*Loop, chan time.Time) {
	t.Helper()
	s, _ := testSetup(t, resCannon, resDrivetrain)
	l := NewLoop(s)
	ticks := make(chan time.Time)
	l.ticker = func(time.Duration) (<-chan time.Time, func()) {
		return ticks, func() {}
	}
	return l, ticks
}

func TestLoop_StartStop(t *testing.T) {
	l, ticks := loopSetup(t)
	tr := &trace{}
	errCh := make(chan error, 1)
	go func() { errCh <- l.Start(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := l.Submit(ctx, func(s *Scheduler) {
		mustSchedule(t, s, newStub(tr, "drive", -1, action.Requires(resDrivetrain)))
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	ticks <- time.Now()
	ticks <- time.Now()

	var seq uint64
	if err := l.Submit(ctx, func(s *Scheduler) { seq = s.Clock().Seq }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if seq != 2 {
		t.Errorf("clock seq = %d, want 2", seq)
	}

	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Errorf("Start returned %v, want nil", err)
	}
	if got, want := tr.String(), "drive:start drive:drive drive:drive drive:interrupted"; got != want {
		t.Errorf("trace = %q, want %q", got, want)
	}
	if snap := l.Scheduler().Snapshot(); len(snap.Actions) != 0 {
		t.Errorf("snapshot has %d actions after stop", len(snap.Actions))
	}
}

func TestLoop_ContextCancel(t *testing.T) {
	l, _ := loopSetup(t)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Start(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Start err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not exit")
	}
}

func TestLoop_SubmitAfterExit(t *testing.T) {
	l, _ := loopSetup(t)
	go l.Start(context.Background())
	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	// Stop is idempotent.
	if err := l.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}

	called := false
	err := l.Submit(context.Background(), func(*Scheduler) { called = true })
	if err == nil || called {
		t.Errorf("Submit after exit: err=%v called=%v", err, called)
	}
}

func TestLoop_Tick(t *testing.T) {
	l, _ := loopSetup(t)
	for i := 0; i < 3; i++ {
		if err := l.Tick(context.Background()); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if got := l.Scheduler().Clock().Now; got != 60*time.Millisecond {
		t.Errorf("clock = %v, want 60ms", got)
	}
}
