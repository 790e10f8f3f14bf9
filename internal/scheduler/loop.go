package scheduler

import (
	"context"
	"sync"
	"time"
)

// Runner is a scheduler driven by a fixed-period loop.
type Runner interface {
	// Start begins the tick loop. Blocks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop ends the loop and waits for the current tick to finish.
	Stop() error

	// Tick runs a single scheduling iteration. Used for testing.
	Tick(ctx context.Context) error
}

// Loop implements Runner with a ticker-driven loop around a Scheduler.
// Scheduler state is only touched from the loop goroutine; work from other
// goroutines is handed over with Submit.
type Loop struct {
	sched    *Scheduler
	stopCh   chan struct{}
	doneCh   chan struct{}
	calls    chan func(*Scheduler)
	stopOnce sync.Once
	ticker   func(time.Duration) (<-chan time.Time, func())
}

// NewLoop creates a loop that ticks sched at its configured period.
func NewLoop(sched *Scheduler) *Loop {
	return &Loop{
		sched:  sched,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		calls:  make(chan func(*Scheduler)),
		ticker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

// Scheduler returns the scheduler driven by the loop.
func (l *Loop) Scheduler() *Scheduler { return l.sched }

// Start begins the tick loop. Blocks until ctx is cancelled or Stop is
// called. On exit every active action is cancelled so actuators receive
// their stop hooks.
func (l *Loop) Start(ctx context.Context) error {
	logger := l.sched.logger
	period := l.sched.config.Period
	logger.Info("scheduler started", "period", period)
	tick, stop := l.ticker(period)
	defer stop()
	defer close(l.doneCh)
	defer l.sched.CancelAll()

	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduler stopping (context cancelled)")
			return ctx.Err()
		case <-l.stopCh:
			logger.Info("scheduler stopping (stop called)")
			return nil
		case fn := <-l.calls:
			fn(l.sched)
		case <-tick:
			if err := l.sched.Tick(ctx); err != nil {
				logger.Error("tick error", "error", err)
			}
		}
	}
}

// Stop ends the loop and waits for it to exit. It must be called after Start.
func (l *Loop) Stop() error {
	l.stopOnce.Do(func() { close(l.stopCh) })
	<-l.doneCh
	return nil
}

// Tick runs a single scheduling iteration.
func (l *Loop) Tick(ctx context.Context) error {
	return l.sched.Tick(ctx)
}

// Submit runs fn on the loop goroutine between ticks and waits for it. It
// is the only way for other goroutines to schedule or cancel actions.
func (l *Loop) Submit(ctx context.Context, fn func(*Scheduler)) error {
	done := make(chan struct{})
	call := func(s *Scheduler) {
		defer close(done)
		fn(s)
	}
	select {
	case l.calls <- call:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.doneCh:
		return context.Canceled
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
