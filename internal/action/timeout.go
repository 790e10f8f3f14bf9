package action

import (
	"time"

	"github.com/me/cannonbot/pkg/model"
)

// Timeout bounds the run time of inner. The elapsed time is measured on the
// tick clock handed to the hooks.
type Timeout struct {
	core
	inner    Action
	limit    time.Duration
	started  time.Duration
	expired  bool
	finished bool
}

// NewTimeout wraps inner so that it is interrupted once limit has elapsed.
func NewTimeout(inner Action, limit time.Duration) (*Timeout, error) {
	if limit < 0 {
		return nil, model.NewConfigError("timeout", "negative limit %s", limit)
	}
	c, err := newComposite("timeout", []Action{inner}, false)
	if err != nil {
		return nil, err
	}
	c.name = "timeout(" + inner.Name() + "," + limit.String() + ")"
	return &Timeout{core: c, inner: inner, limit: limit}, nil
}

func (w *Timeout) Kind() Kind         { return KindTimeout }
func (w *Timeout) Children() []Action { return []Action{w.inner} }

// Expired reports whether the limit, rather than inner, ended the run.
func (w *Timeout) Expired() bool { return w.expired }

// Remaining returns the time left before expiry at now.
func (w *Timeout) Remaining(now time.Duration) time.Duration {
	if left := w.limit - (now - w.started); left > 0 {
		return left
	}
	return 0
}

func (w *Timeout) onStart(t Tick) error {
	w.started = t.Now
	w.expired = false
	w.finished = false
	return Start(w.inner, t)
}

func (w *Timeout) onDrive(t Tick) error {
	done, err := Drive(w.inner, t)
	if err != nil {
		return err
	}
	if done {
		w.finished = true
		return Stop(w.inner, t, false)
	}
	if t.Now-w.started >= w.limit {
		w.expired = true
		w.finished = true
		return Stop(w.inner, t, true)
	}
	return nil
}

func (w *Timeout) isDone(Tick) bool {
	return w.finished
}

func (w *Timeout) onStop(t Tick, interrupted bool) error {
	return Stop(w.inner, t, interrupted)
}
