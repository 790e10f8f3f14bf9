package journal

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/me/cannonbot/pkg/model"
)

const (
	defaultBuffer    = 1024
	maxBatch         = 256
	flushInterval    = 250 * time.Millisecond
	shutdownDeadline = 2 * time.Second
)

// Recorder is a scheduler observer that writes events to a Store from its
// own goroutine. Observe never blocks; events that do not fit the buffer
// are dropped and counted.
type Recorder struct {
	store   Store
	runID   string
	events  chan model.Event
	dropped atomic.Int64
	written atomic.Int64
	logger  *slog.Logger
}

// NewRecorder creates a recorder for runID. A non-positive buffer selects
// the default size.
func NewRecorder(store Store, runID string, buffer int, logger *slog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Recorder{
		store:  store,
		runID:  runID,
		events: make(chan model.Event, buffer),
		logger: logger.With("component", "recorder", "run_id", runID),
	}
}

// Observe queues ev for writing.
func (r *Recorder) Observe(ev model.Event) {
	select {
	case r.events <- ev:
	default:
		if r.dropped.Add(1) == 1 {
			r.logger.Warn("journal buffer full, dropping events")
		}
	}
}

// RunID returns the run the recorder writes to.
func (r *Recorder) RunID() string { return r.runID }

// Dropped returns the number of events discarded because the buffer was full.
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

// Written returns the number of events stored so far.
func (r *Recorder) Written() int64 { return r.written.Load() }

// Run writes queued events in batches until ctx is cancelled, then drains
// whatever is still buffered.
func (r *Recorder) Run(ctx context.Context) error {
	r.logger.Info("recorder started")
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	// Writes already in flight finish even if ctx is cancelled.
	wctx := context.WithoutCancel(ctx)
	batch := make([]model.Event, 0, maxBatch)
	for {
		select {
		case <-ctx.Done():
			return r.drain(batch)
		case ev := <-r.events:
			batch = append(batch, ev)
			if len(batch) >= maxBatch {
				batch = r.flush(wctx, batch)
			}
		case <-ticker.C:
			batch = r.flush(wctx, batch)
		}
	}
}

func (r *Recorder) drain(batch []model.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
	defer cancel()
	for {
		select {
		case ev := <-r.events:
			batch = append(batch, ev)
			if len(batch) >= maxBatch {
				batch = r.flush(ctx, batch)
			}
		default:
			r.flush(ctx, batch)
			r.logger.Info("recorder stopped", "written", r.Written(), "dropped", r.Dropped())
			return nil
		}
	}
}

func (r *Recorder) flush(ctx context.Context, batch []model.Event) []model.Event {
	if len(batch) == 0 {
		return batch
	}
	if err := r.store.Append(ctx, r.runID, batch); err != nil {
		r.logger.Error("append events", "count", len(batch), "error", err)
	} else {
		r.written.Add(int64(len(batch)))
	}
	return batch[:0]
}
