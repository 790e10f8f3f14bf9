// Package journal persists scheduler events to SQLite. The journal is an
// audit trail only: nothing in it is ever read back into the scheduler.
package journal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/me/cannonbot/pkg/model"
)

// Run is one process lifetime of the control loop.
type Run struct {
	ID        string        `json:"id"`
	Source    string        `json:"source"`
	Label     string        `json:"label,omitempty"`
	Period    time.Duration `json:"period"`
	StartedAt time.Time     `json:"started_at"`
	Events    int           `json:"events"`
}

// Record is a stored event.
type Record struct {
	Seq   int64  `json:"seq"`
	RunID string `json:"run_id"`
	model.Event
}

// Store defines the persistence layer for the journal.
type Store interface {
	CreateRun(ctx context.Context, run *Run) error
	Runs(ctx context.Context) ([]Run, error)
	Append(ctx context.Context, runID string, events []model.Event) error
	List(ctx context.Context, filter model.EventFilter) ([]Record, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}

// NewRunID generates a run identifier.
func NewRunID() string {
	return "run_" + uuid.New().String()
}
