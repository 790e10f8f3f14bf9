package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/me/cannonbot/internal/action"
	"github.com/me/cannonbot/internal/hardware/sim"
	"github.com/me/cannonbot/internal/journal"
	"github.com/me/cannonbot/internal/robot"
	"github.com/me/cannonbot/internal/scheduler"
)

// rig is one assembled robot on simulated hardware.
type rig struct {
	world *sim.World
	sched *scheduler.Scheduler
	robot *robot.Robot
}

// newRig builds the simulated world, the scheduler and the robot. When
// physics is true the world is stepped by a scheduler poller; otherwise
// the caller steps it.
func newRig(physics bool, opts ...scheduler.Option) (*rig, error) {
	world := sim.NewWorld(cfg.Sim)
	if physics {
		opts = append([]scheduler.Option{
			scheduler.WithPoller(scheduler.PollerFunc(func(t action.Tick) { world.Step(t.Delta) })),
		}, opts...)
	}
	sched := scheduler.New(scheduler.Config{Period: cfg.Loop.Period}, logger, opts...)
	bot, err := robot.New(cfg, world.Hardware(), sched, logger)
	if err != nil {
		return nil, fmt.Errorf("build robot: %w", err)
	}
	return &rig{world: world, sched: sched, robot: bot}, nil
}

// openJournal opens and migrates the configured journal database.
func openJournal(ctx context.Context) (*journal.SQLiteStore, error) {
	st, err := journal.NewSQLiteStore(cfg.Journal.Path, logger)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return st, nil
}

// startRun registers a new journal run and returns its recorder.
func startRun(ctx context.Context, st journal.Store, source, label string) (*journal.Recorder, error) {
	run := &journal.Run{
		ID:        journal.NewRunID(),
		Source:    source,
		Label:     label,
		Period:    cfg.Loop.Period,
		StartedAt: time.Now().UTC(),
	}
	if err := st.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	logger.Info("journal run started", "run_id", run.ID, "path", cfg.Journal.Path)
	return journal.NewRecorder(st, run.ID, cfg.Journal.Buffer, logger), nil
}
