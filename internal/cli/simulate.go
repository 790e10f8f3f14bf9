package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ryanuber/columnize"
	"github.com/spf13/cobra"

	"github.com/me/cannonbot/internal/journal"
	"github.com/me/cannonbot/internal/scenario"
	"github.com/me/cannonbot/internal/scheduler"
	"github.com/me/cannonbot/internal/subsystem"
)

func newSimulateCmd() *cobra.Command {
	var ticks int
	var all, record bool

	cmd := &cobra.Command{
		Use:   "simulate <script.js>",
		Short: "Drive the simulated robot from a JavaScript scenario",
		Long: `Runs a scenario script headless, as fast as possible, and prints a trace
of every tick where a resource changed hands or the script logged.

The script defines function step(tick, robot); returning false ends the run.
robot provides press(button), release(button), axis(id, value), pressure(),
setPressure(psi), shots(), owner(resource) and log(...).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			return simulate(cmd.Context(), cmd, script, ticks, all, record)
		},
	}

	cmd.Flags().IntVar(&ticks, "ticks", 1500, "Maximum number of ticks to run")
	cmd.Flags().BoolVar(&all, "all", false, "Print every tick, not only changes")
	cmd.Flags().BoolVar(&record, "record", false, "Store the run's events in the journal")

	return cmd
}

func simulate(ctx context.Context, cmd *cobra.Command, script *scenario.Script, ticks int, all, record bool) error {
	if ticks <= 0 {
		return fmt.Errorf("--ticks must be positive")
	}

	var opts []scheduler.Option
	var recorder *journal.Recorder
	if record {
		st, err := openJournal(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		recorder, err = startRun(ctx, st, "simulate", script.Name())
		if err != nil {
			return err
		}
		opts = append(opts, scheduler.WithObserver(recorder))
	}

	r, err := newRig(false, opts...)
	if err != nil {
		return err
	}
	runner, err := scenario.NewRunner(script, r.world, r.sched, logger)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	recCtx, recCancel := context.WithCancel(context.WithoutCancel(ctx))
	if recorder != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recorder.Run(recCtx)
		}()
	}

	out := []string{"TICK | CLOCK | PSI | SHOTS | CANNON | ANGLE | DRIVE | LOG"}
	var prev scenario.Frame
	n, runErr := runner.Run(ctx, ticks, func(f scenario.Frame) {
		if all || f.Changed(prev) {
			out = append(out, formatFrame(f))
		}
		prev = f
	})
	r.sched.CancelAll()
	recCancel()
	wg.Wait()

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s\n", columnize.SimpleFormat(out))
	fmt.Fprintf(w, "\n%d ticks, %d shots, %d rejected presses\n", n, r.world.Tank.Shots(), r.robot.Rejected())
	if recorder != nil {
		fmt.Fprintf(w, "journal run %s (%d events, %d dropped)\n", recorder.RunID(), recorder.Written(), recorder.Dropped())
	}
	return runErr
}

func formatFrame(f scenario.Frame) string {
	return fmt.Sprintf("%d | %s | %.1f | %d | %s | %s | %s | %s",
		f.Tick, f.Clock, f.Pressure, f.Shots,
		f.Owners[subsystem.ResourceCannon], f.Owners[subsystem.ResourceAngle], f.Owners[subsystem.ResourceDrivetrain],
		strings.Join(f.Logs, "; "))
}
