package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/cannonbot/internal/journal"
	"github.com/me/cannonbot/internal/scheduler"
	"github.com/me/cannonbot/internal/server"
)

func newRunCmd() *cobra.Command {
	var addr, label string
	var noHTTP, noJournal bool
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the robot on simulated hardware",
		Long: `Starts the tick loop, the event journal and the operator API, and runs
until interrupted (SIGINT/SIGTERM) or --duration elapses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				cfg.HTTP.Addr = addr
			}
			if noHTTP {
				cfg.HTTP.Enabled = false
			}
			if noJournal {
				cfg.Journal.Enabled = false
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			return runRobot(ctx, label)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Operator API listen address (overrides http.addr)")
	cmd.Flags().StringVar(&label, "label", "", "Label stored with the journal run")
	cmd.Flags().BoolVar(&noHTTP, "no-http", false, "Disable the operator API")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "Disable the event journal")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (0 runs until interrupted)")

	return cmd
}

func runRobot(ctx context.Context, label string) error {
	var (
		st       *journal.SQLiteStore
		recorder *journal.Recorder
		opts     []scheduler.Option
		err      error
	)
	if cfg.Journal.Enabled {
		st, err = openJournal(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		recorder, err = startRun(ctx, st, "run", label)
		if err != nil {
			return err
		}
		opts = append(opts, scheduler.WithObserver(recorder))
	}

	r, err := newRig(true, opts...)
	if err != nil {
		return err
	}
	loop := scheduler.NewLoop(r.sched)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The recorder outlives the loop so the shutdown interrupts are stored.
	recCtx, recCancel := context.WithCancel(context.WithoutCancel(ctx))
	var wg sync.WaitGroup
	if recorder != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recorder.Run(recCtx)
		}()
	}

	httpErr := make(chan error, 1)
	if cfg.HTTP.Enabled {
		srvOpts := []server.Option{server.WithLoop(loop), server.WithInput(r.world.Gamepad)}
		if st != nil {
			srvOpts = append(srvOpts, server.WithJournal(st, recorder.RunID()))
		}
		srv := server.New(r.sched, logger, srvOpts...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := srv.ListenAndServe(ctx, cfg.HTTP.Addr)
			if err != nil {
				cancel()
			}
			httpErr <- err
		}()
	}

	logger.Info("robot running", "period", cfg.Loop.Period, "bindings", len(r.robot.Bindings()))
	loopErr := loop.Start(ctx)
	recCancel()
	wg.Wait()

	close(httpErr)
	if err := <-httpErr; err != nil {
		return fmt.Errorf("operator API: %w", err)
	}
	if loopErr != nil && !errors.Is(loopErr, context.Canceled) && !errors.Is(loopErr, context.DeadlineExceeded) {
		return loopErr
	}
	logger.Info("robot stopped", "tick", r.sched.Clock().Seq, "rejected_presses", r.robot.Rejected())
	return nil
}
