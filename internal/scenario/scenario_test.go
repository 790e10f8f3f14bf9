package scenario

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/me/cannonbot/internal/config"
	"github.com/me/cannonbot/internal/hardware"
	"github.com/me/cannonbot/internal/hardware/sim"
	"github.com/me/cannonbot/internal/robot"
	"github.com/me/cannonbot/internal/scheduler"
	"github.com/me/cannonbot/internal/subsystem"
	"github.com/me/cannonbot/pkg/model"
)

type rig struct {
	world *sim.World
	sched *scheduler.Scheduler
}

func testSetup(t *testing.T) *rig {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.DefaultConfig()
	cfg.Camera.Enabled = false
	world := sim.NewWorld(cfg.Sim)
	sched := scheduler.New(scheduler.Config{Period: cfg.Loop.Period}, logger)
	if _, err := robot.New(cfg, world.Hardware(), sched, logger); err != nil {
		t.Fatalf("robot.New: %v", err)
	}
	return &rig{world: world, sched: sched}
}

func (r *rig) runner(t *testing.T, src string) *Runner {
	t.Helper()
	script, err := Compile("test.js", src)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	run, err := NewRunner(script, r.world, r.sched, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return run
}

func TestCompile_SyntaxError(t *testing.T) {
	if _, err := Compile("bad.js", "function step(tick, robot) {"); err == nil {
		t.Fatal("expected syntax error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(t.TempDir() + "/nope.js"); err == nil {
		t.Fatal("expected read error")
	}
}

func TestNewRunner_NoStep(t *testing.T) {
	r := testSetup(t)
	script, err := Compile("empty.js", "var x = 1;")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	_, err = NewRunner(script, r.world, r.sched, slog.New(slog.NewTextHandler(io.Discard, nil)))
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *model.ConfigError", err)
	}
}

func TestRun_ReturnFalseEnds(t *testing.T) {
	r := testSetup(t)
	run := r.runner(t, `function step(tick, robot) { return tick < 3; }`)
	var frames []Frame
	n, err := run.Run(context.Background(), 100, func(f Frame) { frames = append(frames, f) })
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 3 || len(frames) != 3 {
		t.Errorf("ticks = %d frames = %d, want 3", n, len(frames))
	}
	if frames[2].Tick != 3 || frames[2].Clock != 60*time.Millisecond {
		t.Errorf("last frame tick=%d clock=%v", frames[2].Tick, frames[2].Clock)
	}
}

func TestRun_MaxTicks(t *testing.T) {
	r := testSetup(t)
	run := r.runner(t, `function step(tick, robot) {}`)
	n, err := run.Run(context.Background(), 5, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 5 {
		t.Errorf("ticks = %d, want 5", n)
	}
}

func TestRun_FiresOnce(t *testing.T) {
	r := testSetup(t)
	run := r.runner(t, `
function step(tick, robot) {
	if (tick === 0) robot.setPressure(100);
	if (tick === 2) { robot.press("a"); robot.log("pull", "trigger"); }
	if (robot.shots() > 0 && robot.owner("cannon") === "cannon-default") return false;
}`)

	var logs []string
	var sawFire bool
	n, err := run.Run(context.Background(), 400, func(f Frame) {
		logs = append(logs, f.Logs...)
		if f.Owners[subsystem.ResourceCannon] == "fire-if-ready" {
			sawFire = true
		}
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n == 400 {
		t.Fatal("script never saw the shot complete")
	}
	if !sawFire {
		t.Error("cannon was never owned by fire-if-ready")
	}
	if r.world.Tank.Shots() != 1 {
		t.Errorf("shots = %d, want 1", r.world.Tank.Shots())
	}
	if strings.Join(logs, ",") != "pull trigger" {
		t.Errorf("logs = %q", logs)
	}
}

func TestRun_Drive(t *testing.T) {
	r := testSetup(t)
	run := r.runner(t, `
function step(tick, robot) {
	robot.axis("left_y", 1);
	return tick < 2;
}`)
	if _, err := run.Run(context.Background(), 10, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if r.world.Left.Output() <= 0 || r.world.Right.Output() <= 0 {
		t.Errorf("drive outputs = %v/%v, want forward", r.world.Left.Output(), r.world.Right.Output())
	}
}

func TestRun_ScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown button", `function step(tick, robot) { robot.press("z"); }`},
		{"unknown axis", `function step(tick, robot) { robot.axis("wheel", 1); }`},
		{"missing axis value", `function step(tick, robot) { robot.axis("right_trigger"); }`},
		{"non-numeric axis value", `function step(tick, robot) { robot.axis("right_trigger", "full"); }`},
		{"throw", `function step(tick, robot) { throw new Error("boom"); }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testSetup(t)
			run := r.runner(t, tt.src)
			n, err := run.Run(context.Background(), 10, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if n != 0 {
				t.Errorf("ticks = %d, want 0", n)
			}
		})
	}
}

func TestRun_AimStaysFinite(t *testing.T) {
	r := testSetup(t)
	run := r.runner(t, `function step(tick, robot) { robot.axis("right_trigger", 0.5); }`)
	if _, err := run.Run(context.Background(), 3, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := r.world.Aim.Output()
	if math.IsNaN(out) || out < -1 || out > 1 {
		t.Errorf("aim output = %v, want within [-1,1]", out)
	}
}

func TestRun_ContextInterruptsScript(t *testing.T) {
	r := testSetup(t)
	run := r.runner(t, `function step(tick, robot) { while (true) {} }`)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := run.Run(ctx, 10, nil); err == nil {
		t.Fatal("expected interrupt error")
	}
}

func TestRun_ButtonReleaseHeldState(t *testing.T) {
	r := testSetup(t)
	run := r.runner(t, `
function step(tick, robot) {
	if (tick === 0) robot.press("b");
	if (tick === 1) robot.release("b");
	return tick < 1;
}`)
	if _, err := run.Run(context.Background(), 10, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if r.world.Gamepad.ButtonHeld(hardware.ButtonB) {
		t.Error("button b still held")
	}
}

func TestFrame_Changed(t *testing.T) {
	base := Frame{Owners: map[model.ResourceID]string{"cannon": "reloading"}}
	tests := []struct {
		name string
		f    Frame
		want bool
	}{
		{"same", Frame{Owners: map[model.ResourceID]string{"cannon": "reloading"}}, false},
		{"owner changed", Frame{Owners: map[model.ResourceID]string{"cannon": "fire"}}, true},
		{"resource added", Frame{Owners: map[model.ResourceID]string{"cannon": "reloading", "drivetrain": "arcade-drive"}}, true},
		{"logged", Frame{Owners: base.Owners, Logs: []string{"hi"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Changed(base); got != tt.want {
				t.Errorf("Changed = %v, want %v", got, tt.want)
			}
		})
	}
}
