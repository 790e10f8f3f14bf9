// Package scenario drives the simulated robot from a JavaScript script
// (goja). A script defines
//
//	function step(tick, robot) { ... }
//
// which runs before every scheduler tick. Returning false ends the run.
// The robot object exposes press, release, axis, pressure, setPressure,
// shots, owner and log.
package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/me/cannonbot/internal/hardware"
	"github.com/me/cannonbot/internal/hardware/sim"
	"github.com/me/cannonbot/internal/scheduler"
	"github.com/me/cannonbot/pkg/model"
)

// Frame is the observable robot state after one tick.
type Frame struct {
	Tick     uint64        `json:"tick"`
	Clock    time.Duration `json:"clock"`
	Pressure float64       `json:"pressure"`
	Shots    int           `json:"shots"`
	Revolver float64       `json:"revolver"`
	Color    string        `json:"color"`
	// Owners maps each resource to the name of the action holding it.
	Owners map[model.ResourceID]string `json:"owners"`
	Logs   []string                    `json:"logs,omitempty"`
}

// Changed reports whether any resource changed hands or the script logged
// something between prev and f.
func (f Frame) Changed(prev Frame) bool {
	if len(f.Logs) > 0 || len(f.Owners) != len(prev.Owners) {
		return true
	}
	for id, owner := range f.Owners {
		if prev.Owners[id] != owner {
			return true
		}
	}
	return false
}

// Script is a compiled scenario.
type Script struct {
	name    string
	program *goja.Program
}

// Compile parses a scenario script.
func Compile(name, src string) (*Script, error) {
	prog, err := goja.Compile(name, src, true)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return &Script{name: name, program: prog}, nil
}

// Load reads and compiles a scenario file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Compile(path, string(data))
}

// Name returns the script name.
func (s *Script) Name() string { return s.name }

// Runner executes a Script against a simulated world and its scheduler.
// The runner owns the world's physics: it steps the world once per tick
// before the scheduler runs.
type Runner struct {
	script *Script
	world  *sim.World
	sched  *scheduler.Scheduler
	logger *slog.Logger

	vm   *goja.Runtime
	step goja.Callable
	obj  *goja.Object
	logs []string
}

// NewRunner evaluates the script and resolves its step function.
func NewRunner(script *Script, world *sim.World, sched *scheduler.Scheduler, logger *slog.Logger) (*Runner, error) {
	r := &Runner{
		script: script,
		world:  world,
		sched:  sched,
		logger: logger.With("component", "scenario", "script", script.name),
		vm:     goja.New(),
	}

	if _, err := r.vm.RunProgram(script.program); err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", script.name, err)
	}
	step, ok := goja.AssertFunction(r.vm.Get("step"))
	if !ok {
		return nil, &model.ConfigError{Component: "scenario", Message: fmt.Sprintf("%s does not define function step(tick, robot)", script.name)}
	}
	r.step = step

	obj, err := r.robotObject()
	if err != nil {
		return nil, err
	}
	r.obj = obj
	return r, nil
}

// robotObject builds the robot binding handed to step.
func (r *Runner) robotObject() (*goja.Object, error) {
	vm := r.vm
	obj := vm.NewObject()
	funcs := map[string]func(goja.FunctionCall) goja.Value{
		"press": func(call goja.FunctionCall) goja.Value {
			r.world.Gamepad.Press(r.button(call.Argument(0)))
			return goja.Undefined()
		},
		"release": func(call goja.FunctionCall) goja.Value {
			r.world.Gamepad.Release(r.button(call.Argument(0)))
			return goja.Undefined()
		},
		"axis": func(call goja.FunctionCall) goja.Value {
			id, err := hardware.ParseAxis(call.Argument(0).String())
			if err != nil {
				panic(vm.NewTypeError(err.Error()))
			}
			v := call.Argument(1)
			if goja.IsUndefined(v) || goja.IsNull(v) {
				panic(vm.NewTypeError("axis %s: value is required", id))
			}
			f := v.ToFloat()
			if math.IsNaN(f) {
				panic(vm.NewTypeError("axis %s: value %s is not a number", id, v.String()))
			}
			r.world.Gamepad.SetAxis(id, f)
			return goja.Undefined()
		},
		"pressure": func(goja.FunctionCall) goja.Value {
			return vm.ToValue(r.world.Tank.Pressure())
		},
		"setPressure": func(call goja.FunctionCall) goja.Value {
			r.world.Tank.SetPressure(call.Argument(0).ToFloat())
			return goja.Undefined()
		},
		"shots": func(goja.FunctionCall) goja.Value {
			return vm.ToValue(r.world.Tank.Shots())
		},
		"owner": func(call goja.FunctionCall) goja.Value {
			id := model.ResourceID(call.Argument(0).String())
			for _, rs := range r.sched.Snapshot().Resources {
				if rs.ID == id {
					return vm.ToValue(rs.Owner)
				}
			}
			return goja.Null()
		},
		"log": func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			msg := strings.Join(parts, " ")
			r.logs = append(r.logs, msg)
			r.logger.Info("script", "msg", msg)
			return goja.Undefined()
		},
	}
	for name, fn := range funcs {
		if err := obj.Set(name, fn); err != nil {
			return nil, fmt.Errorf("set robot.%s: %w", name, err)
		}
	}
	return obj, nil
}

func (r *Runner) button(v goja.Value) hardware.Button {
	id, err := hardware.ParseButton(v.String())
	if err != nil {
		panic(r.vm.NewTypeError(err.Error()))
	}
	return id
}

// Run executes up to maxTicks ticks, calling onFrame after each one. It
// returns the number of ticks run. The script ends the run early by
// returning false from step.
func (r *Runner) Run(ctx context.Context, maxTicks int, onFrame func(Frame)) (int, error) {
	stop := context.AfterFunc(ctx, func() { r.vm.Interrupt(ctx.Err()) })
	defer stop()

	period := r.sched.Config().Period
	for n := 0; n < maxTicks; n++ {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		r.logs = nil
		ret, err := r.step(goja.Undefined(), r.vm.ToValue(r.sched.Clock().Seq), r.obj)
		if err != nil {
			return n, fmt.Errorf("%s: step(%d): %w", r.script.name, n, err)
		}
		if v, ok := ret.Export().(bool); ok && !v {
			r.logger.Debug("script finished", "ticks", n)
			return n, nil
		}

		r.world.Step(period)
		if err := r.sched.Tick(ctx); err != nil {
			return n, err
		}
		if onFrame != nil {
			onFrame(r.frame())
		}
	}
	return maxTicks, nil
}

func (r *Runner) frame() Frame {
	snap := r.sched.Snapshot()
	f := Frame{
		Tick:     snap.Tick,
		Clock:    snap.Clock,
		Pressure: r.world.Tank.Pressure(),
		Shots:    r.world.Tank.Shots(),
		Revolver: r.world.Revolver.Position(),
		Color:    r.world.Indicator.Color().String(),
		Owners:   make(map[model.ResourceID]string, len(snap.Resources)),
		Logs:     r.logs,
	}
	for _, rs := range snap.Resources {
		f.Owners[rs.ID] = rs.Owner
	}
	return f
}
