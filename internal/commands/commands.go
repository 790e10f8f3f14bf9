// Package commands provides the leaf actions of the robot. Each leaf
// requires the resource of the subsystem it drives.
package commands

import (
	"fmt"

	"github.com/me/cannonbot/internal/action"
	"github.com/me/cannonbot/internal/hardware"
	"github.com/me/cannonbot/internal/subsystem"
)

func openName(open bool) string {
	if open {
		return "open"
	}
	return "closed"
}

// SetFiringValve sets the firing valve and holds it. It never finishes.
func SetFiringValve(c *subsystem.Cannon, open bool) *action.Leaf {
	return action.NewLeaf("firing-valve("+openName(open)+")", action.Funcs{
		OnStart: func(action.Tick) error {
			c.SetFiringValve(open)
			return nil
		},
	}, action.Requires(c.Resource()))
}

// SetLoadingValve sets the loading valve and holds it. It never finishes.
func SetLoadingValve(c *subsystem.Cannon, open bool) *action.Leaf {
	return action.NewLeaf("loading-valve("+openName(open)+")", action.Funcs{
		OnStart: func(action.Tick) error {
			c.SetLoadingValve(open)
			return nil
		},
	}, action.Requires(c.Resource()))
}

// revolve turns the revolver until count index positions have passed.
type revolve struct {
	cannon *subsystem.Cannon
	count  int
	speed  float64
	edges  int
	last   bool
}

// Revolve turns the magazine by count slots at speed. Negative speed turns
// backwards. It finishes on the count-th rising edge of the limit switch.
func Revolve(c *subsystem.Cannon, count int, speed float64) *action.Leaf {
	r := &revolve{cannon: c, count: count, speed: hardware.Clamp(speed)}
	return action.NewLeaf(fmt.Sprintf("revolve(%d,%+.1f)", count, speed), r, action.Requires(c.Resource()))
}

func (r *revolve) Start(action.Tick) error {
	r.edges = 0
	r.last = r.cannon.RevolverAtLimit()
	if r.count > 0 {
		r.cannon.SetRevolver(r.speed)
	}
	return nil
}

func (r *revolve) Drive(action.Tick) error {
	cur := r.cannon.RevolverAtLimit()
	if cur && !r.last {
		r.edges++
	}
	r.last = cur
	return nil
}

func (r *revolve) Done(action.Tick) bool { return r.edges >= r.count }

func (r *revolve) Stop(action.Tick, bool) error {
	r.cannon.SetRevolver(0)
	return nil
}

// SetColor shows p on the indicator and holds it. It requires no resource,
// so it can run next to anything; it never finishes.
func SetColor(d hardware.IndicatorDisplay, p hardware.Pattern) *action.Leaf {
	return action.NewLeaf("color("+p.String()+")", action.Funcs{
		OnStart: func(action.Tick) error {
			d.SetColor(p)
			return nil
		},
	})
}
