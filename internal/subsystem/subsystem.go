// Package subsystem groups devices into the exclusive resources actions
// compete for.
package subsystem

import (
	"github.com/me/cannonbot/internal/hardware"
	"github.com/me/cannonbot/pkg/model"
)

// Resource identifiers of the robot.
const (
	ResourceCannon     model.ResourceID = "cannon"
	ResourceAngle      model.ResourceID = "cannon-angle"
	ResourceDrivetrain model.ResourceID = "drivetrain"
)

// Subsystem is a device group owned by at most one action at a time.
type Subsystem interface {
	Resource() model.ResourceID
}

// Cannon is the pneumatic launcher: firing and loading valves, the revolver
// magazine and the tank pressure sensor.
type Cannon struct {
	firing   hardware.ValveActuator
	loading  hardware.ValveActuator
	revolver hardware.IndexingActuator
	sensor   hardware.PressureSensor
}

// NewCannon creates the cannon subsystem.
func NewCannon(firing, loading hardware.ValveActuator, revolver hardware.IndexingActuator, sensor hardware.PressureSensor) *Cannon {
	return &Cannon{firing: firing, loading: loading, revolver: revolver, sensor: sensor}
}

func (c *Cannon) Resource() model.ResourceID { return ResourceCannon }

func (c *Cannon) SetFiringValve(open bool)    { c.firing.SetOpen(open) }
func (c *Cannon) SetLoadingValve(open bool)   { c.loading.SetOpen(open) }
func (c *Cannon) SetRevolver(percent float64) { c.revolver.SetOutput(percent) }
func (c *Cannon) RevolverAtLimit() bool       { return c.revolver.AtLimit() }

// Pressure returns the firing tank pressure in psi.
func (c *Cannon) Pressure() float64 { return c.sensor.Pressure() }

// AngleAdjust tilts the cannon.
type AngleAdjust struct {
	motor hardware.MotionActuator
}

// NewAngleAdjust creates the angle adjust subsystem.
func NewAngleAdjust(motor hardware.MotionActuator) *AngleAdjust {
	return &AngleAdjust{motor: motor}
}

func (a *AngleAdjust) Resource() model.ResourceID { return ResourceAngle }
func (a *AngleAdjust) SetOutput(percent float64)  { a.motor.SetOutput(percent) }

// Drivetrain is a differential drive.
type Drivetrain struct {
	left  hardware.MotionActuator
	right hardware.MotionActuator
}

// NewDrivetrain creates the drivetrain subsystem.
func NewDrivetrain(left, right hardware.MotionActuator) *Drivetrain {
	return &Drivetrain{left: left, right: right}
}

func (d *Drivetrain) Resource() model.ResourceID { return ResourceDrivetrain }

// ArcadeDrive mixes a forward speed and a turn rate into wheel outputs. The
// outputs are scaled down together so neither side saturates alone.
func (d *Drivetrain) ArcadeDrive(speed, turn float64) {
	left := speed + turn
	right := speed - turn
	if m := max(abs(left), abs(right)); m > 1 {
		left /= m
		right /= m
	}
	d.left.SetOutput(left)
	d.right.SetOutput(right)
}

// Stop sets both sides to zero.
func (d *Drivetrain) Stop() {
	d.left.SetOutput(0)
	d.right.SetOutput(0)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
