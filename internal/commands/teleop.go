package commands

import (
	"github.com/me/cannonbot/internal/action"
	"github.com/me/cannonbot/internal/hardware"
	"github.com/me/cannonbot/internal/subsystem"
)

// DriveSettings maps gamepad axes to arcade drive.
type DriveSettings struct {
	Speed    hardware.Axis
	Turn     hardware.Axis
	Deadband float64
}

// DefaultDriveSettings returns left stick Y for speed and right stick X for
// turning.
func DefaultDriveSettings() DriveSettings {
	return DriveSettings{
		Speed:    hardware.AxisLeftY,
		Turn:     hardware.AxisRightX,
		Deadband: 0.1,
	}
}

// AimSettings maps the triggers to the aim motor.
type AimSettings struct {
	Up    hardware.Axis
	Down  hardware.Axis
	Scale float64
}

// DefaultAimSettings returns right trigger up, left trigger down at half
// output.
func DefaultAimSettings() AimSettings {
	return AimSettings{
		Up:    hardware.AxisRightTrigger,
		Down:  hardware.AxisLeftTrigger,
		Scale: 0.5,
	}
}

// Deadband zeroes v inside [-db,db] and rescales the rest to keep the full
// range.
func Deadband(v, db float64) float64 {
	switch {
	case db <= 0:
		return v
	case db >= 1:
		return 0
	case v > db:
		return (v - db) / (1 - db)
	case v < -db:
		return (v + db) / (1 - db)
	}
	return 0
}

// ArcadeDrive drives the drivetrain from the gamepad every tick. It never
// finishes; the motors are zeroed when it stops.
func ArcadeDrive(d *subsystem.Drivetrain, in hardware.InputSource, s DriveSettings) *action.Leaf {
	return action.NewLeaf("arcade-drive", action.Funcs{
		OnDrive: func(action.Tick) error {
			d.ArcadeDrive(Deadband(in.Axis(s.Speed), s.Deadband), Deadband(in.Axis(s.Turn), s.Deadband))
			return nil
		},
		OnStop: func(action.Tick, bool) error {
			d.Stop()
			return nil
		},
	}, action.Requires(d.Resource()))
}

// AimWithController tilts the cannon from the triggers every tick. It never
// finishes; the motor is zeroed when it stops.
func AimWithController(a *subsystem.AngleAdjust, in hardware.InputSource, s AimSettings) *action.Leaf {
	return action.NewLeaf("aim-with-controller", action.Funcs{
		OnDrive: func(action.Tick) error {
			a.SetOutput((in.Axis(s.Up) - in.Axis(s.Down)) * s.Scale)
			return nil
		},
		OnStop: func(action.Tick, bool) error {
			a.SetOutput(0)
			return nil
		},
	}, action.Requires(a.Resource()))
}
