// Package robot assembles the cannon robot: subsystems, their fallback
// actions, the gamepad bindings and the camera stream.
package robot

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/me/cannonbot/internal/action"
	"github.com/me/cannonbot/internal/commands"
	"github.com/me/cannonbot/internal/config"
	"github.com/me/cannonbot/internal/hardware"
	"github.com/me/cannonbot/internal/scheduler"
	"github.com/me/cannonbot/internal/subsystem"
	"github.com/me/cannonbot/internal/trigger"
)

// Timing of the firing and reloading sequences.
const (
	ventDelay   = 500 * time.Millisecond
	armDelay    = time.Second
	blastTime   = 500 * time.Millisecond
	coolOffTime = 500 * time.Millisecond
)

// Robot is the assembled robot.
type Robot struct {
	cfg      config.Config
	hw       hardware.Set
	cannon   *subsystem.Cannon
	angle    *subsystem.AngleAdjust
	drive    *subsystem.Drivetrain
	driveSet commands.DriveSettings
	aimSet   commands.AimSettings
	bindings *trigger.Bindings
	logger   *slog.Logger
}

// New builds the robot on hw and registers its resources, fallbacks and
// bindings with sched. Every action factory is built once here, so a
// malformed composition fails startup with a *model.ConfigError.
func New(cfg config.Config, hw hardware.Set, sched *scheduler.Scheduler, logger *slog.Logger) (*Robot, error) {
	if err := hw.Validate(); err != nil {
		return nil, err
	}
	speed, err := hardware.ParseAxis(cfg.Drive.SpeedAxis)
	if err != nil {
		return nil, fmt.Errorf("drive speed axis: %w", err)
	}
	turn, err := hardware.ParseAxis(cfg.Drive.TurnAxis)
	if err != nil {
		return nil, fmt.Errorf("drive turn axis: %w", err)
	}

	aim := commands.DefaultAimSettings()
	aim.Scale = cfg.Drive.AimScale
	r := &Robot{
		cfg:      cfg,
		hw:       hw,
		cannon:   subsystem.NewCannon(hw.FiringValve, hw.LoadingValve, hw.Revolver, hw.Pressure),
		angle:    subsystem.NewAngleAdjust(hw.AimMotor),
		drive:    subsystem.NewDrivetrain(hw.LeftDrive, hw.RightDrive),
		driveSet: commands.DriveSettings{Speed: speed, Turn: turn, Deadband: cfg.Drive.Deadband},
		aimSet:   aim,
		logger:   logger.With("component", "robot"),
	}

	for _, sub := range []subsystem.Subsystem{r.cannon, r.angle, r.drive} {
		if err := sched.AddResource(sub.Resource()); err != nil {
			return nil, err
		}
	}
	fallbacks := []struct {
		sub     subsystem.Subsystem
		factory action.Factory
	}{
		{r.cannon, r.CannonDefault},
		{r.angle, r.Aim},
		{r.drive, r.ArcadeDrive},
	}
	for _, fb := range fallbacks {
		if err := sched.RegisterFallback(fb.sub.Resource(), fb.factory); err != nil {
			return nil, err
		}
	}

	r.bindings = trigger.New(sched, hw.Input, logger)
	if err := r.configureBindings(); err != nil {
		return nil, err
	}
	sched.AddPoller(r.bindings)

	r.startCamera()
	return r, nil
}

func (r *Robot) configureBindings() error {
	c := r.cfg.Cannon
	binds := []struct {
		button  hardware.Button
		factory action.Factory
	}{
		{hardware.ButtonA, r.FireIfReady},
		{hardware.ButtonB, r.revolveFactory(c.RevolveSlots, c.RevolveSpeed)},
		{hardware.ButtonX, r.revolveFactory(c.RevolveSlots, -c.RevolveSpeed)},
		{hardware.ButtonLeftBumper, r.revolveFactory(1, -c.NudgeSpeed)},
		{hardware.ButtonRightBumper, r.revolveFactory(1, c.NudgeSpeed)},
	}
	for _, b := range binds {
		if err := r.bindings.OnTrue(b.button, b.factory); err != nil {
			return err
		}
	}
	return nil
}

// startCamera starts the driver camera. A failure is logged; the robot
// drives without video.
func (r *Robot) startCamera() {
	cam := r.cfg.Camera
	if !cam.Enabled || r.hw.Camera == nil {
		return
	}
	settings := hardware.CameraSettings{Device: cam.Device, Width: cam.Width, Height: cam.Height, FPS: cam.FPS}
	if err := r.hw.Camera.StartCapture(settings); err != nil {
		r.logger.Error("camera capture failed", "settings", settings.String(), "error", err)
		return
	}
	r.logger.Info("camera capture started", "settings", settings.String())
}

// Bindings returns the registered gamepad bindings.
func (r *Robot) Bindings() []trigger.Binding { return r.bindings.List() }

// Rejected returns how many button presses lost arbitration.
func (r *Robot) Rejected() int { return r.bindings.Rejected() }

// Pressure returns the firing tank pressure.
func (r *Robot) Pressure() float64 { return r.cannon.Pressure() }

func (r *Robot) charged() bool { return r.cannon.Pressure() >= r.cfg.Cannon.PressureThreshold }
