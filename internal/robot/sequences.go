package robot

import (
	"fmt"

	"github.com/me/cannonbot/internal/action"
	"github.com/me/cannonbot/internal/commands"
	"github.com/me/cannonbot/internal/hardware"
)

// named wraps a composite constructor result under a display name.
func named[T action.Action](name string, a T, err error) (action.Action, error) {
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	return action.Rename(a, name), nil
}

// CannonDefault is the cannon fallback: reload below the pressure
// threshold, otherwise show ready. The branch is chosen once per
// installation.
func (r *Robot) CannonDefault() (action.Action, error) {
	reload, err := r.Reloading()
	if err != nil {
		return nil, err
	}
	ready, err := r.ReadyToFire()
	if err != nil {
		return nil, err
	}
	cond, err := action.NewConditional(func() bool { return !r.charged() }, reload, ready)
	return named("cannon-default", cond, err)
}

// Reloading vents the barrel with the light off, then holds the loading
// valve open.
func (r *Robot) Reloading() (action.Action, error) {
	vent, err := action.NewParallelRace(
		commands.SetColor(r.hw.Indicator, hardware.Solid(hardware.Black)),
		commands.SetFiringValve(r.cannon, false),
		action.NewWait(ventDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("build reloading: %w", err)
	}
	seq, err := action.NewSequential(vent, commands.SetLoadingValve(r.cannon, true))
	return named("reloading", seq, err)
}

// ReadyToFire shows red and holds the loading valve closed.
func (r *Robot) ReadyToFire() (action.Action, error) {
	all, err := action.NewParallelAll(
		commands.SetColor(r.hw.Indicator, hardware.Solid(hardware.Red)),
		commands.SetLoadingValve(r.cannon, false),
	)
	return named("ready-to-fire", all, err)
}

// Fire flashes a warning, opens the firing valve, lets the barrel settle
// and advances the magazine by one slot.
func (r *Robot) Fire() (action.Action, error) {
	c := r.cfg.Cannon
	arm, err := action.NewParallelRace(
		commands.SetFiringValve(r.cannon, false),
		commands.SetColor(r.hw.Indicator, hardware.Flash(c.FlashPeriod, hardware.Red, hardware.Black)),
		action.NewWait(armDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("build fire: %w", err)
	}
	blast, err := action.NewParallelRace(
		commands.SetFiringValve(r.cannon, true),
		commands.SetColor(r.hw.Indicator, hardware.Solid(hardware.White)),
		action.NewWait(blastTime),
	)
	if err != nil {
		return nil, fmt.Errorf("build fire: %w", err)
	}
	settle, err := action.NewParallelRace(
		commands.SetColor(r.hw.Indicator, hardware.Solid(hardware.Black)),
		action.NewWait(coolOffTime),
	)
	if err != nil {
		return nil, fmt.Errorf("build fire: %w", err)
	}
	seq, err := action.NewSequential(
		action.Rename(arm, "arm"),
		action.Rename(blast, "blast"),
		action.Rename(settle, "settle"),
		commands.Revolve(r.cannon, 1, c.NudgeSpeed),
	)
	return named("fire", seq, err)
}

// FireIfReady fires when the tank is charged and does nothing otherwise.
func (r *Robot) FireIfReady() (action.Action, error) {
	fire, err := r.Fire()
	if err != nil {
		return nil, err
	}
	cond, err := action.NewConditional(r.charged, fire, action.NewInstant())
	return named("fire-if-ready", cond, err)
}

// Aim is the angle adjust fallback.
func (r *Robot) Aim() (action.Action, error) {
	return commands.AimWithController(r.angle, r.hw.Input, r.aimSet), nil
}

// ArcadeDrive is the drivetrain fallback.
func (r *Robot) ArcadeDrive() (action.Action, error) {
	return commands.ArcadeDrive(r.drive, r.hw.Input, r.driveSet), nil
}

func (r *Robot) revolveFactory(count int, speed float64) action.Factory {
	return func() (action.Action, error) {
		return commands.Revolve(r.cannon, count, speed), nil
	}
}
