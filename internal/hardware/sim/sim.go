// Package sim provides deterministic in-process devices for running the
// robot without hardware. Every device is safe for concurrent use: the HTTP
// API injects inputs while the tick loop reads them.
package sim

import (
	"time"

	"github.com/me/cannonbot/internal/hardware"
)

// Config holds the physical constants of the simulation.
type Config struct {
	InitialPressure float64 `mapstructure:"initial_pressure" yaml:"initial_pressure" validate:"gte=0"`
	MaxPressure     float64 `mapstructure:"max_pressure" yaml:"max_pressure" validate:"gt=0"`
	// FillRate is psi gained per second while the loading valve is open.
	FillRate float64 `mapstructure:"fill_rate" yaml:"fill_rate" validate:"gt=0"`
	// VentRate is psi lost per second while the firing valve is open.
	VentRate float64 `mapstructure:"vent_rate" yaml:"vent_rate" validate:"gt=0"`
	// SlotsPerSecond is the revolver speed at full output.
	SlotsPerSecond float64 `mapstructure:"slots_per_second" yaml:"slots_per_second" validate:"gt=0"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxPressure:    120,
		FillRate:       40,
		VentRate:       400,
		SlotsPerSecond: 4,
	}
}

// World groups the devices of one simulated robot.
type World struct {
	Tank      *Tank
	Revolver  *Revolver
	Aim       *Motor
	Left      *Motor
	Right     *Motor
	Indicator *Indicator
	Gamepad   *Gamepad
	Camera    *Camera
}

// NewWorld creates a robot at rest with the tank at cfg.InitialPressure.
func NewWorld(cfg Config) *World {
	return &World{
		Tank:      NewTank(cfg),
		Revolver:  NewRevolver(cfg.SlotsPerSecond),
		Aim:       &Motor{},
		Left:      &Motor{},
		Right:     &Motor{},
		Indicator: &Indicator{},
		Gamepad:   NewGamepad(),
		Camera:    &Camera{},
	}
}

// Step advances the physics by dt.
func (w *World) Step(dt time.Duration) {
	w.Tank.Step(dt)
	w.Revolver.Step(dt)
	w.Indicator.Step(dt)
}

// Hardware returns the capability set backed by w.
func (w *World) Hardware() hardware.Set {
	return hardware.Set{
		FiringValve:  w.Tank.FiringValve(),
		LoadingValve: w.Tank.LoadingValve(),
		Pressure:     w.Tank,
		Revolver:     w.Revolver,
		AimMotor:     w.Aim,
		LeftDrive:    w.Left,
		RightDrive:   w.Right,
		Indicator:    w.Indicator,
		Input:        w.Gamepad,
		Camera:       w.Camera,
	}
}
