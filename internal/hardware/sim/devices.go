package sim

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/me/cannonbot/internal/hardware"
)

// Tank is a pneumatic firing tank with a loading and a firing valve.
// Pressure rises while loading and vents while firing.
type Tank struct {
	mu       sync.Mutex
	cfg      Config
	pressure float64
	loading  bool
	firing   bool
	shots    int
}

// NewTank creates a tank with both valves closed.
func NewTank(cfg Config) *Tank {
	return &Tank{cfg: cfg, pressure: cfg.InitialPressure}
}

// Pressure implements hardware.PressureSensor.
func (t *Tank) Pressure() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pressure
}

// SetPressure overrides the tank pressure.
func (t *Tank) SetPressure(psi float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pressure = math.Max(0, math.Min(psi, t.cfg.MaxPressure))
}

// Shots returns how many times the firing valve has opened.
func (t *Tank) Shots() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shots
}

// Valves returns the loading and firing valve states.
func (t *Tank) Valves() (loading, firing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading, t.firing
}

// LoadingValve returns the valve that fills the tank.
func (t *Tank) LoadingValve() hardware.ValveActuator { return valve{t, false} }

// FiringValve returns the valve that vents the tank through the barrel.
func (t *Tank) FiringValve() hardware.ValveActuator { return valve{t, true} }

// Step advances the tank by dt.
func (t *Tank) Step(dt time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := dt.Seconds()
	switch {
	case t.firing:
		t.pressure = math.Max(0, t.pressure-t.cfg.VentRate*s)
	case t.loading:
		t.pressure = math.Min(t.cfg.MaxPressure, t.pressure+t.cfg.FillRate*s)
	}
}

type valve struct {
	tank   *Tank
	firing bool
}

func (v valve) SetOpen(open bool) {
	t := v.tank
	t.mu.Lock()
	defer t.mu.Unlock()
	if !v.firing {
		t.loading = open
		return
	}
	if open && !t.firing {
		t.shots++
	}
	t.firing = open
}

// Motor records a percent output.
type Motor struct {
	mu     sync.Mutex
	output float64
}

// SetOutput implements hardware.MotionActuator.
func (m *Motor) SetOutput(percent float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.output = hardware.Clamp(percent)
}

// Output returns the last output set.
func (m *Motor) Output() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.output
}

// limitWindow is the half-width, in slots, around each index position in
// which the limit switch reads closed.
const limitWindow = 0.05

// Revolver is the magazine cylinder. Its limit switch closes whenever a
// barrel is aligned.
type Revolver struct {
	Motor
	rate     float64
	position float64
}

// NewRevolver creates a revolver aligned on slot 0 that turns
// slotsPerSecond at full output.
func NewRevolver(slotsPerSecond float64) *Revolver {
	return &Revolver{rate: slotsPerSecond}
}

// AtLimit implements hardware.IndexingActuator.
func (r *Revolver) AtLimit() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return math.Abs(r.position-math.Round(r.position)) < limitWindow
}

// Position returns the cylinder position in slots.
func (r *Revolver) Position() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

// Step turns the cylinder by dt at the current output.
func (r *Revolver) Step(dt time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.position += r.output * r.rate * dt.Seconds()
}

// Indicator is an RGB status light that animates its pattern.
type Indicator struct {
	mu      sync.Mutex
	pattern hardware.Pattern
	elapsed time.Duration
	changes int
}

// SetColor implements hardware.IndicatorDisplay. Setting the pattern
// already shown keeps its animation phase.
func (i *Indicator) SetColor(p hardware.Pattern) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if p.String() == i.pattern.String() {
		return
	}
	i.pattern = p
	i.elapsed = 0
	i.changes++
}

// Step advances the animation by dt.
func (i *Indicator) Step(dt time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.elapsed += dt
}

// Color returns the colour currently lit.
func (i *Indicator) Color() hardware.Color {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.pattern.At(i.elapsed)
}

// Pattern returns the pattern currently shown.
func (i *Indicator) Pattern() hardware.Pattern {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.pattern
}

// Gamepad is a controller whose buttons and axes are set programmatically.
// Rising edges are latched until read, so a press and release between two
// polls is not lost.
type Gamepad struct {
	mu    sync.Mutex
	held  map[hardware.Button]bool
	edges map[hardware.Button]bool
	axes  map[hardware.Axis]float64
}

// NewGamepad creates a gamepad at rest.
func NewGamepad() *Gamepad {
	return &Gamepad{
		held:  make(map[hardware.Button]bool),
		edges: make(map[hardware.Button]bool),
		axes:  make(map[hardware.Axis]float64),
	}
}

// Press holds id down.
func (g *Gamepad) Press(id hardware.Button) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.held[id] {
		g.edges[id] = true
	}
	g.held[id] = true
}

// Release lets id go.
func (g *Gamepad) Release(id hardware.Button) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.held[id] = false
}

// SetAxis moves an axis, clamped to [-1,1].
func (g *Gamepad) SetAxis(id hardware.Axis, v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.axes[id] = hardware.Clamp(v)
}

// ButtonEdge implements hardware.InputSource.
func (g *Gamepad) ButtonEdge(id hardware.Button) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	edge := g.edges[id]
	g.edges[id] = false
	return edge
}

// ButtonHeld implements hardware.InputSource.
func (g *Gamepad) ButtonHeld(id hardware.Button) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held[id]
}

// Axis implements hardware.InputSource.
func (g *Gamepad) Axis(id hardware.Axis) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.axes[id]
}

// Camera records the capture settings it was started with.
type Camera struct {
	mu       sync.Mutex
	settings *hardware.CameraSettings
}

// StartCapture implements hardware.Camera.
func (c *Camera) StartCapture(s hardware.CameraSettings) error {
	if s.Device < 0 || s.Width <= 0 || s.Height <= 0 || s.FPS <= 0 {
		return fmt.Errorf("camera: invalid settings %s", s)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settings != nil {
		return fmt.Errorf("camera: device %d already capturing", c.settings.Device)
	}
	c.settings = &s
	return nil
}

// Settings returns the active capture settings.
func (c *Camera) Settings() (hardware.CameraSettings, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settings == nil {
		return hardware.CameraSettings{}, false
	}
	return *c.settings, true
}
