// Package hardware declares the capability interfaces the robot consumes.
// Implementations are small, synchronous and must not block: they are
// called from the tick goroutine.
package hardware

import (
	"fmt"
	"math"
)

// PressureSensor reads the firing tank pressure in psi.
type PressureSensor interface {
	Pressure() float64
}

// ValveActuator opens or closes a solenoid valve.
type ValveActuator interface {
	SetOpen(open bool)
}

// MotionActuator sets a motor percent output. Values outside [-1,1] are
// clamped by the implementation.
type MotionActuator interface {
	SetOutput(percent float64)
}

// IndexingActuator is a motor with a limit switch that closes at every
// index position.
type IndexingActuator interface {
	MotionActuator
	AtLimit() bool
}

// IndicatorDisplay shows a colour pattern. A multi-colour pattern is
// animated by the display itself.
type IndicatorDisplay interface {
	SetColor(p Pattern)
}

// InputSource is a polled gamepad.
type InputSource interface {
	// ButtonEdge reports true exactly once per rising edge of id.
	ButtonEdge(id Button) bool
	ButtonHeld(id Button) bool
	Axis(id Axis) float64
}

// Camera starts a video stream.
type Camera interface {
	StartCapture(settings CameraSettings) error
}

// CameraSettings configures a capture stream.
type CameraSettings struct {
	Device int `json:"device"`
	Width  int `json:"width"`
	Height int `json:"height"`
	FPS    int `json:"fps"`
}

func (s CameraSettings) String() string {
	return fmt.Sprintf("cam%d %dx%d@%dfps", s.Device, s.Width, s.Height, s.FPS)
}

// Button identifies a gamepad button.
type Button string

const (
	ButtonA           Button = "a"
	ButtonB           Button = "b"
	ButtonX           Button = "x"
	ButtonY           Button = "y"
	ButtonLeftBumper  Button = "lb"
	ButtonRightBumper Button = "rb"
	ButtonBack        Button = "back"
	ButtonStart       Button = "start"
)

// Buttons lists every known button.
var Buttons = []Button{
	ButtonA, ButtonB, ButtonX, ButtonY,
	ButtonLeftBumper, ButtonRightBumper, ButtonBack, ButtonStart,
}

// ParseButton returns the button named s.
func ParseButton(s string) (Button, error) {
	for _, b := range Buttons {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown button %q", s)
}

// Axis identifies a gamepad axis. Sticks range over [-1,1], triggers over
// [0,1].
type Axis string

const (
	AxisLeftX        Axis = "left_x"
	AxisLeftY        Axis = "left_y"
	AxisRightX       Axis = "right_x"
	AxisRightY       Axis = "right_y"
	AxisLeftTrigger  Axis = "left_trigger"
	AxisRightTrigger Axis = "right_trigger"
)

// Axes lists every known axis.
var Axes = []Axis{
	AxisLeftX, AxisLeftY, AxisRightX, AxisRightY, AxisLeftTrigger, AxisRightTrigger,
}

// ParseAxis returns the axis named s.
func ParseAxis(s string) (Axis, error) {
	for _, a := range Axes {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown axis %q", s)
}

// Clamp limits v to [-1,1]. NaN becomes 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}

// Set is the complete collection of devices the robot is built from.
type Set struct {
	FiringValve  ValveActuator
	LoadingValve ValveActuator
	Pressure     PressureSensor
	Revolver     IndexingActuator
	AimMotor     MotionActuator
	LeftDrive    MotionActuator
	RightDrive   MotionActuator
	Indicator    IndicatorDisplay
	Input        InputSource
	Camera       Camera
}

// Validate reports the first missing device.
func (s Set) Validate() error {
	missing := func(name string) error { return fmt.Errorf("hardware: missing %s", name) }
	switch {
	case s.FiringValve == nil:
		return missing("firing valve")
	case s.LoadingValve == nil:
		return missing("loading valve")
	case s.Pressure == nil:
		return missing("pressure sensor")
	case s.Revolver == nil:
		return missing("revolver")
	case s.AimMotor == nil:
		return missing("aim motor")
	case s.LeftDrive == nil || s.RightDrive == nil:
		return missing("drive motor")
	case s.Indicator == nil:
		return missing("indicator")
	case s.Input == nil:
		return missing("input source")
	}
	return nil
}
