package hardware

import (
	"fmt"
	"strings"
	"time"
)

// Color is one indicator colour.
type Color int

const (
	Black Color = iota
	Red
	Green
	Blue
	White
	Yellow
	Cyan
	Magenta
	Orange
)

var colorNames = [...]string{"black", "red", "green", "blue", "white", "yellow", "cyan", "magenta", "orange"}

var colorRGB = [...][3]uint8{
	{0, 0, 0},
	{255, 0, 0},
	{0, 255, 0},
	{0, 0, 255},
	{255, 255, 255},
	{255, 255, 0},
	{0, 255, 255},
	{255, 0, 255},
	{255, 128, 0},
}

func (c Color) String() string {
	if c < 0 || int(c) >= len(colorNames) {
		return fmt.Sprintf("color(%d)", int(c))
	}
	return colorNames[c]
}

// RGB returns the 8-bit channel values of c.
func (c Color) RGB() (r, g, b uint8) {
	if c < 0 || int(c) >= len(colorRGB) {
		return 0, 0, 0
	}
	v := colorRGB[c]
	return v[0], v[1], v[2]
}

// ParseColor returns the colour named s.
func ParseColor(s string) (Color, error) {
	for i, n := range colorNames {
		if strings.EqualFold(n, s) {
			return Color(i), nil
		}
	}
	return Black, fmt.Errorf("unknown color %q", s)
}

// Pattern is a solid colour or a sequence of colours, each shown for
// Period.
type Pattern struct {
	Colors []Color
	Period time.Duration
}

// Solid returns a single-colour pattern.
func Solid(c Color) Pattern {
	return Pattern{Colors: []Color{c}}
}

// Flash returns a pattern cycling through colors, each shown for period.
func Flash(period time.Duration, colors ...Color) Pattern {
	return Pattern{Colors: colors, Period: period}
}

// At returns the colour shown elapsed after the pattern was set.
func (p Pattern) At(elapsed time.Duration) Color {
	if len(p.Colors) == 0 {
		return Black
	}
	if len(p.Colors) == 1 || p.Period <= 0 || elapsed < 0 {
		return p.Colors[0]
	}
	return p.Colors[int(elapsed/p.Period)%len(p.Colors)]
}

func (p Pattern) String() string {
	if len(p.Colors) == 0 {
		return "black"
	}
	if len(p.Colors) == 1 {
		return p.Colors[0].String()
	}
	names := make([]string, len(p.Colors))
	for i, c := range p.Colors {
		names[i] = c.String()
	}
	return strings.Join(names, "/") + "@" + p.Period.String()
}
