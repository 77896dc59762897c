package domain

import (
	"fmt"
	"math"
	"strings"
)

// MaxBrightness is the highest brightness level a channel accepts.
const MaxBrightness = 254

// XY is a CIE 1931 chromaticity coordinate.
type XY struct {
	X, Y float64
}

// NeutralXY is used when a color has no energy to derive a chromaticity from.
var NeutralXY = XY{X: 0.3227, Y: 0.3290}

// DeviceColor is a zone or channel color in the bridge's native color space.
// Brightness is kept fractional in [0, MaxBrightness] so that smoothing and
// averaging do not stall on integer truncation; Level rounds it.
type DeviceColor struct {
	XY
	Brightness float64
}

// Level returns the brightness as an integer in [0, MaxBrightness].
func (c DeviceColor) Level() int {
	b := math.Round(c.Brightness)
	switch {
	case b <= 0 || math.IsNaN(b):
		return 0
	case b >= MaxBrightness:
		return MaxBrightness
	default:
		return int(b)
	}
}

// Gamut is the triangle of xy coordinates a light can reproduce.
type Gamut struct {
	Red, Green, Blue XY
}

// Standard Hue gamuts.
var (
	GamutA = Gamut{Red: XY{0.704, 0.296}, Green: XY{0.2151, 0.7106}, Blue: XY{0.138, 0.08}}
	GamutB = Gamut{Red: XY{0.675, 0.322}, Green: XY{0.409, 0.518}, Blue: XY{0.167, 0.04}}
	GamutC = Gamut{Red: XY{0.6915, 0.3083}, Green: XY{0.17, 0.7}, Blue: XY{0.1532, 0.0475}}
)

// GamutByName resolves "A", "B", "C" (case-insensitive) to a gamut.
// "none" and the empty string return nil, meaning no clamping.
func GamutByName(name string) (*Gamut, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "NONE":
		return nil, nil
	case "A":
		g := GamutA
		return &g, nil
	case "B":
		g := GamutB
		return &g, nil
	case "C":
		g := GamutC
		return &g, nil
	default:
		return nil, fmt.Errorf("unknown gamut %q", name)
	}
}
