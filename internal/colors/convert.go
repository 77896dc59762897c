// Package colors converts zone colors into the bridge's xy + brightness
// color space and smooths them over time.
package colors

import (
	"math"

	"github.com/bft-labs/lumux/internal/domain"
)

// GammaCorrect applies channel' = (channel/255)^gamma * 255 to every component.
func GammaCorrect(c domain.RGB, gamma float64) domain.RGB {
	if gamma == 1 {
		return c
	}
	f := func(v float64) float64 {
		if v <= 0 {
			return 0
		}
		if v >= 255 {
			return 255
		}
		return math.Pow(v/255, gamma) * 255
	}
	return domain.RGB{R: f(c.R), G: f(c.G), B: f(c.B)}
}

// RGBToXY converts an RGB color to CIE xy using the wide gamut D65 matrix.
// Black has no chromaticity and maps to domain.NeutralXY.
func RGBToXY(c domain.RGB) domain.XY {
	r, g, b := c.R/255, c.G/255, c.B/255

	x := 0.664511*r + 0.154324*g + 0.162028*b
	y := 0.283881*r + 0.668433*g + 0.047685*b
	z := 0.000088*r + 0.072310*g + 0.986039*b

	sum := x + y + z
	if sum <= 0 {
		return domain.NeutralXY
	}
	return domain.XY{X: clamp01(x / sum), Y: clamp01(y / sum)}
}

// Brightness maps the luminance of c to [1, 254], scaled by scale.
func Brightness(c domain.RGB, scale float64) float64 {
	b := math.Round(domain.MaxBrightness * c.Luminance() / 255 * scale)
	if b < 1 || math.IsNaN(b) {
		return 1
	}
	if b > domain.MaxBrightness {
		return domain.MaxBrightness
	}
	return b
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
