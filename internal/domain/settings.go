package domain

import (
	"math"
	"time"
)

// Layout selects how a frame is split into zones.
type Layout string

const (
	LayoutRing Layout = "ring"
	LayoutGrid Layout = "grid"
)

// Settings are the tunable sync parameters. Values arriving from outside the
// core pass through Clamp; out-of-range values are pulled into range rather
// than rejected so a settings change never aborts an active session.
type Settings struct {
	FPS             int
	TransitionMS    int
	BrightnessScale float64
	Gamma           float64
	SmoothingFactor float64

	Layout   Layout
	EdgeRows int
	EdgeCols int
	GridRows int
	GridCols int

	// Gamut names the light gamut used for clamping ("A", "B", "C" or "none").
	Gamut string

	BlackBar BlackBarSettings
}

// BlackBarSettings configure letterbox/pillarbox detection.
type BlackBarSettings struct {
	Enabled        bool
	Threshold      int
	DetectionRate  int
	SmoothFactor   float64
	MinSizePercent float64
}

// Ranges accepted by Clamp.
const (
	MinFPS          = 1
	MaxFPS          = 60
	MaxTransitionMS = 1000
	MaxEdgeZones    = 64
	MaxBarThreshold = 50
	MaxDetectRate   = 120
)

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		FPS:             30,
		TransitionMS:    100,
		BrightnessScale: 1.0,
		Gamma:           2.2,
		SmoothingFactor: 0.3,
		Layout:          LayoutRing,
		EdgeRows:        4,
		EdgeCols:        8,
		GridRows:        3,
		GridCols:        4,
		Gamut:           "C",
		BlackBar: BlackBarSettings{
			Enabled:        true,
			Threshold:      10,
			DetectionRate:  30,
			SmoothFactor:   0.3,
			MinSizePercent: 5,
		},
	}
}

// Clamp returns a copy of s with every value pulled into its accepted range.
func (s Settings) Clamp() Settings {
	s.FPS = clampInt(s.FPS, MinFPS, MaxFPS)
	s.TransitionMS = clampInt(s.TransitionMS, 0, MaxTransitionMS)
	s.BrightnessScale = clampFloat(s.BrightnessScale, 0, 2)
	s.Gamma = clampFloat(s.Gamma, 0.1, 3)
	s.SmoothingFactor = clampFloat(s.SmoothingFactor, 0.1, 1)
	if s.Layout != LayoutGrid {
		s.Layout = LayoutRing
	}
	s.EdgeRows = clampInt(s.EdgeRows, 1, MaxEdgeZones)
	s.EdgeCols = clampInt(s.EdgeCols, 1, MaxEdgeZones)
	s.GridRows = clampInt(s.GridRows, 1, MaxEdgeZones)
	s.GridCols = clampInt(s.GridCols, 1, MaxEdgeZones)
	if _, err := GamutByName(s.Gamut); err != nil {
		s.Gamut = "none"
	}
	s.BlackBar = s.BlackBar.Clamp()
	return s
}

// Clamp returns a copy of b with every value pulled into its accepted range.
func (b BlackBarSettings) Clamp() BlackBarSettings {
	b.Threshold = clampInt(b.Threshold, 0, MaxBarThreshold)
	b.DetectionRate = clampInt(b.DetectionRate, 1, MaxDetectRate)
	b.SmoothFactor = clampFloat(b.SmoothFactor, 0.1, 1)
	b.MinSizePercent = clampFloat(b.MinSizePercent, 0, 50)
	return b
}

// FrameInterval returns the target duration of one tick.
func (s Settings) FrameInterval() time.Duration {
	return time.Second / time.Duration(clampInt(s.FPS, MinFPS, MaxFPS))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
