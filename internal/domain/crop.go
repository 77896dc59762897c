package domain

import (
	"image"
	"math"
)

// CropRegion holds the insets removed from each edge of a frame. Insets are
// fractional so that smoothing can converge exactly; they are rounded to
// whole pixels only when applied.
type CropRegion struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// IsZero reports whether the region crops nothing.
func (c CropRegion) IsZero() bool {
	return c == CropRegion{}
}

// Valid reports whether the insets are non-negative and leave a non-empty
// area inside a width x height frame.
func (c CropRegion) Valid(width, height int) bool {
	for _, v := range [...]float64{c.Top, c.Bottom, c.Left, c.Right} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return float64(width)-c.Left-c.Right > 0 && float64(height)-c.Top-c.Bottom > 0
}

// Rect returns the content rectangle inside bounds after rounding the insets.
// An invalid region yields bounds unchanged.
func (c CropRegion) Rect(bounds image.Rectangle) image.Rectangle {
	if !c.Valid(bounds.Dx(), bounds.Dy()) {
		return bounds
	}
	r := image.Rect(
		bounds.Min.X+int(math.Round(c.Left)),
		bounds.Min.Y+int(math.Round(c.Top)),
		bounds.Max.X-int(math.Round(c.Right)),
		bounds.Max.Y-int(math.Round(c.Bottom)),
	)
	if r.Empty() {
		return bounds
	}
	return r
}
