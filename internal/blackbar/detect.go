// Package blackbar finds letterbox and pillarbox bars in captured frames and
// maintains a smoothed crop so zone colors ignore them.
package blackbar

import (
	"math"

	"github.com/bft-labs/lumux/internal/domain"
)

// minContentRatio is the smallest share of each dimension a crop may leave.
const minContentRatio = 0.5

// applyThreshold is the relative size change below which a crop is not worth
// slicing the frame for.
const applyThreshold = 0.02

// Detect measures the dark bars on each edge of frame. A row or column is
// dark when its mean luma is at most threshold. Bars thinner than
// minSizePercent of the dimension are ignored, and an axis whose bars would
// leave less than half of the frame is not cropped at all.
func Detect(frame *domain.Frame, threshold int, minSizePercent float64) domain.CropRegion {
	if frame.Empty() {
		return domain.CropRegion{}
	}
	rows, cols := profile(frame)
	w, h := len(cols), len(rows)
	limit := float64(threshold)

	top := leading(rows, limit)
	bottom := trailing(rows, limit)
	left := leading(cols, limit)
	right := trailing(cols, limit)

	top, bottom = bound(top, bottom, h, minSizePercent)
	left, right = bound(left, right, w, minSizePercent)

	return domain.CropRegion{
		Top:    float64(top),
		Bottom: float64(bottom),
		Left:   float64(left),
		Right:  float64(right),
	}
}

// bound applies the size floor, the per-side cap and the content floor to the
// two bars of one axis of length n.
func bound(a, b, n int, minSizePercent float64) (int, int) {
	floor := int(math.Ceil(float64(n) * minSizePercent / 100))
	maxSide := n/2 - 1
	if maxSide < 0 {
		maxSide = 0
	}
	fix := func(v int) int {
		if v < floor {
			return 0
		}
		if v > maxSide {
			return maxSide
		}
		return v
	}
	a, b = fix(a), fix(b)
	if float64(n-a-b) < float64(n)*minContentRatio {
		return 0, 0
	}
	return a, b
}

// profile returns the mean luma of every row and every column.
func profile(frame *domain.Frame) (rows, cols []float64) {
	img := frame.Image
	r := img.Rect
	w, h := r.Dx(), r.Dy()
	rows = make([]float64, h)
	cols = make([]float64, w)

	for y := 0; y < h; y++ {
		off := img.PixOffset(r.Min.X, r.Min.Y+y)
		px := img.Pix[off : off+4*w]
		var sum float64
		for x := 0; x < w; x++ {
			l := 0.299*float64(px[4*x]) + 0.587*float64(px[4*x+1]) + 0.114*float64(px[4*x+2])
			sum += l
			cols[x] += l
		}
		rows[y] = sum / float64(w)
	}
	for x := range cols {
		cols[x] /= float64(h)
	}
	return rows, cols
}

func leading(v []float64, limit float64) int {
	n := 0
	for _, l := range v {
		if l > limit {
			break
		}
		n++
	}
	return n
}

func trailing(v []float64, limit float64) int {
	n := 0
	for i := len(v) - 1; i >= 0; i-- {
		if v[i] > limit {
			break
		}
		n++
	}
	return n
}

// SmoothCrop moves current toward target by factor of the remaining distance
// on every edge independently. factor is clamped to (0, 1].
func SmoothCrop(target, current domain.CropRegion, factor float64) domain.CropRegion {
	if !(factor > 0) {
		return current
	}
	if factor > 1 {
		factor = 1
	}
	step := func(t, c float64) float64 { return c + factor*(t-c) }
	return domain.CropRegion{
		Top:    step(target.Top, current.Top),
		Bottom: step(target.Bottom, current.Bottom),
		Left:   step(target.Left, current.Left),
		Right:  step(target.Right, current.Right),
	}
}

// withinLimits reports whether crop keeps at least half of each dimension.
func withinLimits(crop domain.CropRegion, w, h int) bool {
	if !crop.Valid(w, h) {
		return false
	}
	return float64(w)-crop.Left-crop.Right >= float64(w)*minContentRatio &&
		float64(h)-crop.Top-crop.Bottom >= float64(h)*minContentRatio
}
