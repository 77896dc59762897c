package capture

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// rebase returns img with its bounds moved to the origin, sharing pixels.
func rebase(img *image.RGBA) *image.RGBA {
	if img.Rect.Min == (image.Point{}) {
		return img
	}
	return &image.RGBA{
		Pix:    img.Pix,
		Stride: img.Stride,
		Rect:   image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy()),
	}
}

// NormalizeRotation maps any multiple of 90 degrees into {0, 90, 180, 270}.
// Other values yield 0.
func NormalizeRotation(degrees int) int {
	d := ((degrees % 360) + 360) % 360
	switch d {
	case 90, 180, 270:
		return d
	default:
		return 0
	}
}

// Rotate turns src counter-clockwise by degrees (0, 90, 180 or 270).
func Rotate(src *image.RGBA, degrees int) *image.RGBA {
	src = rebase(src)
	w := float64(src.Rect.Dx())
	h := float64(src.Rect.Dy())

	var m f64.Aff3
	var dst *image.RGBA
	switch NormalizeRotation(degrees) {
	case 90:
		m = f64.Aff3{0, 1, 0, -1, 0, w}
		dst = image.NewRGBA(image.Rect(0, 0, src.Rect.Dy(), src.Rect.Dx()))
	case 180:
		m = f64.Aff3{-1, 0, w, 0, -1, h}
		dst = image.NewRGBA(src.Rect)
	case 270:
		m = f64.Aff3{0, -1, h, 1, 0, 0}
		dst = image.NewRGBA(image.Rect(0, 0, src.Rect.Dy(), src.Rect.Dx()))
	default:
		return src
	}
	draw.NearestNeighbor.Transform(dst, m, src, src.Rect, draw.Src, nil)
	return dst
}

// Scale downsizes src by factor in (0, 1] with a bilinear approximation.
// The result is at least 1x1.
func Scale(src *image.RGBA, factor float64) *image.RGBA {
	src = rebase(src)
	if factor <= 0 || factor >= 1 {
		return src
	}
	w := int(float64(src.Rect.Dx())*factor + 0.5)
	h := int(float64(src.Rect.Dy())*factor + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)
	return dst
}
