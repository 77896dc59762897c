package domain

import (
	"image"
	"time"
)

// Frame is a captured screen image. The pixel buffer is owned by the
// pipeline stage holding the frame and must not be modified after capture;
// Sub returns views sharing the same buffer.
type Frame struct {
	// Image holds the pixels. Its bounds need not start at the origin when
	// the frame is a cropped view.
	Image *image.RGBA

	// CapturedAt is when the grabber produced the image.
	CapturedAt time.Time

	// Seq increases by one for every frame a source publishes.
	Seq uint64

	// Source identifies the capture source (display) that produced the
	// frame. A change of source invalidates per-source state such as crops.
	Source string
}

// NewFrame wraps an image captured at the given time.
func NewFrame(img *image.RGBA, capturedAt time.Time, seq uint64) *Frame {
	return &Frame{Image: img, CapturedAt: capturedAt, Seq: seq}
}

// Bounds returns the pixel bounds of the frame.
func (f *Frame) Bounds() image.Rectangle {
	if f == nil || f.Image == nil {
		return image.Rectangle{}
	}
	return f.Image.Rect
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.Bounds().Dx() }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.Bounds().Dy() }

// Empty reports whether the frame has no pixels.
func (f *Frame) Empty() bool { return f.Bounds().Empty() }

// Sub returns a view of the frame restricted to r, in the frame's own
// coordinate space. No pixels are copied.
func (f *Frame) Sub(r image.Rectangle) *Frame {
	sub, ok := f.Image.SubImage(r).(*image.RGBA)
	if !ok {
		return f
	}
	return &Frame{Image: sub, CapturedAt: f.CapturedAt, Seq: f.Seq, Source: f.Source}
}

// RGB is an average color with components in [0, 255].
type RGB struct {
	R, G, B float64
}

// Luma returns the Rec. 601 luminance used for bar detection.
func (c RGB) Luma() float64 {
	return 0.299*c.R + 0.587*c.G + 0.114*c.B
}

// Luminance returns the Rec. 709 relative luminance used for brightness.
func (c RGB) Luminance() float64 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

// Bytes returns the color rounded to 8-bit components.
func (c RGB) Bytes() [3]uint8 {
	return [3]uint8{toByte(c.R), toByte(c.G), toByte(c.B)}
}

func toByte(v float64) uint8 {
	switch {
	case v <= 0 || v != v:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
