package blackbar

import (
	"image"

	"github.com/bft-labs/lumux/internal/domain"
)

// Detector runs bar detection every few frames and eases the applied crop
// toward the last detection. It is owned by the sync loop goroutine.
type Detector struct {
	settings domain.BlackBarSettings

	target  domain.CropRegion
	current domain.CropRegion
	frames  int

	source        string
	width, height int
}

// NewDetector creates a detector with the given settings.
func NewDetector(settings domain.BlackBarSettings) *Detector {
	return &Detector{settings: settings.Clamp()}
}

// Configure replaces the settings. The current crop is kept; disabling the
// detector resets it.
func (d *Detector) Configure(settings domain.BlackBarSettings) {
	settings = settings.Clamp()
	if !settings.Enabled && d.settings.Enabled {
		d.Reset()
	}
	d.settings = settings
}

// Reset forgets all detection state and returns to the full frame.
func (d *Detector) Reset() {
	d.target = domain.CropRegion{}
	d.current = domain.CropRegion{}
	d.frames = 0
	d.source = ""
	d.width, d.height = 0, 0
}

// Current returns the smoothed crop applied to the last frame.
func (d *Detector) Current() domain.CropRegion {
	return d.current
}

// Update feeds one frame and returns the smoothed crop for it. A change of
// capture source or frame size starts over from the full frame.
func (d *Detector) Update(frame *domain.Frame) domain.CropRegion {
	w, h := frame.Width(), frame.Height()
	if frame.Source != d.source || w != d.width || h != d.height {
		d.Reset()
		d.source, d.width, d.height = frame.Source, w, h
	}

	if d.frames%d.settings.DetectionRate == 0 {
		d.target = Detect(frame, d.settings.Threshold, d.settings.MinSizePercent)
	}
	d.frames++

	next := SmoothCrop(d.target, d.current, d.settings.SmoothFactor)
	if !withinLimits(next, w, h) {
		d.target = domain.CropRegion{}
		next = domain.CropRegion{}
	}
	d.current = next
	return next
}

// Apply updates the detector with frame and returns the frame cropped to the
// content area. The frame is returned unchanged while detection is disabled
// or when the crop would change either dimension by no more than 2%.
func (d *Detector) Apply(frame *domain.Frame) *domain.Frame {
	if !d.settings.Enabled || frame.Empty() {
		return frame
	}
	crop := d.Update(frame)
	r := crop.Rect(frame.Bounds())
	if !worthCropping(frame.Bounds(), r) {
		return frame
	}
	return frame.Sub(r)
}

func worthCropping(src, dst image.Rectangle) bool {
	dw := float64(src.Dx()-dst.Dx()) / float64(src.Dx())
	dh := float64(src.Dy()-dst.Dy()) / float64(src.Dy())
	return dw > applyThreshold || dh > applyThreshold
}
