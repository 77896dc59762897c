// Package capture produces frames from a display. A producer goroutine grabs
// the screen at a fixed interval and publishes the newest frame into a
// single slot; readers always get the latest frame and older ones are
// dropped.
package capture

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// Grabber returns one raw screen image per call.
type Grabber interface {
	Grab() (*image.RGBA, error)

	// Source identifies what is being captured. A change of source resets
	// black-bar state downstream.
	Source() string
}

// ErrNoDisplay is returned when the requested display does not exist.
var ErrNoDisplay = errors.New("capture: display not found")

// DisplayGrabber captures a whole display using the platform screenshot API.
type DisplayGrabber struct {
	index int
}

// NewDisplayGrabber returns a grabber for the display at index.
func NewDisplayGrabber(index int) (*DisplayGrabber, error) {
	n := screenshot.NumActiveDisplays()
	if index < 0 || index >= n {
		return nil, fmt.Errorf("%w: index %d, %d active", ErrNoDisplay, index, n)
	}
	return &DisplayGrabber{index: index}, nil
}

// Grab captures the display at its current bounds.
func (g *DisplayGrabber) Grab() (*image.RGBA, error) {
	img, err := screenshot.CaptureDisplay(g.index)
	if err != nil {
		return nil, fmt.Errorf("capture display %d: %w", g.index, err)
	}
	return img, nil
}

// Source returns "display-<index>".
func (g *DisplayGrabber) Source() string {
	return fmt.Sprintf("display-%d", g.index)
}

// Display describes an active display.
type Display struct {
	Index  int
	Bounds image.Rectangle
}

// Displays lists the active displays.
func Displays() []Display {
	n := screenshot.NumActiveDisplays()
	out := make([]Display, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Display{Index: i, Bounds: screenshot.GetDisplayBounds(i)})
	}
	return out
}
