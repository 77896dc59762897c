package colors

import "github.com/bft-labs/lumux/internal/domain"

// SmoothColor moves prev toward curr by factor on x, y and brightness.
func SmoothColor(prev, curr domain.DeviceColor, factor float64) domain.DeviceColor {
	if factor >= 1 {
		return curr
	}
	if !(factor > 0) {
		return prev
	}
	return domain.DeviceColor{
		XY: domain.XY{
			X: prev.X + factor*(curr.X-prev.X),
			Y: prev.Y + factor*(curr.Y-prev.Y),
		},
		Brightness: prev.Brightness + factor*(curr.Brightness-prev.Brightness),
	}
}

// Smoother keeps an exponential moving average per zone. Zones seen for the
// first time pass through unsmoothed.
type Smoother struct {
	prev map[string]domain.DeviceColor
}

// NewSmoother creates an empty smoother.
func NewSmoother() *Smoother {
	return &Smoother{prev: make(map[string]domain.DeviceColor)}
}

// Smooth returns the smoothed colors and remembers them for the next call.
func (s *Smoother) Smooth(colors map[string]domain.DeviceColor, factor float64) map[string]domain.DeviceColor {
	out := make(map[string]domain.DeviceColor, len(colors))
	for id, c := range colors {
		if prev, ok := s.prev[id]; ok {
			c = SmoothColor(prev, c, factor)
		}
		s.prev[id] = c
		out[id] = c
	}
	return out
}

// Reset forgets all history.
func (s *Smoother) Reset() {
	s.prev = make(map[string]domain.DeviceColor)
}
