package mapping

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/bft-labs/lumux/internal/domain"
)

// layout knows how many zones sit on each edge (or in each grid axis) so a
// zone index can be turned into a screen position in [-1, 1].
type layout struct {
	edges      map[domain.Edge]int
	rows, cols int
}

func newLayout(zoneIDs []string) layout {
	l := layout{edges: make(map[domain.Edge]int)}
	for _, id := range zoneIDs {
		if e, _, ok := domain.ParseZoneID(id); ok {
			l.edges[e]++
			continue
		}
		if r, c, ok := domain.ParseGridZoneID(id); ok {
			if r+1 > l.rows {
				l.rows = r + 1
			}
			if c+1 > l.cols {
				l.cols = c + 1
			}
		}
	}
	return l
}

// position returns the expected (x, z) of a zone: x runs left to right and
// z bottom to top.
func (l layout) position(id string) (r2.Vec, bool) {
	if e, i, ok := domain.ParseZoneID(id); ok {
		along := spread(i, l.edges[e])
		switch e {
		case domain.EdgeLeft:
			return r2.Vec{X: -1, Y: -along}, true
		case domain.EdgeRight:
			return r2.Vec{X: 1, Y: -along}, true
		case domain.EdgeTop:
			return r2.Vec{X: along, Y: 1}, true
		case domain.EdgeBottom:
			return r2.Vec{X: along, Y: -1}, true
		}
	}
	if r, c, ok := domain.ParseGridZoneID(id); ok {
		return r2.Vec{X: spread(c, l.cols), Y: -spread(r, l.rows)}, true
	}
	return r2.Vec{}, false
}

// TargetPosition returns the screen position a zone maps to given all zones
// of the layout.
func TargetPosition(zoneID string, zoneIDs []string) (x, z float64, ok bool) {
	v, ok := newLayout(zoneIDs).position(zoneID)
	return v.X, v.Y, ok
}

// spread maps index i of n evenly onto [-1, 1]; a single zone sits at 0.
func spread(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return -1 + float64(i)*2/float64(n-1)
}
