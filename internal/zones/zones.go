// Package zones splits a frame into screen zones and averages their colors.
package zones

import (
	"image"

	"github.com/bft-labs/lumux/internal/domain"
)

// minThickness is the narrowest edge strip in pixels.
const minThickness = 5

// Processor computes per-zone average colors. Zone rectangles are cached for
// the last frame bounds seen. A Processor is not safe for concurrent use.
type Processor struct {
	layout     domain.Layout
	rows, cols int
	ids        []string

	bounds image.Rectangle
	rects  []image.Rectangle
}

// NewRing creates a processor for the ambilight ring: cols zones along the
// top and bottom edges and rows zones down the left and right edges.
func NewRing(rows, cols int) *Processor {
	rows, cols = clampCount(rows), clampCount(cols)
	p := &Processor{layout: domain.LayoutRing, rows: rows, cols: cols}
	for _, e := range []domain.Edge{domain.EdgeTop, domain.EdgeBottom} {
		for i := 0; i < cols; i++ {
			p.ids = append(p.ids, domain.ZoneID(e, i))
		}
	}
	for _, e := range []domain.Edge{domain.EdgeLeft, domain.EdgeRight} {
		for i := 0; i < rows; i++ {
			p.ids = append(p.ids, domain.ZoneID(e, i))
		}
	}
	return p
}

// NewGrid creates a processor dividing the whole frame into rows x cols cells.
func NewGrid(rows, cols int) *Processor {
	rows, cols = clampCount(rows), clampCount(cols)
	p := &Processor{layout: domain.LayoutGrid, rows: rows, cols: cols}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			p.ids = append(p.ids, domain.GridZoneID(r, c))
		}
	}
	return p
}

// New creates the processor selected by settings.
func New(s domain.Settings) *Processor {
	if s.Layout == domain.LayoutGrid {
		return NewGrid(s.GridRows, s.GridCols)
	}
	return NewRing(s.EdgeRows, s.EdgeCols)
}

// Layout returns the zone layout.
func (p *Processor) Layout() domain.Layout { return p.layout }

// ZoneIDs returns the zone keys in a stable order.
func (p *Processor) ZoneIDs() []string {
	out := make([]string, len(p.ids))
	copy(out, p.ids)
	return out
}

// Matches reports whether the processor already implements the layout in s.
func (p *Processor) Matches(s domain.Settings) bool {
	if s.Layout == domain.LayoutGrid {
		return p.layout == domain.LayoutGrid && p.rows == clampCount(s.GridRows) && p.cols == clampCount(s.GridCols)
	}
	return p.layout == domain.LayoutRing && p.rows == clampCount(s.EdgeRows) && p.cols == clampCount(s.EdgeCols)
}

// Process returns the average color of every zone. Every zone key is present
// even when its rectangle is empty, in which case the color is black.
func (p *Processor) Process(frame *domain.Frame) map[string]domain.RGB {
	out := make(map[string]domain.RGB, len(p.ids))
	if frame.Empty() {
		for _, id := range p.ids {
			out[id] = domain.RGB{}
		}
		return out
	}
	rects := p.Rects(frame.Bounds())
	for i, id := range p.ids {
		out[id] = Mean(frame.Image, rects[i])
	}
	return out
}

// Rects returns the zone rectangles for bounds, in ZoneIDs order.
func (p *Processor) Rects(bounds image.Rectangle) []image.Rectangle {
	if p.rects != nil && bounds == p.bounds {
		return p.rects
	}
	if p.layout == domain.LayoutGrid {
		p.rects = gridRects(bounds, p.rows, p.cols)
	} else {
		p.rects = ringRects(bounds, p.rows, p.cols)
	}
	p.bounds = bounds
	return p.rects
}

// EdgeThickness returns the depth of the ring strips for a w x h frame.
func EdgeThickness(w, h, cols int) int {
	t := w / clampCount(cols)
	if h/8 < t {
		t = h / 8
	}
	if t < minThickness {
		t = minThickness
	}
	if t > w {
		t = w
	}
	if t > h {
		t = h
	}
	return t
}

func ringRects(b image.Rectangle, rows, cols int) []image.Rectangle {
	w, h := b.Dx(), b.Dy()
	t := EdgeThickness(w, h, cols)
	rects := make([]image.Rectangle, 0, 2*rows+2*cols)

	for _, top := range []bool{true, false} {
		y0, y1 := b.Min.Y, b.Min.Y+t
		if !top {
			y0, y1 = b.Max.Y-t, b.Max.Y
		}
		for i := 0; i < cols; i++ {
			x0 := b.Min.X + i*w/cols
			x1 := b.Min.X + (i+1)*w/cols
			rects = append(rects, image.Rect(x0, y0, x1, y1))
		}
	}
	for _, left := range []bool{true, false} {
		x0, x1 := b.Min.X, b.Min.X+t
		if !left {
			x0, x1 = b.Max.X-t, b.Max.X
		}
		for i := 0; i < rows; i++ {
			y0 := b.Min.Y + i*h/rows
			y1 := b.Min.Y + (i+1)*h/rows
			rects = append(rects, image.Rect(x0, y0, x1, y1))
		}
	}
	return rects
}

func gridRects(b image.Rectangle, rows, cols int) []image.Rectangle {
	w, h := b.Dx(), b.Dy()
	rects := make([]image.Rectangle, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			rects = append(rects, image.Rect(
				b.Min.X+c*w/cols, b.Min.Y+r*h/rows,
				b.Min.X+(c+1)*w/cols, b.Min.Y+(r+1)*h/rows,
			))
		}
	}
	return rects
}

// Mean returns the arithmetic mean color of img inside r.
func Mean(img *image.RGBA, r image.Rectangle) domain.RGB {
	r = r.Intersect(img.Rect)
	if r.Empty() {
		return domain.RGB{}
	}
	var sr, sg, sb uint64
	w := r.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := img.PixOffset(r.Min.X, y)
		px := img.Pix[off : off+4*w]
		for x := 0; x < w; x++ {
			sr += uint64(px[4*x])
			sg += uint64(px[4*x+1])
			sb += uint64(px[4*x+2])
		}
	}
	n := float64(w * r.Dy())
	return domain.RGB{R: float64(sr) / n, G: float64(sg) / n, B: float64(sb) / n}
}

func clampCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > domain.MaxEdgeZones {
		return domain.MaxEdgeZones
	}
	return n
}
