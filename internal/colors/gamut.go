package colors

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/bft-labs/lumux/internal/domain"
)

func vec(p domain.XY) r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// InGamut reports whether p lies inside or on the edge of the gamut triangle.
func InGamut(p domain.XY, g domain.Gamut) bool {
	pv, a, b, c := vec(p), vec(g.Red), vec(g.Green), vec(g.Blue)
	d1 := r2.Cross(r2.Sub(b, a), r2.Sub(pv, a))
	d2 := r2.Cross(r2.Sub(c, b), r2.Sub(pv, b))
	d3 := r2.Cross(r2.Sub(a, c), r2.Sub(pv, c))

	const eps = 1e-12
	hasNeg := d1 < -eps || d2 < -eps || d3 < -eps
	hasPos := d1 > eps || d2 > eps || d3 > eps
	return !(hasNeg && hasPos)
}

// ClampToGamut returns p unchanged when it is inside g, otherwise the closest
// point on the triangle's edges.
func ClampToGamut(p domain.XY, g domain.Gamut) domain.XY {
	if InGamut(p, g) {
		return p
	}
	pv := vec(p)
	edges := [3][2]r2.Vec{
		{vec(g.Red), vec(g.Green)},
		{vec(g.Green), vec(g.Blue)},
		{vec(g.Blue), vec(g.Red)},
	}

	best := pv
	bestDist := math.Inf(1)
	for _, e := range edges {
		q := closestOnSegment(pv, e[0], e[1])
		if d := r2.Norm(r2.Sub(pv, q)); d < bestDist {
			best, bestDist = q, d
		}
	}
	return domain.XY{X: best.X, Y: best.Y}
}

func closestOnSegment(p, a, b r2.Vec) r2.Vec {
	ab := r2.Sub(b, a)
	den := r2.Dot(ab, ab)
	if den == 0 {
		return a
	}
	t := r2.Dot(r2.Sub(p, a), ab) / den
	switch {
	case t < 0:
		t = 0
	case t > 1:
		t = 1
	}
	return r2.Add(a, r2.Scale(t, ab))
}
