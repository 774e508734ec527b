package layout

import "math"

// Point is a 2D coordinate in µm.
type Point struct {
	X float64
	Y float64
}

// Rect is an axis-aligned rectangle in µm.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Width returns the x extent of the rectangle.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the y extent of the rectangle.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Contains reports whether p lies inside or on the boundary of r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Pad returns r grown by m on all four sides.
func (r Rect) Pad(m float64) Rect {
	return Rect{MinX: r.MinX - m, MinY: r.MinY - m, MaxX: r.MaxX + m, MaxY: r.MaxY + m}
}

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		MinX: math.Min(r.MinX, o.MinX),
		MinY: math.Min(r.MinY, o.MinY),
		MaxX: math.Max(r.MaxX, o.MaxX),
		MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

// boundsOf computes the exact axis-aligned bounding box of the vertices.
func boundsOf(pts []Point) Rect {
	r := Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, p := range pts {
		r.MinX = math.Min(r.MinX, p.X)
		r.MinY = math.Min(r.MinY, p.Y)
		r.MaxX = math.Max(r.MaxX, p.X)
		r.MaxY = math.Max(r.MaxY, p.Y)
	}
	return r
}

// signedArea computes the signed area of a simple polygon via the shoelace
// formula. Positive for counter-clockwise winding.
func signedArea(pts []Point) float64 {
	var sum float64
	n := len(pts)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return sum / 2
}

// segmentsIntersect reports a proper crossing between segments p1-p2 and
// q1-q2. Shared endpoints do not count; adjacent polygon edges always share
// one.
func segmentsIntersect(p1, p2, q1, q2 Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// selfIntersects checks every non-adjacent edge pair of a closed polygon.
// Layouts are small (tens of vertices), so the quadratic scan is fine.
func selfIntersects(pts []Point) bool {
	n := len(pts)
	for i := 0; i < n; i++ {
		p1, p2 := pts[i], pts[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// Skip adjacent edges, including the first/last pair.
			if j == i || (j+1)%n == i || (i+1)%n == j {
				continue
			}
			q1, q2 := pts[j], pts[(j+1)%n]
			if segmentsIntersect(p1, p2, q1, q2) {
				return true
			}
		}
	}
	return false
}
