// Package geom holds the planar primitives shared by layout, routing, the
// viewport and the exporters.
//
// All coordinates are diagram units (SVG user units). The y axis grows
// downward, matching SVG and raster image space.
package geom

import "math"

// Epsilon is the tolerance used when comparing coordinates.
const Epsilon = 1e-6

// Point is a location in diagram space.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale multiplies both coordinates by s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

// Eq reports whether p and q coincide within Epsilon.
func (p Point) Eq(q Point) bool {
	return math.Abs(p.X-q.X) < Epsilon && math.Abs(p.Y-q.Y) < Epsilon
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X, Y float64
	W, H float64
}

// R is shorthand for Rect{X: x, Y: y, W: w, H: h}.
func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

// Left returns the minimum x coordinate.
func (r Rect) Left() float64 { return r.X }

// Right returns the maximum x coordinate.
func (r Rect) Right() float64 { return r.X + r.W }

// Top returns the minimum y coordinate.
func (r Rect) Top() float64 { return r.Y }

// Bottom returns the maximum y coordinate.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// CenterX returns the horizontal center.
func (r Rect) CenterX() float64 { return r.X + r.W/2 }

// CenterY returns the vertical center.
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Center returns the center point.
func (r Rect) Center() Point { return Point{r.CenterX(), r.CenterY()} }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Inflate grows r by d on every side. A negative d shrinks it.
func (r Rect) Inflate(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Contains reports whether p lies inside r or on its boundary.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left() && p.X <= r.Right() && p.Y >= r.Top() && p.Y <= r.Bottom()
}

// ContainsStrict reports whether p lies strictly inside r.
func (r Rect) ContainsStrict(p Point) bool {
	return p.X > r.Left() && p.X < r.Right() && p.Y > r.Top() && p.Y < r.Bottom()
}

// Overlaps reports whether the interiors of r and o intersect.
// Rectangles that only share an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.Left() < o.Right()-Epsilon && o.Left() < r.Right()-Epsilon &&
		r.Top() < o.Bottom()-Epsilon && o.Top() < r.Bottom()-Epsilon
}

// Union returns the smallest rectangle containing r and o.
// An empty operand is ignored.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	left := math.Min(r.Left(), o.Left())
	top := math.Min(r.Top(), o.Top())
	right := math.Max(r.Right(), o.Right())
	bottom := math.Max(r.Bottom(), o.Bottom())
	return Rect{X: left, Y: top, W: right - left, H: bottom - top}
}

// Bounds returns the union of rs, or the zero Rect when rs is empty.
func Bounds(rs []Rect) Rect {
	var b Rect
	for _, r := range rs {
		b = b.Union(r)
	}
	return b
}

// PointBounds returns the bounding box of a point set.
func PointBounds(ps []Point) Rect {
	if len(ps) == 0 {
		return Rect{}
	}
	minX, minY := ps[0].X, ps[0].Y
	maxX, maxY := minX, minY
	for _, p := range ps[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
