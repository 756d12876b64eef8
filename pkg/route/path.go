package route

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/kabelplan/pkg/geom"
)

// Midpoint returns the point at fraction t of the arc length of points,
// with t clamped to [0, 1].
func Midpoint(points []geom.Point, t float64) geom.Point {
	switch len(points) {
	case 0:
		return geom.Point{}
	case 1:
		return points[0]
	}
	t = math.Max(0, math.Min(1, t))
	target := Path{Points: points}.Len() * t

	for i := 1; i < len(points); i++ {
		seg := points[i-1].Dist(points[i])
		if seg >= target && seg > 0 {
			f := target / seg
			return points[i-1].Add(points[i].Sub(points[i-1]).Scale(f))
		}
		target -= seg
	}
	return points[len(points)-1]
}

// Segment is one drawing instruction of a rounded path. Op is 'M', 'L' or
// 'Q'; Ctrl is only meaningful for 'Q'.
type Segment struct {
	Op   byte
	Ctrl geom.Point
	To   geom.Point
}

// Rounded converts points into path segments with every corner replaced by
// a quadratic curve of the given radius. The radius shrinks to half of the
// shorter adjacent segment so curves never overlap.
func Rounded(points []geom.Point, radius float64) []Segment {
	if len(points) == 0 {
		return nil
	}
	segs := []Segment{{Op: 'M', To: points[0]}}
	for i := 1; i < len(points)-1; i++ {
		prev, corner, next := points[i-1], points[i], points[i+1]
		r := math.Min(radius, math.Min(prev.Dist(corner), corner.Dist(next))/2)
		if r <= 0 {
			segs = append(segs, Segment{Op: 'L', To: corner})
			continue
		}
		segs = append(segs,
			Segment{Op: 'L', To: towards(corner, prev, r)},
			Segment{Op: 'Q', Ctrl: corner, To: towards(corner, next, r)})
	}
	if len(points) > 1 {
		segs = append(segs, Segment{Op: 'L', To: points[len(points)-1]})
	}
	return segs
}

// RoundedPathData returns SVG path data for the [Rounded] segments of points.
func RoundedPathData(points []geom.Point, radius float64) string {
	var b strings.Builder
	for i, seg := range Rounded(points, radius) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(seg.Op)
		b.WriteByte(' ')
		if seg.Op == 'Q' {
			writePoint(&b, seg.Ctrl)
			b.WriteByte(' ')
		}
		writePoint(&b, seg.To)
	}
	return b.String()
}

// PolylineData returns SVG path data with straight segments only.
func PolylineData(points []geom.Point) string {
	return RoundedPathData(points, 0)
}

// towards returns the point at distance d from p in the direction of q.
func towards(p, q geom.Point, d float64) geom.Point {
	dist := p.Dist(q)
	if dist == 0 {
		return p
	}
	return p.Add(q.Sub(p).Scale(d / dist))
}

func writePoint(b *strings.Builder, p geom.Point) {
	b.WriteString(Num(p.X))
	b.WriteByte(' ')
	b.WriteString(Num(p.Y))
}

// Num formats v with at most two decimals and no trailing zeros.
func Num(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // normalise negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
