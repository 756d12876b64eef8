package route

import (
	"errors"
	"fmt"

	"github.com/matzehuels/kabelplan/pkg/geom"
	"github.com/matzehuels/kabelplan/pkg/ports"
)

var (
	// ErrExhausted is returned with a fallback path when the search ran out
	// of iterations or found no way around the obstacles.
	ErrExhausted = errors.New("routing exhausted")

	// ErrUnknownStrategy is returned by [New] for an unrecognised name.
	ErrUnknownStrategy = errors.New("unknown routing strategy")
)

// Strategy names accepted by [New].
const (
	StrategyManhattan  = "manhattan"
	StrategyOrthogonal = "orthogonal"
)

// Strategies lists the accepted strategy names.
var Strategies = []string{StrategyManhattan, StrategyOrthogonal}

// Anchor is a cable end: a point on a device side.
type Anchor struct {
	Point geom.Point
	Side  ports.Side
}

// Stub returns the point d units outward from the anchor.
func (a Anchor) Stub(d float64) geom.Point {
	return a.Point.Add(a.Side.Normal().Scale(d))
}

// Path is a polyline from the source anchor to the target anchor.
type Path struct {
	Points   []geom.Point
	Fallback bool
}

// Len returns the total length of the path.
func (p Path) Len() float64 {
	total := 0.0
	for i := 1; i < len(p.Points); i++ {
		total += p.Points[i-1].Dist(p.Points[i])
	}
	return total
}

// Bends returns the number of interior vertices.
func (p Path) Bends() int { return max(len(p.Points)-2, 0) }

// Router computes a path between two anchors around obstacles.
type Router interface {
	Name() string
	Route(src, dst Anchor, obstacles []geom.Rect) (Path, error)
	// Options returns the effective configuration, defaults applied.
	Options() Options
}

// Options configures routing.
type Options struct {
	Step          float64 // grid spacing
	Padding       float64 // clearance kept around every device box
	BendPenalty   float64 // extra cost per direction change
	MaxIterations int     // node expansions before giving up
	Radius        float64 // corner radius of the rounded connector
}

// DefaultOptions returns the settings of the classic diagram.
func DefaultOptions() Options {
	return Options{
		Step:          10,
		Padding:       20,
		BendPenalty:   5,
		MaxIterations: 2000,
		Radius:        10,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Step <= 0 {
		o.Step = def.Step
	}
	if o.Padding < 0 {
		o.Padding = def.Padding
	}
	if o.BendPenalty < 0 {
		o.BendPenalty = def.BendPenalty
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = def.MaxIterations
	}
	if o.Radius < 0 {
		o.Radius = def.Radius
	}
	return o
}

// New returns the router registered under name. An empty name selects
// "manhattan".
func New(name string, opts Options) (Router, error) {
	opts = opts.withDefaults()
	switch name {
	case "", StrategyManhattan:
		return &Manhattan{opts: opts}, nil
	case StrategyOrthogonal:
		return &Orthogonal{opts: opts}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Orthogonal always returns the fallback path.
type Orthogonal struct {
	opts Options
}

// Name returns "orthogonal".
func (o *Orthogonal) Name() string { return StrategyOrthogonal }

func (o *Orthogonal) Options() Options { return o.opts }

// Route returns [Fallback] with the configured stub length.
func (o *Orthogonal) Route(src, dst Anchor, _ []geom.Rect) (Path, error) {
	return Path{Points: Fallback(src, dst, o.opts.Padding)}, nil
}

// Fallback returns the simplest orthogonal path: a stub leaving src, one
// vertical run halfway between the stubs and a stub entering dst.
func Fallback(src, dst Anchor, stub float64) []geom.Point {
	start, end := src.Stub(stub), dst.Stub(stub)
	midX := (start.X + end.X) / 2
	return Simplify([]geom.Point{
		src.Point,
		start,
		geom.Pt(midX, start.Y),
		geom.Pt(midX, end.Y),
		end,
		dst.Point,
	})
}

// Simplify removes consecutive duplicates and interior points lying on a
// straight run.
func Simplify(points []geom.Point) []geom.Point {
	if len(points) <= 1 {
		return points
	}
	deduped := []geom.Point{points[0]}
	for _, p := range points[1:] {
		if !p.Eq(deduped[len(deduped)-1]) {
			deduped = append(deduped, p)
		}
	}
	if len(deduped) <= 2 {
		return deduped
	}

	out := []geom.Point{deduped[0]}
	for i := 1; i < len(deduped)-1; i++ {
		prev, curr, next := out[len(out)-1], deduped[i], deduped[i+1]
		if collinear(prev, curr, next) {
			continue
		}
		out = append(out, curr)
	}
	return append(out, deduped[len(deduped)-1])
}

func collinear(a, b, c geom.Point) bool {
	cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	if cross > geom.Epsilon || cross < -geom.Epsilon {
		return false
	}
	// b must lie between a and c; a reversal is a real vertex.
	dot := (b.X-a.X)*(c.X-b.X) + (b.Y-a.Y)*(c.Y-b.Y)
	return dot >= 0
}
