// Package viewport holds the pan and zoom state of a diagram view.
//
// A [Controller] is a small state machine with two states, [Idle] and
// [Panning]. Pointer events drive panning, wheel events change the scale and
// [Controller.Fit] frames a content rectangle on a canvas. The controller
// never touches the scene; it only produces the [Transform] applied to it.
//
// Translation is kept in screen space. While panning, every pointer position
// is multiplied by the scale in effect when the event arrives, so the
// accumulated translation is the sum of the pointer deltas each scaled by the
// then-current scale.
package viewport

import (
	"fmt"
	"math"

	"github.com/matzehuels/kabelplan/pkg/geom"
)

// State is the interaction state of a [Controller].
type State int

const (
	// Idle ignores pointer moves.
	Idle State = iota
	// Panning translates the view on every pointer move.
	Panning
)

// String returns "idle" or "panning".
func (s State) String() string {
	if s == Panning {
		return "panning"
	}
	return "idle"
}

// Transform maps diagram coordinates to screen coordinates:
// screen = diagram·Scale + (TX, TY).
type Transform struct {
	Scale float64 `json:"scale"`
	TX    float64 `json:"tx"`
	TY    float64 `json:"ty"`
}

// Identity is the transform of a freshly reset view.
var Identity = Transform{Scale: 1}

// SVG renders the transform as an SVG transform attribute value.
func (t Transform) SVG() string {
	return fmt.Sprintf("translate(%s,%s) scale(%s)", num(t.TX), num(t.TY), num(t.Scale))
}

// Apply maps a diagram point to the screen.
func (t Transform) Apply(p geom.Point) geom.Point {
	return geom.Pt(p.X*t.Scale+t.TX, p.Y*t.Scale+t.TY)
}

// ApplyRect maps a diagram rectangle to the screen.
func (t Transform) ApplyRect(r geom.Rect) geom.Rect {
	p := t.Apply(geom.Pt(r.X, r.Y))
	return geom.R(p.X, p.Y, r.W*t.Scale, r.H*t.Scale)
}

// Invert maps a screen point back to diagram coordinates.
func (t Transform) Invert(p geom.Point) geom.Point {
	return geom.Pt((p.X-t.TX)/t.Scale, (p.Y-t.TY)/t.Scale)
}

// Options bounds and tunes a [Controller].
type Options struct {
	MinScale   float64
	MaxScale   float64
	WheelStep  float64
	FitPadding float64
}

// DefaultOptions returns scale bounds [0.1, 3], a wheel step of 0.1 and a
// fit padding of 50.
func DefaultOptions() Options {
	return Options{MinScale: 0.1, MaxScale: 3, WheelStep: 0.1, FitPadding: 50}
}

// Controller is the viewport state of one diagram view. It is owned by a
// single session and is not safe for concurrent use.
type Controller struct {
	opts  Options
	t     Transform
	state State
	last  geom.Point
}

// New returns a controller at the identity transform. Zero option fields
// take their defaults.
func New(opts Options) *Controller {
	def := DefaultOptions()
	if opts.MinScale <= 0 {
		opts.MinScale = def.MinScale
	}
	if opts.MaxScale < opts.MinScale {
		opts.MaxScale = math.Max(def.MaxScale, opts.MinScale)
	}
	if opts.WheelStep <= 0 {
		opts.WheelStep = def.WheelStep
	}
	if opts.FitPadding < 0 {
		opts.FitPadding = def.FitPadding
	}
	return &Controller{opts: opts, t: Identity}
}

// Options returns the controller's bounds.
func (c *Controller) Options() Options { return c.opts }

// State returns the interaction state.
func (c *Controller) State() State { return c.state }

// Transform returns the current transform.
func (c *Controller) Transform() Transform { return c.t }

// Scale returns the current scale.
func (c *Controller) Scale() float64 { return c.t.Scale }

// PointerDown starts panning at pointer position (x, y). Positions are
// paper-local: screen pixels divided by the current scale, so the scaled
// delta of a move equals the on-screen pointer motion.
func (c *Controller) PointerDown(x, y float64) {
	c.state = Panning
	c.last = geom.Pt(x*c.t.Scale, y*c.t.Scale)
}

// PointerMove translates the view by the scaled pointer delta while
// panning. It does nothing while idle.
func (c *Controller) PointerMove(x, y float64) {
	if c.state != Panning {
		return
	}
	next := geom.Pt(x*c.t.Scale, y*c.t.Scale)
	c.t.TX += next.X - c.last.X
	c.t.TY += next.Y - c.last.Y
	c.last = next
}

// PointerUp ends panning.
func (c *Controller) PointerUp() {
	c.state = Idle
	c.last = geom.Point{}
}

// Wheel zooms out for positive deltaY and in for negative deltaY by one
// step, clamped to the scale bounds. Zero deltas are ignored.
func (c *Controller) Wheel(deltaY float64) {
	switch {
	case deltaY > 0:
		c.rescale(c.t.Scale - c.opts.WheelStep)
	case deltaY < 0:
		c.rescale(c.t.Scale + c.opts.WheelStep)
	}
}

// rescale sets the clamped scale and keeps the captured pointer position
// of a gesture in progress in step with it.
func (c *Controller) rescale(s float64) {
	s = c.clamp(s)
	if c.state == Panning {
		c.last = c.last.Scale(s / c.t.Scale)
	}
	c.t.Scale = s
}

// Fit scales and centres content on a canvas of the given size, keeping
// FitPadding free on every side. A panning gesture in progress continues
// from the fitted transform.
func (c *Controller) Fit(content geom.Rect, canvasW, canvasH float64) Transform {
	p := c.opts.FitPadding
	w, h := math.Max(content.W, 1), math.Max(content.H, 1)
	scale := math.Min((canvasW-2*p)/w, (canvasH-2*p)/h)
	c.rescale(scale)
	scale = c.t.Scale
	c.t.TX = (canvasW-content.W*scale)/2 - content.X*scale
	c.t.TY = (canvasH-content.H*scale)/2 - content.Y*scale
	return c.t
}

// Set replaces the transform, clamping its scale.
func (c *Controller) Set(t Transform) {
	if t.Scale == 0 || math.IsNaN(t.Scale) {
		t.Scale = 1
	}
	c.rescale(t.Scale)
	c.t.TX, c.t.TY = t.TX, t.TY
}

// Reset returns to the identity transform and the idle state.
func (c *Controller) Reset() {
	c.t = Identity
	c.PointerUp()
}

func (c *Controller) clamp(s float64) float64 {
	if math.IsNaN(s) || s < c.opts.MinScale {
		return c.opts.MinScale
	}
	return math.Min(s, c.opts.MaxScale)
}

func num(v float64) string {
	v = math.Round(v*1000) / 1000
	if v == 0 {
		v = 0
	}
	return fmt.Sprint(v)
}
