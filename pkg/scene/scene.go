// Package scene assembles a drawable diagram from a topology model.
//
// [Build] runs the diagram pipeline: it lays out devices with a
// layout.Layouter, anchors every port on its device side, and routes every
// cable with a route.Router around all device boxes. The resulting [Scene]
// is plain data; exporters and viewers draw it without further computation.
package scene

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kabelplan/pkg/geom"
	"github.com/matzehuels/kabelplan/pkg/layout"
	"github.com/matzehuels/kabelplan/pkg/observability"
	"github.com/matzehuels/kabelplan/pkg/ports"
	"github.com/matzehuels/kabelplan/pkg/route"
	"github.com/matzehuels/kabelplan/pkg/topology"
)

// Port is a placed port.
type Port struct {
	ID         string
	Name       string
	Side       ports.Side
	Slot       int
	Anchor     geom.Point
	LabelPos   geom.Point
	TextAnchor string
}

// Device is a placed device box.
type Device struct {
	ID    string
	Name  string
	Model string
	Role  string
	Box   geom.Rect
	Ports []Port
}

// Label returns the two label lines: the name and the model in parentheses.
func (d Device) Label() []string {
	return []string{d.Name, "(" + d.Model + ")"}
}

// Cable is a routed cable.
type Cable struct {
	ID           string
	SourceDevice string
	SourcePort   string
	TargetDevice string
	TargetPort   string
	Points       []geom.Point
	PathData     string
	Label        string
	LabelPos     geom.Point
	Color        string
	Fallback     bool // drawn with the fallback path
}

// Stats summarises a build.
type Stats struct {
	Devices        int           `json:"devices"`
	Cables         int           `json:"cables"`
	DroppedLinks   int           `json:"dropped_links"`
	FallbackRoutes int           `json:"fallback_routes"`
	LayoutTime     time.Duration `json:"layout_ns"`
	RouteTime      time.Duration `json:"route_ns"`
}

// Scene is a fully laid out and routed diagram in diagram coordinates.
type Scene struct {
	Devices []Device
	Cables  []Cable
	Bounds  geom.Rect
	Style   Style
	Stats   Stats
}

// Empty reports whether the scene has nothing to draw.
func (s *Scene) Empty() bool { return s == nil || len(s.Devices) == 0 }

// Device returns the device with id.
func (s *Scene) Device(id string) (Device, bool) {
	for _, d := range s.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return Device{}, false
}

// Options configures [Build]. Nil strategies select the defaults.
type Options struct {
	Layouter layout.Layouter
	Router   route.Router
	Style    *Style
	Logger   *log.Logger
}

// Build lays out and routes m. A routing failure for one cable degrades that
// cable to its fallback path and never fails the build.
func Build(ctx context.Context, m *topology.Model, opts Options) (*Scene, error) {
	if m == nil || m.DeviceCount() == 0 {
		return nil, topology.ErrEmpty
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	style := DefaultStyle()
	if opts.Style != nil {
		style = *opts.Style
	}
	layouter := opts.Layouter
	if layouter == nil {
		layouter, _ = layout.New(layout.StrategyLayered, layout.Options{Logger: logger})
	}
	router := opts.Router
	if router == nil {
		router, _ = route.New(route.StrategyManhattan, route.DefaultOptions())
	}
	hooks := observability.Pipeline()

	g := layoutGraph(m)
	hooks.OnLayoutStart(ctx, layouter.Name(), len(g.Devices))
	start := time.Now()
	pos, err := layouter.Layout(ctx, g)
	layoutTime := time.Since(start)
	hooks.OnLayoutComplete(ctx, layouter.Name(), layoutTime, err)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}

	s := &Scene{Style: style}
	byID := make(map[string]int, m.DeviceCount())
	boxes := make([]geom.Rect, 0, m.DeviceCount())
	for _, d := range m.Devices() {
		box := geom.R(pos[d.ID].X, pos[d.ID].Y, d.Width(), d.Height())
		byID[d.ID] = len(s.Devices)
		boxes = append(boxes, box)
		s.Devices = append(s.Devices, placeDevice(d, box))
	}

	start = time.Now()
	for _, c := range m.Cables() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src := anchorFor(s, byID, c.Source, c.Target)
		dst := anchorFor(s, byID, c.Target, c.Source)

		path, err := router.Route(src, dst, boxes)
		if err != nil {
			if !errors.Is(err, route.ErrExhausted) || len(path.Points) < 2 {
				path = route.Path{Points: route.Fallback(src, dst, router.Options().Padding), Fallback: true}
			}
			logger.Debug("cable routed with fallback", "cable", c.ID, "error", err)
		}
		if path.Fallback {
			s.Stats.FallbackRoutes++
		}

		color := c.Color
		if color == "" {
			color = style.CableColor
		}
		s.Cables = append(s.Cables, Cable{
			ID:           c.ID,
			SourceDevice: c.Source.DeviceID,
			SourcePort:   c.Source.PortID,
			TargetDevice: c.Target.DeviceID,
			TargetPort:   c.Target.PortID,
			Points:       path.Points,
			PathData:     route.RoundedPathData(path.Points, style.CableRadius),
			Label:        c.Label,
			LabelPos:     route.Midpoint(path.Points, 0.5),
			Color:        color,
			Fallback:     path.Fallback,
		})
	}
	routeTime := time.Since(start)
	hooks.OnRouteComplete(ctx, router.Name(), len(s.Cables), s.Stats.FallbackRoutes, routeTime)

	s.Bounds = s.computeBounds()
	s.Stats.Devices = len(s.Devices)
	s.Stats.Cables = len(s.Cables)
	s.Stats.DroppedLinks = m.DroppedCount()
	s.Stats.LayoutTime = layoutTime
	s.Stats.RouteTime = routeTime

	logger.Info("built scene",
		"devices", s.Stats.Devices, "cables", s.Stats.Cables,
		"dropped", s.Stats.DroppedLinks, "fallbacks", s.Stats.FallbackRoutes,
		"layout", layoutTime, "route", routeTime)
	return s, nil
}

func layoutGraph(m *topology.Model) layout.Graph {
	var g layout.Graph
	for _, d := range m.Devices() {
		g.Devices = append(g.Devices, layout.Device{ID: d.ID, Width: d.Width(), Height: d.Height()})
	}
	for _, c := range m.Cables() {
		key := c.ID
		if key == "" {
			key = fmt.Sprintf("link-%d", c.Index)
		}
		g.Edges = append(g.Edges, layout.Edge{Key: key, From: c.Source.DeviceID, To: c.Target.DeviceID})
	}
	return g
}

func placeDevice(d *topology.Device, box geom.Rect) Device {
	out := Device{ID: d.ID, Name: d.Name, Model: d.Model, Role: d.Role, Box: box}
	for _, p := range d.Ports {
		anchor := ports.Anchor(box, p.Side, p.Slot, d.SideCount(p.Side))
		label := ports.LabelFor(p.Side)
		out.Ports = append(out.Ports, Port{
			ID:         p.ID,
			Name:       p.Name,
			Side:       p.Side,
			Slot:       p.Slot,
			Anchor:     anchor,
			LabelPos:   anchor.Add(label.Offset),
			TextAnchor: label.TextAnchor,
		})
	}
	return out
}

// anchorFor resolves a cable end to a port anchor. Ends whose port did not
// resolve attach to the middle of the device side facing the other end.
func anchorFor(s *Scene, byID map[string]int, end, other topology.CableEnd) route.Anchor {
	d := s.Devices[byID[end.DeviceID]]
	if end.Attached {
		for _, p := range d.Ports {
			if p.ID == end.PortID {
				return route.Anchor{Point: p.Anchor, Side: p.Side}
			}
		}
	}
	side := ports.Right
	if o := s.Devices[byID[other.DeviceID]]; o.ID != d.ID && o.Box.CenterX() < d.Box.CenterX() {
		side = ports.Left
	}
	return route.Anchor{Point: ports.Anchor(d.Box, side, 0, 0), Side: side}
}

// computeBounds covers device boxes, port labels and cable paths.
func (s *Scene) computeBounds() geom.Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	add := func(p geom.Point) {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	for _, d := range s.Devices {
		add(geom.Pt(d.Box.Left(), d.Box.Top()))
		add(geom.Pt(d.Box.Right(), d.Box.Bottom()))
		for _, p := range d.Ports {
			w := TextWidth(p.Name, s.Style.PortLabelSize)
			if p.Side == ports.Left {
				w = -w
			}
			add(p.LabelPos.Add(geom.Pt(w, 0)))
		}
	}
	for _, c := range s.Cables {
		for _, p := range c.Points {
			add(p)
		}
	}
	if math.IsInf(minX, 1) {
		return geom.Rect{}
	}
	return geom.R(minX, minY, maxX-minX, maxY-minY)
}
