package layout

import (
	"context"
	"fmt"
	"math"

	"github.com/matzehuels/kabelplan/pkg/dag"
	"github.com/matzehuels/kabelplan/pkg/dag/transform"
	"github.com/matzehuels/kabelplan/pkg/geom"
)

// Layered is the default left-to-right layered strategy.
type Layered struct {
	opts Options
}

// Name returns "layered".
func (l *Layered) Name() string { return StrategyLayered }

// Layout places every component in ranks from left to right.
func (l *Layered) Layout(ctx context.Context, g Graph) (Positions, error) {
	return arrange(ctx, g, l.opts, l.component)
}

func (l *Layered) component(ctx context.Context, g Graph) (Positions, error) {
	d, err := toDAG(g)
	if err != nil {
		return nil, err
	}

	reversed := transform.BreakCycles(d)
	transform.AssignLayers(d)
	virtual := transform.Subdivide(d)

	orders, crossings := Barycentric{Passes: l.opts.Passes}.OrderRanks(ctx, d)
	for r, ids := range orders {
		d.SetRankOrder(r, ids)
	}
	l.opts.Logger.Debug("layered component",
		"devices", len(g.Devices), "ranks", d.MaxRank()+1,
		"reversed", reversed, "virtual", virtual, "crossings", crossings)

	return assignCoordinates(d, l.opts), nil
}

func toDAG(g Graph) (*dag.DAG, error) {
	d := dag.New()
	for _, dev := range g.Devices {
		if err := d.AddNode(dag.Node{ID: dev.ID, Width: dev.Width, Height: dev.Height}); err != nil {
			return nil, fmt.Errorf("add device %q: %w", dev.ID, err)
		}
	}
	for _, e := range g.Edges {
		if e.From == e.To {
			continue
		}
		if err := d.AddEdge(dag.Edge{From: e.From, To: e.To, Key: e.Key}); err != nil {
			return nil, fmt.Errorf("add cable %q: %w", e.Key, err)
		}
	}
	return d, nil
}

// assignCoordinates places ranks left to right, each rank as wide as its
// widest node, and stacks nodes within a rank separated by NodeSep. Every
// rank is centred vertically on the tallest rank.
func assignCoordinates(d *dag.DAG, opts Options) Positions {
	ranks := d.RankIDs()
	widths := make(map[int]float64, len(ranks))
	heights := make(map[int]float64, len(ranks))
	tallest := 0.0

	for _, r := range ranks {
		nodes := d.NodesInRank(r)
		h := 0.0
		for i, n := range nodes {
			widths[r] = math.Max(widths[r], n.Width)
			h += n.Height
			if i > 0 {
				h += opts.NodeSep
			}
		}
		heights[r] = h
		tallest = math.Max(tallest, h)
	}

	pos := make(Positions, d.NodeCount())
	x := 0.0
	for _, r := range ranks {
		y := (tallest - heights[r]) / 2
		for _, n := range d.NodesInRank(r) {
			if !n.IsVirtual() {
				pos[n.ID] = geom.Pt(x+(widths[r]-n.Width)/2, y)
			}
			y += n.Height + opts.NodeSep
		}
		x += widths[r] + opts.RankSep
	}
	return pos
}
