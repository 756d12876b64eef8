package layout

import (
	"context"
	"math"

	"github.com/dominikbraun/graph"

	"github.com/matzehuels/kabelplan/pkg/geom"
)

// componentFunc lays out one connected component. The result may use any
// origin; arrange normalises it.
type componentFunc func(ctx context.Context, g Graph) (Positions, error)

// Components splits g into connected components in order of their first
// device, plus the isolated devices that have no cable to another device.
func Components(g Graph) (connected []Graph, isolated []Device) {
	ug := graph.New(graph.StringHash)
	for _, d := range g.Devices {
		_ = ug.AddVertex(d.ID)
	}
	degree := make(map[string]int, len(g.Devices))
	for _, e := range g.Edges {
		if e.From == e.To {
			continue
		}
		if _, err := ug.Vertex(e.From); err != nil {
			continue
		}
		if _, err := ug.Vertex(e.To); err != nil {
			continue
		}
		degree[e.From]++
		degree[e.To]++
		// Parallel cables collapse into one undirected edge here.
		_ = ug.AddEdge(e.From, e.To)
	}

	comp := make(map[string]int, len(g.Devices))
	var order []int
	for _, d := range g.Devices {
		if _, seen := comp[d.ID]; seen || degree[d.ID] == 0 {
			continue
		}
		id := len(order)
		order = append(order, id)
		_ = graph.BFS(ug, d.ID, func(v string) bool {
			comp[v] = id
			return false
		})
	}

	connected = make([]Graph, len(order))
	for _, d := range g.Devices {
		c, ok := comp[d.ID]
		if !ok {
			isolated = append(isolated, d)
			continue
		}
		connected[c].Devices = append(connected[c].Devices, d)
	}
	for _, e := range g.Edges {
		if c, ok := comp[e.From]; ok {
			if c2, ok := comp[e.To]; ok && c == c2 {
				connected[c].Edges = append(connected[c].Edges, e)
			}
		}
	}
	return connected, isolated
}

// arrange lays out every component with fn, stacks the components
// vertically and packs isolated devices below them.
func arrange(ctx context.Context, g Graph, opts Options, fn componentFunc) (Positions, error) {
	out := make(Positions, len(g.Devices))
	connected, isolated := Components(g)

	y := opts.Margin
	for _, c := range connected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pos, err := fn(ctx, c)
		if err != nil {
			return nil, err
		}
		b := pos.Bounds(c.Devices)
		for _, d := range c.Devices {
			p := pos[d.ID]
			out[d.ID] = geom.Pt(opts.Margin+p.X-b.X, y+p.Y-b.Y)
		}
		y += b.H + opts.NodeSep
	}

	for id, p := range packIsolated(isolated, opts) {
		out[id] = geom.Pt(opts.Margin+p.X, y+p.Y)
	}
	return out, nil
}

// packIsolated places devices in columns of at most ceil(sqrt(n)) devices,
// filled top to bottom and left to right, relative to the origin.
func packIsolated(devices []Device, opts Options) Positions {
	pos := make(Positions, len(devices))
	if len(devices) == 0 {
		return pos
	}
	perColumn := int(math.Ceil(math.Sqrt(float64(len(devices)))))

	x := 0.0
	for start := 0; start < len(devices); start += perColumn {
		end := min(start+perColumn, len(devices))
		colWidth, y := 0.0, 0.0
		for _, d := range devices[start:end] {
			pos[d.ID] = geom.Pt(x, y)
			y += d.Height + opts.NodeSep
			colWidth = math.Max(colWidth, d.Width)
		}
		x += colWidth + opts.NodeSep
	}
	return pos
}
