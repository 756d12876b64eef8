package layout

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/kabelplan/pkg/geom"
)

// pointsPerInch converts between Graphviz inches and diagram units.
const pointsPerInch = 72.0

// Dot delegates placement to Graphviz dot with rankdir=LR. Any Graphviz
// failure falls back to the layered strategy and is logged as a warning.
type Dot struct {
	opts     Options
	fallback *Layered
}

// Name returns "dot".
func (d *Dot) Name() string { return StrategyDot }

// Layout renders each component through Graphviz.
func (d *Dot) Layout(ctx context.Context, g Graph) (Positions, error) {
	return arrange(ctx, g, d.opts, func(ctx context.Context, c Graph) (Positions, error) {
		pos, err := d.component(ctx, c)
		if err == nil {
			err = Validate(c, pos)
		}
		if err != nil {
			d.opts.Logger.Warn("graphviz layout failed, using layered", "error", err)
			return d.fallback.component(ctx, c)
		}
		return pos, nil
	})
}

func (d *Dot) component(ctx context.Context, g Graph) (Positions, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	gg, err := graphviz.ParseBytes([]byte(ToDOT(g, d.opts)))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer gg.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, gg, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return parsePositions(buf.Bytes(), g)
}

// ToDOT converts a component to DOT. Node names are positional ("n0",
// "n1", ...) so device IDs never need quoting.
func ToDOT(g Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	fmt.Fprintf(&buf, "  ranksep=%.3f;\n", opts.RankSep/pointsPerInch)
	fmt.Fprintf(&buf, "  nodesep=%.3f;\n", opts.NodeSep/pointsPerInch)
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n\n")

	index := make(map[string]int, len(g.Devices))
	for i, dev := range g.Devices {
		index[dev.ID] = i
		fmt.Fprintf(&buf, "  n%d [width=%.4f, height=%.4f];\n",
			i, dev.Width/pointsPerInch, dev.Height/pointsPerInch)
	}
	buf.WriteString("\n")
	for _, e := range g.Edges {
		if e.From == e.To {
			continue
		}
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", index[e.From], index[e.To])
	}
	buf.WriteString("}\n")
	return buf.String()
}

var (
	nodeRe = regexp.MustCompile(`(?m)^\s*n(\d+)\s*\[([^\]]*)\]`)
	posRe  = regexp.MustCompile(`pos="([-0-9.e+]+),([-0-9.e+]+)"`)
)

// parsePositions reads node centres from laid-out DOT. Graphviz puts the
// origin at the bottom left, so y is flipped.
func parsePositions(out []byte, g Graph) (Positions, error) {
	pos := make(Positions, len(g.Devices))
	for _, m := range nodeRe.FindAllSubmatch(out, -1) {
		i, err := strconv.Atoi(string(m[1]))
		if err != nil || i >= len(g.Devices) {
			continue
		}
		p := posRe.FindSubmatch(m[2])
		if p == nil {
			continue
		}
		x, errX := strconv.ParseFloat(string(p[1]), 64)
		y, errY := strconv.ParseFloat(string(p[2]), 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("parse position of n%d: %q", i, p[0])
		}
		dev := g.Devices[i]
		pos[dev.ID] = geom.Pt(x-dev.Width/2, -y-dev.Height/2)
	}
	if len(pos) != len(g.Devices) {
		return nil, fmt.Errorf("graphviz placed %d of %d devices", len(pos), len(g.Devices))
	}
	return pos, nil
}
