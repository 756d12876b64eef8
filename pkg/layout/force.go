package layout

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/matzehuels/kabelplan/pkg/geom"
)

// Force is a Fruchterman-Reingold layout. The generator is seeded from
// Options.Seed, so runs are reproducible. After the simulation the centres
// are spread uniformly until no two boxes, grown by half of NodeSep, overlap.
type Force struct {
	opts Options
}

// Name returns "force".
func (f *Force) Name() string { return StrategyForce }

// Layout runs the simulation per component.
func (f *Force) Layout(ctx context.Context, g Graph) (Positions, error) {
	return arrange(ctx, g, f.opts, f.component)
}

func (f *Force) component(ctx context.Context, g Graph) (Positions, error) {
	n := len(g.Devices)
	index := make(map[string]int, n)
	k := 0.0
	for i, d := range g.Devices {
		index[d.ID] = i
		k = math.Max(k, math.Hypot(d.Width, d.Height))
	}
	k += f.opts.NodeSep

	rng := rand.New(rand.NewPCG(f.opts.Seed, uint64(n)))
	side := k * math.Sqrt(float64(n))
	centres := make([]geom.Point, n)
	for i := range centres {
		centres[i] = geom.Pt(rng.Float64()*side, rng.Float64()*side)
	}

	type pair struct{ a, b int }
	var springs []pair
	for _, e := range g.Edges {
		a, b := index[e.From], index[e.To]
		if a != b {
			springs = append(springs, pair{a, b})
		}
	}

	temp := side / 10
	cool := temp / float64(f.opts.Iterations+1)
	disp := make([]geom.Point, n)
	for it := 0; it < f.opts.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		clear(disp)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				delta := centres[i].Sub(centres[j])
				dist := math.Max(math.Hypot(delta.X, delta.Y), 0.01)
				push := delta.Scale(k * k / (dist * dist))
				disp[i] = disp[i].Add(push)
				disp[j] = disp[j].Sub(push)
			}
		}
		for _, s := range springs {
			delta := centres[s.a].Sub(centres[s.b])
			dist := math.Max(math.Hypot(delta.X, delta.Y), 0.01)
			pull := delta.Scale(dist / k)
			disp[s.a] = disp[s.a].Sub(pull)
			disp[s.b] = disp[s.b].Add(pull)
		}
		for i := range centres {
			length := math.Hypot(disp[i].X, disp[i].Y)
			if length > 0 {
				centres[i] = centres[i].Add(disp[i].Scale(math.Min(length, temp) / length))
			}
		}
		temp -= cool
	}

	separate(centres, g.Devices, f.opts.NodeSep)

	pos := make(Positions, n)
	for i, d := range g.Devices {
		pos[d.ID] = geom.Pt(centres[i].X-d.Width/2, centres[i].Y-d.Height/2)
	}
	return pos, nil
}

// separate nudges coincident centres apart and then scales all centres
// about the origin by the smallest factor that leaves a gap of at least gap
// between every pair of boxes along one axis.
func separate(centres []geom.Point, devices []Device, gap float64) {
	coincident := func(i int) bool {
		for j := 0; j < i; j++ {
			if centres[i].Eq(centres[j]) {
				return true
			}
		}
		return false
	}
	for i := range centres {
		for coincident(i) {
			centres[i] = centres[i].Add(geom.Pt(0, 1))
		}
	}

	scale := 1.0
	for i := range centres {
		for j := i + 1; j < len(centres); j++ {
			dx := math.Abs(centres[i].X - centres[j].X)
			dy := math.Abs(centres[i].Y - centres[j].Y)
			needX := math.Inf(1)
			if dx > 0 {
				needX = ((devices[i].Width+devices[j].Width)/2 + gap) / dx
			}
			needY := math.Inf(1)
			if dy > 0 {
				needY = ((devices[i].Height+devices[j].Height)/2 + gap) / dy
			}
			scale = math.Max(scale, math.Min(needX, needY))
		}
	}
	for i := range centres {
		centres[i] = centres[i].Scale(scale)
	}
}
