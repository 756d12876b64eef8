package route

import (
	"container/heap"
	"math"
	"slices"

	"github.com/matzehuels/kabelplan/pkg/geom"
	"github.com/matzehuels/kabelplan/pkg/ports"
)

// Manhattan routes with A* over a grid of (cell, heading) states. The grid
// is uniform with spacing Step around the start stub and additionally
// contains the coordinates of the target stub, so both ends are exact grid
// points.
type Manhattan struct {
	opts Options
}

// Name returns "manhattan".
func (m *Manhattan) Name() string { return StrategyManhattan }

func (m *Manhattan) Options() Options { return m.opts }

type heading int8

const (
	east heading = iota
	west
	south
	north
)

var steps = [4][2]int{east: {1, 0}, west: {-1, 0}, south: {0, 1}, north: {0, -1}}

func headingOf(side ports.Side) heading {
	if side == ports.Right {
		return east
	}
	return west
}

type state struct {
	x, y int
	dir  heading
}

type item struct {
	state
	cost     float64
	priority float64
	seq      int
}

type queue []item

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)   { *q = append(*q, x.(item)) }
func (q *queue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

// Route searches for the cheapest orthogonal path from the source stub to
// the target stub, where cost is length plus BendPenalty per direction
// change. The path always leaves src and enters dst perpendicular to their
// device sides.
func (m *Manhattan) Route(src, dst Anchor, obstacles []geom.Rect) (Path, error) {
	start, end := src.Stub(m.opts.Padding), dst.Stub(m.opts.Padding)

	blocked := make([]geom.Rect, 0, len(obstacles))
	area := geom.PointBounds([]geom.Point{start, end})
	for _, o := range obstacles {
		r := o.Inflate(m.opts.Padding)
		blocked = append(blocked, r)
		area = area.Union(r)
	}
	area = area.Inflate(2 * m.opts.Step)

	xs := axis(start.X, end.X, area.Left(), area.Right(), m.opts.Step)
	ys := axis(start.Y, end.Y, area.Top(), area.Bottom(), m.opts.Step)
	sx, sy := nearest(xs, start.X), nearest(ys, start.Y)
	ex, ey := nearest(xs, end.X), nearest(ys, end.Y)

	point := func(x, y int) geom.Point { return geom.Pt(xs[x], ys[y]) }
	free := func(a, b geom.Point) bool {
		mid := geom.Pt((a.X+b.X)/2, (a.Y+b.Y)/2)
		for _, r := range blocked {
			if r.ContainsStrict(b) || r.ContainsStrict(mid) {
				return false
			}
		}
		return true
	}

	arrive := headingOf(dst.Side.Opposite())
	goalX, goalY := ex, ey
	heuristic := func(x, y int) float64 {
		return math.Abs(xs[x]-xs[goalX]) + math.Abs(ys[y]-ys[goalY])
	}

	first := state{sx, sy, headingOf(src.Side)}
	best := map[state]float64{first: 0}
	parent := make(map[state]state)
	closed := make(map[state]bool)
	q := &queue{{state: first, priority: heuristic(sx, sy)}}
	seq := 1

	for iter := 0; q.Len() > 0; iter++ {
		if iter >= m.opts.MaxIterations {
			break
		}
		cur := heap.Pop(q).(item)
		if closed[cur.state] {
			continue
		}
		closed[cur.state] = true

		if cur.x == goalX && cur.y == goalY {
			pts := []geom.Point{src.Point}
			pts = append(pts, walk(parent, cur.state, first, point)...)
			pts = append(pts, dst.Point)
			return Path{Points: Simplify(pts)}, nil
		}

		here := point(cur.x, cur.y)
		for d, s := range steps {
			dir := heading(d)
			if dir == reverse(cur.dir) {
				continue
			}
			nx, ny := cur.x+s[0], cur.y+s[1]
			if nx < 0 || ny < 0 || nx >= len(xs) || ny >= len(ys) {
				continue
			}
			next := point(nx, ny)
			isGoal := nx == goalX && ny == goalY
			if !isGoal && !free(here, next) {
				continue
			}

			cost := cur.cost + here.Dist(next)
			if dir != cur.dir {
				cost += m.opts.BendPenalty
			}
			if isGoal && dir != arrive {
				cost += m.opts.BendPenalty
			}

			ns := state{nx, ny, dir}
			if closed[ns] {
				continue
			}
			if c, ok := best[ns]; ok && c <= cost {
				continue
			}
			best[ns] = cost
			parent[ns] = cur.state
			heap.Push(q, item{state: ns, cost: cost, priority: cost + heuristic(nx, ny), seq: seq})
			seq++
		}
	}

	return Path{Points: Fallback(src, dst, m.opts.Padding), Fallback: true}, ErrExhausted
}

func reverse(d heading) heading {
	switch d {
	case east:
		return west
	case west:
		return east
	case south:
		return north
	}
	return south
}

// walk reconstructs grid points from first to end.
func walk(parent map[state]state, end, first state, point func(x, y int) geom.Point) []geom.Point {
	var pts []geom.Point
	for cur := end; ; {
		pts = append(pts, point(cur.x, cur.y))
		if cur == first {
			break
		}
		cur = parent[cur]
	}
	slices.Reverse(pts)
	return pts
}

// axis returns the sorted grid coordinates along one axis: origin plus every
// multiple of step within [lo, hi], and extra.
func axis(origin, extra, lo, hi, step float64) []float64 {
	lo = math.Min(lo, extra)
	hi = math.Max(hi, extra)
	below := int(math.Floor((origin - lo) / step))
	above := int(math.Floor((hi - origin) / step))
	out := make([]float64, 0, below+above+2)
	for i := -below; i <= above; i++ {
		out = append(out, origin+float64(i)*step)
	}
	out = append(out, extra)
	slices.Sort(out)
	return slices.CompactFunc(out, func(a, b float64) bool { return math.Abs(a-b) < geom.Epsilon })
}

// nearest returns the index of the value in sorted vals closest to v.
func nearest(vals []float64, v float64) int {
	i, _ := slices.BinarySearch(vals, v)
	switch {
	case i == 0:
		return 0
	case i == len(vals):
		return len(vals) - 1
	case v-vals[i-1] < vals[i]-v:
		return i - 1
	}
	return i
}
