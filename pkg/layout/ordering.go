package layout

import (
	"context"
	"slices"

	"github.com/matzehuels/kabelplan/pkg/dag"
)

// Barycentric orders the nodes of every rank by the mean position of their
// neighbours in the adjacent rank, alternating forward and backward sweeps.
// The order with the fewest crossings seen is kept; on ties the earlier one
// wins, so the initial insertion order survives when nothing improves it.
type Barycentric struct {
	Passes int
}

// OrderRanks returns the best order per rank and its crossing count.
func (b Barycentric) OrderRanks(ctx context.Context, g *dag.DAG) (map[int][]string, int) {
	orders := g.Orders()
	best := cloneOrders(orders)
	bestCrossings := dag.CountCrossings(g, orders)

	ranks := g.RankIDs()
	passes := max(b.Passes, 1)
	for pass := 0; pass < passes && bestCrossings > 0; pass++ {
		if ctx.Err() != nil {
			break
		}
		if pass%2 == 0 {
			for i := 1; i < len(ranks); i++ {
				r := ranks[i]
				orders[r] = sortByBarycenter(orders[r], orders[r-1], g.Parents)
			}
		} else {
			for i := len(ranks) - 2; i >= 0; i-- {
				r := ranks[i]
				orders[r] = sortByBarycenter(orders[r], orders[r+1], g.Children)
			}
		}
		if c := dag.CountCrossings(g, orders); c < bestCrossings {
			best, bestCrossings = cloneOrders(orders), c
		}
	}
	return best, bestCrossings
}

// sortByBarycenter sorts rank by the mean index of each node's neighbours in
// adj. Nodes without neighbours keep their current index as weight.
func sortByBarycenter(rank, adj []string, neighbours func(string) []string) []string {
	pos := dag.PosMap(adj)
	type weighted struct {
		id     string
		weight float64
	}
	ws := make([]weighted, len(rank))
	for i, id := range rank {
		sum, n := 0.0, 0
		for _, nb := range neighbours(id) {
			if p, ok := pos[nb]; ok {
				sum += float64(p)
				n++
			}
		}
		w := float64(i)
		if n > 0 {
			w = sum / float64(n)
		}
		ws[i] = weighted{id, w}
	}
	slices.SortStableFunc(ws, func(a, b weighted) int {
		switch {
		case a.weight < b.weight:
			return -1
		case a.weight > b.weight:
			return 1
		}
		return 0
	})
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.id
	}
	return out
}

func cloneOrders(orders map[int][]string) map[int][]string {
	out := make(map[int][]string, len(orders))
	for r, ids := range orders {
		out[r] = slices.Clone(ids)
	}
	return out
}
