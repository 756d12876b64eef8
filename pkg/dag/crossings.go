package dag

import (
	"maps"
	"slices"
)

// CountCrossings returns the total number of edge crossings for the given
// rank orders, summed over each pair of consecutive ranks.
func CountCrossings(g *DAG, orders map[int][]string) int {
	ranks := slices.Sorted(maps.Keys(orders))
	crossings := 0
	for i := 0; i < len(ranks)-1; i++ {
		r := ranks[i]
		crossings += CountLayerCrossings(g, orders[r], orders[r+1])
	}
	return crossings
}

// CountLayerCrossings counts crossings between two adjacent ranks using a
// Fenwick tree. Edges (u1,v1) and (u2,v2) cross when pos(u1) < pos(u2) and
// pos(v1) > pos(v2). Parallel edges each count, so two cables between the
// same devices weigh twice as much as one.
func CountLayerCrossings(g *DAG, left, right []string) int {
	if len(left) == 0 || len(right) == 0 {
		return 0
	}

	rightPos := PosMap(right)

	type edge struct{ from, to int }
	edges := make([]edge, 0, len(left)*2)
	for i, id := range left {
		for _, child := range g.Children(id) {
			if pos, ok := rightPos[child]; ok {
				edges = append(edges, edge{i, pos})
			}
		}
	}
	if len(edges) < 2 {
		return 0
	}

	slices.SortFunc(edges, func(a, b edge) int {
		if a.from != b.from {
			return a.from - b.from
		}
		return a.to - b.to
	})

	fenwick := make([]int, len(right)+1)
	crossings, total := 0, 0
	for _, e := range edges {
		lessOrEqual := 0
		for q := e.to + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for idx := e.to + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}
