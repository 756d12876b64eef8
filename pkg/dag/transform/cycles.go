package transform

import "github.com/matzehuels/kabelplan/pkg/dag"

// BreakCycles reverses every back edge found by a depth-first search that
// starts from the sources, then from any unvisited node, both in insertion
// order. Reversed edges keep their key and have Reversed set. Self-loops
// cannot be reversed and are removed. It returns the number of edges
// changed.
func BreakCycles(g *dag.DAG) int {
	const (
		white = iota
		gray
		black
	)

	edges := g.Edges()
	out := make(map[string][]int, g.NodeCount())
	for i, e := range edges {
		out[e.From] = append(out[e.From], i)
	}

	color := make(map[string]int, g.NodeCount())
	back := make(map[int]bool)

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, i := range out[id] {
			child := edges[i].To
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				back[i] = true
			}
		}
		color[id] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	if len(back) == 0 {
		return 0
	}

	kept := make([]dag.Edge, 0, len(edges))
	for i, e := range edges {
		if !back[i] {
			kept = append(kept, e)
			continue
		}
		if e.From == e.To {
			continue
		}
		kept = append(kept, dag.Edge{From: e.To, To: e.From, Key: e.Key, Reversed: !e.Reversed})
	}
	g.SetEdges(kept)
	return len(back)
}
