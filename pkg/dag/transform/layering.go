package transform

import "github.com/matzehuels/kabelplan/pkg/dag"

// AssignLayers assigns every node the length of the longest path reaching
// it from a source, using Kahn's algorithm. Sources land on rank 0 and each
// node sits one rank past its deepest parent. Existing ranks are
// overwritten.
//
// The graph must be acyclic; run [BreakCycles] first. Nodes left on a cycle
// keep rank 0.
func AssignLayers(g *dag.DAG) {
	nodes := g.Nodes()
	inDegree := make(map[string]int, len(nodes))
	ranks := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))

	for _, n := range nodes {
		ranks[n.ID] = 0
		degree := g.InDegree(n.ID)
		inDegree[n.ID] = degree
		if degree == 0 {
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range g.Children(curr) {
			if rank := ranks[curr] + 1; rank > ranks[child] {
				ranks[child] = rank
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	g.SetRanks(ranks)
}
