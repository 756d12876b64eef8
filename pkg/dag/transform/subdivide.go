package transform

import (
	"fmt"

	"github.com/matzehuels/kabelplan/pkg/dag"
)

// Subdivide replaces every edge spanning more than one rank with a chain of
// [dag.NodeKindVirtual] nodes, one per intermediate rank:
//
//	Before: core (rank 0) → access (rank 3)
//	After:  core → core_v_1 → core_v_2 → access
//
// Virtual nodes have zero size and carry the key of the edge they replace in
// [dag.Node.Edge]. Generated IDs never collide with existing ones.
func Subdivide(g *dag.DAG) int {
	gen := newIDGen(g.Nodes())
	edges := g.Edges()
	out := make([]dag.Edge, 0, len(edges))
	added := 0

	for _, e := range edges {
		src, _ := g.Node(e.From)
		dst, _ := g.Node(e.To)
		if dst.Rank <= src.Rank+1 {
			out = append(out, e)
			continue
		}

		prev := src.ID
		for rank := src.Rank + 1; rank < dst.Rank; rank++ {
			id := gen.next(src.ID, rank)
			if err := g.AddNode(dag.Node{ID: id, Rank: rank, Kind: dag.NodeKindVirtual, Edge: e.Key}); err != nil {
				panic(err)
			}
			out = append(out, dag.Edge{From: prev, To: id, Key: e.Key, Reversed: e.Reversed})
			prev = id
			added++
		}
		out = append(out, dag.Edge{From: prev, To: dst.ID, Key: e.Key, Reversed: e.Reversed})
	}

	g.SetEdges(out)
	return added
}

type idGen struct {
	used map[string]struct{}
}

func newIDGen(nodes []*dag.Node) *idGen {
	m := make(map[string]struct{}, len(nodes)*2)
	for _, n := range nodes {
		m[n.ID] = struct{}{}
	}
	return &idGen{used: m}
}

func (gen *idGen) next(base string, rank int) string {
	prefix := fmt.Sprintf("%s_v_%d", base, rank)
	id := prefix
	for i := 1; ; i++ {
		if _, exists := gen.used[id]; !exists {
			gen.used[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s__%d", prefix, i)
	}
}
