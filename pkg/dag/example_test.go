package dag_test

import (
	"fmt"

	"github.com/matzehuels/kabelplan/pkg/dag"
)

func ExampleDAG_parallelEdges() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "core"})
	_ = g.AddNode(dag.Node{ID: "edge", Rank: 1})
	_ = g.AddEdge(dag.Edge{From: "core", To: "edge", Key: "c1"})
	_ = g.AddEdge(dag.Edge{From: "core", To: "edge", Key: "c2"})

	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Children of core:", g.Children("core"))
	// Output:
	// Edges: 2
	// Children of core: [edge edge]
}

func ExampleCountLayerCrossings() {
	g := dag.New()
	for _, id := range []string{"a", "b"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	for _, id := range []string{"x", "y"} {
		_ = g.AddNode(dag.Node{ID: id, Rank: 1})
	}
	_ = g.AddEdge(dag.Edge{From: "a", To: "y"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "x"})

	fmt.Println(dag.CountLayerCrossings(g, []string{"a", "b"}, []string{"x", "y"}))
	fmt.Println(dag.CountLayerCrossings(g, []string{"a", "b"}, []string{"y", "x"}))
	// Output:
	// 1
	// 0
}
