// Package dag provides the layered graph used by the layered layout strategy.
//
// # Overview
//
// Kabelplan lays devices out in ranks that read left to right. Each cable
// induces one directed edge from its source device to its target device;
// the direction exists only to rank the graph and carries no meaning for the
// cable itself. Multiple cables between the same pair of devices stay as
// separate, equally weighted edges.
//
// A [DAG] holds device nodes and, after [transform.Subdivide], virtual nodes
// that carry long edges through intermediate ranks. Nodes keep their
// insertion order so that every traversal, and therefore every layout, is
// reproducible.
//
// # Basic Usage
//
//	g := dag.New()
//	g.AddNode(dag.Node{ID: "core", Width: 140, Height: 80})
//	g.AddNode(dag.Node{ID: "edge", Width: 140, Height: 60})
//	g.AddEdge(dag.Edge{From: "core", To: "edge", Key: "cable-1"})
//
// # Edge Crossings
//
// [CountCrossings] and [CountLayerCrossings] use a Fenwick tree to count
// inversions between adjacent ranks in O(E log V). The ordering sweeps in the
// layout package call them once per candidate order.
//
// [transform.Subdivide]: github.com/matzehuels/kabelplan/pkg/dag/transform.Subdivide
package dag
