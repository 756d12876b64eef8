// Package transform prepares a [dag.DAG] for layered layout.
//
// The layered strategy applies the transforms in order:
//
//  1. [BreakCycles] reverses back edges so the graph is acyclic. Cable
//     topologies are undirected and rings are common, so cycles are the
//     normal case rather than an error.
//  2. [AssignLayers] ranks every node by longest path from the sources.
//  3. [Subdivide] replaces edges spanning several ranks with chains of
//     virtual nodes so that every edge joins consecutive ranks.
//
// After the three steps [dag.DAG.Validate] succeeds.
package transform
