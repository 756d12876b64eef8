// Package layout places devices on the diagram plane.
//
// A [Layouter] maps a [Graph] of sized devices and cable edges to the top-left
// corner of every device. Three strategies are available through [New]:
//
//   - "layered" (default): a Sugiyama-style layout that reads left to right.
//     Cycles are broken by reversing edges, ranks follow the longest path,
//     long edges pass through virtual nodes and barycentric sweeps reduce
//     crossings before coordinates are assigned.
//   - "force": Fruchterman-Reingold with a seeded generator followed by a
//     separation pass.
//   - "dot": Graphviz dot with rankdir=LR. Failures fall back to "layered".
//
// Every strategy runs per connected component. Components are stacked top to
// bottom in the order their first device appears in the input, and devices
// without any cable are packed into a final block. A diagram with a single
// device places it at (Margin, Margin).
//
// All strategies are deterministic: the same Graph and Options always yield
// the same Positions, and no two device boxes overlap ([Validate]).
package layout
