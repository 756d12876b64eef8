// Package route computes orthogonal cable paths between port anchors.
//
// A [Router] turns a source and target [Anchor] plus the device boxes of the
// diagram into a [Path]. Two strategies exist:
//
//   - "manhattan" (default): A* search over a grid with bend penalties. Every
//     obstacle is grown by the padding and the search leaves and enters the
//     anchors perpendicular to their device side.
//   - "orthogonal": the direct [Fallback] path with no obstacle avoidance.
//
// When the search exhausts its iteration budget or finds no path, the
// manhattan router still returns the fallback path, marks it with
// Path.Fallback and reports [ErrExhausted]. Callers draw the path and count
// the degradation; a routing failure never removes a cable.
//
// [Midpoint] and [RoundedPathData] turn a path into a label position and SVG
// path data for the rounded connector.
package route
