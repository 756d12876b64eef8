// Package ports distributes device ports between the two vertical sides of a
// device box and computes where each port sits on that box.
//
// Allocation alternates by index: even indices go to the left side, odd
// indices to the right side, and each side keeps the original relative order.
// The heuristic is purely presentational. Port parity carries no meaning about
// direction or role.
//
// Every function in this package is pure, so the same port list always
// produces the same sides, slots and anchors.
package ports

import "github.com/matzehuels/kabelplan/pkg/geom"

// Side is one of the two opposing device sides a port can be placed on.
type Side int

const (
	// Left is the side facing negative x.
	Left Side = iota
	// Right is the side facing positive x.
	Right
)

// LabelOffset is the horizontal distance between a port anchor and its label.
const LabelOffset = 10.0

// String returns "left" or "right".
func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Right {
		return Left
	}
	return Right
}

// Normal returns the outward unit vector of the side.
func (s Side) Normal() geom.Point {
	if s == Right {
		return geom.Pt(1, 0)
	}
	return geom.Pt(-1, 0)
}

// Assignment is the placement of one port.
type Assignment struct {
	Index int  // position in the device's original port list
	Side  Side // side the port is drawn on
	Slot  int  // 0-based position along the side, top to bottom
}

// Assign returns the placement of the port at index.
func Assign(index int) Assignment {
	return Assignment{Index: index, Side: Side(index % 2), Slot: index / 2}
}

// Allocate returns the placement of every port of a device with count ports,
// in original order.
func Allocate(count int) []Assignment {
	out := make([]Assignment, count)
	for i := range out {
		out[i] = Assign(i)
	}
	return out
}

// Counts returns how many of count ports land on each side.
func Counts(count int) (left, right int) {
	return (count + 1) / 2, count / 2
}

// SideCount returns how many of count ports land on side.
func SideCount(count int, side Side) int {
	left, right := Counts(count)
	if side == Right {
		return right
	}
	return left
}

// Anchor returns the point on box where the port in slot attaches. Ports are
// spread evenly along the side, each centered in an equal share of its height.
func Anchor(box geom.Rect, side Side, slot, sideCount int) geom.Point {
	x := box.Left()
	if side == Right {
		x = box.Right()
	}
	if sideCount <= 0 {
		return geom.Pt(x, box.CenterY())
	}
	step := box.H / float64(sideCount)
	return geom.Pt(x, box.Top()+step*(float64(slot)+0.5))
}

// Label describes how a port label is placed relative to its anchor.
type Label struct {
	Offset     geom.Point // added to the anchor
	TextAnchor string     // SVG text-anchor value
}

// LabelFor returns the outward label placement for side so that label text
// never overlaps the device body.
func LabelFor(side Side) Label {
	if side == Right {
		return Label{Offset: geom.Pt(LabelOffset, 0), TextAnchor: "start"}
	}
	return Label{Offset: geom.Pt(-LabelOffset, 0), TextAnchor: "end"}
}
