package layout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kabelplan/pkg/geom"
)

var (
	// ErrUnknownStrategy is returned by [New] for an unrecognised strategy name.
	ErrUnknownStrategy = errors.New("unknown layout strategy")

	// ErrOverlap is returned by [Validate] when two device boxes overlap.
	ErrOverlap = errors.New("device boxes overlap")

	// ErrMissingPosition is returned by [Validate] when a device has no
	// finite position.
	ErrMissingPosition = errors.New("device has no position")
)

// Strategy names accepted by [New].
const (
	StrategyLayered = "layered"
	StrategyForce   = "force"
	StrategyDot     = "dot"
)

// Strategies lists the accepted strategy names.
var Strategies = []string{StrategyLayered, StrategyForce, StrategyDot}

// Device is a box to be placed.
type Device struct {
	ID     string
	Width  float64
	Height float64
}

// Edge connects two devices. Parallel edges and self-loops are allowed;
// self-loops do not influence placement.
type Edge struct {
	Key  string
	From string
	To   string
}

// Graph is the input of a layout run. Device order breaks ties.
type Graph struct {
	Devices []Device
	Edges   []Edge
}

// Positions maps a device ID to the top-left corner of its box.
type Positions map[string]geom.Point

// Box returns the placed box of d.
func (p Positions) Box(d Device) geom.Rect {
	pt := p[d.ID]
	return geom.R(pt.X, pt.Y, d.Width, d.Height)
}

// Bounds returns the union of all placed boxes.
func (p Positions) Bounds(devices []Device) geom.Rect {
	boxes := make([]geom.Rect, 0, len(devices))
	for _, d := range devices {
		if _, ok := p[d.ID]; ok {
			boxes = append(boxes, p.Box(d))
		}
	}
	return geom.Bounds(boxes)
}

// Layouter computes device positions.
type Layouter interface {
	Name() string
	Layout(ctx context.Context, g Graph) (Positions, error)
}

// Options configures every strategy. Fields a strategy does not use are
// ignored.
type Options struct {
	RankSep    float64 // horizontal gap between ranks
	NodeSep    float64 // vertical gap between devices of a rank and between components
	Margin     float64 // offset of the whole drawing from the origin
	Passes     int     // barycentric sweeps for "layered"
	Seed       uint64  // generator seed for "force"
	Iterations int     // simulation steps for "force"
	Logger     *log.Logger
}

// DefaultOptions returns the spacing of the classic Kabelplan diagram.
func DefaultOptions() Options {
	return Options{
		RankSep:    200,
		NodeSep:    80,
		Margin:     50,
		Passes:     8,
		Seed:       1,
		Iterations: 300,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.RankSep <= 0 {
		o.RankSep = def.RankSep
	}
	if o.NodeSep <= 0 {
		o.NodeSep = def.NodeSep
	}
	if o.Margin < 0 {
		o.Margin = def.Margin
	}
	if o.Passes <= 0 {
		o.Passes = def.Passes
	}
	if o.Iterations <= 0 {
		o.Iterations = def.Iterations
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// New returns the strategy registered under name. An empty name selects
// "layered".
func New(name string, opts Options) (Layouter, error) {
	opts = opts.withDefaults()
	switch name {
	case "", StrategyLayered:
		return &Layered{opts: opts}, nil
	case StrategyForce:
		return &Force{opts: opts}, nil
	case StrategyDot:
		return &Dot{opts: opts, fallback: &Layered{opts: opts}}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Validate checks that every device has a finite position and that no two
// boxes overlap. Boxes sharing an edge do not overlap.
func Validate(g Graph, pos Positions) error {
	boxes := make([]geom.Rect, len(g.Devices))
	for i, d := range g.Devices {
		pt, ok := pos[d.ID]
		if !ok || !pt.Finite() {
			return fmt.Errorf("%w: %s", ErrMissingPosition, d.ID)
		}
		boxes[i] = geom.R(pt.X, pt.Y, d.Width, d.Height)
	}

	idx := make([]int, len(boxes))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return boxes[idx[a]].X < boxes[idx[b]].X })

	for a := 0; a < len(idx); a++ {
		ra := boxes[idx[a]]
		for b := a + 1; b < len(idx); b++ {
			rb := boxes[idx[b]]
			if rb.Left() >= ra.Right() {
				break
			}
			if ra.Overlaps(rb) {
				return fmt.Errorf("%w: %s and %s", ErrOverlap, g.Devices[idx[a]].ID, g.Devices[idx[b]].ID)
			}
		}
	}
	return nil
}
