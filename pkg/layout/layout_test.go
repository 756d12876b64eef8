package layout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/kabelplan/pkg/geom"
)

func dev(id string, h float64) Device { return Device{ID: id, Width: 140, Height: h} }

func mustLayout(t *testing.T, name string, g Graph) Positions {
	t.Helper()
	l, err := New(name, DefaultOptions())
	if err != nil {
		t.Fatalf("New(%q) = %v", name, err)
	}
	pos, err := l.Layout(context.Background(), g)
	if err != nil {
		t.Fatalf("Layout() = %v", err)
	}
	return pos
}

func TestNewUnknownStrategy(t *testing.T) {
	if _, err := New("circular", DefaultOptions()); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("New(circular) = %v, want ErrUnknownStrategy", err)
	}
	l, err := New("", DefaultOptions())
	if err != nil || l.Name() != StrategyLayered {
		t.Errorf("New(\"\") = %v, %v; want layered", l, err)
	}
}

func TestLayeredPositions(t *testing.T) {
	tests := []struct {
		name string
		g    Graph
		want Positions
	}{
		{
			name: "single device",
			g:    Graph{Devices: []Device{dev("a", 60)}},
			want: Positions{"a": geom.Pt(50, 50)},
		},
		{
			name: "two ranks centred on the tallest",
			g: Graph{
				Devices: []Device{dev("a", 60), dev("b", 80)},
				Edges:   []Edge{{Key: "c1", From: "a", To: "b"}},
			},
			want: Positions{"a": geom.Pt(50, 60), "b": geom.Pt(390, 50)},
		},
		{
			name: "isolated devices packed in columns",
			g:    Graph{Devices: []Device{dev("a", 60), dev("b", 60), dev("c", 60)}},
			want: Positions{
				"a": geom.Pt(50, 50),
				"b": geom.Pt(50, 190),
				"c": geom.Pt(270, 50),
			},
		},
		{
			name: "self loop only counts as isolated",
			g: Graph{
				Devices: []Device{dev("a", 60)},
				Edges:   []Edge{{Key: "c1", From: "a", To: "a"}},
			},
			want: Positions{"a": geom.Pt(50, 50)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustLayout(t, StrategyLayered, tt.g)
			for id, want := range tt.want {
				if !got[id].Eq(want) {
					t.Errorf("position(%s) = %v, want %v", id, got[id], want)
				}
			}
		})
	}
}

func TestComponentsOrder(t *testing.T) {
	g := Graph{
		Devices: []Device{dev("a", 60), dev("b", 60), dev("c", 60), dev("d", 60), dev("e", 60)},
		Edges: []Edge{
			{Key: "1", From: "d", To: "e"},
			{Key: "2", From: "b", To: "a"},
			{Key: "3", From: "b", To: "a"},
		},
	}
	connected, isolated := Components(g)
	if len(connected) != 2 {
		t.Fatalf("len(connected) = %d, want 2", len(connected))
	}
	if connected[0].Devices[0].ID != "a" || connected[1].Devices[0].ID != "d" {
		t.Errorf("component order = %s, %s; want a, d", connected[0].Devices[0].ID, connected[1].Devices[0].ID)
	}
	if len(connected[0].Edges) != 2 {
		t.Errorf("parallel edges = %d, want 2", len(connected[0].Edges))
	}
	if len(isolated) != 1 || isolated[0].ID != "c" {
		t.Errorf("isolated = %v, want [c]", isolated)
	}
}

func TestComponentsStackVertically(t *testing.T) {
	g := Graph{
		Devices: []Device{dev("a", 60), dev("b", 60), dev("c", 60), dev("d", 60)},
		Edges: []Edge{
			{Key: "1", From: "a", To: "b"},
			{Key: "2", From: "c", To: "d"},
		},
	}
	pos := mustLayout(t, StrategyLayered, g)
	if pos["c"].Y <= pos["a"].Y+60 {
		t.Errorf("second component at y=%v, want below first at y=%v", pos["c"].Y, pos["a"].Y)
	}
	if err := Validate(g, pos); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLayeredCycle(t *testing.T) {
	g := Graph{
		Devices: []Device{dev("a", 60), dev("b", 60), dev("c", 60)},
		Edges: []Edge{
			{Key: "1", From: "a", To: "b"},
			{Key: "2", From: "b", To: "c"},
			{Key: "3", From: "c", To: "a"},
		},
	}
	pos := mustLayout(t, StrategyLayered, g)
	if !(pos["a"].X < pos["b"].X && pos["b"].X < pos["c"].X) {
		t.Errorf("ring not laid left to right: %v", pos)
	}
}

func TestValidate(t *testing.T) {
	g := Graph{Devices: []Device{dev("a", 60), dev("b", 60)}}
	tests := []struct {
		name    string
		pos     Positions
		wantErr error
	}{
		{"disjoint", Positions{"a": geom.Pt(0, 0), "b": geom.Pt(0, 100)}, nil},
		{"touching", Positions{"a": geom.Pt(0, 0), "b": geom.Pt(140, 0)}, nil},
		{"overlap", Positions{"a": geom.Pt(0, 0), "b": geom.Pt(100, 30)}, ErrOverlap},
		{"missing", Positions{"a": geom.Pt(0, 0)}, ErrMissingPosition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(g, tt.pos); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDotFallsBackOrSucceeds(t *testing.T) {
	g := Graph{
		Devices: []Device{dev("a", 60), dev("b", 100), dev("c", 60)},
		Edges: []Edge{
			{Key: "1", From: "a", To: "b"},
			{Key: "2", From: "a", To: "c"},
		},
	}
	pos := mustLayout(t, StrategyDot, g)
	if err := Validate(g, pos); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestToDOT(t *testing.T) {
	g := Graph{
		Devices: []Device{dev("sw-1", 72), dev("sw-2", 72)},
		Edges:   []Edge{{Key: "1", From: "sw-1", To: "sw-2"}, {Key: "2", From: "sw-2", To: "sw-2"}},
	}
	want := "digraph G {\n" +
		"  rankdir=LR;\n" +
		"  ranksep=2.778;\n" +
		"  nodesep=1.111;\n" +
		"  node [shape=box, fixedsize=true, label=\"\"];\n\n" +
		"  n0 [width=1.9444, height=1.0000];\n" +
		"  n1 [width=1.9444, height=1.0000];\n\n" +
		"  n0 -> n1;\n" +
		"}\n"
	if got := ToDOT(g, DefaultOptions()); got != want {
		t.Errorf("ToDOT() =\n%s\nwant\n%s", got, want)
	}
}

func TestParsePositions(t *testing.T) {
	g := Graph{Devices: []Device{dev("a", 60), dev("b", 60)}}
	out := []byte("digraph G {\n\tgraph [bb=\"0,0,400,60\"];\n" +
		"\tn0\t[height=0.83333,\n\t\tpos=\"70,30\",\n\t\twidth=1.9444];\n" +
		"\tn1\t[pos=\"330,30\", width=1.9444];\n" +
		"\tn0 -> n1\t[pos=\"e,260,30 140,30\"];\n}\n")
	pos, err := parsePositions(out, g)
	if err != nil {
		t.Fatalf("parsePositions() = %v", err)
	}
	if !pos["a"].Eq(geom.Pt(0, -60)) || !pos["b"].Eq(geom.Pt(260, -60)) {
		t.Errorf("parsePositions() = %v", pos)
	}
}

func randomGraph(heights []int, pairs []int) Graph {
	var g Graph
	for i, h := range heights {
		g.Devices = append(g.Devices, Device{ID: fmt.Sprintf("d%d", i), Width: 140, Height: float64(max(60, 20*h))})
	}
	n := len(heights)
	for i := 0; i+1 < len(pairs); i += 2 {
		g.Edges = append(g.Edges, Edge{
			Key:  fmt.Sprintf("c%d", i/2),
			From: fmt.Sprintf("d%d", pairs[i]%n),
			To:   fmt.Sprintf("d%d", pairs[i+1]%n),
		})
	}
	return g
}

func TestLayoutProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 50
	properties := gopter.NewProperties(params)

	for _, name := range []string{StrategyLayered, StrategyForce} {
		l, err := New(name, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}

		properties.Property(name+" boxes never overlap", prop.ForAll(
			func(heights []int, pairs []int) bool {
				if len(heights) == 0 {
					return true
				}
				g := randomGraph(heights, pairs)
				pos, err := l.Layout(context.Background(), g)
				return err == nil && Validate(g, pos) == nil
			},
			gen.SliceOfN(12, gen.IntRange(0, 8)),
			gen.SliceOf(gen.IntRange(0, 1000)),
		))

		properties.Property(name+" is deterministic", prop.ForAll(
			func(heights []int, pairs []int) bool {
				if len(heights) == 0 {
					return true
				}
				g := randomGraph(heights, pairs)
				a, errA := l.Layout(context.Background(), g)
				b, errB := l.Layout(context.Background(), g)
				if errA != nil || errB != nil {
					return false
				}
				for id, p := range a {
					if !p.Eq(b[id]) {
						return false
					}
				}
				return true
			},
			gen.SliceOfN(8, gen.IntRange(0, 8)),
			gen.SliceOf(gen.IntRange(0, 1000)),
		))
	}

	properties.TestingRun(t)
}

func TestIsolatedDistinctFinite(t *testing.T) {
	var g Graph
	for i := range 10 {
		g.Devices = append(g.Devices, dev(fmt.Sprintf("d%d", i), 60))
	}
	pos := mustLayout(t, StrategyLayered, g)
	seen := map[geom.Point]bool{}
	for _, d := range g.Devices {
		p := pos[d.ID]
		if !p.Finite() || seen[p] {
			t.Errorf("position(%s) = %v not finite or repeated", d.ID, p)
		}
		seen[p] = true
	}
}
