package transform

import (
	"testing"

	"github.com/matzehuels/kabelplan/pkg/dag"
)

func build(t *testing.T, ids []string, edges [][2]string) *dag.DAG {
	t.Helper()
	g := dag.New()
	for _, id := range ids {
		if err := g.AddNode(dag.Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%q) = %v", id, err)
		}
	}
	for i, e := range edges {
		key := string(rune('A' + i))
		if err := g.AddEdge(dag.Edge{From: e[0], To: e[1], Key: key}); err != nil {
			t.Fatalf("AddEdge(%v) = %v", e, err)
		}
	}
	return g
}

func TestBreakCycles(t *testing.T) {
	tests := []struct {
		name         string
		ids          []string
		edges        [][2]string
		wantChanged  int
		wantEdges    int
		wantReversed int
	}{
		{
			name:      "chain",
			ids:       []string{"a", "b", "c"},
			edges:     [][2]string{{"a", "b"}, {"b", "c"}},
			wantEdges: 2,
		},
		{
			name:         "two node ring",
			ids:          []string{"a", "b"},
			edges:        [][2]string{{"a", "b"}, {"b", "a"}},
			wantChanged:  1,
			wantEdges:    2,
			wantReversed: 1,
		},
		{
			name:         "triangle",
			ids:          []string{"a", "b", "c"},
			edges:        [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}},
			wantChanged:  1,
			wantEdges:    3,
			wantReversed: 1,
		},
		{
			name:        "self loop",
			ids:         []string{"a"},
			edges:       [][2]string{{"a", "a"}},
			wantChanged: 1,
			wantEdges:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.ids, tt.edges)
			if got := BreakCycles(g); got != tt.wantChanged {
				t.Errorf("BreakCycles() = %d, want %d", got, tt.wantChanged)
			}
			if got := g.EdgeCount(); got != tt.wantEdges {
				t.Errorf("EdgeCount() = %d, want %d", got, tt.wantEdges)
			}
			reversed := 0
			for _, e := range g.Edges() {
				if e.Reversed {
					reversed++
				}
			}
			if reversed != tt.wantReversed {
				t.Errorf("reversed edges = %d, want %d", reversed, tt.wantReversed)
			}
		})
	}
}

func TestBreakCyclesKeepsKeys(t *testing.T) {
	g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})
	BreakCycles(g)
	keys := map[string]bool{}
	for _, e := range g.Edges() {
		keys[e.Key] = true
		if e.From != "a" || e.To != "b" {
			t.Errorf("edge %s = %s->%s, want a->b", e.Key, e.From, e.To)
		}
	}
	if !keys["A"] || !keys["B"] {
		t.Errorf("keys = %v, want A and B", keys)
	}
}

func TestPipelineValidates(t *testing.T) {
	g := build(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}, {"a", "d"}, {"c", "d"}},
	)
	BreakCycles(g)
	AssignLayers(g)
	Subdivide(g)
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestAssignLayers(t *testing.T) {
	g := build(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}},
	)
	AssignLayers(g)

	want := map[string]int{"a": 0, "b": 1, "c": 2, "d": 0}
	for id, rank := range want {
		n, _ := g.Node(id)
		if n.Rank != rank {
			t.Errorf("rank(%s) = %d, want %d", id, n.Rank, rank)
		}
	}
}

func TestSubdivide(t *testing.T) {
	g := build(t,
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}},
	)
	AssignLayers(g)
	if added := Subdivide(g); added != 1 {
		t.Fatalf("Subdivide() = %d, want 1", added)
	}

	v, ok := g.Node("a_v_1")
	if !ok {
		t.Fatal("virtual node a_v_1 missing")
	}
	if !v.IsVirtual() || v.Rank != 1 || v.Edge != "C" {
		t.Errorf("virtual node = %+v", *v)
	}
	if g.EdgeCount() != 4 {
		t.Errorf("EdgeCount() = %d, want 4", g.EdgeCount())
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestSubdivideAvoidsCollisions(t *testing.T) {
	g := build(t,
		[]string{"a", "a_v_1", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}},
	)
	AssignLayers(g)
	Subdivide(g)
	if _, ok := g.Node("a_v_1__1"); !ok {
		t.Error("expected suffixed virtual id a_v_1__1")
	}
}
