package route

import (
	"errors"
	"math"
	"testing"

	"github.com/matzehuels/kabelplan/pkg/geom"
	"github.com/matzehuels/kabelplan/pkg/ports"
)

func equalPoints(a, b []geom.Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Eq(b[i]) {
			return false
		}
	}
	return true
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", StrategyManhattan, StrategyOrthogonal} {
		if _, err := New(name, DefaultOptions()); err != nil {
			t.Errorf("New(%q) = %v", name, err)
		}
	}
	if _, err := New("bezier", DefaultOptions()); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("New(bezier) = %v, want ErrUnknownStrategy", err)
	}
}

func TestNewReportsEffectiveOptions(t *testing.T) {
	for _, name := range Strategies {
		r, err := New(name, Options{Padding: 35})
		if err != nil {
			t.Fatalf("New(%q) = %v", name, err)
		}
		got := r.Options()
		if got.Padding != 35 || got.Step != DefaultOptions().Step {
			t.Errorf("New(%q).Options() = %+v, want padding 35 and default step", name, got)
		}
	}
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name string
		src  Anchor
		dst  Anchor
		want []geom.Point
	}{
		{
			name: "facing sides",
			src:  Anchor{Point: geom.Pt(100, 50), Side: ports.Right},
			dst:  Anchor{Point: geom.Pt(300, 80), Side: ports.Left},
			want: []geom.Point{geom.Pt(100, 50), geom.Pt(200, 50), geom.Pt(200, 80), geom.Pt(300, 80)},
		},
		{
			name: "aligned",
			src:  Anchor{Point: geom.Pt(100, 50), Side: ports.Right},
			dst:  Anchor{Point: geom.Pt(300, 50), Side: ports.Left},
			want: []geom.Point{geom.Pt(100, 50), geom.Pt(300, 50)},
		},
		{
			name: "same side",
			src:  Anchor{Point: geom.Pt(0, 0), Side: ports.Left},
			dst:  Anchor{Point: geom.Pt(0, 100), Side: ports.Left},
			want: []geom.Point{geom.Pt(0, 0), geom.Pt(-20, 0), geom.Pt(-20, 100), geom.Pt(0, 100)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fallback(tt.src, tt.dst, 20); !equalPoints(got, tt.want) {
				t.Errorf("Fallback() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		name string
		in   []geom.Point
		want []geom.Point
	}{
		{"empty", nil, nil},
		{"duplicates", []geom.Point{{X: 1, Y: 1}, {X: 1, Y: 1}}, []geom.Point{{X: 1, Y: 1}}},
		{
			"collinear run",
			[]geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 10}},
			[]geom.Point{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 10}},
		},
		{
			"reversal kept",
			[]geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 0}},
			[]geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 0}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Simplify(tt.in); !equalPoints(got, tt.want) {
				t.Errorf("Simplify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManhattanStraight(t *testing.T) {
	r, _ := New(StrategyManhattan, DefaultOptions())
	a := geom.R(0, 0, 100, 60)
	b := geom.R(300, 0, 100, 60)
	path, err := r.Route(
		Anchor{Point: geom.Pt(100, 30), Side: ports.Right},
		Anchor{Point: geom.Pt(300, 30), Side: ports.Left},
		[]geom.Rect{a, b},
	)
	if err != nil {
		t.Fatalf("Route() = %v", err)
	}
	want := []geom.Point{geom.Pt(100, 30), geom.Pt(300, 30)}
	if !equalPoints(path.Points, want) || path.Fallback {
		t.Errorf("Route() = %+v, want %v", path, want)
	}
}

func TestManhattanAvoidsObstacle(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxIterations = 50000
	r, _ := New(StrategyManhattan, opts)

	a := geom.R(0, 0, 100, 60)
	b := geom.R(400, 0, 100, 60)
	wall := geom.R(200, -40, 100, 140)
	src := Anchor{Point: geom.Pt(100, 30), Side: ports.Right}
	dst := Anchor{Point: geom.Pt(400, 30), Side: ports.Left}

	path, err := r.Route(src, dst, []geom.Rect{a, b, wall})
	if err != nil {
		t.Fatalf("Route() = %v", err)
	}
	pts := path.Points
	if !pts[0].Eq(src.Point) || !pts[len(pts)-1].Eq(dst.Point) {
		t.Errorf("endpoints = %v, %v; want anchors", pts[0], pts[len(pts)-1])
	}
	for i := 1; i < len(pts); i++ {
		p, q := pts[i-1], pts[i]
		if math.Abs(p.X-q.X) > geom.Epsilon && math.Abs(p.Y-q.Y) > geom.Epsilon {
			t.Errorf("segment %v-%v is not axis aligned", p, q)
		}
		for f := 0.0; f <= 1; f += 0.05 {
			s := p.Add(q.Sub(p).Scale(f))
			if wall.ContainsStrict(s) {
				t.Fatalf("segment %v-%v crosses the obstacle at %v", p, q, s)
			}
		}
	}
	if path.Bends() < 2 {
		t.Errorf("Bends() = %d, want a detour", path.Bends())
	}
}

func TestManhattanExhausted(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxIterations = 1
	r, _ := New(StrategyManhattan, opts)

	src := Anchor{Point: geom.Pt(100, 30), Side: ports.Right}
	dst := Anchor{Point: geom.Pt(300, 60), Side: ports.Left}
	path, err := r.Route(src, dst, nil)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("Route() error = %v, want ErrExhausted", err)
	}
	if !path.Fallback {
		t.Error("Path.Fallback = false, want true")
	}
	if want := Fallback(src, dst, opts.Padding); !equalPoints(path.Points, want) {
		t.Errorf("Route() = %v, want %v", path.Points, want)
	}
}

func TestOrthogonal(t *testing.T) {
	r, _ := New(StrategyOrthogonal, DefaultOptions())
	src := Anchor{Point: geom.Pt(0, 0), Side: ports.Right}
	dst := Anchor{Point: geom.Pt(200, 40), Side: ports.Left}
	path, err := r.Route(src, dst, []geom.Rect{geom.R(50, -100, 50, 300)})
	if err != nil || path.Fallback {
		t.Fatalf("Route() = %+v, %v", path, err)
	}
	if want := Fallback(src, dst, 20); !equalPoints(path.Points, want) {
		t.Errorf("Route() = %v, want %v", path.Points, want)
	}
}

func TestMidpoint(t *testing.T) {
	pts := []geom.Point{geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(10, 10)}
	tests := []struct {
		t    float64
		want geom.Point
	}{
		{0, geom.Pt(0, 0)},
		{0.25, geom.Pt(5, 0)},
		{0.5, geom.Pt(10, 0)},
		{0.75, geom.Pt(10, 5)},
		{1, geom.Pt(10, 10)},
		{2, geom.Pt(10, 10)},
	}
	for _, tt := range tests {
		if got := Midpoint(pts, tt.t); !got.Eq(tt.want) {
			t.Errorf("Midpoint(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestRoundedPathData(t *testing.T) {
	tests := []struct {
		name   string
		points []geom.Point
		radius float64
		want   string
	}{
		{"empty", nil, 10, ""},
		{"line", []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}, 10, "M 0 0 L 10 0"},
		{
			"corner",
			[]geom.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 50}},
			10,
			"M 0 0 L 90 0 Q 100 0 100 10 L 100 50",
		},
		{
			"short segment shrinks radius",
			[]geom.Point{{X: 0, Y: 0}, {X: 8, Y: 0}, {X: 8, Y: 50}},
			10,
			"M 0 0 L 4 0 Q 8 0 8 4 L 8 50",
		},
		{
			"polyline",
			[]geom.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 50.557}},
			0,
			"M 0 0 L 100 0 L 100 50.56",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoundedPathData(tt.points, tt.radius); got != tt.want {
				t.Errorf("RoundedPathData() = %q, want %q", got, tt.want)
			}
		})
	}
}
