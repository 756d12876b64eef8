package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	kerrors "github.com/matzehuels/kabelplan/pkg/errors"
	"github.com/matzehuels/kabelplan/pkg/topology"
	"github.com/matzehuels/kabelplan/pkg/viewport"
)

func twoDevices() topology.Data {
	return topology.Data{
		Nodes: []topology.Node{
			{ID: "A", Name: "sw-a", Model: "EX2300", Ports: []topology.Port{{ID: "a0", Name: "ge-0/0/0"}, {ID: "a1", Name: "ge-0/0/1"}}},
			{ID: "B", Name: "sw-b", Model: "EX2300", Ports: []topology.Port{{ID: "b0", Name: "ge-0/0/0"}, {ID: "b1", Name: "ge-0/0/1"}}},
		},
		Links: []topology.Link{{
			ID:     "7",
			Source: topology.Endpoint{ID: "A", Port: "a0"},
			Target: topology.Endpoint{ID: "B", Port: "b1"},
			Label:  "#7",
		}},
	}
}

func TestLoadLifecycle(t *testing.T) {
	s := New(Options{})
	if s.ID() == "" {
		t.Fatal("ID() is empty")
	}
	if s.Loading() {
		t.Fatal("new session is loading")
	}

	token := s.BeginLoad()
	if !s.Loading() {
		t.Error("Loading() = false after BeginLoad")
	}
	if err := s.Complete(context.Background(), token, twoDevices()); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if s.Loading() {
		t.Error("Loading() = true after Complete")
	}
	if s.Scene() == nil || len(s.Scene().Devices) != 2 || len(s.Scene().Cables) != 1 {
		t.Fatalf("Scene() = %+v", s.Scene())
	}

	want := viewport.New(viewport.Options{}).Fit(s.Scene().Bounds, DefaultCanvasWidth, DefaultCanvasHeight)
	if got := s.Viewport().Transform(); got != want {
		t.Errorf("transform after load = %+v, want fit %+v", got, want)
	}
}

func TestStaleCompletionIsIgnored(t *testing.T) {
	s := New(Options{})
	first := s.BeginLoad()
	second := s.BeginLoad()
	if first == second {
		t.Fatal("BeginLoad() returned the same token twice")
	}

	err := s.Complete(context.Background(), first, twoDevices())
	if !errors.Is(err, ErrStaleLoad) {
		t.Fatalf("Complete(stale) error = %v, want ErrStaleLoad", err)
	}
	if s.Scene() != nil {
		t.Error("stale completion applied a scene")
	}
	if !s.Loading() {
		t.Error("stale completion cleared the loading flag of the newer load")
	}

	if err := s.Complete(context.Background(), second, twoDevices()); err != nil {
		t.Fatalf("Complete(current) error = %v", err)
	}
	if s.Scene() == nil || s.Loading() {
		t.Errorf("current completion: Scene() = %v, Loading() = %v", s.Scene(), s.Loading())
	}
}

func TestResetInvalidatesTokens(t *testing.T) {
	s := New(Options{})
	token := s.BeginLoad()
	s.Reset()

	if s.Loading() {
		t.Error("Loading() = true after Reset")
	}
	if err := s.Complete(context.Background(), token, twoDevices()); !errors.Is(err, ErrStaleLoad) {
		t.Errorf("Complete() after Reset error = %v, want ErrStaleLoad", err)
	}
	if err := s.Fail(token, errors.New("late")); !errors.Is(err, ErrStaleLoad) {
		t.Errorf("Fail() after Reset error = %v, want ErrStaleLoad", err)
	}
	if s.Err() != nil {
		t.Errorf("Err() = %v, want nil", s.Err())
	}
	if err := s.Complete(context.Background(), "", twoDevices()); !errors.Is(err, ErrStaleLoad) {
		t.Errorf("Complete(\"\") error = %v, want ErrStaleLoad", err)
	}
}

func TestFail(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want kerrors.Code
	}{
		{"plain error", errors.New("connection refused"), kerrors.ErrCodeFetchFailed},
		{"coded error kept", kerrors.New(kerrors.ErrCodeTimeout, "netbox timed out"), kerrors.ErrCodeTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Options{})
			token := s.BeginLoad()
			if err := s.Fail(token, tt.err); err != nil {
				t.Fatalf("Fail() error = %v", err)
			}
			if s.Loading() {
				t.Error("Loading() = true after Fail")
			}
			if got := kerrors.GetCode(s.Err()); got != tt.want {
				t.Errorf("Err() code = %v, want %v", got, tt.want)
			}
			if st := s.State(); st.Code != tt.want || st.Error == "" {
				t.Errorf("State() = %+v", st)
			}
		})
	}
}

func TestEmptySelection(t *testing.T) {
	s := New(Options{})
	token := s.BeginLoad()

	err := s.Complete(context.Background(), token, topology.Data{})
	if !kerrors.Is(err, kerrors.ErrCodeEmptyResult) {
		t.Fatalf("Complete(empty) error = %v, want EMPTY_RESULT", err)
	}
	if !errors.Is(err, topology.ErrEmpty) {
		t.Error("EMPTY_RESULT error does not wrap topology.ErrEmpty")
	}
	if got := kerrors.UserMessage(s.Err()); got != EmptyMessage {
		t.Errorf("UserMessage() = %q, want %q", got, EmptyMessage)
	}
	if s.Scene() != nil || s.Loading() {
		t.Errorf("Scene() = %v, Loading() = %v; want nil, false", s.Scene(), s.Loading())
	}
}

func TestNoFitKeepsIdentity(t *testing.T) {
	s := New(Options{NoFit: true})
	token := s.BeginLoad()
	if err := s.Complete(context.Background(), token, twoDevices()); err != nil {
		t.Fatal(err)
	}
	if got := s.Viewport().Transform(); got != viewport.Identity {
		t.Errorf("transform = %+v, want identity", got)
	}
}

func TestBeginLoadClearsView(t *testing.T) {
	s := New(Options{})
	if err := s.Complete(context.Background(), s.BeginLoad(), twoDevices()); err != nil {
		t.Fatal(err)
	}
	v := s.Viewport()
	v.PointerDown(0, 0)
	v.PointerMove(30, 40)

	s.BeginLoad()
	if s.Scene() != nil || s.Err() != nil {
		t.Error("BeginLoad() did not clear the scene")
	}
	if v.Transform() != viewport.Identity || v.State() != viewport.Idle {
		t.Errorf("viewport = %+v/%v, want identity and idle", v.Transform(), v.State())
	}
}

func TestDanglingLinksAreDropped(t *testing.T) {
	data := topology.Data{
		Nodes: []topology.Node{
			{ID: "1", Name: "a", Model: "m", Ports: []topology.Port{{ID: "p1", Name: "e0"}}},
			{ID: "2", Name: "b", Model: "m", Ports: []topology.Port{{ID: "p2", Name: "e0"}, {ID: "p3", Name: "e1"}}},
			{ID: "3", Name: "c", Model: "m", Ports: []topology.Port{{ID: "p4", Name: "e0"}}},
		},
		Links: []topology.Link{
			{ID: "10", Source: topology.Endpoint{ID: "1", Port: "p1"}, Target: topology.Endpoint{ID: "2", Port: "p2"}},
			{ID: "11", Source: topology.Endpoint{ID: "2", Port: "p3"}, Target: topology.Endpoint{ID: "3", Port: "p4"}},
			{ID: "12", Source: topology.Endpoint{ID: "3", Port: "p4"}, Target: topology.Endpoint{ID: "99", Port: "p9"}},
		},
	}
	s := New(Options{})
	if err := s.Complete(context.Background(), s.BeginLoad(), data); err != nil {
		t.Fatal(err)
	}
	st := s.State().Stats
	if st == nil || st.Devices != 3 || st.Cables != 2 || st.DroppedLinks != 1 {
		t.Errorf("Stats = %+v, want 3 devices, 2 cables, 1 dropped", st)
	}
}

func TestExport(t *testing.T) {
	s := New(Options{})
	s.SetSite("ber1")

	var buf bytes.Buffer
	if err := s.Export(context.Background(), &buf, "svg"); !kerrors.Is(err, kerrors.ErrCodeEmptyResult) {
		t.Fatalf("Export() without scene error = %v, want EMPTY_RESULT", err)
	}

	if err := s.Complete(context.Background(), s.BeginLoad(), twoDevices()); err != nil {
		t.Fatal(err)
	}
	s.Viewport().Wheel(-1)
	if err := s.Export(context.Background(), &buf, "svg"); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	out := buf.String()
	if want := `transform="` + s.Viewport().Transform().SVG() + `"`; !strings.Contains(out, want) {
		t.Errorf("export does not carry the current transform %s", want)
	}
	if !strings.Contains(out, "kabelplan-ber1.svg") {
		t.Error("export title does not name the site")
	}
}

func TestSetCanvas(t *testing.T) {
	s := New(Options{})
	s.SetCanvas(800, 0)
	if w, h := s.Canvas(); w != 800 || h != DefaultCanvasHeight {
		t.Errorf("Canvas() = %v x %v, want 800 x %v", w, h, DefaultCanvasHeight)
	}
}
