// Package session owns one diagram instance: the scene built from the most
// recent load, its viewport and the guard against stale loads.
//
// A load is split in two so the slow fetch can run without holding the
// session: [Session.BeginLoad] hands out a token, and only
// [Session.Complete] or [Session.Fail] with the current token may change the
// session afterwards. Starting a new load or calling [Session.Reset]
// invalidates every earlier token, so a late response never overwrites a
// newer view.
//
// A Session is single-owner and not safe for concurrent use. The HTTP
// server shares sessions through a [Registry], which serialises access per
// session.
package session

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	kerrors "github.com/matzehuels/kabelplan/pkg/errors"
	"github.com/matzehuels/kabelplan/pkg/export"
	"github.com/matzehuels/kabelplan/pkg/layout"
	"github.com/matzehuels/kabelplan/pkg/route"
	"github.com/matzehuels/kabelplan/pkg/scene"
	"github.com/matzehuels/kabelplan/pkg/topology"
	"github.com/matzehuels/kabelplan/pkg/viewport"
)

// Sentinel errors for session operations.
var (
	// ErrStaleLoad is returned when a load finishes after a newer load was
	// started or the session was reset. The session is left untouched.
	ErrStaleLoad = kerrors.New(kerrors.ErrCodeStaleLoad, "load superseded by a newer request")

	// ErrNotFound is returned by a [Registry] for unknown session ids.
	ErrNotFound = kerrors.New(kerrors.ErrCodeSessionNotFound, "session not found")
)

// EmptyMessage is the user message for a load that selected no devices.
const EmptyMessage = "no data for this selection"

// Default canvas size used for fitting.
const (
	DefaultCanvasWidth  = 1200.0
	DefaultCanvasHeight = 800.0
)

// Options configures the pipeline and viewport of a session.
type Options struct {
	Layouter layout.Layouter
	Router   route.Router
	Style    *scene.Style
	Viewport viewport.Options

	CanvasWidth  float64
	CanvasHeight float64
	// NoFit keeps the identity transform after a load instead of fitting
	// the scene to the canvas.
	NoFit bool
	// StrictPorts drops cables whose port ids do not resolve.
	StrictPorts bool

	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.CanvasWidth <= 0 {
		o.CanvasWidth = DefaultCanvasWidth
	}
	if o.CanvasHeight <= 0 {
		o.CanvasHeight = DefaultCanvasHeight
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// Session is one diagram view.
type Session struct {
	id      string
	opts    Options
	created time.Time

	token   string
	loading bool
	site    string

	model *topology.Model
	scene *scene.Scene
	view  *viewport.Controller
	err   error
}

// New returns an idle session with a fresh id.
func New(opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		id:      uuid.NewString(),
		opts:    opts,
		created: time.Now(),
		view:    viewport.New(opts.Viewport),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Created returns when the session was created.
func (s *Session) Created() time.Time { return s.created }

// Site returns the site label used for export file names.
func (s *Session) Site() string { return s.site }

// SetSite sets the site label used for export file names.
func (s *Session) SetSite(site string) { s.site = site }

// Loading reports whether a load is in flight.
func (s *Session) Loading() bool { return s.loading }

// Scene returns the current scene, or nil when nothing is loaded.
func (s *Session) Scene() *scene.Scene { return s.scene }

// Model returns the topology model behind the current scene.
func (s *Session) Model() *topology.Model { return s.model }

// Err returns the error recorded by the last load, if any.
func (s *Session) Err() error { return s.err }

// Viewport returns the session's viewport controller.
func (s *Session) Viewport() *viewport.Controller { return s.view }

// Canvas returns the canvas size used for fitting and export.
func (s *Session) Canvas() (float64, float64) { return s.opts.CanvasWidth, s.opts.CanvasHeight }

// SetCanvas changes the canvas size. Non-positive values are ignored.
func (s *Session) SetCanvas(w, h float64) {
	if w > 0 {
		s.opts.CanvasWidth = w
	}
	if h > 0 {
		s.opts.CanvasHeight = h
	}
}

// BeginLoad starts a load and returns its token. The scene, the error and
// the viewport are cleared and every earlier token becomes stale.
func (s *Session) BeginLoad() string {
	s.token = uuid.NewString()
	s.loading = true
	s.clear()
	return s.token
}

// Complete builds the scene from data if token is still current. A stale
// token returns [ErrStaleLoad] and changes nothing. An empty selection is
// recorded as an EMPTY_RESULT error with [EmptyMessage].
func (s *Session) Complete(ctx context.Context, token string, data topology.Data) error {
	if !s.current(token) {
		return ErrStaleLoad
	}
	s.loading = false
	s.clear()

	var buildOpts []topology.BuildOption
	buildOpts = append(buildOpts, topology.WithLogger(s.opts.Logger))
	if s.opts.StrictPorts {
		buildOpts = append(buildOpts, topology.WithStrictPorts())
	}
	m, err := topology.Build(data, buildOpts...)
	if errors.Is(err, topology.ErrEmpty) {
		s.err = kerrors.Wrap(kerrors.ErrCodeEmptyResult, err, EmptyMessage)
		return s.err
	}
	if err != nil {
		s.err = kerrors.Wrap(kerrors.ErrCodeInvalidTopology, err, "invalid topology")
		return s.err
	}

	sc, err := scene.Build(ctx, m, scene.Options{
		Layouter: s.opts.Layouter,
		Router:   s.opts.Router,
		Style:    s.opts.Style,
		Logger:   s.opts.Logger,
	})
	if err != nil {
		s.err = kerrors.Wrap(kerrors.ErrCodeInternal, err, "build diagram")
		return s.err
	}

	s.model, s.scene = m, sc
	if !s.opts.NoFit {
		s.Fit()
	}
	return nil
}

// Fail records a fetch failure if token is still current. Errors without a
// code are recorded as FETCH_FAILED.
func (s *Session) Fail(token string, err error) error {
	if !s.current(token) {
		return ErrStaleLoad
	}
	s.loading = false
	s.clear()
	if kerrors.GetCode(err) == "" {
		err = kerrors.Wrap(kerrors.ErrCodeFetchFailed, err, "failed to load data")
	}
	s.err = err
	return nil
}

// Reset clears the view and invalidates all outstanding tokens.
func (s *Session) Reset() {
	s.token = ""
	s.loading = false
	s.clear()
}

func (s *Session) current(token string) bool {
	return token != "" && token == s.token
}

func (s *Session) clear() {
	s.model, s.scene, s.err = nil, nil, nil
	s.view.Reset()
}

// Fit frames the scene on the canvas. Without a scene the transform is
// left unchanged.
func (s *Session) Fit() viewport.Transform {
	if s.scene.Empty() {
		return s.view.Transform()
	}
	return s.view.Fit(s.scene.Bounds, s.opts.CanvasWidth, s.opts.CanvasHeight)
}

// Export writes the current view in format to w. Without a scene it
// returns an EMPTY_RESULT error.
func (s *Session) Export(ctx context.Context, w io.Writer, format string) error {
	if s.scene.Empty() {
		return kerrors.New(kerrors.ErrCodeEmptyResult, EmptyMessage)
	}
	return export.Write(ctx, w, format, s.scene, s.view.Transform(), export.Options{
		Width:  int(s.opts.CanvasWidth),
		Height: int(s.opts.CanvasHeight),
		Title:  export.Filename(s.site, format),
	})
}

// State is a serialisable snapshot of a session.
type State struct {
	ID       string             `json:"id"`
	Site     string             `json:"site,omitempty"`
	Loading  bool               `json:"loading"`
	Viewport viewport.Transform `json:"viewport"`
	Panning  bool               `json:"panning"`
	Stats    *scene.Stats       `json:"stats,omitempty"`
	Error    string             `json:"error,omitempty"`
	Code     kerrors.Code       `json:"code,omitempty"`
}

// State returns a snapshot of s.
func (s *Session) State() State {
	st := State{
		ID:       s.id,
		Site:     s.site,
		Loading:  s.loading,
		Viewport: s.view.Transform(),
		Panning:  s.view.State() == viewport.Panning,
	}
	if s.scene != nil {
		stats := s.scene.Stats
		st.Stats = &stats
	}
	if s.err != nil {
		st.Error = kerrors.UserMessage(s.err)
		st.Code = kerrors.GetCode(s.err)
	}
	return st
}
