// Package pipeline provides the diagram pipeline shared by the CLI and the
// HTTP server.
//
// The pipeline has three stages:
//
//  1. Load: read topology data from a file or fetch it from NetBox
//  2. Build: index the data, lay out devices and route cables into a scene
//     held by a [session.Session]
//  3. Render: export the fitted view as SVG, PNG or PDF
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, netboxClient, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Site:    "fra1",
//	    Formats: []string{"svg", "png"},
//	})
//	svg := result.Artifacts["svg"]
//
// Stages can run on their own, which is how the server keeps the slow
// fetch outside the session lock:
//
//	data, _, err := runner.Load(ctx, opts)
//	// ... lock the session ...
//	err = sess.Complete(ctx, token, data)
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kabelplan/pkg/cache"
	kerrors "github.com/matzehuels/kabelplan/pkg/errors"
	"github.com/matzehuels/kabelplan/pkg/export"
	"github.com/matzehuels/kabelplan/pkg/layout"
	"github.com/matzehuels/kabelplan/pkg/netbox"
	"github.com/matzehuels/kabelplan/pkg/route"
	"github.com/matzehuels/kabelplan/pkg/session"
	"github.com/matzehuels/kabelplan/pkg/topology"
	"github.com/matzehuels/kabelplan/pkg/viewport"
)

// Defaults shared by the CLI and the server.
const (
	DefaultFormat = export.FormatSVG
	DefaultWidth  = int(session.DefaultCanvasWidth)
	DefaultHeight = int(session.DefaultCanvasHeight)

	// DefaultGraphTTL is how long assembled NetBox graph data is cached.
	DefaultGraphTTL = 5 * time.Minute
	// DefaultArtifactTTL is how long rendered diagrams are cached.
	DefaultArtifactTTL = time.Hour
)

// Sources reported to the load hooks.
const (
	SourceFile   = "file"
	SourceNetBox = "netbox"
)

// Options contains the configuration of one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. File takes precedence over the NetBox filter.
	File     string `json:"file,omitempty"`
	Site     string `json:"site,omitempty"`
	Location string `json:"location,omitempty"`
	Rack     string `json:"rack,omitempty"`
	Refresh  bool   `json:"refresh,omitempty"`

	// Build options
	Layout      string `json:"layout,omitempty"`
	Router      string `json:"router,omitempty"`
	StrictPorts bool   `json:"strict_ports,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Width   int      `json:"width,omitempty"`
	Height  int      `json:"height,omitempty"`
	NoFit   bool     `json:"no_fit,omitempty"`

	// Runtime options (not serialized)
	LayoutOptions   layout.Options   `json:"-"`
	RouteOptions    route.Options    `json:"-"`
	ViewportOptions viewport.Options `json:"-"`
	Logger          *log.Logger      `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Data is the topology the diagram was built from.
	Data topology.Data

	// DataHash is the content hash of Data.
	DataHash string

	// Session holds the scene and the fitted viewport.
	Session *session.Session

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Devices    int
	Cables     int
	Dropped    int
	Fallbacks  int
	LoadTime   time.Duration
	BuildTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool // graph data came from cache
	RenderHit bool // all artifacts came from cache
}

// ValidateAndSetDefaults checks every field and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the data source.
func (o *Options) ValidateForLoad() error {
	o.setLogger()
	if o.File != "" {
		return nil
	}
	return o.Filter().Validate()
}

// ValidateForBuild checks the strategy names.
func (o *Options) ValidateForBuild() error {
	o.setLogger()
	if err := kerrors.ValidateStrategy("layout", o.Layout, layout.Strategies); err != nil {
		return err
	}
	return kerrors.ValidateStrategy("route", o.Router, route.Strategies)
}

// ValidateForRender checks formats and canvas size and applies defaults.
func (o *Options) ValidateForRender() error {
	o.setLogger()
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	for i, f := range o.Formats {
		if err := kerrors.ValidateFormat(f); err != nil {
			return err
		}
		o.Formats[i] = strings.ToLower(f)
	}
	if o.Width < 0 || o.Height < 0 {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "canvas size must not be negative")
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	return nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// Filter returns the NetBox selection.
func (o *Options) Filter() netbox.Filter {
	return netbox.Filter{Site: o.Site, Location: o.Location, Rack: o.Rack}
}

// Source names where the data comes from.
func (o *Options) Source() string {
	if o.File != "" {
		return SourceFile
	}
	return SourceNetBox
}

// SessionOptions builds the strategies and returns the options of a
// session that renders this run.
func (o *Options) SessionOptions() (session.Options, error) {
	if err := o.ValidateForBuild(); err != nil {
		return session.Options{}, err
	}
	lo := o.LayoutOptions
	if lo == (layout.Options{}) {
		lo = layout.DefaultOptions()
	}
	lo.Logger = o.Logger
	ro := o.RouteOptions
	if ro == (route.Options{}) {
		ro = route.DefaultOptions()
	}
	vo := o.ViewportOptions
	if vo == (viewport.Options{}) {
		vo = viewport.DefaultOptions()
	}
	layouter, err := layout.New(o.Layout, lo)
	if err != nil {
		return session.Options{}, kerrors.Wrap(kerrors.ErrCodeInvalidStrategy, err, "layout")
	}
	router, err := route.New(o.Router, ro)
	if err != nil {
		return session.Options{}, kerrors.Wrap(kerrors.ErrCodeInvalidStrategy, err, "route")
	}
	return session.Options{
		Layouter:     layouter,
		Router:       router,
		Viewport:     vo,
		CanvasWidth:  float64(o.Width),
		CanvasHeight: float64(o.Height),
		NoFit:        o.NoFit,
		StrictPorts:  o.StrictPorts,
		Logger:       o.Logger,
	}, nil
}

// GraphKeyOpts returns cache key options for NetBox graph data.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{Site: o.Site, Location: o.Location, Rack: o.Rack}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:      format,
		Layout:      o.Layout,
		Router:      o.Router,
		Width:       o.Width,
		Height:      o.Height,
		NoFit:       o.NoFit,
		StrictPorts: o.StrictPorts,
		Site:        o.Site,
	}
}

// renderHash folds the tuning options into a data hash so artifacts drawn
// with different spacing get different keys.
func (o *Options) renderHash(dataHash string) string {
	lo := o.LayoutOptions
	lo.Logger = nil
	return cache.Hash(fmt.Appendf(nil, "%s|%+v|%+v|%+v", dataHash, lo, o.RouteOptions, o.ViewportOptions))
}
