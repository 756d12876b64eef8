package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kabelplan/pkg/cache"
	kerrors "github.com/matzehuels/kabelplan/pkg/errors"
	"github.com/matzehuels/kabelplan/pkg/netbox"
	"github.com/matzehuels/kabelplan/pkg/observability"
	"github.com/matzehuels/kabelplan/pkg/session"
	"github.com/matzehuels/kabelplan/pkg/topology"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, the NetBox client and the
// logger. Multiple goroutines can safely use the same Runner with different
// options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	NetBox *netbox.Client
	Logger *log.Logger

	GraphTTL    time.Duration
	ArtifactTTL time.Duration
}

// NewRunner creates a runner. A nil keyer selects the DefaultKeyer, a nil
// cache disables caching and a nil NetBox client limits the runner to file
// input.
func NewRunner(c cache.Cache, keyer cache.Keyer, nb *netbox.Client, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:       c,
		Keyer:       keyer,
		NetBox:      nb,
		Logger:      logger,
		GraphTTL:    DefaultGraphTTL,
		ArtifactTTL: DefaultArtifactTTL,
	}
}

// Execute runs the complete load → build → render pipeline with caching.
// A selection without devices fails with EMPTY_RESULT.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{}

	// Stage 1: Load
	start := time.Now()
	data, hit, err := r.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Data = data
	result.DataHash = topology.Hash(data)
	result.Stats.LoadTime = time.Since(start)
	result.CacheInfo.LoadHit = hit

	// Stage 2: Build
	start = time.Now()
	s, err := r.Build(ctx, data, opts)
	if err != nil {
		return nil, err
	}
	result.Session = s
	result.Stats.BuildTime = time.Since(start)
	if sc := s.Scene(); sc != nil {
		result.Stats.Devices = sc.Stats.Devices
		result.Stats.Cables = sc.Stats.Cables
		result.Stats.Dropped = sc.Stats.DroppedLinks
		result.Stats.Fallbacks = sc.Stats.FallbackRoutes
	}

	// Stage 3: Render
	start = time.Now()
	artifacts, renderHit, err := r.Render(ctx, s, result.DataHash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(start)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered diagram",
		"devices", result.Stats.Devices,
		"cables", result.Stats.Cables,
		"formats", opts.Formats,
		"duration", result.Stats.LoadTime+result.Stats.BuildTime+result.Stats.RenderTime)
	return result, nil
}

// Load reads the topology named by opts and reports it to the load hooks.
// The bool result reports a graph cache hit.
func (r *Runner) Load(ctx context.Context, opts Options) (topology.Data, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForLoad(); err != nil {
		return topology.Data{}, false, err
	}

	source := opts.Source()
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()

	var (
		data topology.Data
		hit  bool
		err  error
	)
	if source == SourceFile {
		data, err = loadFile(opts.File)
	} else {
		data, hit, err = r.fetch(ctx, opts)
	}

	dropped := 0
	if err == nil {
		if m, berr := topology.Build(data); berr == nil {
			dropped = m.DroppedCount()
		}
	}
	hooks.OnLoadComplete(ctx, source, len(data.Nodes), len(data.Links), dropped, time.Since(start), err)
	if err != nil {
		return topology.Data{}, false, err
	}

	r.Logger.Debug("loaded topology",
		"source", source,
		"devices", len(data.Nodes),
		"links", len(data.Links),
		"cached", hit,
		"duration", time.Since(start))
	return data, hit, nil
}

func loadFile(path string) (topology.Data, error) {
	data, err := topology.Load(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return topology.Data{}, kerrors.Wrap(kerrors.ErrCodeFileNotFound, err, "file not found: %s", path)
	case err != nil:
		return topology.Data{}, kerrors.Wrap(kerrors.ErrCodeInvalidTopology, err, "read %s", path)
	}
	return data, nil
}

func (r *Runner) fetch(ctx context.Context, opts Options) (topology.Data, bool, error) {
	if r.NetBox == nil {
		return topology.Data{}, false, kerrors.New(kerrors.ErrCodeUnsupported, "NetBox is not configured; set netbox.url or NETBOX_URL")
	}
	key := r.Keyer.GraphKey(opts.GraphKeyOpts())
	if !opts.Refresh {
		var data topology.Data
		if err := cache.GetJSON(ctx, r.Cache, key, &data); err == nil {
			return data, true, nil
		}
	}

	data, err := r.NetBox.GraphData(ctx, opts.Filter(), opts.Refresh)
	if err != nil {
		return topology.Data{}, false, err
	}
	if len(data.Nodes) > 0 {
		_ = cache.SetJSON(ctx, r.Cache, key, data, r.GraphTTL)
	}
	return data, false, nil
}

// Build creates a session for opts and completes a load with data. The
// session is returned even when the build fails so callers can inspect
// its state.
func (r *Runner) Build(ctx context.Context, data topology.Data, opts Options) (*session.Session, error) {
	r.applyLogger(&opts)
	sopts, err := opts.SessionOptions()
	if err != nil {
		return nil, err
	}
	s := session.New(sopts)
	s.SetSite(opts.Site)
	token := s.BeginLoad()
	if err := s.Complete(ctx, token, data); err != nil {
		return s, err
	}
	return s, nil
}

// Render exports the session's view in every requested format. Artifacts
// are cached by data hash and render settings; dataHash may be empty to
// skip the cache. The bool result reports whether every artifact came from
// cache.
func (r *Runner) Render(ctx context.Context, s *session.Session, dataHash string, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	if dataHash != "" {
		dataHash = opts.renderHash(dataHash)
	}
	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := dataHash != ""
	for _, format := range opts.Formats {
		if dataHash != "" {
			key := r.Keyer.ArtifactKey(dataHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				artifacts[format] = data
				continue
			}
		}
		allCached = false

		var buf bytes.Buffer
		if err := s.Export(ctx, &buf, format); err != nil {
			return nil, false, err
		}
		artifacts[format] = buf.Bytes()
		if dataHash != "" {
			key := r.Keyer.ArtifactKey(dataHash, opts.ArtifactKeyOpts(format))
			_ = r.Cache.Set(ctx, key, buf.Bytes(), r.ArtifactTTL)
		}
	}
	return artifacts, allCached, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
