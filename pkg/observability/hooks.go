// Package observability lets kabelplan packages report pipeline, cache and
// NetBox HTTP events without importing a metrics backend.
//
// Each event family has a process-wide sink that starts out as a no-op.
// The serve command installs the Prometheus sink when metrics are enabled:
//
//	prom := observability.NewPrometheus()
//	observability.SetPipelineHooks(prom)
//	observability.SetCacheHooks(prom)
//	observability.SetHTTPHooks(prom)
//	defer observability.Reset()
//
// Emitters look the sink up at the call site, so a sink installed late is
// still picked up:
//
//	hooks := observability.Pipeline()
//	hooks.OnLayoutStart(ctx, "layered", len(devices))
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks observes the stages of a diagram build: loading the
// topology, placing devices, routing cables and encoding artifacts.
type PipelineHooks interface {
	OnLoadStart(ctx context.Context, source string)
	OnLoadComplete(ctx context.Context, source string, devices, cables, dropped int, duration time.Duration, err error)

	OnLayoutStart(ctx context.Context, strategy string, devices int)
	OnLayoutComplete(ctx context.Context, strategy string, duration time.Duration, err error)

	// OnRouteComplete fires once per scene, after every cable has a polyline.
	OnRouteComplete(ctx context.Context, router string, cables, fallbacks int, duration time.Duration)

	OnExportStart(ctx context.Context, formats []string)
	OnExportComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks observes lookups and writes. keyType is the key namespace,
// e.g. "netbox" or "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks observes outgoing requests to NetBox. OnError is used for
// transport failures only; non-2xx answers arrive through OnResponse.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopPipelineHooks discards pipeline events.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string) {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, int, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnLayoutStart(context.Context, string, int)                       {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, string, time.Duration, error)   {}
func (NoopPipelineHooks) OnRouteComplete(context.Context, string, int, int, time.Duration) {}
func (NoopPipelineHooks) OnExportStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnExportComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks discards cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks discards HTTP events.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// sink holds the current implementation of one hook interface.
type sink[T comparable] struct {
	mu   sync.RWMutex
	cur  T
	noop T
}

func newSink[T comparable](noop T) *sink[T] {
	return &sink[T]{cur: noop, noop: noop}
}

func (s *sink[T]) load() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// store replaces the current implementation; the zero value (a nil
// interface) leaves it unchanged.
func (s *sink[T]) store(h T) {
	var zero T
	if h == zero {
		return
	}
	s.mu.Lock()
	s.cur = h
	s.mu.Unlock()
}

func (s *sink[T]) reset() {
	s.mu.Lock()
	s.cur = s.noop
	s.mu.Unlock()
}

var (
	pipelineSink = newSink[PipelineHooks](NoopPipelineHooks{})
	cacheSink    = newSink[CacheHooks](NoopCacheHooks{})
	httpSink     = newSink[HTTPHooks](NoopHTTPHooks{})
)

// SetPipelineHooks installs h as the pipeline sink. nil is ignored.
func SetPipelineHooks(h PipelineHooks) { pipelineSink.store(h) }

// SetCacheHooks installs h as the cache sink. nil is ignored.
func SetCacheHooks(h CacheHooks) { cacheSink.store(h) }

// SetHTTPHooks installs h as the HTTP sink. nil is ignored.
func SetHTTPHooks(h HTTPHooks) { httpSink.store(h) }

// Pipeline returns the installed pipeline sink.
func Pipeline() PipelineHooks { return pipelineSink.load() }

// Cache returns the installed cache sink.
func Cache() CacheHooks { return cacheSink.load() }

// HTTP returns the installed HTTP sink.
func HTTP() HTTPHooks { return httpSink.load() }

// Reset puts the no-op sinks back.
func Reset() {
	pipelineSink.reset()
	cacheSink.reset()
	httpSink.reset()
}
