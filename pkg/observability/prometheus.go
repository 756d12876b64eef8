package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus implements every hook interface with Prometheus collectors.
type Prometheus struct {
	registry *prometheus.Registry

	LoadsTotal        *prometheus.CounterVec
	DroppedLinksTotal prometheus.Counter
	FallbackRoutes    prometheus.Counter
	StageDuration     *prometheus.HistogramVec
	CacheOpsTotal     *prometheus.CounterVec
	CacheBytes        prometheus.Counter
	UpstreamTotal     *prometheus.CounterVec
	UpstreamDuration  *prometheus.HistogramVec
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// NewPrometheus registers all collectors on a fresh registry.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		LoadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kabelplan_loads_total",
			Help: "Topology loads by source and result",
		}, []string{"source", "status"}),
		DroppedLinksTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "kabelplan_dropped_links_total",
			Help: "Links excluded because they referenced a device outside the view",
		}),
		FallbackRoutes: f.NewCounter(prometheus.CounterOpts{
			Name: "kabelplan_fallback_routes_total",
			Help: "Cables drawn with the fallback path after the router gave up",
		}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kabelplan_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage", "strategy"}),
		CacheOpsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kabelplan_cache_operations_total",
			Help: "Cache lookups and writes by key type",
		}, []string{"key_type", "op"}),
		CacheBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "kabelplan_cache_written_bytes_total",
			Help: "Bytes written to the cache",
		}),
		UpstreamTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kabelplan_upstream_requests_total",
			Help: "Outgoing HTTP requests by host and status",
		}, []string{"host", "status"}),
		UpstreamDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kabelplan_upstream_request_duration_seconds",
			Help:    "Outgoing HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"host"}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kabelplan_http_requests_total",
			Help: "Served HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kabelplan_http_request_duration_seconds",
			Help:    "Served HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry returns the registry the collectors live on, for promhttp.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// RecordRequest records one served HTTP request.
func (p *Prometheus) RecordRequest(method, route string, status int, d time.Duration) {
	p.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *Prometheus) OnLoadStart(context.Context, string) {}

func (p *Prometheus) OnLoadComplete(_ context.Context, source string, _, _, dropped int, d time.Duration, err error) {
	p.LoadsTotal.WithLabelValues(source, status(err)).Inc()
	p.DroppedLinksTotal.Add(float64(dropped))
	p.StageDuration.WithLabelValues("load", source).Observe(d.Seconds())
}

func (p *Prometheus) OnLayoutStart(context.Context, string, int) {}

func (p *Prometheus) OnLayoutComplete(_ context.Context, strategy string, d time.Duration, _ error) {
	p.StageDuration.WithLabelValues("layout", strategy).Observe(d.Seconds())
}

func (p *Prometheus) OnRouteComplete(_ context.Context, router string, _, fallbacks int, d time.Duration) {
	p.FallbackRoutes.Add(float64(fallbacks))
	p.StageDuration.WithLabelValues("route", router).Observe(d.Seconds())
}

func (p *Prometheus) OnExportStart(context.Context, []string) {}

func (p *Prometheus) OnExportComplete(_ context.Context, formats []string, d time.Duration, _ error) {
	for _, f := range formats {
		p.StageDuration.WithLabelValues("export", f).Observe(d.Seconds())
	}
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.CacheOpsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.CacheOpsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.CacheOpsTotal.WithLabelValues(keyType, "set").Inc()
	p.CacheBytes.Add(float64(size))
}

func (p *Prometheus) OnRequest(context.Context, string, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, _, host, _ string, statusCode int, d time.Duration) {
	p.UpstreamTotal.WithLabelValues(host, strconv.Itoa(statusCode)).Inc()
	p.UpstreamDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, _, host, _ string, _ error) {
	p.UpstreamTotal.WithLabelValues(host, "error").Inc()
}

var (
	_ PipelineHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)
