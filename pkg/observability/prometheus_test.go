package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusHooks(t *testing.T) {
	ctx := context.Background()
	p := NewPrometheus()

	p.OnLoadComplete(ctx, "file", 3, 2, 1, time.Millisecond, nil)
	p.OnLoadComplete(ctx, "netbox", 0, 0, 0, time.Millisecond, errors.New("boom"))
	p.OnRouteComplete(ctx, "manhattan", 10, 2, time.Millisecond)
	p.OnCacheHit(ctx, "netbox")
	p.OnCacheMiss(ctx, "netbox")
	p.OnCacheSet(ctx, "netbox", 512)
	p.OnResponse(ctx, "GET", "netbox.local", "/api/dcim/sites/", 200, time.Millisecond)
	p.OnError(ctx, "GET", "netbox.local", "/api/dcim/sites/", errors.New("reset"))
	p.RecordRequest("GET", "/api/graph-data", 400, time.Millisecond)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"file loads ok", testutil.ToFloat64(p.LoadsTotal.WithLabelValues("file", "ok")), 1},
		{"netbox loads failed", testutil.ToFloat64(p.LoadsTotal.WithLabelValues("netbox", "error")), 1},
		{"dropped links", testutil.ToFloat64(p.DroppedLinksTotal), 1},
		{"fallback routes", testutil.ToFloat64(p.FallbackRoutes), 2},
		{"cache hits", testutil.ToFloat64(p.CacheOpsTotal.WithLabelValues("netbox", "hit")), 1},
		{"cache bytes", testutil.ToFloat64(p.CacheBytes), 512},
		{"upstream ok", testutil.ToFloat64(p.UpstreamTotal.WithLabelValues("netbox.local", "200")), 1},
		{"upstream errors", testutil.ToFloat64(p.UpstreamTotal.WithLabelValues("netbox.local", "error")), 1},
		{"served", testutil.ToFloat64(p.HTTPRequestsTotal.WithLabelValues("GET", "/api/graph-data", "400")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}
