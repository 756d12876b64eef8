package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingPipeline struct {
	NoopPipelineHooks
	layouts int
}

func (c *countingPipeline) OnLayoutStart(context.Context, string, int) { c.layouts++ }

type countingCache struct {
	NoopCacheHooks
	hits int
}

func (c *countingCache) OnCacheHit(context.Context, string) { c.hits++ }

type countingHTTP struct {
	NoopHTTPHooks
	errs int
}

func (c *countingHTTP) OnError(context.Context, string, string, string, error) { c.errs++ }

func TestDefaultSinksAreNoop(t *testing.T) {
	Reset()
	ctx := context.Background()

	tests := []struct {
		name string
		ok   bool
	}{
		{"pipeline", isType[NoopPipelineHooks](Pipeline())},
		{"cache", isType[NoopCacheHooks](Cache())},
		{"http", isType[NoopHTTPHooks](HTTP())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.ok {
				t.Errorf("%s sink is not the no-op default", tt.name)
			}
		})
	}

	Pipeline().OnLoadComplete(ctx, "file", 4, 5, 1, time.Millisecond, nil)
	Pipeline().OnRouteComplete(ctx, "orthogonal", 5, 0, time.Millisecond)
	Cache().OnCacheSet(ctx, "artifact", 2048)
	HTTP().OnResponse(ctx, "GET", "netbox.lab", "/api/dcim/cables/", 200, time.Millisecond)
}

func TestInstalledSinksReceiveEvents(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	ctx := context.Background()

	p, c, h := &countingPipeline{}, &countingCache{}, &countingHTTP{}
	SetPipelineHooks(p)
	SetCacheHooks(c)
	SetHTTPHooks(h)

	Pipeline().OnLayoutStart(ctx, "dot", 7)
	Cache().OnCacheHit(ctx, "netbox")
	Cache().OnCacheHit(ctx, "netbox")
	HTTP().OnError(ctx, "GET", "netbox.lab", "/api/dcim/sites/", errors.New("connection refused"))

	if p.layouts != 1 {
		t.Errorf("layouts = %d, want 1", p.layouts)
	}
	if c.hits != 2 {
		t.Errorf("hits = %d, want 2", c.hits)
	}
	if h.errs != 1 {
		t.Errorf("errs = %d, want 1", h.errs)
	}

	Reset()
	Pipeline().OnLayoutStart(ctx, "dot", 7)
	if p.layouts != 1 {
		t.Errorf("layouts after Reset = %d, want 1", p.layouts)
	}
}

func TestNilSinkKeepsCurrent(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	c := &countingCache{}
	SetCacheHooks(c)
	SetCacheHooks(nil)
	SetPipelineHooks(nil)

	if Cache() != c {
		t.Error("SetCacheHooks(nil) replaced the installed sink")
	}
	if !isType[NoopPipelineHooks](Pipeline()) {
		t.Error("SetPipelineHooks(nil) replaced the no-op sink")
	}
}

func isType[T any](v any) bool {
	_, ok := v.(T)
	return ok
}
