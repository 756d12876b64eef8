package cache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/kabelplan/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %v, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if err := Clear(ctx, c); err != nil {
		t.Errorf("Clear(null) error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("Get(missing) hit")
	}

	payload := []byte(`{"nodes":[]}`)
	if err := c.Set(ctx, "http:netbox:/api/dcim/sites/", payload, time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, hit, err := c.Get(ctx, "http:netbox:/api/dcim/sites/")
	if err != nil || !hit || !bytes.Equal(got, payload) {
		t.Fatalf("Get() = %q, %v, %v", got, hit, err)
	}

	if err := c.Delete(ctx, "http:netbox:/api/dcim/sites/"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "http:netbox:/api/dcim/sites/"); hit {
		t.Error("Get() after Delete hit")
	}
	if err := c.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "short", []byte("a"), time.Minute)
	_ = c.Set(ctx, "forever", []byte("b"), 0)

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("short")); !os.IsNotExist(err) {
		t.Error("expired entry not removed from disk")
	}

	now = now.Add(1000 * time.Hour)
	if data, hit, _ := c.Get(ctx, "forever"); !hit || string(data) != "b" {
		t.Errorf("zero TTL entry = %q, %v; want b, true", data, hit)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "k", []byte("v"), 0)
	if err := os.WriteFile(c.path("k"), []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get(corrupt) = %v, %v; want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	if err := Clear(ctx, c); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Clear() left %d entries", len(entries))
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", c.Dir(), dir)
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	type site struct {
		ID   int    `json:"id"`
		Slug string `json:"slug"`
	}
	var out site
	if err := GetJSON(ctx, c, "site", &out); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("GetJSON(miss) error = %v, want ErrCacheMiss", err)
	}
	if err := SetJSON(ctx, c, "site", site{ID: 1, Slug: "ber1"}, time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := GetJSON(ctx, c, "site", &out); err != nil || out.Slug != "ber1" {
		t.Errorf("GetJSON() = %+v, %v", out, err)
	}
}

type recordingHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets []string
}

func (r *recordingHooks) OnCacheHit(_ context.Context, kt string)  { r.hits = append(r.hits, kt) }
func (r *recordingHooks) OnCacheMiss(_ context.Context, kt string) { r.misses = append(r.misses, kt) }
func (r *recordingHooks) OnCacheSet(_ context.Context, kt string, _ int) {
	r.sets = append(r.sets, kt)
}

func TestInstrument(t *testing.T) {
	rec := &recordingHooks{}
	observability.SetCacheHooks(rec)
	defer observability.Reset()

	ctx := context.Background()
	fc, _ := NewFileCache(t.TempDir())
	c := Instrument(fc)
	if Instrument(c) != c {
		t.Error("Instrument() wrapped an instrumented cache twice")
	}

	c.Get(ctx, "http:netbox:x")
	c.Set(ctx, "http:netbox:x", []byte("1"), 0)
	c.Get(ctx, "http:netbox:x")
	c.Set(ctx, "nocolon", []byte("1"), 0)

	if strings.Join(rec.misses, ",") != "http" || strings.Join(rec.hits, ",") != "http" {
		t.Errorf("hits = %v, misses = %v", rec.hits, rec.misses)
	}
	if strings.Join(rec.sets, ",") != "http,other" {
		t.Errorf("sets = %v, want [http other]", rec.sets)
	}
	if err := Clear(ctx, c); err != nil {
		t.Errorf("Clear(instrumented) error = %v", err)
	}
	if _, hit, _ := fc.Get(ctx, "http:netbox:x"); hit {
		t.Error("Clear() did not reach the wrapped backend")
	}
}

func TestHash(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}
	for _, tt := range tests {
		if got := Hash([]byte(tt.in)); got != tt.want {
			t.Errorf("Hash(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.HTTPKey("netbox", "/api/dcim/sites/"); got != "http:netbox:/api/dcim/sites/" {
		t.Errorf("HTTPKey() = %s", got)
	}

	g1 := k.GraphKey(GraphKeyOpts{Site: "ber1"})
	g2 := k.GraphKey(GraphKeyOpts{Site: "ber1", Rack: "7"})
	if g1 == g2 || !strings.HasPrefix(g1, "graph:") {
		t.Errorf("GraphKey() = %s, %s", g1, g2)
	}

	a1 := k.ArtifactKey("abc", ArtifactKeyOpts{Format: "svg"})
	a2 := k.ArtifactKey("abc", ArtifactKeyOpts{Format: "png"})
	a3 := k.ArtifactKey("abd", ArtifactKeyOpts{Format: "svg"})
	if a1 == a2 || a1 == a3 || !strings.HasPrefix(a1, "artifact:") {
		t.Errorf("ArtifactKey() = %s, %s, %s", a1, a2, a3)
	}
	a4 := k.ArtifactKey("abc", ArtifactKeyOpts{Format: "svg", StrictPorts: true})
	a5 := k.ArtifactKey("abc", ArtifactKeyOpts{Format: "svg", Site: "ber1"})
	if a4 == a1 || a5 == a1 || a4 == a5 {
		t.Errorf("ArtifactKey() ignores strict ports or site: %s, %s, %s", a1, a4, a5)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "nb1:")
	if got := scoped.HTTPKey("netbox", "x"); got != "nb1:http:netbox:x" {
		t.Errorf("HTTPKey() = %s", got)
	}
	if got := scoped.GraphKey(GraphKeyOpts{Site: "a"}); !strings.HasPrefix(got, "nb1:graph:") {
		t.Errorf("GraphKey() = %s", got)
	}
	if got := scoped.ArtifactKey("h", ArtifactKeyOpts{}); !strings.HasPrefix(got, "nb1:artifact:") {
		t.Errorf("ArtifactKey() = %s", got)
	}

	if got := NewScopedKeyer(nil, "p:").HTTPKey("t", "k"); got != "p:http:t:k" {
		t.Errorf("nil inner HTTPKey() = %s", got)
	}
}

func TestSnappyCodec(t *testing.T) {
	payload := bytes.Repeat([]byte(`{"id":1,"name":"ge-0/0/1"}`), 100)
	enc := encode(payload)
	if len(enc) >= len(payload) {
		t.Errorf("encoded size %d not smaller than %d", len(enc), len(payload))
	}
	dec, err := decode(enc)
	if err != nil || !bytes.Equal(dec, payload) {
		t.Errorf("decode() = %d bytes, %v", len(dec), err)
	}
	if _, err := decode([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0x01}); err == nil {
		t.Error("decode(garbage) should fail")
	}
}

func TestKeyType(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"http:netbox:/api/dcim/sites/", "http"},
		{"graph:0f3a", "graph"},
		{"netbox.lab:8000:artifact:0f3a", "artifact"},
		{"session:42", "other"},
	}
	for _, tt := range tests {
		if got := keyType(tt.key); got != tt.want {
			t.Errorf("keyType(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
