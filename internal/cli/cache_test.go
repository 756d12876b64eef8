package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kabelplan/pkg/cache"
	"github.com/matzehuels/kabelplan/pkg/config"
)

// writeConfig writes a TOML config into a temp dir and clears the
// environment overrides so the file is the only input.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	for _, env := range []string{config.EnvNetBoxURL, config.EnvToken, config.EnvRedisAddr} {
		t.Setenv(env, "")
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// runCLI executes the root command with args and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCacheLocation(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  config.Cache
		want string
	}{
		{"file", config.Cache{Backend: config.BackendFile, Dir: dir}, dir},
		{"redis", config.Cache{Backend: config.BackendRedis, RedisAddr: "cache:6379"}, "redis://cache:6379"},
		{"none", config.Cache{Backend: config.BackendNone}, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Cache = tt.cfg
			if got := cacheLocation(cfg); got != tt.want {
				t.Errorf("cacheLocation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewCache(t *testing.T) {
	ctx := context.Background()
	c := New(io.Discard, log.InfoLevel)
	c.cfg = config.Default()
	c.cfg.Cache.Dir = t.TempDir()

	backend, err := c.newCache(ctx, false)
	if err != nil {
		t.Fatalf("newCache() error: %v", err)
	}
	defer backend.Close()
	if err := backend.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if got, ok, _ := backend.Get(ctx, "k"); !ok || string(got) != "v" {
		t.Errorf("Get() = %q, %v, want \"v\", true", got, ok)
	}

	null, err := c.newCache(ctx, true)
	if err != nil {
		t.Fatalf("newCache(noCache) error: %v", err)
	}
	if _, ok := null.(cache.NullCache); !ok {
		t.Errorf("newCache(noCache) = %T, want cache.NullCache", null)
	}

	c.cfg.Cache.Backend = config.BackendNone
	none, _ := c.newCache(ctx, false)
	if _, ok := none.(cache.NullCache); !ok {
		t.Errorf("newCache() with backend none = %T, want cache.NullCache", none)
	}
}

func TestCachePathCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "[cache]\ndir = \""+filepath.ToSlash(dir)+"\"\n")

	out, err := runCLI(t, "--config", path, "cache", "path")
	if err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	if got := strings.TrimSpace(out); got != filepath.ToSlash(dir) && got != dir {
		t.Errorf("cache path = %q, want %q", got, dir)
	}
}

func TestCacheClearCommand(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := fc.Set(ctx, "graph:fra1", []byte(`{"nodes":[]}`), time.Hour); err != nil {
		t.Fatal(err)
	}

	path := writeConfig(t, "[cache]\ndir = \""+filepath.ToSlash(dir)+"\"\n")
	if _, err := runCLI(t, "--config", path, "cache", "clear"); err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	if _, ok, _ := fc.Get(ctx, "graph:fra1"); ok {
		t.Error("entry still cached after cache clear")
	}
}

func TestInvalidConfigFails(t *testing.T) {
	path := writeConfig(t, "[layout]\nstrategy = \"circular\"\n")
	if _, err := runCLI(t, "--config", path, "cache", "path"); err == nil {
		t.Error("expected an error for an invalid layout strategy")
	}
}

func TestKeyerScopesRedis(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		url     string
		prefix  string
	}{
		{"file", config.BackendFile, "https://netbox.lab", "http:"},
		{"redis without netbox", config.BackendRedis, "", "http:"},
		{"redis", config.BackendRedis, "https://netbox.lab:8443/", "netbox.lab:8443:http:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(io.Discard, log.InfoLevel)
			c.cfg = config.Default()
			c.cfg.Cache.Backend = tt.backend
			c.cfg.NetBox.URL = tt.url
			if got := c.keyer().HTTPKey("netbox", "/x"); !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("HTTPKey() = %q, want prefix %q", got, tt.prefix)
			}
		})
	}
}
