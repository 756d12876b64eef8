// Package config loads the kabelplan TOML configuration.
//
// The file is looked up in this order, and the first candidate that is set
// wins:
//
//  1. the --config flag
//  2. $KABELPLAN_CONFIG
//  3. $XDG_CONFIG_HOME/kabelplan/config.toml
//  4. ~/.config/kabelplan/config.toml
//
// A missing file at one of the implicit locations yields the defaults; a
// missing file named explicitly is an error. NETBOX_URL, NETBOX_TOKEN and
// KABELPLAN_REDIS_ADDR override the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/kabelplan/pkg/cache"
	kerrors "github.com/matzehuels/kabelplan/pkg/errors"
	"github.com/matzehuels/kabelplan/pkg/layout"
	"github.com/matzehuels/kabelplan/pkg/route"
	"github.com/matzehuels/kabelplan/pkg/viewport"
)

// Environment variables read by [Load].
const (
	EnvConfig    = "KABELPLAN_CONFIG"
	EnvNetBoxURL = "NETBOX_URL"
	EnvToken     = "NETBOX_TOKEN"
	EnvRedisAddr = "KABELPLAN_REDIS_ADDR"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Config is the complete configuration.
type Config struct {
	NetBox   NetBox   `toml:"netbox"`
	Layout   Layout   `toml:"layout"`
	Route    Route    `toml:"route"`
	Viewport Viewport `toml:"viewport"`
	Cache    Cache    `toml:"cache"`
	Server   Server   `toml:"server"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// NetBox configures the upstream API.
type NetBox struct {
	URL       string        `toml:"url" validate:"omitempty,url"`
	Token     string        `toml:"token"`
	Timeout   time.Duration `toml:"timeout" validate:"gte=0s"`
	PageSize  int           `toml:"page_size" validate:"gt=0,max=10000"`
	ChunkSize int           `toml:"chunk_size" validate:"gt=0,max=500"`
	CacheTTL  time.Duration `toml:"cache_ttl" validate:"gte=0s"`
}

// Layout configures device placement.
type Layout struct {
	Strategy   string  `toml:"strategy" validate:"omitempty,oneof=layered force dot"`
	RankSep    float64 `toml:"rank_sep" validate:"gt=0"`
	NodeSep    float64 `toml:"node_sep" validate:"gt=0"`
	Margin     float64 `toml:"margin" validate:"gte=0"`
	Seed       uint64  `toml:"seed"`
	Iterations int     `toml:"iterations" validate:"gte=0"`
}

// Route configures cable routing.
type Route struct {
	Strategy      string  `toml:"strategy" validate:"omitempty,oneof=manhattan orthogonal"`
	Step          float64 `toml:"step" validate:"gt=0"`
	Padding       float64 `toml:"padding" validate:"gte=0"`
	MaxIterations int     `toml:"max_iterations" validate:"gt=0"`
	BendPenalty   float64 `toml:"bend_penalty" validate:"gte=0"`
	Radius        float64 `toml:"radius" validate:"gte=0"`
}

// Viewport configures zoom bounds and the canvas used for fitting.
type Viewport struct {
	MinScale   float64 `toml:"min_scale" validate:"gt=0"`
	MaxScale   float64 `toml:"max_scale" validate:"gtefield=MinScale"`
	WheelStep  float64 `toml:"wheel_step" validate:"gt=0,lt=1"`
	FitPadding float64 `toml:"fit_padding" validate:"gte=0"`
	Width      int     `toml:"width" validate:"gt=0"`
	Height     int     `toml:"height" validate:"gt=0"`
}

// Cache configures where fetched data and rendered artifacts are kept.
type Cache struct {
	Backend   string        `toml:"backend" validate:"oneof=file redis none"`
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr" validate:"required_if=Backend redis,omitempty,hostname_port"`
	TTL       time.Duration `toml:"ttl" validate:"gte=0s"`
}

// Server configures the HTTP server.
type Server struct {
	Addr    string `toml:"addr" validate:"required"`
	Metrics bool   `toml:"metrics"`
}

// Default returns the built-in configuration.
func Default() *Config {
	lo, ro, vo := layout.DefaultOptions(), route.DefaultOptions(), viewport.DefaultOptions()
	return &Config{
		NetBox: NetBox{
			Timeout:   30 * time.Second,
			PageSize:  1000,
			ChunkSize: 50,
			CacheTTL:  5 * time.Minute,
		},
		Layout: Layout{
			Strategy:   layout.StrategyLayered,
			RankSep:    lo.RankSep,
			NodeSep:    lo.NodeSep,
			Margin:     lo.Margin,
			Seed:       lo.Seed,
			Iterations: lo.Iterations,
		},
		Route: Route{
			Strategy:      route.StrategyManhattan,
			Step:          ro.Step,
			Padding:       ro.Padding,
			MaxIterations: ro.MaxIterations,
			BendPenalty:   ro.BendPenalty,
			Radius:        ro.Radius,
		},
		Viewport: Viewport{
			MinScale:   vo.MinScale,
			MaxScale:   vo.MaxScale,
			WheelStep:  vo.WheelStep,
			FitPadding: vo.FitPadding,
			Width:      1200,
			Height:     800,
		},
		Cache: Cache{
			Backend: BackendFile,
			TTL:     time.Hour,
		},
		Server: Server{Addr: ":5000"},
	}
}

// Path resolves the configuration file. The bool result reports whether
// the path was named explicitly by flag or environment.
func Path(explicit string) (string, bool) {
	if explicit != "" {
		return explicit, true
	}
	if p := os.Getenv(EnvConfig); p != "" {
		return p, true
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "kabelplan", "config.toml"), false
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(home, ".config", "kabelplan", "config.toml"), false
}

// Load reads the configuration named by explicit (see [Path]), applies
// environment overrides and validates the result.
func Load(explicit string) (*Config, error) {
	cfg := Default()
	path, named := Path(explicit)
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) || named {
				return nil, err
			}
		} else {
			cfg.Path = path
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults and validates it. Environment
// overrides are not applied.
func Parse(text string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "config: %v", err)
	}
	if err := undecoded(md); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if err != nil {
		return kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "config %s: %v", path, err)
	}
	return undecoded(md)
}

func undecoded(md toml.MetaData) error {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	sort.Strings(names)
	return kerrors.New(kerrors.ErrCodeInvalidInput, "config: unknown keys %s", strings.Join(names, ", "))
}

// ApplyEnv overrides fields from the environment. Setting
// KABELPLAN_REDIS_ADDR also selects the redis backend.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvNetBoxURL); ok && v != "" {
		c.NetBox.URL = v
	}
	if v, ok := lookup(EnvToken); ok && v != "" {
		c.NetBox.Token = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Cache.RedisAddr = v
		c.Cache.Backend = BackendRedis
	}
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors to a user-facing coded
// error naming the first offending field.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "config: %v", err)
	}
	e := verrs[0]
	field := strings.TrimPrefix(e.Namespace(), "Config.")

	var msg string
	switch e.Tag() {
	case "required", "required_if":
		msg = "is required"
	case "gt":
		msg = "must be greater than " + e.Param()
	case "gte":
		msg = "must be at least " + strings.TrimSuffix(e.Param(), "s")
	case "lt":
		msg = "must be less than " + e.Param()
	case "max":
		msg = "must not exceed " + e.Param()
	case "gtefield":
		msg = "must not be smaller than min_scale"
	case "oneof":
		msg = "must be one of " + strings.ReplaceAll(e.Param(), " ", ", ")
	case "url":
		msg = "must be a URL"
	case "hostname_port":
		msg = "must be host:port"
	default:
		msg = "is invalid (" + e.Tag() + ")"
	}
	return kerrors.New(kerrors.ErrCodeInvalidInput, "config: %s %s", field, msg)
}

// LayoutOptions returns the layout settings.
func (c *Config) LayoutOptions() layout.Options {
	lo := layout.DefaultOptions()
	lo.RankSep = c.Layout.RankSep
	lo.NodeSep = c.Layout.NodeSep
	lo.Margin = c.Layout.Margin
	lo.Seed = c.Layout.Seed
	lo.Iterations = c.Layout.Iterations
	return lo
}

// RouteOptions returns the routing settings.
func (c *Config) RouteOptions() route.Options {
	return route.Options{
		Step:          c.Route.Step,
		Padding:       c.Route.Padding,
		BendPenalty:   c.Route.BendPenalty,
		MaxIterations: c.Route.MaxIterations,
		Radius:        c.Route.Radius,
	}
}

// ViewportOptions returns the zoom settings.
func (c *Config) ViewportOptions() viewport.Options {
	return viewport.Options{
		MinScale:   c.Viewport.MinScale,
		MaxScale:   c.Viewport.MaxScale,
		WheelStep:  c.Viewport.WheelStep,
		FitPadding: c.Viewport.FitPadding,
	}
}

// CacheDir returns the file cache directory, defaulting to the user cache
// directory.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return cache.DefaultDir()
}
