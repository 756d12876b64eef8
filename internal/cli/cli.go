package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kabelplan/pkg/buildinfo"
	"github.com/matzehuels/kabelplan/pkg/cache"
	"github.com/matzehuels/kabelplan/pkg/config"
	kerrors "github.com/matzehuels/kabelplan/pkg/errors"
	"github.com/matzehuels/kabelplan/pkg/httputil"
	"github.com/matzehuels/kabelplan/pkg/netbox"
	"github.com/matzehuels/kabelplan/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display and completion scripts.
const appName = "kabelplan"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The configuration is loaded once before any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Kabelplan draws cable plans from NetBox",
		Long: `Kabelplan lays out network devices, routes the cables between their ports and
renders the result as SVG, PNG or PDF. Topologies come from JSON or YAML files or
straight from NetBox.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			if cfg.Path != "" {
				c.Logger.Debug("loaded config", "path", cfg.Path)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/kabelplan/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.sitesCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// settings returns the loaded configuration, or the defaults when a command
// runs without the root pre-run (as in tests).
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner from the configuration. The NetBox
// client is only attached when a URL is configured.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg := c.settings()
	backend, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}

	keyer := c.keyer()
	var nb *netbox.Client
	if cfg.NetBox.URL != "" {
		nb, err = c.newNetBox(backend, keyer)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	runner := pipeline.NewRunner(backend, keyer, nb, loggerFromContext(ctx))
	if cfg.NetBox.CacheTTL > 0 {
		runner.GraphTTL = cfg.NetBox.CacheTTL
	}
	if cfg.Cache.TTL > 0 {
		runner.ArtifactTTL = cfg.Cache.TTL
	}
	return runner, nil
}

// newCache opens the configured cache backend, wrapped so cache traffic
// reaches the observability hooks.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.settings()
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{Addr: cfg.Cache.RedisAddr})
		if err != nil {
			return nil, err
		}
		return cache.Instrument(rc), nil
	default:
		dir, err := cfg.CacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return cache.Instrument(fc), nil
	}
}

// keyer scopes cache keys by NetBox host when they land in Redis, which
// may be shared with other kabelplan instances.
func (c *CLI) keyer() cache.Keyer {
	cfg := c.settings()
	if cfg.Cache.Backend != config.BackendRedis || cfg.NetBox.URL == "" {
		return cache.NewDefaultKeyer()
	}
	host := cfg.NetBox.URL
	if u, err := url.Parse(cfg.NetBox.URL); err == nil && u.Host != "" {
		host = u.Host
	}
	return cache.NewScopedKeyer(nil, host+":")
}

// newNetBox builds the NetBox client from the [netbox] section.
func (c *CLI) newNetBox(backend cache.Cache, keyer cache.Keyer) (*netbox.Client, error) {
	nbc := c.settings().NetBox
	return netbox.NewClient(nbc.URL, nbc.Token, backend, nbc.CacheTTL,
		netbox.WithLogger(c.Logger),
		netbox.WithKeyer(keyer),
		netbox.WithPageSize(nbc.PageSize),
		netbox.WithChunkSize(nbc.ChunkSize),
		netbox.WithHTTPClient(httputil.NewHTTPClient(nbc.Timeout)),
	)
}

// requireNetBox fails with UNSUPPORTED when no NetBox URL is configured.
func (c *CLI) requireNetBox(r *pipeline.Runner) error {
	if r.NetBox == nil {
		return kerrors.New(kerrors.ErrCodeUnsupported,
			"no NetBox configured: set %s or netbox.url in the config file", config.EnvNetBoxURL)
	}
	return nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// baseOptions returns pipeline options carrying the configured strategies,
// tuning and canvas size.
func (c *CLI) baseOptions() pipeline.Options {
	cfg := c.settings()
	return pipeline.Options{
		Layout:          cfg.Layout.Strategy,
		Router:          cfg.Route.Strategy,
		Width:           cfg.Viewport.Width,
		Height:          cfg.Viewport.Height,
		LayoutOptions:   cfg.LayoutOptions(),
		RouteOptions:    cfg.RouteOptions(),
		ViewportOptions: cfg.ViewportOptions(),
		Logger:          c.Logger,
	}
}

// parseFormats parses a comma-separated format list, defaulting to SVG.
func parseFormats(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return []string{pipeline.DefaultFormat}, nil
	}
	return kerrors.ValidateFormats(s)
}

// describe renders err for the terminal, preferring the coded message.
func describe(err error) string {
	if code := kerrors.GetCode(err); code != "" {
		return fmt.Sprintf("%s (%s)", kerrors.UserMessage(err), code)
	}
	return err.Error()
}
