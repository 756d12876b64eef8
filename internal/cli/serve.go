package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kabelplan/pkg/observability"
	"github.com/matzehuels/kabelplan/pkg/server"
)

// serveCommand creates the serve command, which runs the HTTP server until
// interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var metrics bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve diagrams and interactive sessions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings()
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("metrics") {
				cfg.Server.Metrics = metrics
			}
			return c.runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :5000)")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "expose Prometheus metrics at /metrics")

	return cmd
}

func (c *CLI) runServe(ctx context.Context) error {
	cfg := c.settings()

	var prom *observability.Prometheus
	if cfg.Server.Metrics {
		prom = observability.NewPrometheus()
		observability.SetPipelineHooks(prom)
		observability.SetCacheHooks(prom)
		observability.SetHTTPHooks(prom)
		defer observability.Reset()
	}

	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return err
	}
	defer runner.Close()
	if runner.NetBox == nil {
		printWarning("No NetBox configured; diagram endpoints fail until netbox.url is set")
	}

	srv, err := server.New(server.Options{
		Runner:   runner,
		Defaults: c.baseOptions(),
		Metrics:  prom,
		Logger:   c.Logger,
	})
	if err != nil {
		return err
	}

	printSuccess("Serving on %s", cfg.Server.Addr)
	if runner.NetBox != nil {
		printKeyValue("NetBox", runner.NetBox.BaseURL())
	}
	printKeyValue("Cache", cacheLocation(cfg))
	if prom != nil {
		printKeyValue("Metrics", "/metrics")
	}
	return srv.Run(ctx, cfg.Server.Addr)
}
