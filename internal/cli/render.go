package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kabelplan/pkg/export"
	"github.com/matzehuels/kabelplan/pkg/layout"
	"github.com/matzehuels/kabelplan/pkg/pipeline"
	"github.com/matzehuels/kabelplan/pkg/route"
)

// renderOpts holds the command-line flags for the render command. Empty
// strategy names and zero sizes fall back to the configuration.
type renderOpts struct {
	output  string
	formats string
	layout  string
	router  string
	site    string
	width   int
	height  int
	noFit   bool
	strict  bool
	noCache bool
}

// renderCommand creates the render command. It draws a topology file and
// writes one file per requested format.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <file.json|file.yaml>",
		Short: "Render a topology file to SVG, PNG or PDF",
		Long: `Render lays out the devices of a topology file, routes its cables and writes
the diagram. The view is fitted to the canvas unless --no-fit is given.`,
		Example: `  kabelplan render lab.yaml
  kabelplan render lab.json -f svg,png --site fra1
  kabelplan render lab.json --layout dot --router orthogonal -o plan.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (several formats)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, pdf (comma-separated)")
	addStrategyFlags(cmd, &opts.layout, &opts.router)
	cmd.Flags().StringVar(&opts.site, "site", "", "site label used in the default file name")
	cmd.Flags().IntVar(&opts.width, "width", 0, "canvas width used for fitting")
	cmd.Flags().IntVar(&opts.height, "height", 0, "canvas height used for fitting")
	cmd.Flags().BoolVar(&opts.noFit, "no-fit", false, "keep the identity transform instead of fitting")
	cmd.Flags().BoolVar(&opts.strict, "strict-ports", false, "drop cables whose ports do not resolve")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the diagram cache")

	return cmd
}

// addStrategyFlags registers --layout and --router with completion of the
// strategy names.
func addStrategyFlags(cmd *cobra.Command, layoutName, routerName *string) {
	cmd.Flags().StringVar(layoutName, "layout", "", "layout strategy: "+strings.Join(layout.Strategies, ", "))
	cmd.Flags().StringVar(routerName, "router", "", "cable router: "+strings.Join(route.Strategies, ", "))
	_ = cmd.RegisterFlagCompletionFunc("layout", cobra.FixedCompletions(layout.Strategies, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("router", cobra.FixedCompletions(route.Strategies, cobra.ShellCompDirectiveNoFileComp))
}

func (c *CLI) runRender(ctx context.Context, file string, ro renderOpts) error {
	formats, err := parseFormats(ro.formats)
	if err != nil {
		return err
	}
	opts := c.renderPipelineOptions(file, ro)
	opts.Formats = formats
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, ro.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spin := startSpinner(ctx, fmt.Sprintf("Rendering %s...", filepath.Base(file)))
	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spin.fail(describe(err))
		return err
	}
	spin.stop()
	prog.done("rendered", "file", file, "formats", formats)

	paths := outputPaths(ro.output, ro.site, formats)
	for _, format := range formats {
		if err := os.WriteFile(paths[format], result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", paths[format], err)
		}
	}

	printSuccess("Rendered %s", filepath.Base(file))
	printStats(result.Stats, result.CacheInfo.RenderHit)
	for _, format := range formats {
		printFile(paths[format])
	}
	if result.Stats.Dropped > 0 {
		printWarning("%d link(s) referenced unknown devices and were dropped", result.Stats.Dropped)
	}
	return nil
}

// renderPipelineOptions merges the flags over the configured defaults.
func (c *CLI) renderPipelineOptions(file string, ro renderOpts) pipeline.Options {
	opts := c.baseOptions()
	opts.File = file
	opts.Site = ro.site
	opts.NoFit = ro.noFit
	opts.StrictPorts = ro.strict
	if ro.layout != "" {
		opts.Layout = ro.layout
	}
	if ro.router != "" {
		opts.Router = ro.router
	}
	if ro.width > 0 {
		opts.Width = ro.width
	}
	if ro.height > 0 {
		opts.Height = ro.height
	}
	return opts
}

// outputPaths maps each format to its file. Without -o files are named
// after the site; with a single format -o is used as given, otherwise its
// extension is replaced per format.
func outputPaths(output, site string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	for _, format := range formats {
		switch {
		case output == "":
			paths[format] = export.Filename(site, format)
		case len(formats) == 1:
			paths[format] = output
		default:
			base := strings.TrimSuffix(output, filepath.Ext(output))
			paths[format] = base + "." + format
		}
	}
	return paths
}
