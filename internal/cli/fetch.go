package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kabelplan/pkg/netbox"
	"github.com/matzehuels/kabelplan/pkg/topology"
)

// fetchOpts holds the flags of the fetch command.
type fetchOpts struct {
	site     string
	location string
	rack     string
	output   string
	refresh  bool
}

// fetchCommand creates the fetch command, which dumps the graph data of a
// NetBox selection in the topology file format accepted by render.
func (c *CLI) fetchCommand() *cobra.Command {
	var opts fetchOpts

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch graph data for a site from NetBox",
		Example: `  kabelplan fetch --site fra1 -o fra1.json
  kabelplan fetch --site fra1 --rack 12 | jq '.nodes | length'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFetch(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.site, "site", "", "site slug (required)")
	cmd.Flags().StringVar(&opts.location, "location", "", "location id")
	cmd.Flags().StringVar(&opts.rack, "rack", "", "rack id")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached NetBox responses")
	_ = cmd.MarkFlagRequired("site")

	return cmd
}

func (c *CLI) runFetch(ctx context.Context, stdout io.Writer, fo fetchOpts) error {
	opts := c.baseOptions()
	opts.Site, opts.Location, opts.Rack, opts.Refresh = fo.site, fo.location, fo.rack, fo.refresh
	if err := opts.ValidateForLoad(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return err
	}
	defer runner.Close()
	if err := c.requireNetBox(runner); err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	data, hit, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	prog.done("fetched", "site", fo.site, "devices", len(data.Nodes), "links", len(data.Links), "cached", hit)

	var buf bytes.Buffer
	if err := topology.Encode(&buf, data); err != nil {
		return err
	}
	if fo.output == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(fo.output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fo.output, err)
	}
	printSuccess("Fetched %d devices and %d cables from %s", len(data.Nodes), len(data.Links), fo.site)
	printFile(fo.output)
	printNextStep("Render it", "kabelplan render "+fo.output+" --site "+fo.site)
	return nil
}

// sitesCommand lists the filter options offered by NetBox.
func (c *CLI) sitesCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List NetBox sites with their locations and racks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer runner.Close()
			if err := c.requireNetBox(runner); err != nil {
				return err
			}

			spin := startSpinner(cmd.Context(), "Loading sites...")
			opts, err := runner.NetBox.FilterOptions(cmd.Context(), refresh)
			spin.stop()
			if err != nil {
				return err
			}
			if len(opts.Sites) == 0 {
				printInfo("NetBox has no sites")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Site", "Name", "Locations", "Racks"}, siteRows(opts)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass cached NetBox responses")
	return cmd
}

// siteRows builds one table row per site with the names of its locations
// and racks.
func siteRows(opts *netbox.FilterOptions) [][]string {
	rows := make([][]string, 0, len(opts.Sites))
	for _, s := range opts.Sites {
		var locs, racks []string
		for _, l := range opts.Locations {
			if l.Site != nil && l.Site.ID == s.ID {
				locs = append(locs, l.Name+" #"+strconv.Itoa(l.ID))
			}
		}
		for _, r := range opts.Racks {
			if r.Site != nil && r.Site.ID == s.ID {
				racks = append(racks, r.Name+" #"+strconv.Itoa(r.ID))
			}
		}
		rows = append(rows, []string{s.Slug, s.Name, joinOrDash(locs), joinOrDash(racks)})
	}
	return rows
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
