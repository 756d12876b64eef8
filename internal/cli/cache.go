package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kabelplan/pkg/cache"
	"github.com/matzehuels/kabelplan/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the NetBox response and diagram cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand. It clears
// whichever backend the configuration selects.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached responses and diagrams",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings()
			if cfg.Cache.Backend == config.BackendNone {
				printInfo("Caching is disabled")
				return nil
			}

			backend, err := c.newCache(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer backend.Close()

			if err := cache.Clear(cmd.Context(), backend); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Cache cleared")
			printDetail("%s", cacheLocation(cfg))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), cacheLocation(c.settings()))
			return nil
		},
	}
}

// cacheLocation describes the configured backend: a directory for the file
// cache, a redis URL otherwise.
func cacheLocation(cfg *config.Config) string {
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		return "redis://" + cfg.Cache.RedisAddr
	case config.BackendNone:
		return "none"
	}
	dir, err := cfg.CacheDir()
	if err != nil {
		return "unknown"
	}
	return dir
}
