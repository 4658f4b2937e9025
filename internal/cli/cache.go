package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkroute/pkg/cache"
	"github.com/matzehuels/linkroute/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the routing result cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// fileCache opens the file cache the config points at. Other backends are
// managed with their own tools.
func (c *CLI) fileCache(cmd *cobra.Command) (*cache.FileCache, error) {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Backend != config.BackendFile {
		return nil, fmt.Errorf("cache backend is %q; only the file cache is managed here", cfg.Cache.Backend)
	}
	ch, err := cfg.Cache.OpenCache(cmd.Context())
	if err != nil {
		return nil, err
	}
	return ch.(*cache.FileCache), nil
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached results and renderings",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache(cmd)
			if err != nil {
				return err
			}
			count, err := fc.Clear()
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fc.Dir())
			return nil
		},
	}
}
