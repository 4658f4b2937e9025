package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/linkroute/pkg/buildinfo"
	"github.com/matzehuels/linkroute/pkg/cache"
	"github.com/matzehuels/linkroute/pkg/config"
	"github.com/matzehuels/linkroute/pkg/layout"
	"github.com/matzehuels/linkroute/pkg/pipeline"
	"github.com/matzehuels/linkroute/pkg/route"
	"github.com/matzehuels/linkroute/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "linkroute"

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

	// configPath is the --config flag.
	configPath string
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
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Linkroute routes orthogonal links across a placement grid",
		Long:          `Linkroute routes every link of a scenario as a tree of axis-aligned segments per source node, sharing trunks between links that leave the same node.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	pf.String("axis", "", "routing axis fallback: vertical, horizontal")
	pf.Float64("slot-unit", 0, "channel slot spacing fallback in pixels")
	pf.Float64("match-tolerance", route.DefaultMatchTolerance, "split point match tolerance fallback in pixels, 0 for exact matches")
	pf.String("cache", "", "cache backend: file, redis, none")
	pf.String("cache-dir", "", "file cache directory")
	pf.String("redis-addr", "", "redis address for the redis cache")
	pf.String("store", "", "snapshot store backend: file, mongo")
	pf.String("store-dir", "", "file snapshot directory")
	pf.String("mongo-uri", "", "mongodb uri for the mongo store")

	root.AddCommand(c.routeCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.gridCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.snapshotsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Factories
// =============================================================================

// loadConfig reads the config file, environment and the flags of cmd.
func (c *CLI) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(c.configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("config loaded", "cache", cfg.Cache.Backend, "store", cfg.Store.Backend, "axis", cfg.Axis)
	return cfg, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) *pipeline.Runner {
	cc := cfg.Cache
	if noCache {
		cc.Backend = config.BackendNone
	}
	ch, err := cc.OpenCache(ctx)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "backend", cc.Backend, "err", err)
		ch = cache.NewNullCache()
	}
	r := pipeline.NewRunner(ch, cc.Keyer(), c.Logger)
	r.TTL = cc.TTL
	return r
}

// openStore opens the configured snapshot store.
func (c *CLI) openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	st, err := cfg.Store.OpenStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	return st, nil
}

// pipelineOptions returns the config's router fallbacks with the CLI logger.
func (c *CLI) pipelineOptions(cfg *config.Config) pipeline.Options {
	opts := cfg.PipelineOptions()
	opts.Logger = c.Logger
	return opts
}

// =============================================================================
// Inputs
// =============================================================================

// loadOutput returns the routed pass behind path. A .json file holding trees
// is read as a saved result; anything else is read as a scenario and routed.
func (c *CLI) loadOutput(ctx context.Context, cmd *cobra.Command, path string, noCache bool) (*pipeline.Output, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if res, err := layout.ReadResultFile(path); err == nil && len(res.Trees) > 0 {
			trees, err := pipeline.Trees(res)
			if err != nil {
				return nil, err
			}
			c.Logger.Debug("loaded result", "path", path, "trees", len(trees))
			return &pipeline.Output{Result: res, Trees: trees}, nil
		}
	}

	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	s, err := layout.ReadScenarioFile(path)
	if err != nil {
		return nil, err
	}
	runner := c.newRunner(ctx, cfg, noCache)
	defer runner.Close()
	return runner.Execute(ctx, s, c.pipelineOptions(cfg))
}

// basePath strips the extension from path.
func basePath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
