package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkroute/pkg/config"
	"github.com/matzehuels/linkroute/pkg/layout"
	"github.com/matzehuels/linkroute/pkg/pipeline"
	"github.com/matzehuels/linkroute/pkg/store"
	"github.com/matzehuels/linkroute/pkg/watch"
)

// routeOpts holds the command-line flags for the route command.
type routeOpts struct {
	output  string // result path, default <scenario>.result.json
	noCache bool
	refresh bool
	watch   bool   // re-route whenever the scenario changes
	save    string // snapshot name; empty means do not save
}

// routeCommand creates the route command.
func (c *CLI) routeCommand() *cobra.Command {
	var opts routeOpts

	cmd := &cobra.Command{
		Use:   "route <scenario>",
		Short: "Route a scenario and write the result",
		Long: `Route every link of a scenario (.json or .toml) and write the trees as a
result document. Unchanged scenarios are served from the cache.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			if opts.output == "" {
				opts.output = basePath(args[0]) + ".result.json"
			}
			if opts.watch {
				return c.watchRoute(cmd.Context(), cfg, args[0], opts)
			}
			return c.runRoute(cmd.Context(), cfg, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default <scenario>.result.json)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-route even if the result is cached")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-route whenever the scenario file changes")
	cmd.Flags().StringVar(&opts.save, "save", "", "save the result as a named snapshot")

	return cmd
}

func (c *CLI) runRoute(ctx context.Context, cfg *config.Config, path string, opts routeOpts) error {
	s, err := layout.ReadScenarioFile(path)
	if err != nil {
		return err
	}

	runner := c.newRunner(ctx, cfg, opts.noCache)
	defer runner.Close()

	popts := c.pipelineOptions(cfg)
	popts.Refresh = opts.refresh

	prog := newProgress(c.Logger)
	out, err := runner.Execute(ctx, s, popts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Routed %d links from %d sources", out.Stats.Links, out.Stats.Sources))

	if err := layout.WriteResultFile(out.Result, opts.output); err != nil {
		return err
	}

	printSuccess("Routed %s", path)
	printStats(out.Stats, out.CacheHit)
	printFile(opts.output)
	for _, w := range out.Result.Warnings {
		printWarning("%s", w)
	}

	if opts.save != "" {
		if err := c.saveSnapshot(ctx, cfg, opts.save, out); err != nil {
			return err
		}
	}
	return nil
}

// watchRoute re-runs the route command whenever the scenario changes. Route
// errors are reported and watching continues.
func (c *CLI) watchRoute(ctx context.Context, cfg *config.Config, path string, opts routeOpts) error {
	w, err := watch.New(c.Logger, path)
	if err != nil {
		return err
	}
	printInfo("Watching %s (ctrl+c to stop)", path)
	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		if changed != nil {
			c.Logger.Debug("scenario changed", "files", changed)
		}
		if err := c.runRoute(ctx, cfg, path, opts); err != nil {
			printError("%v", err)
		}
		return nil
	})
}

func (c *CLI) saveSnapshot(ctx context.Context, cfg *config.Config, name string, out *pipeline.Output) error {
	st, err := c.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	snap := store.NewSnapshot(name, out.ScenarioHash, out.Result)
	if err := st.Save(ctx, snap); err != nil {
		return err
	}
	printSuccess("Saved snapshot %s", StyleHighlight.Render(snap.ID))
	return nil
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
