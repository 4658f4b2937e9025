package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkroute/pkg/pipeline"
	"github.com/matzehuels/linkroute/pkg/render"
)

// dotOpts holds the command-line flags for the dot command.
type dotOpts struct {
	output  string
	format  string
	labels  bool // label segment edges with their ids
	noCache bool
}

// dotCommand creates the dot command.
func (c *CLI) dotCommand() *cobra.Command {
	opts := dotOpts{format: render.FormatDOT}

	cmd := &cobra.Command{
		Use:   "dot <scenario|result.json>",
		Short: "Draw routed trees as Graphviz DOT, SVG, PNG or PDF",
		Long: `Draw the trees of a pass. The input is either a scenario, which is routed
first, or a result file written by "linkroute route".

PNG and PDF need rsvg-convert on the PATH.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.format = strings.ToLower(opts.format)
			if err := render.ValidateFormat(opts.format); err != nil {
				return err
			}
			if opts.output == "" {
				opts.output = basePath(args[0]) + "." + opts.format
			}
			return c.runDOT(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, - for stdout (default <input>.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: dot, svg, png, pdf")
	cmd.Flags().BoolVar(&opts.labels, "labels", false, "label segments with their ids")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runDOT(cmd *cobra.Command, input string, opts dotOpts) error {
	ctx := cmd.Context()
	out, err := c.loadOutput(ctx, cmd, input, opts.noCache)
	if err != nil {
		return err
	}

	data, cached, err := c.render(ctx, cmd, out, opts)
	if err != nil {
		return err
	}
	if err := writeOutput(opts.output, data); err != nil {
		return err
	}
	if opts.output != "-" {
		printSuccess("Drew %d trees as %s", len(out.Trees), opts.format)
		printStats(out.Stats, cached)
		printFile(opts.output)
	}
	return nil
}

// render draws out through a runner so repeated drawings hit the cache.
func (c *CLI) render(ctx context.Context, cmd *cobra.Command, out *pipeline.Output, opts dotOpts) ([]byte, bool, error) {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return nil, false, err
	}
	runner := c.newRunner(ctx, cfg, opts.noCache)
	defer runner.Close()

	var spinner *Spinner
	if opts.format != render.FormatDOT {
		spinner = newSpinnerWithContext(ctx, "Rendering "+opts.format+"...")
		spinner.Start()
		defer spinner.Stop()
	}
	return runner.Render(ctx, out, opts.format, pipeline.Options{SegmentLabels: opts.labels})
}
