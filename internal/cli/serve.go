package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/linkroute/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the routing HTTP API",
		Long: `Serve the routing HTTP API until interrupted.

Endpoints:
  GET    /healthz
  POST   /v1/route          route a JSON scenario (?refresh, ?save=<name>)
  POST   /v1/dot            draw a JSON result (?format=dot|svg, ?labels)
  GET    /v1/snapshots      list snapshots
  GET    /v1/snapshots/{id} fetch a snapshot
  DELETE /v1/snapshots/{id} delete a snapshot
  GET    /v1/events         server-sent events, one per routed pass`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}

			runner := c.newRunner(ctx, cfg, false)
			defer runner.Close()

			st, err := c.openStore(ctx, cfg)
			if err != nil {
				c.Logger.Warn("snapshot store unavailable, snapshot endpoints disabled", "err", err)
			} else {
				defer st.Close()
			}

			srv := server.New(runner, st, c.pipelineOptions(cfg), c.Logger)
			defer srv.Close()
			srv.MaxBodyBytes = cfg.Server.MaxBodyBytes

			printInfo("Listening on %s", StyleLink.Render(cfg.Server.Addr))
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")

	return cmd
}
