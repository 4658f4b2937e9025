package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/linkroute/pkg/layout"
	"github.com/matzehuels/linkroute/pkg/store"
)

// snapshotsCommand creates the snapshot management command.
func (c *CLI) snapshotsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshots",
		Aliases: []string{"snap"},
		Short:   "Manage saved routing results",
	}

	cmd.AddCommand(c.snapshotsListCommand())
	cmd.AddCommand(c.snapshotsShowCommand())
	cmd.AddCommand(c.snapshotsDeleteCommand())

	return cmd
}

// withStore opens the configured store for the duration of fn.
func (c *CLI) withStore(cmd *cobra.Command, fn func(ctx context.Context, st store.Store) error) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	st, err := c.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(ctx, st)
}

func (c *CLI) snapshotsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(ctx context.Context, st store.Store) error {
				sums, err := st.List(ctx)
				if err != nil {
					return err
				}
				if len(sums) == 0 {
					printInfo("No snapshots")
					return nil
				}
				fmt.Println(snapshotTable(sums).Render())
				return nil
			})
		},
	}
}

func (c *CLI) snapshotsShowCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Write the result of a snapshot",
		Args:  cobra.ExactArgs(1),

		ValidArgsFunction: c.completeSnapshotIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(ctx context.Context, st store.Store) error {
				snap, err := st.Load(ctx, args[0])
				if err != nil {
					return err
				}
				data, err := layout.MarshalResult(snap.Result)
				if err != nil {
					return err
				}
				if err := writeOutput(output, data); err != nil {
					return err
				}
				if output != "-" {
					printSuccess("Wrote snapshot %s", StyleHighlight.Render(snap.ID))
					printFile(output)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")

	return cmd
}

func (c *CLI) snapshotsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete snapshots",
		Args:    cobra.MinimumNArgs(1),

		ValidArgsFunction: c.completeSnapshotIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(ctx context.Context, st store.Store) error {
				for _, id := range args {
					if err := st.Delete(ctx, id); err != nil {
						return err
					}
					printSuccess("Deleted snapshot %s", id)
				}
				return nil
			})
		},
	}
}

func snapshotTable(sums []store.Summary) *table.Table {
	rows := make([][]string, len(sums))
	for i, s := range sums {
		rows[i] = []string{
			s.ID,
			s.Name,
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(s.Trees),
			strconv.Itoa(s.Segments),
			strconv.Itoa(s.Warnings),
		}
	}
	return newTable([]string{"ID", "Name", "Created", "Trees", "Segments", "Warnings"}, rows)
}
