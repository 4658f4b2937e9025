package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/linkroute/pkg/linktree"
	"github.com/matzehuels/linkroute/pkg/pipeline"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		plain    bool
		snapshot string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [scenario|result.json]",
		Short: "Browse the trees of a routed pass",
		Long: `Browse the trees of a pass interactively. The input is a scenario (routed
first), a result file, or --snapshot <id> for a saved snapshot.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trees, err := c.inspectTrees(cmd, args, snapshot, noCache)
			if err != nil {
				return err
			}
			if plain {
				printTrees(trees)
				return nil
			}
			_, err = tea.NewProgram(NewTreeBrowserModel(trees), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print tables instead of the interactive browser")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "inspect a saved snapshot by id")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) inspectTrees(cmd *cobra.Command, args []string, snapshot string, noCache bool) ([]*linktree.Tree, error) {
	ctx := cmd.Context()
	switch {
	case snapshot != "" && len(args) > 0:
		return nil, fmt.Errorf("give either a file or --snapshot, not both")
	case snapshot != "":
		cfg, err := c.loadConfig(cmd)
		if err != nil {
			return nil, err
		}
		st, err := c.openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		snap, err := st.Load(ctx, snapshot)
		if err != nil {
			return nil, err
		}
		return pipeline.Trees(snap.Result)
	case len(args) == 1:
		out, err := c.loadOutput(ctx, cmd, args[0], noCache)
		if err != nil {
			return nil, err
		}
		return out.Trees, nil
	}
	return nil, fmt.Errorf("nothing to inspect: give a file or --snapshot")
}

// printTrees writes the tree summary and every tree's segments and drops.
func printTrees(trees []*linktree.Tree) {
	fmt.Println(treeTable(trees).Render())
	for _, t := range trees {
		printNewline()
		fmt.Println(StyleTitle.Render(t.Source) + " " + StyleDim.Render(t.Shape().String()))
		if !t.IsDirect() {
			fmt.Println(segmentTable(t).Render())
		}
		fmt.Println(dropTable(t).Render())
	}
}
