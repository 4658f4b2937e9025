package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/linkroute/pkg/config"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for linkroute.

Bash:
  $ source <(linkroute completion bash)

Zsh:
  $ linkroute completion zsh > "${fpath[1]}/_linkroute"

Fish:
  $ linkroute completion fish > ~/.config/fish/completions/linkroute.fish

PowerShell:
  PS> linkroute completion powershell | Out-String | Invoke-Expression

Snapshot ids complete from the configured store.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// completeSnapshotIDs offers the ids of saved snapshots, annotated with
// their names.
func (c *CLI) completeSnapshotIDs(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
	cfg, err := config.Load(c.configPath, cmd.Flags())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	st, err := cfg.Store.OpenStore(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer st.Close()

	sums, err := st.List(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []cobra.Completion
	for _, s := range sums {
		out = append(out, cobra.CompletionWithDesc(s.ID, s.Name))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
