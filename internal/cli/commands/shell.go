package commands

import (
	"github.com/spf13/cobra"
)

// NewShellCmd creates the interactive shell command
func NewShellCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "shell [path]",
		Short: "Open the interactive portal",
		Long: `Open the interactive portal.

An optional path opens a screen directly, for example:
  $ portal shell /user/dashboard
  $ portal shell "/user/quiz?skill_id=3"`,
		Args: cobra.MaximumNArgs(1),
		RunE: withApp(g, func(cmd *cobra.Command, a *app, args []string) error {
			start := ""
			if len(args) > 0 {
				start = args[0]
			}
			return a.shell.Run(cmd.Context(), start)
		}),
	}
}
