package commands

import (
	"github.com/skillportal/skillportal/internal/cli/shell"
	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(g *Globals) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the session on the selected server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes {
				g.prompter = shell.AssumeYes(g.prompt())
			}
			return withApp(g, func(cmd *cobra.Command, a *app, args []string) error {
				// Load the session first so the clear is observable
				a.store.Refresh(cmd.Context())
				_, err := a.shell.Logout(cmd.Context())
				return err
			})(cmd, args)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}
