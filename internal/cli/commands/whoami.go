package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who the server thinks you are",
		RunE: withApp(g, func(cmd *cobra.Command, a *app, args []string) error {
			out := cmd.OutOrStdout()
			sess := a.store.Refresh(cmd.Context())
			if !sess.Authenticated {
				fmt.Fprintf(out, "Not logged in to %s\n", a.server.Label())
				return nil
			}

			fmt.Fprintf(out, "Server: %s\n", a.server.Label())
			if sess.User.Name != "" {
				fmt.Fprintf(out, "Name:   %s\n", sess.User.Name)
			}
			fmt.Fprintf(out, "Email:  %s\n", sess.User.Email)
			fmt.Fprintf(out, "Role:   %s\n", sess.Role())
			return nil
		}),
	}
}
