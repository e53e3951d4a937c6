package commands

import (
	"fmt"

	"github.com/skillportal/skillportal/internal/cli/client"
	"github.com/skillportal/skillportal/internal/cli/shell"
	"github.com/skillportal/skillportal/internal/session"
	"github.com/spf13/cobra"
)

// NewUsersCmd creates the users command group
func NewUsersCmd(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage portal users (admin)",
	}

	cmd.AddCommand(newUsersListCmd(g))
	cmd.AddCommand(newUsersAddCmd(g))
	cmd.AddCommand(newUsersUpdateCmd(g))
	cmd.AddCommand(newUsersRemoveCmd(g))

	return cmd
}

func newUsersListCmd(g *Globals) *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List users",
		RunE: gated(g, session.RequireAdmin, func(cmd *cobra.Command, a *app, args []string) error {
			if limit <= 0 {
				limit = a.project.Limit()
			}
			accounts, err := a.api.ListAccounts(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			shell.RenderAccounts(cmd.OutOrStdout(), accounts)
			return nil
		}),
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "Page size (defaults to page_size in portal.yaml)")

	return cmd
}

func newUsersAddCmd(g *Globals) *cobra.Command {
	var acct client.NewAccount

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user",
		RunE: gated(g, session.RequireAdmin, func(cmd *cobra.Command, a *app, args []string) error {
			role, err := parseRoleFlag(acct.Role)
			if err != nil {
				return err
			}
			acct.Role = string(role)
			if acct.Password == "" {
				acct.Password, err = a.globals.prompt().Password("Password")
				if err != nil {
					return err
				}
			}
			if err := a.api.CreateAccount(cmd.Context(), acct); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added user %s\n", acct.Email)
			return nil
		}),
	}

	cmd.Flags().StringVar(&acct.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&acct.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&acct.Password, "password", "", "Password (will prompt if not provided)")
	cmd.Flags().StringVar(&acct.Role, "role", "user", "Role: user or admin")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newUsersUpdateCmd(g *Globals) *cobra.Command {
	var upd client.AccountUpdate

	cmd := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Edit a user's name, email and role",
		Args:  cobra.ExactArgs(1),
		RunE: gated(g, session.RequireAdmin, func(cmd *cobra.Command, a *app, args []string) error {
			role, err := parseRoleFlag(upd.Role)
			if err != nil {
				return err
			}
			upd.Role = string(role)
			if err := a.api.UpdateAccount(cmd.Context(), args[0], upd); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated user %s\n", args[0])
			return nil
		}),
	}

	cmd.Flags().StringVar(&upd.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&upd.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&upd.Role, "role", "user", "Role: user or admin")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newUsersRemoveCmd(g *Globals) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <user-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a user",
		Args:    cobra.ExactArgs(1),
		RunE: gated(g, session.RequireAdmin, func(cmd *cobra.Command, a *app, args []string) error {
			if !yes {
				ok, err := a.globals.prompt().Confirm("Delete this user?")
				if err != nil || !ok {
					return err
				}
			}
			if err := a.api.DeleteAccount(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted user %s\n", args[0])
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}
