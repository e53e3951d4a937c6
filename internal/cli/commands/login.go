package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewLoginCmd creates the login command
func NewLoginCmd(g *Globals) *cobra.Command {
	var email, password, role string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a Skill Portal server",
		RunE: withApp(g, func(cmd *cobra.Command, a *app, args []string) error {
			return runLogin(cmd, a, email, password, role)
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set PORTAL_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set PORTAL_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&role, "role", "user", "Log in as user or admin")

	return cmd
}

func runLogin(cmd *cobra.Command, a *app, email, password, roleName string) error {
	// Environment variables are useful for CI/CD
	if email == "" {
		email = os.Getenv("PORTAL_EMAIL")
	}
	if password == "" {
		password = os.Getenv("PORTAL_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or PORTAL_EMAIL env var)")
	}

	role, err := parseRoleFlag(roleName)
	if err != nil {
		return err
	}

	if password == "" {
		password, err = a.globals.prompt().Password("Password")
		if err != nil {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or PORTAL_PASSWORD env var): %w", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Logging in to %s...\n", a.server.Label())

	next, err := a.shell.Login(cmd.Context(), role, email, password)
	if err != nil {
		return err
	}
	sess := a.store.Session()
	if !sess.Authenticated {
		return fmt.Errorf("login failed")
	}

	if sess.User.Name != "" {
		fmt.Fprintf(out, "  User: %s (%s)\n", sess.User.Name, sess.User.Email)
	} else {
		fmt.Fprintf(out, "  User: %s\n", sess.User.Email)
	}
	fmt.Fprintf(out, "  Role: %s\n", sess.Role())
	fmt.Fprintf(out, "  Dashboard: run 'portal shell %s'\n", next.Path)

	return nil
}
