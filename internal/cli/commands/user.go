package commands

import (
	"fmt"

	"github.com/skillportal/skillportal/internal/cli/shell"
	"github.com/skillportal/skillportal/internal/session"
	"github.com/spf13/cobra"
)

// NewDashboardCmd creates the dashboard command
func NewDashboardCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show your skills and quiz history",
		RunE: gated(g, session.RequireUser, func(cmd *cobra.Command, a *app, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			skills, err := a.api.DashboardSkills(ctx)
			if err != nil {
				return err
			}
			history, err := a.api.DashboardHistory(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "Skills")
			shell.RenderSkills(out, skills)
			fmt.Fprintln(out, "\nQuiz history")
			shell.RenderHistory(out, history)
			return nil
		}),
	}
}

// NewQuizCmd creates the quiz command
func NewQuizCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "quiz <skill-id>",
		Short: "Take the quiz for a skill",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(g, func(cmd *cobra.Command, a *app, args []string) error {
			next, err := a.shell.Navigate(cmd.Context(), shell.QuizTarget(args[0]))
			if err != nil {
				return err
			}
			if next.Path == session.LoginPath {
				return errNotLoggedIn
			}
			return nil
		}),
	}
}
