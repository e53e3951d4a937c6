package commands

import (
	"github.com/skillportal/skillportal/internal/cli/client"
	"github.com/skillportal/skillportal/internal/cli/shell"
	"github.com/skillportal/skillportal/internal/session"
	"github.com/spf13/cobra"
)

// NewReportsCmd creates the reports command group
func NewReportsCmd(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Quiz reports (admin)",
	}

	var userID string
	performance := &cobra.Command{
		Use:   "performance",
		Short: "Every quiz attempt with its score",
		RunE: gated(g, session.RequireAdmin, func(cmd *cobra.Command, a *app, args []string) error {
			rows, err := a.api.UserPerformance(cmd.Context(), userID)
			if err != nil {
				return err
			}
			shell.RenderPerformance(cmd.OutOrStdout(), rows)
			return nil
		}),
	}
	performance.Flags().StringVar(&userID, "user", "", "Only attempts of this user id")

	gap := &cobra.Command{
		Use:   "skill-gap",
		Short: "Average score per skill",
		RunE: gated(g, session.RequireAdmin, func(cmd *cobra.Command, a *app, args []string) error {
			gaps, err := a.api.SkillGaps(cmd.Context())
			if err != nil {
				return err
			}
			shell.RenderSkillGap(cmd.OutOrStdout(), gaps)
			return nil
		}),
	}

	var periodName string
	timeBased := &cobra.Command{
		Use:   "time",
		Short: "Average score per week or month",
		RunE: gated(g, session.RequireAdmin, func(cmd *cobra.Command, a *app, args []string) error {
			period, err := client.ParsePeriod(periodName)
			if err != nil {
				return err
			}
			periods, err := a.api.TimeBased(cmd.Context(), period)
			if err != nil {
				return err
			}
			shell.RenderPeriods(cmd.OutOrStdout(), periods)
			return nil
		}),
	}
	timeBased.Flags().StringVar(&periodName, "period", string(client.PeriodWeek), "week or month")

	cmd.AddCommand(performance, gap, timeBased)
	return cmd
}
