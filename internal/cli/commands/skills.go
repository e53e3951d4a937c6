package commands

import (
	"fmt"

	"github.com/skillportal/skillportal/internal/cli/shell"
	"github.com/skillportal/skillportal/internal/session"
	"github.com/spf13/cobra"
)

// NewSkillsCmd creates the skills command group
func NewSkillsCmd(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Manage quiz skills (admin)",
	}

	var page, limit int
	ls := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List skills",
		RunE: gated(g, session.RequireAdmin, func(cmd *cobra.Command, a *app, args []string) error {
			if limit <= 0 {
				limit = a.project.Limit()
			}
			skills, err := a.api.ListSkills(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			shell.RenderSkills(cmd.OutOrStdout(), skills)
			return nil
		}),
	}
	ls.Flags().IntVar(&page, "page", 1, "Page number")
	ls.Flags().IntVar(&limit, "limit", 0, "Page size (defaults to page_size in portal.yaml)")

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a skill",
		Args:  cobra.ExactArgs(1),
		RunE: gated(g, session.RequireAdmin, func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.api.CreateSkill(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added skill %s\n", args[0])
			return nil
		}),
	}

	rename := &cobra.Command{
		Use:   "rename <skill-id> <name>",
		Short: "Rename a skill",
		Args:  cobra.ExactArgs(2),
		RunE: gated(g, session.RequireAdmin, func(cmd *cobra.Command, a *app, args []string) error {
			if err := a.api.RenameSkill(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Renamed skill %s to %s\n", args[0], args[1])
			return nil
		}),
	}

	var yes bool
	rm := &cobra.Command{
		Use:     "rm <skill-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a skill",
		Args:    cobra.ExactArgs(1),
		RunE: gated(g, session.RequireAdmin, func(cmd *cobra.Command, a *app, args []string) error {
			if !yes {
				ok, err := a.globals.prompt().Confirm("Delete this skill?")
				if err != nil || !ok {
					return err
				}
			}
			if err := a.api.DeleteSkill(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted skill %s\n", args[0])
			return nil
		}),
	}
	rm.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	cmd.AddCommand(ls, add, rename, rm)
	return cmd
}
