package commands

import (
	"fmt"
	"slices"

	"github.com/skillportal/skillportal/internal/cli/client"
	"github.com/skillportal/skillportal/internal/cli/shell"
	"github.com/skillportal/skillportal/internal/session"
	"github.com/spf13/cobra"
)

// NewQuestionsCmd creates the questions command group
func NewQuestionsCmd(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Manage quiz questions (admin)",
	}

	var page, limit int
	var skillID string
	ls := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List questions",
		RunE: gated(g, session.RequireAdmin, func(cmd *cobra.Command, a *app, args []string) error {
			if limit <= 0 {
				limit = a.project.Limit()
			}
			questions, err := a.api.ListQuestions(cmd.Context(), page, limit, skillID)
			if err != nil {
				return err
			}
			shell.RenderQuestions(cmd.OutOrStdout(), questions)
			return nil
		}),
	}
	ls.Flags().IntVar(&page, "page", 1, "Page number")
	ls.Flags().IntVar(&limit, "limit", 0, "Page size (defaults to page_size in portal.yaml)")
	ls.Flags().StringVar(&skillID, "skill", "", "Only questions of this skill id")

	var in client.QuestionInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a question",
		Example: `  $ portal questions add --skill 3 --question "2+2?" \
      --option 3 --option 4 --option 5 --option 22 --answer 4`,
		RunE: gated(g, session.RequireAdmin, func(cmd *cobra.Command, a *app, args []string) error {
			if err := validateQuestion(in); err != nil {
				return err
			}
			if err := a.api.CreateQuestion(cmd.Context(), in); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Added question")
			return nil
		}),
	}
	add.Flags().StringVar(&in.SkillID, "skill", "", "Skill id")
	add.Flags().StringVar(&in.Question, "question", "", "Question text")
	add.Flags().StringArrayVar(&in.Options, "option", nil, "Answer option (repeat 4 times)")
	add.Flags().StringVar(&in.CorrectAnswer, "answer", "", "The correct option")
	_ = add.MarkFlagRequired("skill")
	_ = add.MarkFlagRequired("question")
	_ = add.MarkFlagRequired("answer")

	var yes bool
	rm := &cobra.Command{
		Use:     "rm <question-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a question",
		Args:    cobra.ExactArgs(1),
		RunE: gated(g, session.RequireAdmin, func(cmd *cobra.Command, a *app, args []string) error {
			if !yes {
				ok, err := a.globals.prompt().Confirm("Delete this question?")
				if err != nil || !ok {
					return err
				}
			}
			if err := a.api.DeleteQuestion(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted question %s\n", args[0])
			return nil
		}),
	}
	rm.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	cmd.AddCommand(ls, add, rm)
	return cmd
}

func validateQuestion(in client.QuestionInput) error {
	if len(in.Options) != 4 {
		return fmt.Errorf("exactly 4 options are required, got %d", len(in.Options))
	}
	if !slices.Contains(in.Options, in.CorrectAnswer) {
		return fmt.Errorf("answer '%s' is not one of the options", in.CorrectAnswer)
	}
	return nil
}
