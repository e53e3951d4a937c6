package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/skillportal/skillportal/internal/cli/commands"
	"github.com/spf13/cobra"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the portal command tree
func NewRootCmd() *cobra.Command {
	globals := &commands.Globals{}

	rootCmd := &cobra.Command{
		Use:   "portal",
		Short: "Skill Portal - quizzes and skill reports from your terminal",
		Long: `Skill Portal CLI - take skill quizzes and manage the portal.

Users take quizzes and follow their history; admins manage users, skills and
questions and read the reports. Run 'portal shell' for the interactive portal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globals.ServerAlias, "server", "s", "", "Server alias from portal.yaml")
	rootCmd.PersistentFlags().StringVar(&globals.LogLevel, "log-level", "", "Log level: debug, info, warn, error (or set PORTAL_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&globals.MetricsTextfile, "metrics-textfile", "", "Write session metrics to this file in Prometheus text format")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "portal version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectServerCmd())
	rootCmd.AddCommand(commands.NewLoginCmd(globals))
	rootCmd.AddCommand(commands.NewLogoutCmd(globals))
	rootCmd.AddCommand(commands.NewWhoamiCmd(globals))
	rootCmd.AddCommand(commands.NewShellCmd(globals))
	rootCmd.AddCommand(commands.NewDashboardCmd(globals))
	rootCmd.AddCommand(commands.NewQuizCmd(globals))
	rootCmd.AddCommand(commands.NewUsersCmd(globals))
	rootCmd.AddCommand(commands.NewSkillsCmd(globals))
	rootCmd.AddCommand(commands.NewQuestionsCmd(globals))
	rootCmd.AddCommand(commands.NewReportsCmd(globals))

	return rootCmd
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
