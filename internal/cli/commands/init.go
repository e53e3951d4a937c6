package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skillportal/skillportal/internal/cli/config"
	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var alias string

	cmd := &cobra.Command{
		Use:   "init <server-url>",
		Short: "Add a Skill Portal server to ./portal.yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, args[0], alias)
		},
	}

	cmd.Flags().StringVar(&alias, "alias", "", "Name for the server (defaults to server-N)")

	return cmd
}

func runInit(cmd *cobra.Command, serverURL, alias string) error {
	out := cmd.OutOrStdout()
	serverURL = strings.TrimRight(serverURL, "/")

	candidate := config.Server{URL: serverURL}
	if err := candidate.Validate(); err != nil {
		return err
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Fprintf(out, "Found existing %s\n", config.ConfigFileName)
	} else {
		cfg = &config.Config{
			Servers: []config.Server{},
		}
		isNewConfig = true
	}

	for _, server := range cfg.Servers {
		if strings.TrimRight(server.URL, "/") == serverURL {
			fmt.Fprintf(out, "Server %s already exists in %s\n", serverURL, config.ConfigFileName)
			return nil
		}
	}

	if alias == "" {
		alias = fmt.Sprintf("server-%d", len(cfg.Servers)+1)
	}
	if _, err := cfg.GetServerByAlias(alias); err == nil {
		return fmt.Errorf("alias '%s' is already used in %s", alias, config.ConfigFileName)
	}

	cfg.Servers = append(cfg.Servers, config.Server{
		Alias: alias,
		URL:   serverURL,
	})

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	if isNewConfig {
		fmt.Fprintf(out, "✓ Created ./%s with server %s (%s)\n", config.ConfigFileName, serverURL, alias)
	} else {
		fmt.Fprintf(out, "✓ Added server %s (%s) to ./%s\n", serverURL, alias, config.ConfigFileName)
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Run 'portal shell' and choose Register if you have no account yet")
	fmt.Fprintln(out, "  2. Run 'portal login' to authenticate")

	return nil
}
