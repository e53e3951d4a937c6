package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/skillportal/skillportal/internal/cli/auth"
	"github.com/skillportal/skillportal/internal/cli/client"
	"github.com/skillportal/skillportal/internal/cli/config"
	"github.com/skillportal/skillportal/internal/cli/serverselect"
	"github.com/skillportal/skillportal/internal/cli/shell"
	"github.com/skillportal/skillportal/internal/cli/userconfig"
	"github.com/skillportal/skillportal/internal/logger"
	"github.com/skillportal/skillportal/internal/session"
	"github.com/spf13/cobra"
)

var errNotLoggedIn = errors.New("not logged in with the required role. Run 'portal login' first")

// parseRoleFlag reads a --role value, forgiving case and surrounding spaces.
func parseRoleFlag(value string) (session.Role, error) {
	role, ok := session.ParseRole(strings.ToLower(strings.TrimSpace(value)))
	if !ok {
		return "", fmt.Errorf("invalid role '%s', must be one of: user, admin", value)
	}
	return role, nil
}

// Globals holds the persistent flags shared by every command
type Globals struct {
	ServerAlias     string
	LogLevel        string
	MetricsTextfile string

	// test seams
	cookies  auth.CookieStore
	prompter shell.Prompter
}

func (g *Globals) cookieStore() auth.CookieStore {
	if g.cookies != nil {
		return g.cookies
	}
	return auth.Default
}

func (g *Globals) prompt() shell.Prompter {
	if g.prompter != nil {
		return g.prompter
	}
	return shell.NewTerminalPrompter()
}

func (g *Globals) logLevel() string {
	if g.LogLevel != "" {
		return g.LogLevel
	}
	if level := os.Getenv("PORTAL_LOG_LEVEL"); level != "" {
		return level
	}
	return "warn"
}

// app is everything a command needs to talk to the selected server
type app struct {
	globals  *Globals
	project  *config.Config
	server   *config.Server
	api      *client.Client
	store    *session.Store
	guard    *session.Guard
	shell    *shell.Shell
	cookies  auth.CookieStore
	registry *prometheus.Registry
	logger   zerolog.Logger
}

// newApp loads the project config, resolves the server and restores the
// saved session cookies into a fresh client
func newApp(cmd *cobra.Command, g *Globals) (*app, error) {
	project, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'portal init' to create a configuration file", err)
	}

	server, err := serverselect.ResolveServer(project, g.ServerAlias)
	if err != nil {
		return nil, err
	}
	if err := server.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(cmd.ErrOrStderr(), g.logLevel(), "console").With().Str("server", server.Alias).Logger()

	api, err := client.New(server.URL)
	if err != nil {
		return nil, err
	}

	cookies := g.cookieStore()
	saved, err := cookies.LoadCookies(server.URL)
	switch {
	case err == nil:
		api.SetCookies(saved)
	case errors.Is(err, auth.ErrNotLoggedIn):
	default:
		log.Warn().Err(err).Msg("Failed to restore session cookies")
	}

	registry := prometheus.NewRegistry()
	metrics, err := session.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	resolver := session.NewHTTPResolver(server.URL, api.HTTPClient(),
		session.WithResolverLogger(log),
		session.WithResolverMetrics(metrics),
	)
	store := session.NewStore(resolver, session.WithStoreLogger(log))
	guard := session.NewGuard(resolver,
		session.WithGuardLogger(log),
		session.WithGuardMetrics(metrics),
	)

	var lastEmail string
	if userCfg, err := userconfig.Load(); err != nil {
		log.Debug().Err(err).Msg("Failed to load user config")
	} else {
		lastEmail = userCfg.LastEmail
	}

	sh := shell.New(api, store, guard,
		shell.WithPrompter(g.prompt()),
		shell.WithOutput(cmd.OutOrStdout()),
		shell.WithLogger(log),
		shell.WithCookieStore(cookies),
		shell.WithPageSize(project.Limit()),
		shell.WithLastEmail(lastEmail),
		shell.WithEmailRecorder(userconfig.SetLastEmail),
	)

	return &app{
		globals:  g,
		project:  project,
		server:   server,
		api:      api,
		store:    store,
		guard:    guard,
		shell:    sh,
		cookies:  cookies,
		registry: registry,
		logger:   log,
	}, nil
}

// require runs the route guard for a command
func (a *app) require(ctx context.Context, req session.Requirement) error {
	if a.guard.Check(ctx, req) != session.Allowed {
		return errNotLoggedIn
	}
	return nil
}

func (a *app) close() {
	if a.globals.MetricsTextfile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(a.globals.MetricsTextfile, a.registry); err != nil {
		a.logger.Warn().Err(err).Str("path", a.globals.MetricsTextfile).Msg("Failed to write metrics")
	}
}

type runFunc func(cmd *cobra.Command, a *app, args []string) error

// withApp builds the app before running fn
func withApp(g *Globals, fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, g)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(cmd, a, args)
	}
}

// gated is withApp plus a guard check for req
func gated(g *Globals, req session.Requirement, fn runFunc) func(*cobra.Command, []string) error {
	return withApp(g, func(cmd *cobra.Command, a *app, args []string) error {
		if err := a.require(cmd.Context(), req); err != nil {
			return err
		}
		return fn(cmd, a, args)
	})
}
