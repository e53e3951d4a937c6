// Package shell is the interactive terminal front-end of the portal: a
// navbar menu, a route table gated by the session guard, and the screens
// behind it.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/skillportal/skillportal/internal/cli/auth"
	"github.com/skillportal/skillportal/internal/cli/client"
	"github.com/skillportal/skillportal/internal/session"
)

// Redirect is where a screen wants to go next. An empty Path returns to the
// navbar menu. Trusted skips the guard probe and admits from the store
// snapshot; only the post-login redirect uses it.
type Redirect struct {
	Path    string
	Trusted bool
}

// Shell wires the session store and guard to the screens
type Shell struct {
	api      *client.Client
	store    *session.Store
	guard    *session.Guard
	prompt   Prompter
	out      io.Writer
	logger   zerolog.Logger
	cookies  auth.CookieStore
	pageSize int
	routes   map[string]route

	lastEmail     string
	rememberEmail func(string) error
}

// Option configures a Shell
type Option func(*Shell)

// WithPrompter replaces the terminal prompter
func WithPrompter(p Prompter) Option {
	return func(s *Shell) {
		s.prompt = p
	}
}

// WithOutput sets where screens print
func WithOutput(w io.Writer) Option {
	return func(s *Shell) {
		s.out = w
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Shell) {
		s.logger = logger
	}
}

// WithCookieStore persists the API cookies after login and drops them on
// logout. Without one, cookies only live as long as the process.
func WithCookieStore(store auth.CookieStore) Option {
	return func(s *Shell) {
		s.cookies = store
	}
}

// WithPageSize sets the page size of admin listings
func WithPageSize(n int) Option {
	return func(s *Shell) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithLastEmail sets the default offered by the login form
func WithLastEmail(email string) Option {
	return func(s *Shell) {
		s.lastEmail = email
	}
}

// WithEmailRecorder is called with the email of every successful login.
func WithEmailRecorder(fn func(string) error) Option {
	return func(s *Shell) {
		s.rememberEmail = fn
	}
}

// New creates a shell. The store and guard must share the resolver that
// talks to api.
func New(api *client.Client, store *session.Store, guard *session.Guard, opts ...Option) *Shell {
	s := &Shell{
		api:      api,
		store:    store,
		guard:    guard,
		prompt:   NewTerminalPrompter(),
		out:      os.Stdout,
		logger:   zerolog.Nop(),
		pageSize: 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes = s.routeTable()
	return s
}

// Run resolves the session once, then loops between the navbar menu and the
// screens until the user quits. start, when set, is the first navigation.
func (s *Shell) Run(ctx context.Context, start string) error {
	unsubscribe := s.store.Subscribe(s.renderNavbar)
	defer unsubscribe()

	fmt.Fprintln(s.out, "Loading...")
	s.store.Refresh(ctx)

	next := Redirect{Path: start}
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		if next.Path == "" {
			var err error
			next, err = s.menu(ctx)
			if errors.Is(err, ErrQuit) {
				return nil
			}
			if err != nil {
				return err
			}
			continue
		}

		var err error
		if next.Trusted {
			next, err = s.NavigateTrusted(ctx, next.Path)
		} else {
			next, err = s.Navigate(ctx, next.Path)
		}
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(s.out, "Error: %v\n", err)
			next = Redirect{}
		}
	}
}

// Navigate goes to target ("/path?query"). Protected routes are admitted by
// a fresh guard probe; a denied navigation lands on the login screen.
func (s *Shell) Navigate(ctx context.Context, target string) (Redirect, error) {
	rt, query := s.match(target)
	if rt.protected {
		decision, err := s.evaluate(ctx, rt.requirement)
		if err != nil {
			return Redirect{}, err
		}
		if decision != session.Allowed {
			s.logger.Debug().Str("path", rt.path).Str("requirement", rt.requirement.String()).Msg("Navigation denied")
			return Redirect{Path: session.LoginPath}, nil
		}
	}
	return rt.screen(ctx, query)
}

// NavigateTrusted goes to target admitting from the store snapshot without
// probing the server. It exists for the redirect right after a login the
// server has just confirmed.
func (s *Shell) NavigateTrusted(ctx context.Context, target string) (Redirect, error) {
	rt, query := s.match(target)
	if rt.protected && s.guard.Admit(rt.requirement, s.store.Session()) != session.Allowed {
		return Redirect{Path: session.LoginPath}, nil
	}
	return rt.screen(ctx, query)
}

func (s *Shell) evaluate(ctx context.Context, req session.Requirement) (session.Decision, error) {
	ev := s.guard.Evaluate(ctx, req)
	defer ev.Dispose()

	if ev.Decision() == session.Pending {
		fmt.Fprintln(s.out, "Loading...")
	}

	decision := ev.Wait(ctx)
	if decision == session.Pending {
		return decision, fmt.Errorf("navigation cancelled: %w", ctx.Err())
	}
	return decision, nil
}

func (s *Shell) match(target string) (route, url.Values) {
	u, err := url.Parse(target)
	if err != nil {
		return s.notFound(), url.Values{}
	}

	path := u.Path
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}
	rt, ok := s.routes[path]
	if !ok {
		return s.notFound(), u.Query()
	}
	return rt, u.Query()
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) persistCookies() {
	if s.cookies == nil {
		return
	}
	if err := s.cookies.SaveCookies(s.api.BaseURL(), s.api.Cookies()); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist session cookies")
	}
}

func (s *Shell) forgetCookies() {
	s.api.ClearCookies()
	if s.cookies == nil {
		return
	}
	if err := s.cookies.DeleteCookies(s.api.BaseURL()); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to delete session cookies")
	}
}
