package shell

import (
	"context"
	"net/url"
	"strings"

	"github.com/skillportal/skillportal/internal/cli/client"
	"github.com/skillportal/skillportal/internal/session"
)

var roleChoices = []session.Role{session.RoleUser, session.RoleAdmin}

func roleLabels() []string {
	return []string{"User", "Admin"}
}

func (s *Shell) homeScreen(ctx context.Context, _ url.Values) (Redirect, error) {
	s.printf("\nWelcome to Skill Portal\n")
	s.printf("Take quizzes on your skills and track your progress over time.\n")

	if sess := s.store.Session(); sess.Authenticated {
		s.printf("Logged in as %s.\n", sess.User.Email)
	} else {
		s.printf("Log in or register to get started.\n")
	}
	return Redirect{}, nil
}

func (s *Shell) notFoundScreen(ctx context.Context, _ url.Values) (Redirect, error) {
	s.printf("Page not found\n")
	return Redirect{}, nil
}

func (s *Shell) loginScreen(ctx context.Context, _ url.Values) (Redirect, error) {
	s.printf("\nLogin\n")

	email, err := s.prompt.Input("Email", s.lastEmail)
	if err != nil {
		return Redirect{}, err
	}
	password, err := s.prompt.Password("Password")
	if err != nil {
		return Redirect{}, err
	}
	idx, err := s.prompt.Select("Login as", roleLabels())
	if err != nil {
		return Redirect{}, err
	}

	if strings.TrimSpace(email) == "" || password == "" {
		s.printf("Email and password are required\n")
		return Redirect{}, nil
	}

	return s.Login(ctx, roleChoices[idx], email, password)
}

// Login signs in against the role's endpoint, records the user in the store
// and returns the trusted redirect to the role's dashboard.
func (s *Shell) Login(ctx context.Context, role session.Role, email, password string) (Redirect, error) {
	resp, err := s.api.Login(ctx, role, email, password)
	if err != nil {
		s.logger.Debug().Err(err).Str("email", email).Msg("Login failed")
		s.printf("%s\n", client.MessageOr(err, "Login failed"))
		return Redirect{}, nil
	}

	user, err := session.User{Email: email, Role: role}.Overlay(resp.User)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Ignoring malformed user in login response")
		user = session.User{Email: email, Role: role}
	}

	if err := s.store.SetAuthenticated(user); err != nil {
		s.logger.Warn().Err(err).Msg("Login response carried an unusable user")
		s.printf("Login failed\n")
		return Redirect{}, nil
	}
	s.persistCookies()
	s.recordEmail(email)

	s.printf("✓ Login successful!\n")
	return Redirect{Path: DashboardPath(s.store.Session().Role()), Trusted: true}, nil
}

func (s *Shell) recordEmail(email string) {
	s.lastEmail = email
	if s.rememberEmail == nil {
		return
	}
	if err := s.rememberEmail(email); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to remember email")
	}
}

func (s *Shell) registerScreen(ctx context.Context, _ url.Values) (Redirect, error) {
	s.printf("\nRegister\n")

	name, err := s.prompt.Input("Name", "")
	if err != nil {
		return Redirect{}, err
	}
	email, err := s.prompt.Input("Email", "")
	if err != nil {
		return Redirect{}, err
	}
	password, err := s.prompt.Password("Password")
	if err != nil {
		return Redirect{}, err
	}
	idx, err := s.prompt.Select("Register as", roleLabels())
	if err != nil {
		return Redirect{}, err
	}

	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		s.printf("Name, email and password are required\n")
		return Redirect{}, nil
	}

	req := client.RegisterRequest{Name: name, Email: email, Password: password}
	if err := s.api.Register(ctx, roleChoices[idx], req); err != nil {
		s.printf("%s\n", client.MessageOr(err, "Registration failed"))
		return Redirect{}, nil
	}

	s.printf("Registration successful! You can now log in.\n")
	return Redirect{Path: session.LoginPath}, nil
}
