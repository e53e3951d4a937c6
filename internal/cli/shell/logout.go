package shell

import (
	"context"

	"github.com/skillportal/skillportal/internal/session"
)

// Logout asks for confirmation, tells the server (best effort), and then
// clears the local session no matter what the server said.
func (s *Shell) Logout(ctx context.Context) (Redirect, error) {
	ok, err := s.prompt.Confirm("Are you sure you want to logout")
	if err != nil {
		return Redirect{}, err
	}
	if !ok {
		return Redirect{}, nil
	}

	if err := s.api.Logout(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("Logout request failed")
	}

	s.store.Clear()
	s.forgetCookies()
	s.printf("Logged out.\n")

	return Redirect{Path: session.LoginPath}, nil
}
