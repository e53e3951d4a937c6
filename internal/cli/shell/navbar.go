package shell

import (
	"context"
	"strings"

	"github.com/skillportal/skillportal/internal/session"
)

// NavItem is one navbar entry. Entries without a Path are actions.
type NavItem struct {
	Label string
	Path  string
}

const logoutLabel = "Logout"

// NavItems lists the navbar entries the session is offered
func NavItems(s session.Session) []NavItem {
	items := []NavItem{{Label: "Home", Path: HomePath}}
	if !s.Authenticated {
		return append(items,
			NavItem{Label: "Login", Path: session.LoginPath},
			NavItem{Label: "Register", Path: RegisterPath},
		)
	}

	switch s.Role() {
	case session.RoleUser:
		items = append(items, NavItem{Label: "User Dashboard", Path: UserDashboardPath})
	case session.RoleAdmin:
		items = append(items, NavItem{Label: "Admin Dashboard", Path: AdminDashboardPath})
	}
	return append(items, NavItem{Label: logoutLabel})
}

func (s *Shell) renderNavbar(sess session.Session) {
	items := NavItems(sess)
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}

	who := "not logged in"
	if sess.Authenticated {
		who = sess.User.Email + " (" + sess.Role().String() + ")"
	}
	s.printf("\n[ Skill Portal ]  %s | %s\n", strings.Join(labels, " | "), who)
}

func (s *Shell) menu(ctx context.Context) (Redirect, error) {
	items := NavItems(s.store.Session())
	labels := make([]string, 0, len(items)+1)
	for _, item := range items {
		labels = append(labels, item.Label)
	}
	labels = append(labels, "Quit")

	idx, err := s.prompt.Select("Skill Portal", labels)
	if err != nil {
		return Redirect{}, err
	}
	if idx == len(items) {
		return Redirect{}, ErrQuit
	}

	item := items[idx]
	if item.Label == logoutLabel {
		return s.Logout(ctx)
	}
	return Redirect{Path: item.Path}, nil
}
